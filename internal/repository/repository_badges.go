package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"quotes/internal/models"
)

// SupplierStats aggregates response latency, completed orders and reviews
// for every supplier.
func (repo *Repository) SupplierStats(ctx context.Context) ([]models.SupplierStats, error) {
	query := `
	SELECT
		s.id,
		COALESCE(q.quoted, 0),
		COALESCE(q.avg_seconds, 0),
		COALESCE(o.completed, 0),
		COALESCE(r.reviews, 0),
		COALESCE(r.avg_rating, 0)
	FROM suppliers s
		LEFT JOIN (
			SELECT supplier_id, COUNT(*) AS quoted, AVG(EXTRACT(EPOCH FROM quoted_at - created_at))::float8 AS avg_seconds
			FROM supplier_notifications
			WHERE quoted_at IS NOT NULL
			GROUP BY supplier_id
		) q ON q.supplier_id = s.id
		LEFT JOIN (
			SELECT supplier_id, COUNT(*) AS completed
			FROM orders
			WHERE status = 'completed'
			GROUP BY supplier_id
		) o ON o.supplier_id = s.id
		LEFT JOIN (
			SELECT supplier_id, COUNT(*) AS reviews, AVG(rating)::float8 AS avg_rating
			FROM reviews
			GROUP BY supplier_id
		) r ON r.supplier_id = s.id
	ORDER BY s.id
	`

	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.SupplierStats: %w", storageErr(ctx, err))
	}
	defer rows.Close()

	var result []models.SupplierStats
	for rows.Next() {
		var st models.SupplierStats
		var seconds float64
		err = rows.Scan(&st.SupplierId, &st.QuotedCount, &seconds, &st.CompletedOrders, &st.ReviewCount, &st.AvgRating)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.SupplierStats: rows scan error: %w", err)
		}
		st.AvgResponse = time.Duration(seconds * float64(time.Second))
		result = append(result, st)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.SupplierStats: %w", storageErr(ctx, rows.Err()))
	}

	return result, nil
}

// ReplaceBadges makes the stored badges equal to earned, for every supplier
// present in earned. Badges already held keep their award time.
func (repo *Repository) ReplaceBadges(ctx context.Context, earned map[string][]models.Badge, now time.Time) (models.BadgeChanges, error) {
	var changes models.BadgeChanges

	err := repo.withTx(ctx, func(tx *sql.Tx) error {
		changes = models.BadgeChanges{}

		rows, err := tx.QueryContext(ctx, "SELECT supplier_id, badge FROM supplier_badges")
		if err != nil {
			return err
		}
		held := make(map[string]map[models.Badge]bool)
		for rows.Next() {
			var supplierId string
			var badge models.Badge
			if err = rows.Scan(&supplierId, &badge); err != nil {
				rows.Close()
				return err
			}
			if held[supplierId] == nil {
				held[supplierId] = make(map[models.Badge]bool)
			}
			held[supplierId][badge] = true
		}
		rows.Close()
		if err = rows.Err(); err != nil {
			return err
		}

		for supplierId, badges := range earned {
			want := make(map[models.Badge]bool, len(badges))
			for _, b := range badges {
				want[b] = true
				if held[supplierId][b] {
					continue
				}
				res, err := tx.ExecContext(ctx, "INSERT INTO supplier_badges (supplier_id, badge, awarded_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING", supplierId, b, now)
				if err != nil {
					return err
				}
				// a concurrent run may have awarded it already
				n, err := res.RowsAffected()
				if err != nil {
					return err
				}
				changes.Awarded += n
			}

			for b := range held[supplierId] {
				if want[b] {
					continue
				}
				res, err := tx.ExecContext(ctx, "DELETE FROM supplier_badges WHERE supplier_id = $1 AND badge = $2", supplierId, b)
				if err != nil {
					return err
				}
				n, err := res.RowsAffected()
				if err != nil {
					return err
				}
				changes.Revoked += n
			}
		}
		return nil
	})
	if err != nil {
		return models.BadgeChanges{}, fmt.Errorf("repository.Repository.ReplaceBadges: %w", storageErr(ctx, err))
	}

	return changes, nil
}

func (repo *Repository) SupplierBadges(ctx context.Context, supplierId string) ([]models.Badge, error) {
	rows, err := repo.db.QueryContext(ctx, "SELECT badge FROM supplier_badges WHERE supplier_id = $1 ORDER BY badge", supplierId)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.SupplierBadges: %w", storageErr(ctx, err))
	}
	defer rows.Close()

	var result []models.Badge
	for rows.Next() {
		var b models.Badge
		if err = rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("repository.Repository.SupplierBadges: rows scan error: %w", err)
		}
		result = append(result, b)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.SupplierBadges: %w", storageErr(ctx, rows.Err()))
	}
	return result, nil
}

func (repo *Repository) AddPromotion(ctx context.Context, supplierId string, startsAt, endsAt time.Time) error {
	_, err := repo.db.ExecContext(ctx, "INSERT INTO supplier_promotions (supplier_id, starts_at, ends_at) VALUES ($1, $2, $3)", supplierId, startsAt, endsAt)
	if err != nil {
		return fmt.Errorf("repository.Repository.AddPromotion: %w", storageErr(ctx, err))
	}
	return nil
}

// RefreshPromotions sets suppliers.promoted to whether a promotion window is
// open at now, touching only suppliers whose flag changes.
func (repo *Repository) RefreshPromotions(ctx context.Context, now time.Time) (models.PromotionChanges, error) {
	query := `
	UPDATE suppliers s
	SET (promoted, updated_at) = (p.active, $1)
	FROM (
		SELECT
			sp.id,
			EXISTS (
				SELECT 1 FROM supplier_promotions pr
				WHERE pr.supplier_id = sp.id AND pr.starts_at <= $1 AND pr.ends_at > $1
			) AS active
		FROM suppliers sp
	) p
	WHERE s.id = p.id AND s.promoted <> p.active
	RETURNING s.promoted
	`

	var changes models.PromotionChanges

	rows, err := repo.db.QueryContext(ctx, query, now)
	if err != nil {
		return changes, fmt.Errorf("repository.Repository.RefreshPromotions: %w", storageErr(ctx, err))
	}
	defer rows.Close()

	for rows.Next() {
		var promoted bool
		if err = rows.Scan(&promoted); err != nil {
			return changes, fmt.Errorf("repository.Repository.RefreshPromotions: rows scan error: %w", err)
		}
		if promoted {
			changes.Promoted++
		} else {
			changes.Demoted++
		}
	}

	if rows.Err() != nil {
		return changes, fmt.Errorf("repository.Repository.RefreshPromotions: %w", storageErr(ctx, rows.Err()))
	}
	return changes, nil
}
