package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quotes/internal/models"

	"github.com/google/uuid"
)

const offerColumns = `id, request_id, supplier_id, notification_id, price, delivery_days, condition, notes, status, expires_at, created_at, updated_at`

func scanOffer(scan func(dest ...any) error) (models.QuoteOffer, error) {
	var o models.QuoteOffer
	err := scan(&o.Id, &o.RequestId, &o.SupplierId, &o.NotificationId, &o.Price, &o.DeliveryDays, &o.Condition, &o.Notes, &o.Status, &o.ExpiresAt, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func getOffer(ctx context.Context, q queryRower, id, lock string) (models.QuoteOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM quote_offers WHERE id = $1 ` + lockClause(lock)

	o, err := scanOffer(q.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return o, models.ErrNoOffer
	}
	return o, err
}

func (repo *Repository) GetOffer(ctx context.Context, id string) (models.QuoteOffer, error) {
	o, err := getOffer(ctx, repo.db, id, "")
	if err != nil {
		return o, fmt.Errorf("repository.Repository.GetOffer: %w", storageErr(ctx, err))
	}
	return o, nil
}

// SubmitOffer checks the notification and its request and records the offer
// in one transaction. The request row is share-locked and the notification
// row locked for update before any check, so neither the expiry sweep nor an
// acceptance can change them between the checks and the writes.
func (repo *Repository) SubmitOffer(ctx context.Context, supplierId, notificationId string, offer models.NewOffer, now time.Time) (models.QuoteOffer, models.QuoteRequest, error) {
	var result models.QuoteOffer
	var request models.QuoteRequest

	err := repo.withTx(ctx, func(tx *sql.Tx) error {
		var requestId, owner string
		err := tx.QueryRowContext(ctx, "SELECT request_id, supplier_id FROM supplier_notifications WHERE id = $1", notificationId).Scan(&requestId, &owner)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNoNotification
		} else if err != nil {
			return err
		}
		if owner != supplierId {
			return fmt.Errorf("%w: notification %s belongs to another supplier", models.ErrForbidden, notificationId)
		}

		// lock order is request, then notification; acceptance takes the same order
		request, err = getRequest(ctx, tx, requestId, "FOR SHARE")
		if err != nil {
			return err
		}
		notification, err := getNotification(ctx, tx, notificationId, "FOR UPDATE")
		if err != nil {
			return err
		}

		switch {
		case notification.Status == models.NotificationQuoted:
			return models.ErrOfferExists
		case notification.Status != models.NotificationPending:
			return models.ErrNotificationInactive
		case !now.Before(notification.ExpiresAt):
			return models.ErrNotificationExpired
		case !request.OpenAt(now):
			return models.ErrRequestUnavailable
		}

		var exists bool
		err = tx.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM quote_offers WHERE supplier_id = $1 AND request_id = $2)", supplierId, requestId).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return models.ErrOfferExists
		}

		query := `
		INSERT INTO quote_offers (id, request_id, supplier_id, notification_id, price, delivery_days, condition, notes, status, expires_at, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9, $10, $10)
		RETURNING ` + offerColumns

		row := tx.QueryRowContext(ctx, query, uuid.NewString(), requestId, supplierId, notificationId, offer.Price, offer.DeliveryDays, offer.Condition, offer.Notes, request.ExpiresAt, now)
		result, err = scanOffer(row.Scan)
		if isUniqueViolation(err) {
			return models.ErrOfferExists
		} else if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
		UPDATE supplier_notifications
		SET (status, quoted_at, updated_at) = ('quoted', $2, $2)
		WHERE id = $1 AND status = 'pending'
		`, notificationId, now)
		return err
	})
	if err != nil {
		return result, request, fmt.Errorf("repository.Repository.SubmitOffer: %w", storageErr(ctx, err))
	}

	return result, request, nil
}

// RequestOffers lists the offers made on a request, cheapest first.
func (repo *Repository) RequestOffers(ctx context.Context, requestId string) ([]models.OfferView, error) {
	query := `
	SELECT
		o.id, o.request_id, o.supplier_id, o.notification_id, o.price, o.delivery_days, o.condition, o.notes, o.status, o.expires_at, o.created_at, o.updated_at,
		s.name
	FROM quote_offers o
		JOIN suppliers s ON s.id = o.supplier_id
	WHERE o.request_id = $1
	ORDER BY o.price, o.created_at
	`

	rows, err := repo.db.QueryContext(ctx, query, requestId)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.RequestOffers: %w", storageErr(ctx, err))
	}
	defer rows.Close()

	var result []models.OfferView
	for rows.Next() {
		var name string
		o, err := scanOffer(func(dest ...any) error {
			return rows.Scan(append(dest, &name)...)
		})
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.RequestOffers: rows scan error: %w", err)
		}
		result = append(result, o.View(name))
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.RequestOffers: %w", storageErr(ctx, rows.Err()))
	}

	return result, nil
}
