package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"quotes/internal/models"

	"github.com/lib/pq"
)

const notificationColumns = `id, supplier_id, request_id, status, expires_at, distance_miles, matching_details, quoted_at, created_at, updated_at`

// notificationRow holds the raw columns of a notification so it can be
// scanned as part of a wider row.
type notificationRow struct {
	n        models.SupplierNotification
	distance sql.NullFloat64
	details  []byte
	quotedAt sql.NullTime
}

func (r *notificationRow) dest() []any {
	return []any{&r.n.Id, &r.n.SupplierId, &r.n.RequestId, &r.n.Status, &r.n.ExpiresAt, &r.distance, &r.details, &r.quotedAt, &r.n.CreatedAt, &r.n.UpdatedAt}
}

func (r *notificationRow) result() (models.SupplierNotification, error) {
	n := r.n
	n.DistanceMiles = nullFloat(r.distance)
	if r.quotedAt.Valid {
		t := r.quotedAt.Time
		n.QuotedAt = &t
	}
	if len(r.details) > 0 {
		err := json.Unmarshal(r.details, &n.MatchingDetails)
		if err != nil {
			return n, fmt.Errorf("could not decode matching details of notification %s: %w", n.Id, err)
		}
	}
	return n, nil
}

func scanNotification(scan func(dest ...any) error) (models.SupplierNotification, error) {
	var row notificationRow
	if err := scan(row.dest()...); err != nil {
		return row.n, err
	}
	return row.result()
}

func scanNotifications(rows *sql.Rows) ([]models.SupplierNotification, error) {
	defer rows.Close()

	var result []models.SupplierNotification
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("rows scan error: %w", err)
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// notificationBatch bounds the rows of one INSERT; postgres takes at most
// 65535 parameters per statement.
var notificationBatch = 1000

// AddNotifications bulk inserts notifications and returns the rows actually
// created. Pairs (supplier, request) that already exist are skipped, so
// distributing the same request twice creates nothing the second time.
// Large fan-outs are written in batches within one transaction.
func (repo *Repository) AddNotifications(ctx context.Context, notifications []models.SupplierNotification) ([]models.SupplierNotification, error) {
	if len(notifications) == 0 {
		return nil, nil
	}

	var created []models.SupplierNotification
	err := repo.withTx(ctx, func(tx *sql.Tx) error {
		created = nil
		for start := 0; start < len(notifications); start += notificationBatch {
			end := min(start+notificationBatch, len(notifications))
			batch, err := insertNotifications(ctx, tx, notifications[start:end])
			if err != nil {
				return err
			}
			created = append(created, batch...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.AddNotifications: %w", storageErr(ctx, err))
	}
	return created, nil
}

func insertNotifications(ctx context.Context, tx *sql.Tx, notifications []models.SupplierNotification) ([]models.SupplierNotification, error) {
	const width = 9
	values := make([]string, 0, len(notifications))
	params := make([]interface{}, 0, len(notifications)*width)

	for i, n := range notifications {
		details, err := json.Marshal(n.MatchingDetails)
		if err != nil {
			return nil, err
		}

		var distance interface{}
		if n.DistanceMiles != nil {
			distance = *n.DistanceMiles
		}

		placeholders := make([]string, width)
		for j := range placeholders {
			placeholders[j] = "$" + strconv.Itoa(i*width+j+1)
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")
		params = append(params, n.Id, n.SupplierId, n.RequestId, n.Status, n.ExpiresAt, distance, details, n.CreatedAt, n.CreatedAt)
	}

	query := `
	INSERT INTO supplier_notifications (id, supplier_id, request_id, status, expires_at, distance_miles, matching_details, created_at, updated_at)
	VALUES
		` + strings.Join(values, ",\n\t\t") + `
	ON CONFLICT (supplier_id, request_id) DO NOTHING
	RETURNING ` + notificationColumns

	rows, err := tx.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	return scanNotifications(rows)
}

func (repo *Repository) GetNotification(ctx context.Context, id string) (models.SupplierNotification, error) {
	n, err := getNotification(ctx, repo.db, id, "")
	if err != nil {
		return n, fmt.Errorf("repository.Repository.GetNotification: %w", storageErr(ctx, err))
	}
	return n, nil
}

func getNotification(ctx context.Context, q queryRower, id, lock string) (models.SupplierNotification, error) {
	query := `SELECT ` + notificationColumns + ` FROM supplier_notifications WHERE id = $1 ` + lockClause(lock)

	n, err := scanNotification(q.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return n, models.ErrNoNotification
	}
	return n, err
}

func (repo *Repository) RequestNotifications(ctx context.Context, requestId string) ([]models.SupplierNotification, error) {
	query := `
	SELECT ` + notificationColumns + `
	FROM supplier_notifications
	WHERE request_id = $1
	ORDER BY distance_miles NULLS LAST, supplier_id
	`

	rows, err := repo.db.QueryContext(ctx, query, requestId)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.RequestNotifications: %w", storageErr(ctx, err))
	}

	result, err := scanNotifications(rows)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.RequestNotifications: %w", storageErr(ctx, err))
	}
	return result, nil
}

// SupplierNotifications is the supplier inbox: notifications with their
// requests, newest first, optionally filtered by status.
func (repo *Repository) SupplierNotifications(ctx context.Context, supplierId string, statuses []models.NotificationStatus, limit, offset int) ([]models.NotificationWithRequest, error) {
	query := `
	SELECT
		n.id, n.supplier_id, n.request_id, n.status, n.expires_at, n.distance_miles, n.matching_details, n.quoted_at, n.created_at, n.updated_at,
		r.id, r.user_id, r.vehicle_make, r.vehicle_model, r.vehicle_year, r.part_name, r.part_category, r.description, r.postcode, r.latitude, r.longitude, r.request_type, r.status, r.expires_at, r.created_at, r.updated_at
	FROM supplier_notifications n
		JOIN quote_requests r ON r.id = n.request_id
	WHERE n.supplier_id = $1 AND (cardinality($2::text[]) = 0 OR n.status = ANY($2::text[]))
	ORDER BY n.created_at DESC
	LIMIT $3
	OFFSET $4
	`

	filter := make([]string, 0, len(statuses))
	for _, s := range statuses {
		filter = append(filter, string(s))
	}
	var lim interface{}
	if limit > 0 {
		lim = limit
	}

	rows, err := repo.db.QueryContext(ctx, query, supplierId, pq.Array(filter), lim, offset)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.SupplierNotifications: %w", storageErr(ctx, err))
	}
	defer rows.Close()

	var result []models.NotificationWithRequest
	for rows.Next() {
		var item models.NotificationWithRequest
		var nrow notificationRow
		var rrow requestRow

		err = rows.Scan(append(nrow.dest(), rrow.dest()...)...)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.SupplierNotifications: rows scan error: %w", err)
		}
		item.SupplierNotification, err = nrow.result()
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.SupplierNotifications: %w", err)
		}
		item.Request = rrow.result()
		result = append(result, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.SupplierNotifications: %w", storageErr(ctx, rows.Err()))
	}

	return result, nil
}
