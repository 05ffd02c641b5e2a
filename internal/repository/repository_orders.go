package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quotes/internal/models"
)

const orderColumns = `id, request_id, offer_id, supplier_id, user_id, status, created_at, updated_at`

func scanOrder(scan func(dest ...any) error) (models.Order, error) {
	var o models.Order
	err := scan(&o.Id, &o.RequestId, &o.OfferId, &o.SupplierId, &o.UserId, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func insertOrder(ctx context.Context, q queryRower, o models.Order) (models.Order, error) {
	query := `
	INSERT INTO orders (` + orderColumns + `)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $7)
	RETURNING ` + orderColumns

	return scanOrder(q.QueryRowContext(ctx, query, o.Id, o.RequestId, o.OfferId, o.SupplierId, o.UserId, o.Status, o.CreatedAt).Scan)
}

func (repo *Repository) RequestOrder(ctx context.Context, requestId string) (models.Order, bool, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE request_id = $1`

	o, err := scanOrder(repo.db.QueryRowContext(ctx, query, requestId).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return o, false, nil
	} else if err != nil {
		return o, false, fmt.Errorf("repository.Repository.RequestOrder: %w", storageErr(ctx, err))
	}
	return o, true, nil
}

// SetOrderStatus moves an order along its post-acceptance lifecycle.
func (repo *Repository) SetOrderStatus(ctx context.Context, orderId string, status models.OrderStatus, now time.Time) error {
	res, err := repo.db.ExecContext(ctx, "UPDATE orders SET (status, updated_at) = ($2, $3) WHERE id = $1", orderId, status, now)
	if err != nil {
		return fmt.Errorf("repository.Repository.SetOrderStatus: %w", storageErr(ctx, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("repository.Repository.SetOrderStatus: %w: order %s", models.ErrNotFound, orderId)
	}
	return nil
}

func (repo *Repository) AddReview(ctx context.Context, orderId string, rating int, comment string, now time.Time) error {
	query := `
	INSERT INTO reviews (order_id, supplier_id, user_id, rating, comment, created_at)
	SELECT id, supplier_id, user_id, $2, $3, $4
	FROM orders
	WHERE id = $1
	`

	res, err := repo.db.ExecContext(ctx, query, orderId, rating, comment, now)
	if isUniqueViolation(err) {
		return fmt.Errorf("repository.Repository.AddReview: %w: order %s already reviewed", models.ErrConflict, orderId)
	} else if err != nil {
		return fmt.Errorf("repository.Repository.AddReview: %w", storageErr(ctx, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("repository.Repository.AddReview: %w: order %s", models.ErrNotFound, orderId)
	}
	return nil
}
