package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quotes/internal/models"
)

const requestColumns = `id, user_id, vehicle_make, vehicle_model, vehicle_year, part_name, part_category, description, postcode, latitude, longitude, request_type, status, expires_at, created_at, updated_at`

type requestRow struct {
	r    models.QuoteRequest
	year sql.NullInt64
	lat  sql.NullFloat64
	lon  sql.NullFloat64
}

func (row *requestRow) dest() []any {
	r := &row.r
	return []any{&r.Id, &r.UserId, &r.VehicleMake, &r.VehicleModel, &row.year, &r.PartName, &r.PartCategory, &r.Description, &r.Postcode, &row.lat, &row.lon, &r.RequestType, &r.Status, &r.ExpiresAt, &r.CreatedAt, &r.UpdatedAt}
}

func (row *requestRow) result() models.QuoteRequest {
	r := row.r
	r.VehicleYear = int(row.year.Int64)
	r.Location = scanLocation(row.lat, row.lon)
	return r
}

func scanRequest(scan func(dest ...any) error) (models.QuoteRequest, error) {
	var row requestRow
	err := scan(row.dest()...)
	return row.result(), err
}

// AddRequest inserts a request as given; id, status and timestamps are set by the caller.
func (repo *Repository) AddRequest(ctx context.Context, r models.QuoteRequest) (models.QuoteRequest, error) {
	query := `
	INSERT INTO quote_requests (` + requestColumns + `)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
	RETURNING ` + requestColumns

	var year interface{}
	if r.VehicleYear > 0 {
		year = r.VehicleYear
	}
	lat, lon := locationArgs(r.Location)

	row := repo.db.QueryRowContext(ctx, query, r.Id, r.UserId, r.VehicleMake, r.VehicleModel, year, r.PartName, r.PartCategory, r.Description, r.Postcode, lat, lon, r.RequestType, r.Status, r.ExpiresAt, r.CreatedAt)
	saved, err := scanRequest(row.Scan)
	if err != nil {
		return r, fmt.Errorf("repository.Repository.AddRequest: %w", storageErr(ctx, err))
	}
	return saved, nil
}

func (repo *Repository) GetRequest(ctx context.Context, id string) (models.QuoteRequest, error) {
	r, err := getRequest(ctx, repo.db, id, "")
	if err != nil {
		return r, fmt.Errorf("repository.Repository.GetRequest: %w", storageErr(ctx, err))
	}
	return r, nil
}

func getRequest(ctx context.Context, q queryRower, id, lock string) (models.QuoteRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM quote_requests WHERE id = $1 ` + lockClause(lock)

	r, err := scanRequest(q.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return r, models.ErrNoRequest
	}
	return r, err
}

// UserRequests lists a buyer's requests, newest first.
func (repo *Repository) UserRequests(ctx context.Context, userId string, limit, offset int) ([]models.QuoteRequest, error) {
	query := `
	SELECT ` + requestColumns + `
	FROM quote_requests
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	OFFSET $3
	`

	var lim interface{}
	if limit > 0 {
		lim = limit
	}

	rows, err := repo.db.QueryContext(ctx, query, userId, lim, offset)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.UserRequests: %w", storageErr(ctx, err))
	}
	defer rows.Close()

	var result []models.QuoteRequest
	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.UserRequests: rows scan error: %w", err)
		}
		result = append(result, r)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.UserRequests: %w", storageErr(ctx, rows.Err()))
	}

	return result, nil
}
