package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quotes/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const supplierColumns = `id, name, status, active, suspended, latitude, longitude, categories, promoted, created_at, updated_at`

func scanSupplier(scan func(dest ...any) error) (models.Supplier, error) {
	var s models.Supplier
	var lat, lon sql.NullFloat64
	err := scan(&s.Id, &s.Name, &s.Status, &s.Active, &s.Suspended, &lat, &lon, pq.Array(&s.Categories), &s.Promoted, &s.CreatedAt, &s.UpdatedAt)
	s.Location = scanLocation(lat, lon)
	return s, err
}

func (repo *Repository) AddSupplier(ctx context.Context, s models.Supplier, now time.Time) (models.Supplier, error) {
	query := `
	INSERT INTO suppliers (id, name, status, active, suspended, latitude, longitude, categories, promoted, created_at, updated_at)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	RETURNING ` + supplierColumns

	if s.Id == "" {
		s.Id = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = models.SupplierPending
	}
	if s.Categories == nil {
		s.Categories = []string{}
	}
	lat, lon := locationArgs(s.Location)

	row := repo.db.QueryRowContext(ctx, query, s.Id, s.Name, s.Status, s.Active, s.Suspended, lat, lon, pq.Array(s.Categories), s.Promoted, now)
	s, err := scanSupplier(row.Scan)
	if err != nil {
		return s, fmt.Errorf("repository.Repository.AddSupplier: %w", storageErr(ctx, err))
	}
	return s, nil
}

func (repo *Repository) GetSupplier(ctx context.Context, id string) (models.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE id = $1`

	s, err := scanSupplier(repo.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return s, fmt.Errorf("repository.Repository.GetSupplier: %w: supplier %s", models.ErrNotFound, id)
	} else if err != nil {
		return s, fmt.Errorf("repository.Repository.GetSupplier: %w", storageErr(ctx, err))
	}
	return s, nil
}

// ActiveSuppliers is the supplier directory query: approved, active and not
// suspended suppliers, with or without coordinates.
func (repo *Repository) ActiveSuppliers(ctx context.Context) ([]models.Supplier, error) {
	query := `
	SELECT ` + supplierColumns + `
	FROM suppliers
	WHERE status = 'approved' AND active AND NOT suspended
	ORDER BY id
	`

	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.ActiveSuppliers: %w", storageErr(ctx, err))
	}
	defer rows.Close()

	var result []models.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.ActiveSuppliers: rows scan error: %w", err)
		}
		result = append(result, s)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.ActiveSuppliers: %w", storageErr(ctx, rows.Err()))
	}

	return result, nil
}
