package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"quotes/internal/config"
	"quotes/internal/models"

	postgres "quotes/internal/repository/db"

	"github.com/lib/pq"
)

type Repository struct {
	db  *sql.DB
	cfg *config.PostgresConfig
}

func NewRepository(db *sql.DB, cfg *config.PostgresConfig) (*Repository, error) {
	var err error

	repo := &Repository{
		db:  db,
		cfg: cfg,
	}

	if repo.cfg == nil {
		repo.cfg, err = config.NewPostgresConfig()
		if err != nil {
			return nil, fmt.Errorf("repository.NewRepository: could not load postgres config: %w", err)
		}
	}

	if repo.db == nil {
		repo.db, err = postgres.NewPostgresDB(repo.cfg)
		if err != nil {
			return nil, fmt.Errorf("repository.NewRepository: could not open postgres db: %w", err)
		}
	}

	if repo.cfg.AutoMigrateUp == "true" {
		err = repo.MigrateUp()
		if err != nil {
			return nil, err
		}
	}

	return repo, nil
}

func (repo *Repository) MigrateUp() error {
	err := postgres.MigrateUp(repo.db, repo.cfg.MigrationsURL)
	if err != nil {
		return fmt.Errorf("repository.Repository.MigrateUp: %w", err)
	}
	return nil
}

func (repo *Repository) MigrateDown() error {
	err := postgres.MigrateDown(repo.db, repo.cfg.MigrationsURL)
	if err != nil {
		return fmt.Errorf("repository.Repository.MigrateDown: %w", err)
	}
	return nil
}

func (repo *Repository) Ping(ctx context.Context) error {
	err := repo.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("repository.Repository.Ping: %w", storageErr(ctx, err))
	}
	return nil
}

func (repo *Repository) Close() error {
	var migErr error
	if repo.cfg.AutoMigrateDown == "true" {
		migErr = repo.MigrateDown()
	}

	err := repo.db.Close()
	return errors.Join(migErr, err)
}

//// Service

// withTx runs fn in a transaction and commits it. The whole transaction is
// retried when postgres aborts it with a serialization failure or deadlock;
// every other error rolls it back and is returned as is.
func (repo *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return WithRetries(ctx, func() error {
		tx, err := repo.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		err = fn(tx)
		if err != nil {
			return wrapRollbackErr(tx, err)
		}

		err = tx.Commit()
		if err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}, DefaultMaxRetries, IsTxConflict)
}

func wrapRollbackErr(tx *sql.Tx, err error) error {
	rollerr := tx.Rollback()
	if rollerr == nil {
		return err
	}
	return fmt.Errorf("failed to rollback transaction after previous error: %w, %w", rollerr, err)
}

// storageErr attaches an error kind to infrastructure failures. Errors that
// already carry a kind are returned unchanged.
func storageErr(ctx context.Context, err error) error {
	if err == nil || hasKind(err) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", models.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", models.ErrUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", models.ErrUnavailable, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 08: connection exception, 53: insufficient resources, 57: operator intervention
		class := string(pqErr.Code.Class())
		if class == "08" || class == "53" || class == "57" || IsTxConflict(err) {
			return fmt.Errorf("%w: %w", models.ErrUnavailable, err)
		}
	}

	return err
}

func hasKind(err error) bool {
	for _, kind := range []error{models.ErrValidation, models.ErrNotFound, models.ErrForbidden, models.ErrConflict, models.ErrUnavailable, models.ErrTimeout} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// lockClause validates the row lock appended to single-row selects.
func lockClause(lock string) string {
	switch strings.ToUpper(lock) {
	case "FOR UPDATE", "FOR SHARE":
		return strings.ToUpper(lock)
	default:
		return ""
	}
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func scanLocation(lat, lon sql.NullFloat64) *models.Location {
	if !lat.Valid || !lon.Valid {
		return nil
	}
	return &models.Location{Latitude: lat.Float64, Longitude: lon.Float64}
}

func locationArgs(loc *models.Location) (lat, lon interface{}) {
	if loc == nil {
		return nil, nil
	}
	return loc.Latitude, loc.Longitude
}

//// Test utils

func (repo *Repository) TestGetDB() *sql.DB {
	return repo.db
}
