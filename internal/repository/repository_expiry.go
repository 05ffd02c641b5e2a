package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quotes/internal/models"
)

// ExpireOverdue moves every pending request, offer and notification whose
// deadline is at or before now to 'expired'. Each statement is an independent
// conditional update; rows that already left 'pending' are not touched, so
// running it again (or concurrently with an acceptance) changes nothing twice.
func (repo *Repository) ExpireOverdue(ctx context.Context, now time.Time) (models.SweepResult, error) {
	var result models.SweepResult
	var errs []error

	statements := []struct {
		table string
		count *int64
	}{
		{"quote_requests", &result.Requests},
		{"quote_offers", &result.Offers},
		{"supplier_notifications", &result.Notifications},
	}

	for _, st := range statements {
		query := `UPDATE ` + st.table + ` SET (status, updated_at) = ('expired', $1) WHERE status = 'pending' AND expires_at <= $1`

		res, err := repo.db.ExecContext(ctx, query, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", st.table, storageErr(ctx, err)))
			continue
		}
		*st.count, err = res.RowsAffected()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", st.table, err))
		}
	}

	if len(errs) > 0 {
		return result, fmt.Errorf("repository.Repository.ExpireOverdue: %w", errors.Join(errs...))
	}
	return result, nil
}
