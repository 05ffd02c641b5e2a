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

// AcceptOffer makes offerId the winner of its request and creates the order.
// The request row is locked first; its conditional transition out of
// 'pending' is the point where concurrent acceptances (and the sweep)
// serialize, and the loser sees a conflict. Nothing is visible unless every
// step succeeds.
func (repo *Repository) AcceptOffer(ctx context.Context, buyerId, offerId string, now time.Time) (models.Acceptance, error) {
	var acc models.Acceptance

	err := repo.withTx(ctx, func(tx *sql.Tx) error {
		acc = models.Acceptance{}

		var requestId string
		err := tx.QueryRowContext(ctx, "SELECT request_id FROM quote_offers WHERE id = $1", offerId).Scan(&requestId)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNoOffer
		} else if err != nil {
			return err
		}

		request, err := getRequest(ctx, tx, requestId, "FOR UPDATE")
		if err != nil {
			return err
		}
		if request.UserId != buyerId {
			return fmt.Errorf("%w: request %s belongs to another user", models.ErrForbidden, requestId)
		}

		offer, err := getOffer(ctx, tx, offerId, "FOR UPDATE")
		if err != nil {
			return err
		}
		if offer.Status != models.OfferPending {
			return models.ErrOfferFinalized
		}
		if !request.OpenAt(now) {
			return models.ErrRequestClosed
		}

		res, err := tx.ExecContext(ctx, "UPDATE quote_requests SET (status, updated_at) = ('accepted', $2) WHERE id = $1 AND status = 'pending'", requestId, now)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return models.ErrRequestClosed
		}
		request.Status = models.RequestAccepted
		request.UpdatedAt = now

		res, err = tx.ExecContext(ctx, "UPDATE quote_offers SET (status, updated_at) = ('accepted', $2) WHERE id = $1 AND status = 'pending'", offerId, now)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return models.ErrOfferFinalized
		}
		offer.Status = models.OfferAccepted
		offer.UpdatedAt = now

		_, err = tx.ExecContext(ctx, "UPDATE quote_offers SET (status, updated_at) = ('expired', $3) WHERE request_id = $1 AND id <> $2 AND status = 'pending'", requestId, offerId, now)
		if err != nil {
			return err
		}

		acc.Winner, err = scanNotification(tx.QueryRowContext(ctx, `
		UPDATE supplier_notifications
		SET (status, updated_at) = ('accepted', $2)
		WHERE id = $1
		RETURNING `+notificationColumns, offer.NotificationId, now).Scan)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNoNotification
		} else if err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, `
		UPDATE supplier_notifications
		SET (status, updated_at) = ('rejected', $3)
		WHERE request_id = $1 AND id <> $2
		RETURNING `+notificationColumns, requestId, offer.NotificationId, now)
		if err != nil {
			return err
		}
		acc.Rejected, err = scanNotifications(rows)
		if err != nil {
			return err
		}

		acc.Order, err = insertOrder(ctx, tx, models.Order{
			Id:         uuid.NewString(),
			RequestId:  requestId,
			OfferId:    offerId,
			SupplierId: offer.SupplierId,
			UserId:     buyerId,
			Status:     models.OrderInTransit,
			CreatedAt:  now,
		})
		if isUniqueViolation(err) {
			return models.ErrRequestClosed
		} else if err != nil {
			return err
		}

		acc.Offer = offer
		acc.Request = request
		return nil
	})
	if err != nil {
		return models.Acceptance{}, fmt.Errorf("repository.Repository.AcceptOffer: %w", storageErr(ctx, err))
	}

	return acc, nil
}
