package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"quotes/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptOffer(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	f := NewFixture(t, repo, 4, T0)
	winner := f.Submit(t, repo, 0, T0.Add(5*time.Minute))
	loser := f.Submit(t, repo, 1, T0.Add(6*time.Minute))

	// supplier 3 let its notification expire
	_, err := repo.TestGetDB().Exec("UPDATE supplier_notifications SET status = 'expired' WHERE id = $1", f.Notifications[f.Suppliers[3].Id].Id)
	require.NoError(t, err)

	at := T0.Add(20 * time.Minute)
	acc, err := repo.AcceptOffer(ctx, f.Request.UserId, winner.Id, at)
	require.NoError(t, err)

	assert.Equal(t, models.OfferAccepted, acc.Offer.Status)
	assert.Equal(t, models.RequestAccepted, acc.Request.Status)
	assert.Equal(t, models.NotificationAccepted, acc.Winner.Status)
	assert.Equal(t, winner.NotificationId, acc.Winner.Id)
	assert.Len(t, acc.Rejected, 3)
	assert.Equal(t, f.Request.Id, acc.Order.RequestId)
	assert.Equal(t, winner.Id, acc.Order.OfferId)
	assert.Equal(t, f.Suppliers[0].Id, acc.Order.SupplierId)
	assert.Equal(t, f.Request.UserId, acc.Order.UserId)
	assert.Equal(t, models.OrderInTransit, acc.Order.Status)

	got, err := repo.GetOffer(ctx, loser.Id)
	require.NoError(t, err)
	assert.Equal(t, models.OfferExpired, got.Status)

	// no orphan notifications
	notifications, err := repo.RequestNotifications(ctx, f.Request.Id)
	require.NoError(t, err)
	require.Len(t, notifications, 4)
	for _, n := range notifications {
		assert.Contains(t, []models.NotificationStatus{models.NotificationAccepted, models.NotificationRejected}, n.Status)
	}

	order, ok, err := repo.RequestOrder(ctx, f.Request.Id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, acc.Order.Id, order.Id)

	// double accept, e.g. from a second browser tab
	_, err = repo.AcceptOffer(ctx, f.Request.UserId, winner.Id, at.Add(time.Second))
	assert.ErrorIs(t, err, models.ErrConflict)

	// a later sweep leaves the accepted request alone
	res, err := repo.ExpireOverdue(ctx, f.Request.ExpiresAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, res.Requests)
	assert.Zero(t, res.Offers)
}

func TestAcceptOfferGuards(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	f := NewFixture(t, repo, 1, T0)
	offer := f.Submit(t, repo, 0, T0.Add(time.Minute))

	_, err := repo.AcceptOffer(ctx, f.Request.UserId, uuid.NewString(), T0.Add(2*time.Minute))
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = repo.AcceptOffer(ctx, uuid.NewString(), offer.Id, T0.Add(2*time.Minute))
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = repo.AcceptOffer(ctx, f.Request.UserId, offer.Id, f.Request.ExpiresAt.Add(time.Second))
	assert.ErrorIs(t, err, models.ErrRequestClosed)

	_, ok, err := repo.RequestOrder(ctx, f.Request.Id)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetRequest(ctx, f.Request.Id)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, got.Status)
}

func TestAcceptOfferExclusivity(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	const suppliers = 6
	f := NewFixture(t, repo, suppliers, T0)

	var offers []models.QuoteOffer
	for i := 0; i < suppliers; i++ {
		offers = append(offers, f.Submit(t, repo, i, T0.Add(time.Duration(i+1)*time.Minute)))
	}

	// every offer twice: racing tabs and racing offers
	at := T0.Add(30 * time.Minute)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var won []models.Acceptance
	var errs []error

	start := make(chan struct{})
	for i := 0; i < 2*suppliers; i++ {
		wg.Add(1)
		go func(offer models.QuoteOffer) {
			defer wg.Done()
			<-start
			acc, err := repo.AcceptOffer(ctx, f.Request.UserId, offer.Id, at)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			won = append(won, acc)
		}(offers[i%suppliers])
	}
	close(start)
	wg.Wait()

	require.Len(t, won, 1)
	require.Len(t, errs, 2*suppliers-1)
	for _, err := range errs {
		assert.ErrorIs(t, err, models.ErrConflict)
	}

	var orders int
	err := repo.TestGetDB().QueryRow("SELECT COUNT(*) FROM orders WHERE request_id = $1", f.Request.Id).Scan(&orders)
	require.NoError(t, err)
	assert.Equal(t, 1, orders)

	var accepted int
	err = repo.TestGetDB().QueryRow("SELECT COUNT(*) FROM quote_offers WHERE request_id = $1 AND status = 'accepted'", f.Request.Id).Scan(&accepted)
	require.NoError(t, err)
	assert.Equal(t, 1, accepted)
	assert.Equal(t, won[0].Offer.Id, won[0].Order.OfferId)
}

func TestAcceptRacesSweep(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	f := NewFixture(t, repo, 2, T0)
	offer := f.Submit(t, repo, 0, T0.Add(time.Minute))

	// acceptance at the last moment against a sweep already past the deadline
	var wg sync.WaitGroup
	var accErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, accErr = repo.AcceptOffer(ctx, f.Request.UserId, offer.Id, f.Request.ExpiresAt.Add(-time.Millisecond))
	}()
	go func() {
		defer wg.Done()
		_, _ = repo.ExpireOverdue(ctx, f.Request.ExpiresAt)
	}()
	wg.Wait()

	got, err := repo.GetRequest(ctx, f.Request.Id)
	require.NoError(t, err)
	_, hasOrder, err := repo.RequestOrder(ctx, f.Request.Id)
	require.NoError(t, err)

	// exactly one exit from pending, and the order exists iff acceptance won
	if accErr == nil {
		assert.Equal(t, models.RequestAccepted, got.Status)
		assert.True(t, hasOrder)
	} else {
		assert.ErrorIs(t, accErr, models.ErrConflict)
		assert.Equal(t, models.RequestExpired, got.Status)
		assert.False(t, hasOrder)
	}
}
