package repository

import (
	"context"
	"testing"
	"time"

	"quotes/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpireOverdue(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	f := NewFixture(t, repo, 2, T0)
	a, b := f.Suppliers[0], f.Suppliers[1]
	offer := f.Submit(t, repo, 1, T0.Add(10*time.Minute))

	// nothing is due before the deadline
	res, err := repo.ExpireOverdue(ctx, T0.Add(44*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, res.Total())

	res, err = repo.ExpireOverdue(ctx, T0.Add(46*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Requests)
	assert.Equal(t, int64(1), res.Offers)
	assert.Equal(t, int64(1), res.Notifications)

	req, err := repo.GetRequest(ctx, f.Request.Id)
	require.NoError(t, err)
	assert.Equal(t, models.RequestExpired, req.Status)

	got, err := repo.GetOffer(ctx, offer.Id)
	require.NoError(t, err)
	assert.Equal(t, models.OfferExpired, got.Status)

	n, err := repo.GetNotification(ctx, f.Notifications[a.Id].Id)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationExpired, n.Status)

	// quoted notifications keep their status
	n, err = repo.GetNotification(ctx, f.Notifications[b.Id].Id)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationQuoted, n.Status)

	_, ok, err := repo.RequestOrder(ctx, f.Request.Id)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.AcceptOffer(ctx, f.Request.UserId, offer.Id, T0.Add(47*time.Minute))
	assert.ErrorIs(t, err, models.ErrConflict)

	// second run changes nothing
	res, err = repo.ExpireOverdue(ctx, T0.Add(47*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, res.Total())
}

func TestExpireOverdueBoundary(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	f := NewFixture(t, repo, 1, T0)

	res, err := repo.ExpireOverdue(ctx, f.Request.ExpiresAt.Add(-time.Microsecond))
	require.NoError(t, err)
	assert.Zero(t, res.Total())

	// expires_at <= now
	res, err = repo.ExpireOverdue(ctx, f.Request.ExpiresAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Requests)
	assert.Equal(t, int64(1), res.Notifications)
}

func TestExpireOverdueCanceled(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ExpireOverdue(ctx, T0)
	assert.Error(t, err)
}
