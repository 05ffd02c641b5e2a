package service

import (
	"context"
	"sync"
	"time"

	"quotes/internal/models"

	"github.com/stretchr/testify/mock"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

// AddRequest echoes the request back unless the expectation returns an error.
func (m *MockRepository) AddRequest(ctx context.Context, r models.QuoteRequest) (models.QuoteRequest, error) {
	args := m.Called(ctx, r)
	return r, args.Error(0)
}

func (m *MockRepository) GetRequest(ctx context.Context, id string) (models.QuoteRequest, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.QuoteRequest), args.Error(1)
}

func (m *MockRepository) UserRequests(ctx context.Context, userId string, limit, offset int) ([]models.QuoteRequest, error) {
	args := m.Called(ctx, userId, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QuoteRequest), args.Error(1)
}

func (m *MockRepository) GetSupplier(ctx context.Context, id string) (models.Supplier, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Supplier), args.Error(1)
}

func (m *MockRepository) ActiveSuppliers(ctx context.Context) ([]models.Supplier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Supplier), args.Error(1)
}

// AddNotifications reports every notification as created unless the
// expectation returns an error.
func (m *MockRepository) AddNotifications(ctx context.Context, notifications []models.SupplierNotification) ([]models.SupplierNotification, error) {
	args := m.Called(ctx, notifications)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (m *MockRepository) SupplierNotifications(ctx context.Context, supplierId string, statuses []models.NotificationStatus, limit, offset int) ([]models.NotificationWithRequest, error) {
	args := m.Called(ctx, supplierId, statuses, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.NotificationWithRequest), args.Error(1)
}

func (m *MockRepository) SubmitOffer(ctx context.Context, supplierId, notificationId string, offer models.NewOffer, now time.Time) (models.QuoteOffer, models.QuoteRequest, error) {
	args := m.Called(ctx, supplierId, notificationId, offer, now)
	return args.Get(0).(models.QuoteOffer), args.Get(1).(models.QuoteRequest), args.Error(2)
}

func (m *MockRepository) RequestOffers(ctx context.Context, requestId string) ([]models.OfferView, error) {
	args := m.Called(ctx, requestId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OfferView), args.Error(1)
}

func (m *MockRepository) AcceptOffer(ctx context.Context, buyerId, offerId string, now time.Time) (models.Acceptance, error) {
	args := m.Called(ctx, buyerId, offerId, now)
	return args.Get(0).(models.Acceptance), args.Error(1)
}

func (m *MockRepository) ExpireOverdue(ctx context.Context, now time.Time) (models.SweepResult, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(models.SweepResult), args.Error(1)
}

func (m *MockRepository) SupplierStats(ctx context.Context) ([]models.SupplierStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SupplierStats), args.Error(1)
}

func (m *MockRepository) ReplaceBadges(ctx context.Context, earned map[string][]models.Badge, now time.Time) (models.BadgeChanges, error) {
	args := m.Called(ctx, earned, now)
	return args.Get(0).(models.BadgeChanges), args.Error(1)
}

func (m *MockRepository) RefreshPromotions(ctx context.Context, now time.Time) (models.PromotionChanges, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(models.PromotionChanges), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, request models.QuoteRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

// RecordingPublisher keeps every event it is asked to publish.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
	Err    error
}

type PublishedEvent struct {
	Topic   string
	Event   string
	Payload any
}

func (p *RecordingPublisher) Publish(ctx context.Context, topic, event string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, PublishedEvent{Topic: topic, Event: event, Payload: payload})
	return p.Err
}

func (p *RecordingPublisher) Topics(event string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var topics []string
	for _, e := range p.Events {
		if e.Event == event {
			topics = append(topics, e.Topic)
		}
	}
	return topics
}
