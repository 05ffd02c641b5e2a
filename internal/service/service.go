package service

import (
	"context"
	"time"

	"quotes/internal/clock"
	"quotes/internal/config"
	"quotes/internal/geo"
	"quotes/internal/models"
	"quotes/internal/publish"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	AddRequest(ctx context.Context, r models.QuoteRequest) (models.QuoteRequest, error)
	GetRequest(ctx context.Context, id string) (models.QuoteRequest, error)
	UserRequests(ctx context.Context, userId string, limit, offset int) ([]models.QuoteRequest, error)

	GetSupplier(ctx context.Context, id string) (models.Supplier, error)
	ActiveSuppliers(ctx context.Context) ([]models.Supplier, error)

	AddNotifications(ctx context.Context, notifications []models.SupplierNotification) ([]models.SupplierNotification, error)
	SupplierNotifications(ctx context.Context, supplierId string, statuses []models.NotificationStatus, limit, offset int) ([]models.NotificationWithRequest, error)

	SubmitOffer(ctx context.Context, supplierId, notificationId string, offer models.NewOffer, now time.Time) (models.QuoteOffer, models.QuoteRequest, error)
	RequestOffers(ctx context.Context, requestId string) ([]models.OfferView, error)
	AcceptOffer(ctx context.Context, buyerId, offerId string, now time.Time) (models.Acceptance, error)

	ExpireOverdue(ctx context.Context, now time.Time) (models.SweepResult, error)
	SupplierStats(ctx context.Context) ([]models.SupplierStats, error)
	ReplaceBadges(ctx context.Context, earned map[string][]models.Badge, now time.Time) (models.BadgeChanges, error)
	RefreshPromotions(ctx context.Context, now time.Time) (models.PromotionChanges, error)
}

// Dispatcher hands a freshly saved request over to notification
// distribution. Implementations may deliver more than once.
type Dispatcher interface {
	Dispatch(ctx context.Context, request models.QuoteRequest) error
}

type Service struct {
	repo       Repository
	publisher  publish.Publisher
	dispatcher Dispatcher
	matcher    geo.Matcher
	clock      clock.Clock
	log        *zap.Logger
	cfg        config.EngineConfig
}

type Option func(*Service)

// WithDispatcher moves distribution out of the intake call.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Service) {
		s.dispatcher = d
	}
}

func WithPublisher(p publish.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

func NewService(repo Repository, cfg config.EngineConfig, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		publisher: publish.Nop{},
		matcher:   geo.NewMatcher(cfg.MatchRadiusMiles),
		clock:     clock.Real{},
		log:       zap.NewNop(),
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

//// Service

// operation bounds a caller-facing operation by OperationTimeout.
func (s *Service) operation(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.OperationTimeout)
}

// publish never fails the caller: state is already committed.
func (s *Service) publish(ctx context.Context, topic, event string, payload any) {
	err := s.publisher.Publish(ctx, topic, event, payload)
	if err != nil {
		s.log.Warn("service: publish failed", zap.String("topic", topic), zap.String("event", event), zap.Error(err))
	}
}

// validId accepts the canonical 36 character form only.
func validId(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}
