package service

import (
	"context"
	"fmt"

	"quotes/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var maxPrice = decimal.New(1, 10) // numeric(12, 2)

// SubmitOffer records a supplier's bid on the request behind notificationId
// and tells the buyer about it.
func (s *Service) SubmitOffer(ctx context.Context, supplierId, notificationId string, offer models.NewOffer) (models.QuoteOffer, error) {
	ctx, cancel := s.operation(ctx)
	defer cancel()

	now := s.clock.Now()

	if !validId(supplierId) {
		return models.QuoteOffer{}, fmt.Errorf("service.Service.SubmitOffer: %w", models.NewValidationError("supplierId", "must be a uuid"))
	}
	if !validId(notificationId) {
		return models.QuoteOffer{}, fmt.Errorf("service.Service.SubmitOffer: %w", models.ErrNoNotification)
	}
	offer, err := validateNewOffer(offer)
	if err != nil {
		return models.QuoteOffer{}, fmt.Errorf("service.Service.SubmitOffer: %w", err)
	}

	saved, request, err := s.repo.SubmitOffer(ctx, supplierId, notificationId, offer, now)
	if err != nil {
		return saved, fmt.Errorf("service.Service.SubmitOffer: %w", err)
	}

	s.log.Info("service: offer received",
		zap.String("offer", saved.Id),
		zap.String("request", saved.RequestId),
		zap.String("supplier", supplierId))

	var name string
	supplier, err := s.repo.GetSupplier(ctx, supplierId)
	if err != nil {
		s.log.Warn("service: could not load supplier name", zap.String("supplier", supplierId), zap.Error(err))
	} else {
		name = supplier.Name
	}
	s.publish(ctx, models.UserTopic(request.UserId), models.EventOfferReceived, saved.View(name))

	return saved, nil
}

func validateNewOffer(offer models.NewOffer) (models.NewOffer, error) {
	switch {
	case !offer.Price.IsPositive():
		return offer, models.NewValidationError("price", "must be positive")
	case offer.Price.GreaterThanOrEqual(maxPrice):
		return offer, models.NewValidationError("price", "is too large")
	case offer.DeliveryDays < 0:
		return offer, models.NewValidationError("deliveryDays", "must not be negative")
	case !models.ValidPartCondition(offer.Condition):
		return offer, models.NewValidationError("condition", fmt.Sprintf("should be one of: %s, %s, %s, %s",
			models.ConditionNew, models.ConditionUsed, models.ConditionRefurbished, models.ConditionReconditioned))
	case len(offer.Notes) > 1000:
		return offer, models.NewValidationError("notes", "exceeds 1000 characters")
	}

	offer.Price = offer.Price.Round(2)
	return offer, nil
}

// AcceptOffer makes offerId the winning bid of its request and returns the
// new order. Suppliers are told about the outcome once it is committed.
func (s *Service) AcceptOffer(ctx context.Context, buyerId, offerId string) (models.Order, error) {
	ctx, cancel := s.operation(ctx)
	defer cancel()

	now := s.clock.Now()

	if !validId(buyerId) {
		return models.Order{}, fmt.Errorf("service.Service.AcceptOffer: %w", models.NewValidationError("buyerId", "must be a uuid"))
	}
	if !validId(offerId) {
		return models.Order{}, fmt.Errorf("service.Service.AcceptOffer: %w", models.ErrNoOffer)
	}

	acc, err := s.repo.AcceptOffer(ctx, buyerId, offerId, now)
	if err != nil {
		return models.Order{}, fmt.Errorf("service.Service.AcceptOffer: %w", err)
	}

	s.log.Info("service: offer accepted",
		zap.String("offer", offerId),
		zap.String("request", acc.Request.Id),
		zap.String("order", acc.Order.Id),
		zap.Int("rejected", len(acc.Rejected)))

	s.publish(ctx, models.SupplierTopic(acc.Winner.SupplierId), models.EventOfferAccepted, models.OfferAcceptedEvent{
		NotificationId: acc.Winner.Id,
		RequestId:      acc.Request.Id,
		OfferId:        acc.Offer.Id,
		OrderId:        acc.Order.Id,
	})
	for _, n := range acc.Rejected {
		s.publish(ctx, models.SupplierTopic(n.SupplierId), models.EventRequestUpdated, models.RequestUpdatedEvent{
			NotificationId:  n.Id,
			RequestId:       n.RequestId,
			Status:          n.Status,
			MatchingDetails: n.MatchingDetails,
		})
	}
	s.publish(ctx, models.UserTopic(buyerId), models.EventOrderCreated, acc.Order)

	return acc.Order, nil
}

// RequestOffers lists the offers on a request to its owner.
func (s *Service) RequestOffers(ctx context.Context, buyerId, requestId string) ([]models.OfferView, error) {
	ctx, cancel := s.operation(ctx)
	defer cancel()

	_, err := s.ownRequest(ctx, buyerId, requestId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.RequestOffers: %w", err)
	}

	offers, err := s.repo.RequestOffers(ctx, requestId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.RequestOffers: %w", err)
	}
	return offers, nil
}

// SupplierNotifications is the supplier's inbox. No statuses means pending
// ones only.
func (s *Service) SupplierNotifications(ctx context.Context, supplierId string, statuses []models.NotificationStatus, limit, offset int) ([]models.NotificationWithRequest, error) {
	ctx, cancel := s.operation(ctx)
	defer cancel()

	if !validId(supplierId) {
		return nil, fmt.Errorf("service.Service.SupplierNotifications: %w", models.NewValidationError("supplierId", "must be a uuid"))
	}
	if len(statuses) == 0 {
		statuses = []models.NotificationStatus{models.NotificationPending}
	}

	inbox, err := s.repo.SupplierNotifications(ctx, supplierId, statuses, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("service.Service.SupplierNotifications: %w", err)
	}
	return inbox, nil
}
