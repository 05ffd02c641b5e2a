package service

import (
	"context"
	"fmt"
	"strings"

	"quotes/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateRequest validates and saves a buyer's request, then hands it to
// distribution. A failed distribution is logged; the saved request is
// returned regardless and simply runs out its lifetime.
func (s *Service) CreateRequest(ctx context.Context, buyerId string, req models.NewRequest) (models.QuoteRequest, error) {
	ctx, cancel := s.operation(ctx)
	defer cancel()

	now := s.clock.Now()

	err := validateNewRequest(buyerId, req)
	if err != nil {
		return models.QuoteRequest{}, fmt.Errorf("service.Service.CreateRequest: %w", err)
	}

	expiresAt := now.Add(s.cfg.RequestLifetime)
	if req.ExpiresAt != nil {
		if !req.ExpiresAt.After(now) {
			return models.QuoteRequest{}, fmt.Errorf("service.Service.CreateRequest: %w", models.NewValidationError("expiresAt", "must be in the future"))
		}
		if req.ExpiresAt.Before(expiresAt) {
			expiresAt = req.ExpiresAt.UTC()
		}
	}

	request := models.QuoteRequest{
		Id:           uuid.NewString(),
		UserId:       buyerId,
		VehicleMake:  strings.TrimSpace(req.VehicleMake),
		VehicleModel: strings.TrimSpace(req.VehicleModel),
		VehicleYear:  req.VehicleYear,
		PartName:     strings.TrimSpace(req.PartName),
		PartCategory: strings.TrimSpace(req.PartCategory),
		Description:  req.Description,
		Postcode:     strings.TrimSpace(req.Postcode),
		Location:     req.Location,
		RequestType:  req.RequestType,
		Status:       models.RequestPending,
		ExpiresAt:    expiresAt,
		CreatedAt:    now,
	}

	request, err = s.repo.AddRequest(ctx, request)
	if err != nil {
		return request, fmt.Errorf("service.Service.CreateRequest: %w", err)
	}

	s.log.Info("service: request created",
		zap.String("request", request.Id),
		zap.String("type", string(request.RequestType)),
		zap.Time("expiresAt", request.ExpiresAt))

	s.dispatch(ctx, request)

	return request, nil
}

func (s *Service) dispatch(ctx context.Context, request models.QuoteRequest) {
	if s.dispatcher != nil {
		err := s.dispatcher.Dispatch(ctx, request)
		if err == nil {
			return
		}
		s.log.Warn("service: dispatch failed, distributing inline", zap.String("request", request.Id), zap.Error(err))
	}

	_, err := s.DistributeRequest(ctx, request.Id)
	if err != nil {
		s.log.Error("service: distribution failed", zap.String("request", request.Id), zap.Error(err))
	}
}

func validateNewRequest(buyerId string, req models.NewRequest) error {
	switch {
	case !validId(buyerId):
		return models.NewValidationError("buyerId", "must be a uuid")
	case strings.TrimSpace(req.PartName) == "":
		return models.NewValidationError("partName", "is required")
	case len(req.PartName) > 200:
		return models.NewValidationError("partName", "exceeds 200 characters")
	case !models.ValidRequestType(req.RequestType):
		return models.NewValidationError("requestType", fmt.Sprintf("should be one of: %s, %s", models.RequestLocal, models.RequestNational))
	case req.VehicleYear < 0:
		return models.NewValidationError("vehicleYear", "must not be negative")
	case req.Location != nil && !req.Location.Valid():
		return models.NewValidationError("location", "coordinates out of range")
	}

	if req.RequestType == models.RequestLocal {
		switch {
		case strings.TrimSpace(req.VehicleMake) == "":
			return models.NewValidationError("vehicleMake", "is required for local requests")
		case strings.TrimSpace(req.VehicleModel) == "":
			return models.NewValidationError("vehicleModel", "is required for local requests")
		case req.Location == nil:
			return models.NewValidationError("location", "is required for local requests")
		}
	}
	return nil
}

// DistributeRequest invites every matching supplier to bid on a pending
// request and returns how many new notifications were created. Delivering
// the same request twice creates nothing the second time.
func (s *Service) DistributeRequest(ctx context.Context, requestId string) (int, error) {
	if !validId(requestId) {
		return 0, fmt.Errorf("service.Service.DistributeRequest: %w", models.ErrNoRequest)
	}

	now := s.clock.Now()

	request, err := s.repo.GetRequest(ctx, requestId)
	if err != nil {
		return 0, fmt.Errorf("service.Service.DistributeRequest: %w", err)
	}
	if !request.OpenAt(now) {
		s.log.Debug("service: request closed before distribution", zap.String("request", requestId), zap.String("status", string(request.Status)))
		return 0, nil
	}

	pool, err := s.repo.ActiveSuppliers(ctx)
	if err != nil {
		return 0, fmt.Errorf("service.Service.DistributeRequest: %w", err)
	}

	matches := s.matcher.Match(request, pool)
	if len(matches) == 0 {
		s.log.Info("service: no suppliers matched", zap.String("request", requestId), zap.Int("pool", len(pool)))
		return 0, nil
	}

	pending := make([]models.SupplierNotification, 0, len(matches))
	for _, m := range matches {
		pending = append(pending, models.SupplierNotification{
			Id:              uuid.NewString(),
			SupplierId:      m.Supplier.Id,
			RequestId:       request.Id,
			Status:          models.NotificationPending,
			ExpiresAt:       request.ExpiresAt,
			DistanceMiles:   m.DistanceMiles,
			MatchingDetails: m.Details,
			CreatedAt:       now,
		})
	}

	created, err := s.repo.AddNotifications(ctx, pending)
	if err != nil {
		return 0, fmt.Errorf("service.Service.DistributeRequest: %w", err)
	}

	for _, n := range created {
		s.publish(ctx, models.SupplierTopic(n.SupplierId), models.EventRequestCreated, models.RequestCreatedEvent{
			NotificationId:  n.Id,
			RequestId:       request.Id,
			VehicleMake:     request.VehicleMake,
			VehicleModel:    request.VehicleModel,
			VehicleYear:     request.VehicleYear,
			PartName:        request.PartName,
			PartCategory:    request.PartCategory,
			RequestType:     request.RequestType,
			ExpiresAt:       n.ExpiresAt,
			MatchingDetails: n.MatchingDetails,
		})
	}

	s.log.Info("service: request distributed",
		zap.String("request", requestId),
		zap.Int("matched", len(matches)),
		zap.Int("created", len(created)))

	return len(created), nil
}

// GetRequest returns a request to its owner.
func (s *Service) GetRequest(ctx context.Context, buyerId, requestId string) (models.QuoteRequest, error) {
	ctx, cancel := s.operation(ctx)
	defer cancel()

	request, err := s.ownRequest(ctx, buyerId, requestId)
	if err != nil {
		return request, fmt.Errorf("service.Service.GetRequest: %w", err)
	}
	return request, nil
}

func (s *Service) UserRequests(ctx context.Context, buyerId string, limit, offset int) ([]models.QuoteRequest, error) {
	ctx, cancel := s.operation(ctx)
	defer cancel()

	if !validId(buyerId) {
		return nil, fmt.Errorf("service.Service.UserRequests: %w", models.NewValidationError("buyerId", "must be a uuid"))
	}

	requests, err := s.repo.UserRequests(ctx, buyerId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("service.Service.UserRequests: %w", err)
	}
	return requests, nil
}

func (s *Service) ownRequest(ctx context.Context, buyerId, requestId string) (models.QuoteRequest, error) {
	if !validId(buyerId) {
		return models.QuoteRequest{}, models.NewValidationError("buyerId", "must be a uuid")
	}
	if !validId(requestId) {
		return models.QuoteRequest{}, models.ErrNoRequest
	}

	request, err := s.repo.GetRequest(ctx, requestId)
	if err != nil {
		return request, err
	}
	if request.UserId != buyerId {
		return models.QuoteRequest{}, fmt.Errorf("%w: request %s belongs to another user", models.ErrForbidden, requestId)
	}
	return request, nil
}
