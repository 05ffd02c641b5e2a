package service

import (
	"context"
	"fmt"
	"time"

	"quotes/internal/models"

	"go.uber.org/zap"
)

// SweepExpired moves everything still pending past its deadline to expired.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (models.SweepResult, error) {
	res, err := s.repo.ExpireOverdue(ctx, now)
	if err != nil {
		return res, fmt.Errorf("service.Service.SweepExpired: %w", err)
	}

	if res.Total() > 0 {
		s.log.Info("service: expired overdue records",
			zap.Int64("requests", res.Requests),
			zap.Int64("offers", res.Offers),
			zap.Int64("notifications", res.Notifications))
	}
	return res, nil
}

// RecalculateBadges brings every supplier's badges in line with the rules.
func (s *Service) RecalculateBadges(ctx context.Context, now time.Time) (models.BadgeChanges, error) {
	stats, err := s.repo.SupplierStats(ctx)
	if err != nil {
		return models.BadgeChanges{}, fmt.Errorf("service.Service.RecalculateBadges: %w", err)
	}

	// every supplier gets an entry so lost badges are revoked
	earned := make(map[string][]models.Badge, len(stats))
	for _, st := range stats {
		earned[st.SupplierId] = models.EarnedBadges(st)
	}

	changes, err := s.repo.ReplaceBadges(ctx, earned, now)
	if err != nil {
		return changes, fmt.Errorf("service.Service.RecalculateBadges: %w", err)
	}

	if changes.Awarded > 0 || changes.Revoked > 0 {
		s.log.Info("service: badges recalculated", zap.Int64("awarded", changes.Awarded), zap.Int64("revoked", changes.Revoked))
	}
	return changes, nil
}

func (s *Service) RecalculatePromotions(ctx context.Context, now time.Time) (models.PromotionChanges, error) {
	changes, err := s.repo.RefreshPromotions(ctx, now)
	if err != nil {
		return changes, fmt.Errorf("service.Service.RecalculatePromotions: %w", err)
	}

	if changes.Promoted > 0 || changes.Demoted > 0 {
		s.log.Info("service: promotions refreshed", zap.Int64("promoted", changes.Promoted), zap.Int64("demoted", changes.Demoted))
	}
	return changes, nil
}
