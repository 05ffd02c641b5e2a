package models

import "time"

type Badge string

const (
	BadgeFastResponder Badge = "fast_responder"
	BadgeTrustedSeller Badge = "trusted_seller"
	BadgeTopRated      Badge = "top_rated"
)

// SupplierStats are the aggregates badges are derived from.
type SupplierStats struct {
	SupplierId      string
	QuotedCount     int
	AvgResponse     time.Duration
	CompletedOrders int
	ReviewCount     int
	AvgRating       float64
}

type BadgeRule struct {
	Badge   Badge
	Earned  func(SupplierStats) bool
	Summary string
}

var BadgeRules = []BadgeRule{
	{
		Badge:   BadgeFastResponder,
		Summary: "average response within 10 minutes over at least 5 quotes",
		Earned: func(s SupplierStats) bool {
			return s.QuotedCount >= 5 && s.AvgResponse <= 10*time.Minute
		},
	},
	{
		Badge:   BadgeTrustedSeller,
		Summary: "at least 10 completed orders",
		Earned: func(s SupplierStats) bool {
			return s.CompletedOrders >= 10
		},
	},
	{
		Badge:   BadgeTopRated,
		Summary: "at least 5 reviews averaging 4.5 or more",
		Earned: func(s SupplierStats) bool {
			return s.ReviewCount >= 5 && s.AvgRating >= 4.5
		},
	},
}

// EarnedBadges applies BadgeRules to the stats.
func EarnedBadges(s SupplierStats) []Badge {
	var badges []Badge
	for _, rule := range BadgeRules {
		if rule.Earned(s) {
			badges = append(badges, rule.Badge)
		}
	}
	return badges
}

type BadgeChanges struct {
	Awarded int64 `json:"awarded"`
	Revoked int64 `json:"revoked"`
}

type PromotionChanges struct {
	Promoted int64 `json:"promoted"`
	Demoted  int64 `json:"demoted"`
}
