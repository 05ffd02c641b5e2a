package models

import "time"

type NotificationStatus string

const (
	NotificationPending  NotificationStatus = "pending"
	NotificationQuoted   NotificationStatus = "quoted"
	NotificationExpired  NotificationStatus = "expired"
	NotificationAccepted NotificationStatus = "accepted"
	NotificationRejected NotificationStatus = "rejected"
)

func ValidNotificationStatus(s NotificationStatus) bool {
	switch s {
	case NotificationPending, NotificationQuoted, NotificationExpired, NotificationAccepted, NotificationRejected:
		return true
	default:
		return false
	}
}

// MatchingDetails records why a supplier was invited.
type MatchingDetails struct {
	RequestType   RequestType `json:"requestType"`
	RadiusMiles   float64     `json:"radiusMiles,omitempty"`
	DistanceMiles *float64    `json:"distanceMiles,omitempty"`
	Category      string      `json:"category,omitempty"`
}

type SupplierNotification struct {
	Id              string             `json:"id"`
	SupplierId      string             `json:"supplierId"`
	RequestId       string             `json:"requestId"`
	Status          NotificationStatus `json:"status"`
	ExpiresAt       time.Time          `json:"expiresAt"`
	DistanceMiles   *float64           `json:"distanceMiles,omitempty"`
	MatchingDetails MatchingDetails    `json:"matchingDetails"`
	QuotedAt        *time.Time         `json:"quotedAt,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"-"`
}

// ActiveAt reports whether the supplier may still respond at the given moment.
func (n SupplierNotification) ActiveAt(now time.Time) bool {
	return n.Status == NotificationPending && now.Before(n.ExpiresAt)
}

// NotificationWithRequest is the supplier inbox view.
type NotificationWithRequest struct {
	SupplierNotification
	Request QuoteRequest `json:"request"`
}
