package models

import "time"

type SupplierStatus string

const (
	SupplierPending  SupplierStatus = "pending"
	SupplierApproved SupplierStatus = "approved"
	SupplierRejected SupplierStatus = "rejected"
)

func ValidSupplierStatus(s SupplierStatus) bool {
	switch s {
	case SupplierPending, SupplierApproved, SupplierRejected:
		return true
	default:
		return false
	}
}

type Supplier struct {
	Id         string         `json:"id"`
	Name       string         `json:"name"`
	Status     SupplierStatus `json:"status"`
	Active     bool           `json:"active"`
	Suspended  bool           `json:"suspended"`
	Location   *Location      `json:"location,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	Promoted   bool           `json:"promoted"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"-"`
}

// Eligible reports whether the supplier may be invited to bid at all.
func (s Supplier) Eligible() bool {
	return s.Status == SupplierApproved && s.Active && !s.Suspended
}

// Location is a geocoded point in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}
