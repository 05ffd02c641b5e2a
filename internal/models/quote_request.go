package models

import "time"

type RequestType string

const (
	RequestLocal    RequestType = "local"
	RequestNational RequestType = "national"
)

func ValidRequestType(t RequestType) bool {
	switch t {
	case RequestLocal, RequestNational:
		return true
	default:
		return false
	}
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestExpired  RequestStatus = "expired"
	RequestAccepted RequestStatus = "accepted"
)

func ValidRequestStatus(s RequestStatus) bool {
	switch s {
	case RequestPending, RequestExpired, RequestAccepted:
		return true
	default:
		return false
	}
}

type QuoteRequest struct {
	Id           string        `json:"id"`
	UserId       string        `json:"userId"`
	VehicleMake  string        `json:"vehicleMake"`
	VehicleModel string        `json:"vehicleModel"`
	VehicleYear  int           `json:"vehicleYear,omitempty"`
	PartName     string        `json:"partName"`
	PartCategory string        `json:"partCategory,omitempty"`
	Description  string        `json:"description,omitempty"`
	Postcode     string        `json:"postcode,omitempty"`
	Location     *Location     `json:"location,omitempty"`
	RequestType  RequestType   `json:"requestType"`
	Status       RequestStatus `json:"status"`
	ExpiresAt    time.Time     `json:"expiresAt"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"-"`
}

// OpenAt reports whether the request still accepts offers at the given moment.
func (r QuoteRequest) OpenAt(now time.Time) bool {
	return r.Status == RequestPending && now.Before(r.ExpiresAt)
}

// NewRequest is the intake command issued by a buyer.
type NewRequest struct {
	VehicleMake  string      `json:"vehicleMake"`
	VehicleModel string      `json:"vehicleModel"`
	VehicleYear  int         `json:"vehicleYear,omitempty"`
	PartName     string      `json:"partName"`
	PartCategory string      `json:"partCategory,omitempty"`
	Description  string      `json:"description,omitempty"`
	Postcode     string      `json:"postcode,omitempty"`
	Location     *Location   `json:"location,omitempty"`
	RequestType  RequestType `json:"requestType"`
	ExpiresAt    *time.Time  `json:"expiresAt,omitempty"`
}
