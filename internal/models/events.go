package models

import "time"

// Real-time event names.
const (
	EventRequestCreated = "request.created"
	EventRequestUpdated = "request.updated"
	EventOfferReceived  = "offer.received"
	EventOfferAccepted  = "offer.accepted"
	EventOrderCreated   = "order.created"
)

func SupplierTopic(supplierId string) string {
	return "supplier:" + supplierId
}

func UserTopic(userId string) string {
	return "user:" + userId
}

// RequestCreatedEvent is sent to every matched supplier.
type RequestCreatedEvent struct {
	NotificationId  string          `json:"notificationId"`
	RequestId       string          `json:"requestId"`
	VehicleMake     string          `json:"vehicleMake"`
	VehicleModel    string          `json:"vehicleModel"`
	VehicleYear     int             `json:"vehicleYear,omitempty"`
	PartName        string          `json:"partName"`
	PartCategory    string          `json:"partCategory,omitempty"`
	RequestType     RequestType     `json:"requestType"`
	ExpiresAt       time.Time       `json:"expiresAt"`
	MatchingDetails MatchingDetails `json:"matchingDetails"`
}

// RequestUpdatedEvent tells a supplier what happened to their invitation.
type RequestUpdatedEvent struct {
	NotificationId  string             `json:"notificationId"`
	RequestId       string             `json:"requestId"`
	Status          NotificationStatus `json:"status"`
	MatchingDetails MatchingDetails    `json:"matchingDetails"`
}

type OfferAcceptedEvent struct {
	NotificationId string `json:"notificationId"`
	RequestId      string `json:"requestId"`
	OfferId        string `json:"offerId"`
	OrderId        string `json:"orderId"`
}
