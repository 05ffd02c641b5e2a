package models

import "time"

type OrderStatus string

const (
	OrderInTransit OrderStatus = "in_transit"
	OrderReported  OrderStatus = "reported"
	OrderReviewed  OrderStatus = "reviewed"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type Order struct {
	Id         string      `json:"id"`
	RequestId  string      `json:"requestId"`
	OfferId    string      `json:"offerId"`
	SupplierId string      `json:"supplierId"`
	UserId     string      `json:"userId"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"-"`
}

// Acceptance is the committed outcome of accepting an offer.
type Acceptance struct {
	Order    Order
	Offer    QuoteOffer
	Request  QuoteRequest
	Winner   SupplierNotification
	Rejected []SupplierNotification
}
