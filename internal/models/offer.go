package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferExpired  OfferStatus = "expired"
)

func ValidOfferStatus(s OfferStatus) bool {
	switch s {
	case OfferPending, OfferAccepted, OfferExpired:
		return true
	default:
		return false
	}
}

type PartCondition string

const (
	ConditionNew           PartCondition = "new"
	ConditionUsed          PartCondition = "used"
	ConditionRefurbished   PartCondition = "refurbished"
	ConditionReconditioned PartCondition = "reconditioned"
)

func ValidPartCondition(c PartCondition) bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionRefurbished, ConditionReconditioned:
		return true
	default:
		return false
	}
}

type QuoteOffer struct {
	Id             string          `json:"id"`
	RequestId      string          `json:"requestId"`
	SupplierId     string          `json:"supplierId"`
	NotificationId string          `json:"-"`
	Price          decimal.Decimal `json:"price"`
	DeliveryDays   int             `json:"deliveryDays"`
	Condition      PartCondition   `json:"condition"`
	Notes          string          `json:"notes,omitempty"`
	Status         OfferStatus     `json:"status"`
	ExpiresAt      time.Time       `json:"expiresAt"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"-"`
}

// NewOffer is the submission command issued by a supplier.
type NewOffer struct {
	Price        decimal.Decimal `json:"price"`
	DeliveryDays int             `json:"deliveryDays"`
	Condition    PartCondition   `json:"condition"`
	Notes        string          `json:"notes,omitempty"`
}

// OfferView is what the buyer gets to see about an offer.
type OfferView struct {
	Id           string          `json:"id"`
	RequestId    string          `json:"requestId"`
	SupplierId   string          `json:"supplierId"`
	SupplierName string          `json:"supplierName,omitempty"`
	Price        decimal.Decimal `json:"price"`
	DeliveryDays int             `json:"deliveryDays"`
	Condition    PartCondition   `json:"condition"`
	Notes        string          `json:"notes,omitempty"`
	Status       OfferStatus     `json:"status"`
	ExpiresAt    time.Time       `json:"expiresAt"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (o QuoteOffer) View(supplierName string) OfferView {
	return OfferView{
		Id:           o.Id,
		RequestId:    o.RequestId,
		SupplierId:   o.SupplierId,
		SupplierName: supplierName,
		Price:        o.Price,
		DeliveryDays: o.DeliveryDays,
		Condition:    o.Condition,
		Notes:        o.Notes,
		Status:       o.Status,
		ExpiresAt:    o.ExpiresAt,
		CreatedAt:    o.CreatedAt,
	}
}
