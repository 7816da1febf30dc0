package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order status lifecycle. An order enters "paid" only through a verified
// gateway callback and leaves it only through an explicit refund.
const (
	OrderStatusCreated   = "created"
	OrderStatusPaid      = "paid"
	OrderStatusFailed    = "failed"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"
)

// Order represents one purchase attempt. Amounts are in minor currency
// units (paise for INR). CommissionRate is snapshotted at creation time so
// later changes to the affiliate's rate never alter past commissions.
type Order struct {
	ID                primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID            primitive.ObjectID  `json:"userId" bson:"userId"`
	EbookID           *primitive.ObjectID `json:"ebookId,omitempty" bson:"ebookId,omitempty"`
	Amount            int64               `json:"amount" bson:"amount"`
	Currency          string              `json:"currency" bson:"currency"`
	AffiliateCode     string              `json:"affiliateCode,omitempty" bson:"affiliateCode,omitempty"`
	CommissionRate    float64             `json:"commissionRate" bson:"commissionRate"`
	Receipt           string              `json:"receipt" bson:"receipt"`
	GatewayOrderID    string              `json:"gatewayOrderId" bson:"gatewayOrderId"`
	GatewayPaymentID  string              `json:"gatewayPaymentId,omitempty" bson:"gatewayPaymentId,omitempty"`
	GatewaySignature  string              `json:"-" bson:"gatewaySignature,omitempty"`
	Status            string              `json:"status" bson:"status"`
	CommissionApplied bool                `json:"commissionApplied" bson:"commissionApplied"`
	ExpiresAt         *time.Time          `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	CreatedAt         time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt" bson:"updatedAt"`
	PaidAt            *time.Time          `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
}

// Expired reports whether the order can no longer be paid.
func (o *Order) Expired(now time.Time) bool {
	return o.ExpiresAt != nil && now.After(*o.ExpiresAt)
}

// CreateOrderRequest is the payload for POST /api/orders.
type CreateOrderRequest struct {
	EbookID       string `json:"ebookId,omitempty"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Currency      string `json:"currency,omitempty"`
	ReferralCode  string `json:"referralCode,omitempty"`
	AffiliateCode string `json:"affiliateCode,omitempty"` // explicit code wins over stored referral
}

// VerifyPaymentRequest is the payload for POST /api/orders/verify. Field
// names follow the gateway's checkout callback.
type VerifyPaymentRequest struct {
	OrderID          string `json:"orderId" validate:"required"`
	GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	GatewaySignature string `json:"razorpay_signature" validate:"required"`
}
