package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCommissionRate matches the historical 20% default.
const DefaultCommissionRate = 0.20

// Affiliate represents a referral partner. Counter fields are the $inc
// projection of the commissions collection and are never written by
// read-modify-write code.
type Affiliate struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Code            string             `json:"code" bson:"code"`
	Name            string             `json:"name" bson:"name"`
	Email           string             `json:"email" bson:"email"`
	CommissionRate  float64            `json:"commissionRate" bson:"commissionRate"`
	Clicks          int64              `json:"clicks" bson:"clicks"`
	SalesCount      int64              `json:"salesCount" bson:"salesCount"`
	TotalRevenue    int64              `json:"totalRevenue" bson:"totalRevenue"`
	TotalCommission int64              `json:"totalCommission" bson:"totalCommission"`
	TotalPaid       int64              `json:"totalPaid" bson:"totalPaid"`
	IsActive        bool               `json:"isActive" bson:"isActive"`
	DeletedAt       *time.Time         `json:"deletedAt,omitempty" bson:"deletedAt,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
}

// CreateAffiliateRequest is the payload for POST /api/affiliates (admin).
type CreateAffiliateRequest struct {
	Name           string  `json:"name" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	CommissionRate float64 `json:"commissionRate" validate:"gte=0,lte=1"`
}

// UpdateRateRequest is the payload for PUT /api/affiliates/:code/rate.
type UpdateRateRequest struct {
	CommissionRate float64 `json:"commissionRate" validate:"gte=0,lte=1"`
}

// PayoutRequest is the payload for POST /api/affiliates/:code/payouts.
type PayoutRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Note   string `json:"note,omitempty"`
}

// AffiliateStats is the dashboard payload: live counters plus the most
// recent credited commissions.
type AffiliateStats struct {
	Affiliate         Affiliate         `json:"affiliate"`
	PendingPayout     int64             `json:"pendingPayout"`
	RecentCommissions []CommissionEntry `json:"recentCommissions"`
}
