package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommissionEntry is one credited commission, one row per paid order. The
// unique index on orderId is the exactly-once guard: a second credit attempt
// for the same order fails with a duplicate key error instead of mutating
// affiliate counters again.
type CommissionEntry struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OrderID       primitive.ObjectID `json:"orderId" bson:"orderId"`
	AffiliateID   primitive.ObjectID `json:"affiliateId" bson:"affiliateId"`
	AffiliateCode string             `json:"affiliateCode" bson:"affiliateCode"`
	OrderAmount   int64              `json:"orderAmount" bson:"orderAmount"`
	Rate          float64            `json:"rate" bson:"rate"`
	Amount        int64              `json:"amount" bson:"amount"`
	Currency      string             `json:"currency" bson:"currency"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// CommissionAmount computes the commission owed on an order amount at the
// snapshotted rate, rounded down to whole minor units.
func CommissionAmount(orderAmount int64, rate float64) int64 {
	if orderAmount <= 0 || rate <= 0 {
		return 0
	}
	return int64(float64(orderAmount) * rate)
}

// Payout is an admin-recorded disbursement to an affiliate.
type Payout struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AffiliateID primitive.ObjectID `json:"affiliateId" bson:"affiliateId"`
	Amount      int64              `json:"amount" bson:"amount"`
	Note        string             `json:"note,omitempty" bson:"note,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}
