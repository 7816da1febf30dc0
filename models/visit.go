package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Visit is an append-only referral click log entry.
type Visit struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AffiliateCode string             `json:"affiliateCode" bson:"affiliateCode"`
	IP            string             `json:"ip,omitempty" bson:"ip,omitempty"`
	UserAgent     string             `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	Referrer      string             `json:"referrer,omitempty" bson:"referrer,omitempty"`
	LandingPath   string             `json:"landingPath,omitempty" bson:"landingPath,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// RecordVisitRequest is the payload for POST /api/visits.
type RecordVisitRequest struct {
	AffiliateCode string `json:"affiliateCode" validate:"required"`
	Referrer      string `json:"referrer,omitempty"`
	LandingPath   string `json:"landingPath,omitempty"`
}
