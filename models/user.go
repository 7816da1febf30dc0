package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleCustomer  = "customer"
	RoleAffiliate = "affiliate"
	RoleAdmin     = "admin"
)

// User represents an account in the users collection. Google-authenticated
// accounts have GoogleID set and no password hash.
type User struct {
	ID           primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Email        string              `json:"email" bson:"email"`
	Password     string              `json:"-" bson:"password,omitempty"`
	GoogleID     string              `json:"-" bson:"googleId,omitempty"`
	FullName     string              `json:"fullName" bson:"fullName"`
	Role         string              `json:"role" bson:"role"`
	AffiliateID  *primitive.ObjectID `json:"affiliateId,omitempty" bson:"affiliateId,omitempty"`
	IsActive     bool                `json:"isActive" bson:"isActive"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt" bson:"updatedAt"`
	LastActivity time.Time           `json:"lastActivity,omitempty" bson:"lastActivity,omitempty"`
}

// UpdateProfileRequest is the payload for PUT /api/users/:id
type UpdateProfileRequest struct {
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}
