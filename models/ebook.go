package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ebook statuses
const (
	EbookStatusPublished = "published"
	EbookStatusUpcoming  = "upcoming"
	EbookStatusArchived  = "archived"
)

// Ebook is a catalog entry. AssetPath points at the deliverable file
// attached to the buyer's receipt email after a successful payment.
type Ebook struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title         string             `json:"title" bson:"title"`
	Author        string             `json:"author,omitempty" bson:"author,omitempty"`
	Description   string             `json:"description,omitempty" bson:"description,omitempty"`
	Price         int64              `json:"price" bson:"price"`
	Currency      string             `json:"currency" bson:"currency"`
	Status        string             `json:"status" bson:"status"`
	CoverPath     string             `json:"coverPath,omitempty" bson:"coverPath,omitempty"`
	ThumbnailPath string             `json:"thumbnailPath,omitempty" bson:"thumbnailPath,omitempty"`
	AssetPath     string             `json:"-" bson:"assetPath,omitempty"`
	ReleaseDate   *time.Time         `json:"releaseDate,omitempty" bson:"releaseDate,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// UpcomingRegistration captures a discount-list signup for an upcoming ebook.
type UpcomingRegistration struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	EbookID   primitive.ObjectID `json:"ebookId" bson:"ebookId"`
	Email     string             `json:"email" bson:"email"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// UpcomingRegisterRequest is the payload for POST /api/ebooks/upcoming/register.
type UpcomingRegisterRequest struct {
	EbookID string `json:"ebookId" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
}
