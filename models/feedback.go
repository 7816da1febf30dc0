package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feedback is a customer note on an ebook, or on the store when EbookID is nil.
type Feedback struct {
	ID        primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID  `json:"userId" bson:"userId"`
	EbookID   *primitive.ObjectID `json:"ebookId,omitempty" bson:"ebookId,omitempty"`
	UserName  string              `json:"userName,omitempty" bson:"userName,omitempty"`
	Message   string              `json:"message" bson:"message"`
	Rating    int                 `json:"rating" bson:"rating"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
}

// FeedbackRequest is the payload for POST /api/feedback.
type FeedbackRequest struct {
	EbookID string `json:"ebookId,omitempty"`
	Message string `json:"message" validate:"required"`
	Rating  int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
}
