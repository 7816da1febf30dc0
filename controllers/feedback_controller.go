// controllers/feedback_controller.go

package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snowstorm/snowstorm_backend/config"
	"github.com/snowstorm/snowstorm_backend/middleware"
	"github.com/snowstorm/snowstorm_backend/models"
	"github.com/snowstorm/snowstorm_backend/utils"
)

// FeedbackController handles customer feedback
type FeedbackController struct {
	DB *mongo.Client
}

// NewFeedbackController creates a new feedback controller
func NewFeedbackController(db *mongo.Client) *FeedbackController {
	return &FeedbackController{DB: db}
}

// SubmitFeedback stores a message and optional rating from the signed-in user.
func (fc *FeedbackController) SubmitFeedback(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
			Code:    models.CodeUnauthorized,
		})
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
			Code:    models.CodeUnauthorized,
		})
	}

	var req models.FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
			Code:    models.CodeValidation,
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "A message is required and rating must be between 1 and 5",
			Code:    models.CodeValidation,
		})
	}

	feedback := models.Feedback{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Message:   utils.SanitizeInput(req.Message),
		Rating:    req.Rating,
		CreatedAt: time.Now(),
	}

	if req.EbookID != "" {
		ebookID, err := primitive.ObjectIDFromHex(req.EbookID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid ebook ID",
				Code:    models.CodeValidation,
			})
		}
		feedback.EbookID = &ebookID
	}

	// Denormalize the display name so listings skip a user lookup.
	var user models.User
	users := config.GetCollection(fc.DB, "users")
	if err := users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err == nil {
		feedback.UserName = user.FullName
	}

	collection := config.GetCollection(fc.DB, "feedback")
	if _, err := collection.InsertOne(ctx, feedback); err != nil {
		return internalError(c, "Failed to submit feedback", err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Feedback submitted successfully",
		Data:    feedback,
	})
}

// ListFeedback returns feedback for an ebook, newest first.
func (fc *FeedbackController) ListFeedback(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ebookID, err := primitive.ObjectIDFromHex(c.Param("ebookId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid ebook ID",
			Code:    models.CodeValidation,
		})
	}

	collection := config.GetCollection(fc.DB, "feedback")

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := collection.Find(ctx, bson.M{"ebookId": ebookID}, opts)
	if err != nil {
		return internalError(c, "Failed to fetch feedback", err)
	}
	defer cursor.Close(ctx)

	feedback := []models.Feedback{}
	if err := cursor.All(ctx, &feedback); err != nil {
		return internalError(c, "Failed to decode feedback", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Feedback retrieved successfully",
		Data:    feedback,
	})
}
