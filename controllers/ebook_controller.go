// controllers/ebook_controller.go

package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snowstorm/snowstorm_backend/config"
	"github.com/snowstorm/snowstorm_backend/models"
	"github.com/snowstorm/snowstorm_backend/utils"
)

// EbookController handles catalog operations
type EbookController struct {
	DB *mongo.Client
}

// NewEbookController creates a new ebook controller
func NewEbookController(db *mongo.Client) *EbookController {
	return &EbookController{DB: db}
}

// ListEbooks returns published ebooks, newest first.
func (ec *EbookController) ListEbooks(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := config.GetCollection(ec.DB, "ebooks")

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := collection.Find(ctx, bson.M{"status": models.EbookStatusPublished}, opts)
	if err != nil {
		return internalError(c, "Failed to fetch ebooks", err)
	}
	defer cursor.Close(ctx)

	ebooks := []models.Ebook{}
	if err := cursor.All(ctx, &ebooks); err != nil {
		return internalError(c, "Failed to decode ebooks", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Ebooks retrieved successfully",
		Data:    ebooks,
	})
}

// ListUpcoming returns upcoming ebooks ordered by release date.
func (ec *EbookController) ListUpcoming(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := config.GetCollection(ec.DB, "ebooks")

	opts := options.Find().SetSort(bson.D{{Key: "releaseDate", Value: 1}})
	cursor, err := collection.Find(ctx, bson.M{"status": models.EbookStatusUpcoming}, opts)
	if err != nil {
		return internalError(c, "Failed to fetch upcoming ebooks", err)
	}
	defer cursor.Close(ctx)

	ebooks := []models.Ebook{}
	if err := cursor.All(ctx, &ebooks); err != nil {
		return internalError(c, "Failed to decode upcoming ebooks", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Upcoming ebooks retrieved successfully",
		Data:    ebooks,
	})
}

// RegisterUpcoming puts an email on the discount list for an upcoming ebook.
func (ec *EbookController) RegisterUpcoming(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.UpcomingRegisterRequest
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
			Message: "An ebook ID and a valid email are required",
			Code:    models.CodeValidation,
		})
	}

	ebookID, err := primitive.ObjectIDFromHex(req.EbookID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid ebook ID",
			Code:    models.CodeValidation,
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
			Code:    models.CodeValidation,
		})
	}

	ebooks := config.GetCollection(ec.DB, "ebooks")
	var ebook models.Ebook
	if err := ebooks.FindOne(ctx, bson.M{"_id": ebookID, "status": models.EbookStatusUpcoming}).Decode(&ebook); err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Upcoming ebook not found",
				Code:    models.CodeNotFound,
			})
		}
		return internalError(c, "Failed to find ebook", err)
	}

	registrations := config.GetCollection(ec.DB, "upcoming_registrations")

	// One registration per email per ebook. Re-registering is a no-op.
	count, err := registrations.CountDocuments(ctx, bson.M{"ebookId": ebookID, "email": email})
	if err != nil {
		return internalError(c, "Failed to check existing registrations", err)
	}
	if count == 0 {
		registration := models.UpcomingRegistration{
			ID:        primitive.NewObjectID(),
			EbookID:   ebookID,
			Email:     email,
			CreatedAt: time.Now(),
		}
		if _, err := registrations.InsertOne(ctx, registration); err != nil {
			return internalError(c, "Failed to register", err)
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Registered for release updates",
	})
}

// CreateEbook adds a catalog entry from a multipart form. The cover image is
// resampled into a thumbnail; the ebook asset itself stays off the public
// JSON surface.
func (ec *EbookController) CreateEbook(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	title := utils.SanitizeInput(c.FormValue("title"))
	if title == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Title is required",
			Code:    models.CodeValidation,
		})
	}

	price, err := strconv.ParseInt(c.FormValue("price"), 10, 64)
	if err != nil || price <= 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Price must be a positive integer in minor units",
			Code:    models.CodeValidation,
		})
	}

	status := c.FormValue("status")
	if status == "" {
		status = models.EbookStatusPublished
	}
	if status != models.EbookStatusPublished && status != models.EbookStatusUpcoming && status != models.EbookStatusArchived {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid status",
			Code:    models.CodeValidation,
		})
	}

	currency := c.FormValue("currency")
	if currency == "" {
		currency = "INR"
	}

	now := time.Now()
	ebook := models.Ebook{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Author:      utils.SanitizeInput(c.FormValue("author")),
		Description: utils.SanitizeInput(c.FormValue("description")),
		Price:       price,
		Currency:    currency,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if releaseDate := c.FormValue("releaseDate"); releaseDate != "" {
		parsed, err := time.Parse(time.RFC3339, releaseDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Release date must be RFC3339",
				Code:    models.CodeValidation,
			})
		}
		ebook.ReleaseDate = &parsed
	}

	if cover, err := c.FormFile("cover"); err == nil {
		if err := utils.ValidateCoverImage(cover.Filename, cover.Size); err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
				Code:    models.CodeValidation,
			})
		}
		coverPath, err := utils.SaveUpload(cover, "covers")
		if err != nil {
			return internalError(c, "Failed to save cover image", err)
		}
		ebook.CoverPath = coverPath

		thumbPath, err := utils.GenerateCoverThumbnail(coverPath)
		if err != nil {
			// The cover itself is saved, a missing thumbnail is recoverable.
			log.Printf("Failed to generate cover thumbnail for %s: %v", coverPath, err)
		} else {
			ebook.ThumbnailPath = thumbPath
		}
	}

	if asset, err := c.FormFile("asset"); err == nil {
		if err := utils.ValidateEbookAsset(asset.Filename, asset.Size); err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
				Code:    models.CodeValidation,
			})
		}
		assetPath, err := utils.SaveUpload(asset, "ebooks")
		if err != nil {
			return internalError(c, "Failed to save ebook asset", err)
		}
		ebook.AssetPath = assetPath
	}

	collection := config.GetCollection(ec.DB, "ebooks")
	if _, err := collection.InsertOne(ctx, ebook); err != nil {
		return internalError(c, "Failed to create ebook", err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Ebook created successfully",
		Data:    ebook,
	})
}
