// controllers/user_controller.go

package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/snowstorm/snowstorm_backend/config"
	"github.com/snowstorm/snowstorm_backend/middleware"
	"github.com/snowstorm/snowstorm_backend/models"
	"github.com/snowstorm/snowstorm_backend/utils"
)

// UserController handles profile operations
type UserController struct {
	DB *mongo.Client
}

// NewUserController creates a new user controller
func NewUserController(db *mongo.Client) *UserController {
	return &UserController{DB: db}
}

// resolveTarget checks that the caller owns the profile or is an admin and
// returns the target ObjectID.
func resolveTarget(c echo.Context) (primitive.ObjectID, error) {
	id := c.Param("id")
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}
	if claims.UserID != id && claims.Role != models.RoleAdmin {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusForbidden, "You can only access your own profile")
	}
	return objID, nil
}

// GetUser returns a user's profile.
func (uc *UserController) GetUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objID, err := resolveTarget(c)
	if err != nil {
		return err
	}

	collection := config.GetCollection(uc.DB, "users")

	var user models.User
	if err := collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
				Code:    models.CodeNotFound,
			})
		}
		return internalError(c, "Failed to find user", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User retrieved successfully",
		Data:    user,
	})
}

// UpdateUser updates mutable profile fields.
func (uc *UserController) UpdateUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objID, err := resolveTarget(c)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
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
			Message: "Email must be a valid address",
			Code:    models.CodeValidation,
		})
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.FullName != "" {
		set["fullName"] = utils.SanitizeInput(req.FullName)
	}
	if req.Email != "" {
		email, err := utils.SanitizeEmail(req.Email)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid email format",
				Code:    models.CodeValidation,
			})
		}
		set["email"] = email
	}

	collection := config.GetCollection(uc.DB, "users")

	var user models.User
	err = collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": set},
		optionsReturnAfter(),
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
				Code:    models.CodeNotFound,
			})
		}
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "An account with this email already exists",
				Code:    models.CodeValidation,
			})
		}
		return internalError(c, "Failed to update user", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile updated successfully",
		Data:    user,
	})
}

// DeleteUser deactivates an account. Records are kept for order history.
func (uc *UserController) DeleteUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objID, err := resolveTarget(c)
	if err != nil {
		return err
	}

	collection := config.GetCollection(uc.DB, "users")

	result, err := collection.UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}},
	)
	if err != nil {
		return internalError(c, "Failed to deactivate user", err)
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
			Code:    models.CodeNotFound,
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Account deactivated successfully",
	})
}
