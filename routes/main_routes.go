package routes

import (
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/snowstorm/snowstorm_backend/controllers"
	"github.com/snowstorm/snowstorm_backend/models"
	"github.com/snowstorm/snowstorm_backend/repositories"
	"github.com/snowstorm/snowstorm_backend/services"
	"github.com/snowstorm/snowstorm_backend/utils"
	"github.com/snowstorm/snowstorm_backend/websocket"
)

// SetupRoutes wires repositories, controllers and route groups onto the Echo
// instance and returns the running websocket hub.
func SetupRoutes(e *echo.Echo, db *mongo.Client, cache *redis.Client) *websocket.Hub {
	hub := websocket.NewHub()
	go hub.Run()

	orderRepo := repositories.NewOrderRepository(db)
	affiliateRepo := repositories.NewAffiliateRepository(db, cache)
	gateway := services.NewRazorpayService()

	authController := controllers.NewAuthController(db)
	userController := controllers.NewUserController(db)
	orderController := controllers.NewOrderController(db, orderRepo, affiliateRepo, gateway, hub)
	affiliateController := controllers.NewAffiliateController(db, affiliateRepo)
	visitController := controllers.NewVisitController(affiliateRepo)
	ebookController := controllers.NewEbookController(db)
	feedbackController := controllers.NewFeedbackController(db)

	RegisterAuthRoutes(e, authController)
	RegisterUserRoutes(e, db, authController, userController)
	RegisterOrderRoutes(e, orderController)
	RegisterAffiliateRoutes(e, affiliateController, visitController)
	RegisterEbookRoutes(e, ebookController, feedbackController)

	// Live sale feed. Browsers cannot set headers on websocket upgrades, so
	// the token rides in the query string.
	e.GET("/api/ws", func(c echo.Context) error {
		tokenString := c.QueryParam("token")
		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
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
		return websocket.HandleWebSocket(c, hub, userID)
	})

	return hub
}
