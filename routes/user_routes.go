package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/snowstorm/snowstorm_backend/controllers"
	"github.com/snowstorm/snowstorm_backend/middleware"
)

// RegisterUserRoutes sets up protected profile and session routes
func RegisterUserRoutes(e *echo.Echo, db *mongo.Client, authController *controllers.AuthController, userController *controllers.UserController) {
	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware(), middleware.ActivityTracker(db))

	r.POST("/auth/logout", authController.Logout)
	r.GET("/users/:id", userController.GetUser)
	r.PUT("/users/:id", userController.UpdateUser)
	r.DELETE("/users/:id", userController.DeleteUser)
}
