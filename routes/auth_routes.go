package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/snowstorm/snowstorm_backend/controllers"
)

// RegisterAuthRoutes sets up public authentication routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	e.POST("/api/auth/signup", authController.Signup)
	e.POST("/api/auth/login", authController.Login)
	e.POST("/api/auth/google", authController.GoogleLogin)
	e.POST("/api/auth/remembered-login", authController.RememberedLogin)
	e.GET("/api/auth/validate", authController.ValidateToken)
}
