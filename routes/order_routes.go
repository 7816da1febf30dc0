package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/snowstorm/snowstorm_backend/controllers"
	"github.com/snowstorm/snowstorm_backend/middleware"
)

// RegisterOrderRoutes sets up checkout and payment verification routes
func RegisterOrderRoutes(e *echo.Echo, orderController *controllers.OrderController) {
	// The publishable key id is needed before login to render the checkout.
	e.GET("/api/payments/key", orderController.GetGatewayKey)

	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())

	r.POST("/orders", orderController.CreateOrder)
	r.POST("/orders/verify", orderController.VerifyPayment)
	r.POST("/orders/:id/failed", orderController.FailOrder)
	r.GET("/orders", orderController.GetOrders)

	admin := e.Group("/api")
	admin.Use(middleware.JWTMiddleware(), middleware.RequireAdmin())
	admin.POST("/orders/:id/refund", orderController.RefundOrder)
}
