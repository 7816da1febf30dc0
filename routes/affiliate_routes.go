package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/snowstorm/snowstorm_backend/controllers"
	"github.com/snowstorm/snowstorm_backend/middleware"
)

// RegisterAffiliateRoutes sets up affiliate lookup, stats and admin management
func RegisterAffiliateRoutes(e *echo.Echo, affiliateController *controllers.AffiliateController, visitController *controllers.VisitController) {
	// Public, hit by landing pages before any login.
	e.GET("/api/affiliates/:code", affiliateController.GetAffiliate)
	e.POST("/api/visits", visitController.RecordVisit)

	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())
	r.GET("/affiliates/:code/qr", affiliateController.GetReferralQRCode)
	r.GET("/affiliates/:code/stats", affiliateController.GetStats)

	admin := e.Group("/api")
	admin.Use(middleware.JWTMiddleware(), middleware.RequireAdmin())
	admin.POST("/affiliates", affiliateController.CreateAffiliate)
	admin.POST("/affiliates/:code/payouts", affiliateController.RecordPayout)
	admin.PUT("/affiliates/:code/rate", affiliateController.UpdateRate)
	admin.DELETE("/affiliates/:code", affiliateController.DeleteAffiliate)
}
