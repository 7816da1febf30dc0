package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/snowstorm/snowstorm_backend/controllers"
	"github.com/snowstorm/snowstorm_backend/middleware"
)

// RegisterEbookRoutes sets up catalog and feedback routes
func RegisterEbookRoutes(e *echo.Echo, ebookController *controllers.EbookController, feedbackController *controllers.FeedbackController) {
	e.GET("/api/ebooks", ebookController.ListEbooks)
	e.GET("/api/ebooks/upcoming", ebookController.ListUpcoming)
	e.POST("/api/ebooks/upcoming/register", ebookController.RegisterUpcoming)
	e.GET("/api/feedback/:ebookId", feedbackController.ListFeedback)

	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())
	r.POST("/feedback", feedbackController.SubmitFeedback)

	admin := e.Group("/api")
	admin.Use(middleware.JWTMiddleware(), middleware.RequireAdmin())
	admin.POST("/ebooks", ebookController.CreateEbook)
}
