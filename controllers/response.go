package controllers

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snowstorm/snowstorm_backend/models"
)

func optionsReturnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

// internalError logs the underlying error with context and returns a
// generic 500 without leaking internals to the client.
func internalError(c echo.Context, message string, err error) error {
	log.Printf("%s: %v", message, err)
	return c.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: message,
		Code:    models.CodeInternal,
	})
}
