// controllers/visit_controller.go

package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/snowstorm/snowstorm_backend/models"
	"github.com/snowstorm/snowstorm_backend/repositories"
)

// VisitController records referral landing-page clicks
type VisitController struct {
	affiliates *repositories.AffiliateRepository
}

// NewVisitController creates a new visit controller
func NewVisitController(affiliates *repositories.AffiliateRepository) *VisitController {
	return &VisitController{affiliates: affiliates}
}

// RecordVisit logs a referral click. Unknown or inactive codes are accepted
// silently so the landing page never breaks on a stale link.
func (vc *VisitController) RecordVisit(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.RecordVisitRequest
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
			Message: "A referral code is required",
			Code:    models.CodeValidation,
		})
	}

	visit := models.Visit{
		AffiliateCode: req.AffiliateCode,
		IP:            c.RealIP(),
		UserAgent:     c.Request().UserAgent(),
		Referrer:      req.Referrer,
		LandingPath:   req.LandingPath,
	}

	if err := vc.affiliates.RecordVisit(ctx, &visit); err != nil {
		return internalError(c, "Failed to record visit", err)
	}

	return c.JSON(http.StatusAccepted, models.Response{
		Status:  http.StatusAccepted,
		Message: "Visit recorded",
	})
}
