package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"net/http"
	"os"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/snowstorm/snowstorm_backend/models"
	"github.com/snowstorm/snowstorm_backend/repositories"
	"github.com/snowstorm/snowstorm_backend/utils"
)

// AffiliateController handles affiliate management and dashboards.
type AffiliateController struct {
	DB         *mongo.Client
	affiliates *repositories.AffiliateRepository
}

func NewAffiliateController(db *mongo.Client, affiliates *repositories.AffiliateRepository) *AffiliateController {
	return &AffiliateController{DB: db, affiliates: affiliates}
}

// CreateAffiliate handles POST /api/affiliates (admin only).
func (ac *AffiliateController) CreateAffiliate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.CreateAffiliateRequest
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
			Message: "Name, a valid email and a commission rate between 0 and 1 are required",
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

	rate := req.CommissionRate
	if rate == 0 {
		rate = models.DefaultCommissionRate
	}

	affiliate, err := ac.affiliates.Create(ctx, utils.SanitizeInput(req.Name), email, rate)
	if err != nil {
		if err == models.ErrInvalidCommissionRate {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Commission rate must be between 0 and 1",
				Code:    models.CodeValidation,
			})
		}
		return internalError(c, "Failed to create affiliate", err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Affiliate created successfully",
		Data:    affiliate,
	})
}

// GetAffiliate handles GET /api/affiliates/:code. Soft-deleted affiliates
// resolve to 404.
func (ac *AffiliateController) GetAffiliate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	affiliate, err := ac.affiliates.FindActiveByCode(ctx, c.Param("code"))
	if err != nil {
		if err == models.ErrAffiliateNotFound {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Affiliate not found",
				Code:    models.CodeNotFound,
			})
		}
		return internalError(c, "Failed to resolve affiliate", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Affiliate found",
		Data:    affiliate,
	})
}

// GetStats handles GET /api/affiliates/:code/stats: live counters plus the
// most recent credited commissions.
func (ac *AffiliateController) GetStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := ac.affiliates.Stats(ctx, c.Param("code"))
	if err != nil {
		if err == models.ErrAffiliateNotFound {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Affiliate not found",
				Code:    models.CodeNotFound,
			})
		}
		return internalError(c, "Failed to fetch affiliate stats", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Affiliate stats",
		Data:    stats,
	})
}

// GetReferralQRCode handles GET /api/affiliates/:code/qr. Returns the
// affiliate's referral landing link as an embeddable PNG QR code.
func (ac *AffiliateController) GetReferralQRCode(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	affiliate, err := ac.affiliates.FindActiveByCode(ctx, c.Param("code"))
	if err != nil {
		if err == models.ErrAffiliateNotFound {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Affiliate not found",
				Code:    models.CodeNotFound,
			})
		}
		return internalError(c, "Failed to resolve affiliate", err)
	}

	link := referralLink(affiliate.Code)
	qrImage, err := generateQRCode(link)
	if err != nil {
		return internalError(c, "Failed to generate QR code", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral QR code generated",
		Data: map[string]string{
			"referralCode": affiliate.Code,
			"referralLink": link,
			"qrCode":       qrImage,
		},
	})
}

// RecordPayout handles POST /api/affiliates/:code/payouts (admin only).
func (ac *AffiliateController) RecordPayout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.PayoutRequest
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
			Message: "Payout amount must be greater than zero",
			Code:    models.CodeValidation,
		})
	}

	// Payouts may settle commissions earned before a soft delete, so the
	// lookup here includes inactive affiliates.
	stats, err := ac.affiliates.Stats(ctx, c.Param("code"))
	if err != nil {
		if err == models.ErrAffiliateNotFound {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Affiliate not found",
				Code:    models.CodeNotFound,
			})
		}
		return internalError(c, "Failed to resolve affiliate", err)
	}

	payout, err := ac.affiliates.RecordPayout(ctx, stats.Affiliate.ID, req.Amount, utils.SanitizeInput(req.Note))
	if err != nil {
		if err == models.ErrInvalidAmount {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Payout amount must be greater than zero",
				Code:    models.CodeValidation,
			})
		}
		return internalError(c, "Failed to record payout", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout recorded",
		Data:    payout,
	})
}

// UpdateRate handles PUT /api/affiliates/:code/rate (admin only). Past
// orders keep their snapshotted rate.
func (ac *AffiliateController) UpdateRate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.UpdateRateRequest
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
			Message: "Commission rate must be between 0 and 1",
			Code:    models.CodeValidation,
		})
	}

	affiliate, err := ac.affiliates.UpdateRate(ctx, c.Param("code"), req.CommissionRate)
	if err != nil {
		switch err {
		case models.ErrInvalidCommissionRate:
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Commission rate must be between 0 and 1",
				Code:    models.CodeValidation,
			})
		case models.ErrAffiliateNotFound:
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Affiliate not found",
				Code:    models.CodeNotFound,
			})
		default:
			return internalError(c, "Failed to update commission rate", err)
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission rate updated",
		Data:    affiliate,
	})
}

// DeleteAffiliate handles DELETE /api/affiliates/:code (admin only).
// Soft delete: historical attribution stays intact.
func (ac *AffiliateController) DeleteAffiliate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := ac.affiliates.SoftDelete(ctx, c.Param("code")); err != nil {
		if err == models.ErrAffiliateNotFound {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Affiliate not found",
				Code:    models.CodeNotFound,
			})
		}
		return internalError(c, "Failed to delete affiliate", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Affiliate deactivated",
	})
}

func referralLink(code string) string {
	base := os.Getenv("FRONTEND_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	return fmt.Sprintf("%s/?ref=%s", base, code)
}

// generateQRCode renders content as a 300x300 PNG and returns it as a
// base64 data URI for direct embedding.
func generateQRCode(content string) (string, error) {
	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", err
	}

	qrCode, err = barcode.Scale(qrCode, 300, 300)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return "", err
	}

	base64QR := base64.StdEncoding.EncodeToString(buf.Bytes())
	return "data:image/png;base64," + base64QR, nil
}
