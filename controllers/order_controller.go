package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/snowstorm/snowstorm_backend/config"
	"github.com/snowstorm/snowstorm_backend/middleware"
	"github.com/snowstorm/snowstorm_backend/models"
	"github.com/snowstorm/snowstorm_backend/repositories"
	"github.com/snowstorm/snowstorm_backend/services"
	"github.com/snowstorm/snowstorm_backend/utils"
	"github.com/snowstorm/snowstorm_backend/websocket"
)

// OrderController orchestrates the payment flow: gateway order creation,
// callback verification, the paid transition and commission attribution.
type OrderController struct {
	DB         *mongo.Client
	orders     *repositories.OrderRepository
	affiliates *repositories.AffiliateRepository
	gateway    *services.RazorpayService
	hub        *websocket.Hub
}

func NewOrderController(db *mongo.Client, orders *repositories.OrderRepository, affiliates *repositories.AffiliateRepository, gateway *services.RazorpayService, hub *websocket.Hub) *OrderController {
	return &OrderController{
		DB:         db,
		orders:     orders,
		affiliates: affiliates,
		gateway:    gateway,
		hub:        hub,
	}
}

func orderExpiryWindow() time.Duration {
	minutes := 60
	if v := os.Getenv("ORDER_EXPIRY_MINUTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			minutes = parsed
		}
	}
	return time.Duration(minutes) * time.Minute
}

// CreateOrder handles POST /api/orders. It creates the gateway order first
// and only then the ledger row, so a gateway failure leaves nothing behind.
func (oc *OrderController) CreateOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
			Code:    models.CodeUnauthorized,
		})
	}
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
			Code:    models.CodeValidation,
		})
	}

	var req models.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
			Code:    models.CodeValidation,
		})
	}
	if err := c.Validate(&req); err != nil || req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Amount must be greater than zero",
			Code:    models.CodeValidation,
		})
	}

	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	order := &models.Order{
		UserID:   userObjID,
		Amount:   req.Amount,
		Currency: currency,
	}

	// Resolve the product when one is referenced; the ledger amount must
	// match the catalog price so the client cannot set its own charge.
	if req.EbookID != "" {
		ebookObjID, err := primitive.ObjectIDFromHex(req.EbookID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid ebook ID",
				Code:    models.CodeValidation,
			})
		}

		var ebook models.Ebook
		err = config.GetCollection(oc.DB, "ebooks").FindOne(ctx, bson.M{"_id": ebookObjID}).Decode(&ebook)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return c.JSON(http.StatusNotFound, models.Response{
					Status:  http.StatusNotFound,
					Message: "Ebook not found",
					Code:    models.CodeNotFound,
				})
			}
			return internalError(c, "Failed to look up ebook", err)
		}
		if ebook.Status != models.EbookStatusPublished || ebook.Price != req.Amount {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Amount does not match the ebook price",
				Code:    models.CodeValidation,
			})
		}
		order.EbookID = &ebookObjID
	}

	// An explicitly passed affiliate code overrides the stored referral
	// (last-touch attribution).
	code := req.AffiliateCode
	if code == "" {
		code = req.ReferralCode
	}
	if code != "" {
		order.AffiliateCode = code
		affiliate, err := oc.affiliates.FindActiveByCode(ctx, code)
		if err == nil {
			// Snapshot the rate now; later rate changes never alter this order
			order.CommissionRate = affiliate.CommissionRate
		} else if err != models.ErrAffiliateNotFound {
			return internalError(c, "Failed to resolve referral code", err)
		}
	}

	gatewayOrder, err := oc.gateway.CreateOrder(order.Amount, order.Currency, services.NewReceipt())
	if err != nil {
		if err == models.ErrGatewayUnavailable {
			return c.JSON(http.StatusBadGateway, models.Response{
				Status:  http.StatusBadGateway,
				Message: "Payment gateway unavailable, please retry",
				Code:    models.CodeGatewayError,
			})
		}
		log.Printf("Gateway order creation failed: %v", err)
		return c.JSON(http.StatusBadGateway, models.Response{
			Status:  http.StatusBadGateway,
			Message: "Failed to create payment order",
			Code:    models.CodeGatewayError,
		})
	}

	order.GatewayOrderID = gatewayOrder.ID
	order.Receipt = gatewayOrder.Receipt
	expiresAt := time.Now().Add(orderExpiryWindow())
	order.ExpiresAt = &expiresAt

	if err := oc.orders.Create(ctx, order); err != nil {
		// No ledger row exists; the unpaid gateway order is inert and the
		// client retries the whole creation.
		return internalError(c, "Failed to save order", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Order created successfully",
		Data: map[string]interface{}{
			"order":        order,
			"gatewayOrder": gatewayOrder,
		},
	})
}

// VerifyPayment handles POST /api/orders/verify. Idempotent: re-submitting
// the same successful callback returns the same paid order without touching
// affiliate counters again.
func (oc *OrderController) VerifyPayment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var req models.VerifyPaymentRequest
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
			Message: "Missing payment verification fields",
			Code:    models.CodeValidation,
		})
	}

	orderObjID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid order ID",
			Code:    models.CodeValidation,
		})
	}

	// Recompute the signature server-side before touching the ledger. A
	// mismatch leaves the order in "created" for manual reconciliation.
	if !oc.gateway.VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature) {
		log.Printf("Payment signature mismatch for order %s (gateway order %s)", req.OrderID, req.GatewayOrderID)
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Payment verification failed",
			Code:    models.CodeSignatureMismatch,
		})
	}

	order, err := oc.orders.FindByID(ctx, orderObjID)
	if err != nil {
		if err == models.ErrOrderNotFound {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Order not found",
				Code:    models.CodeNotFound,
			})
		}
		return internalError(c, "Failed to load order", err)
	}

	// The signed identifiers must belong to this ledger entry
	if order.GatewayOrderID != req.GatewayOrderID {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Payment does not belong to this order",
			Code:    models.CodeAlreadyProcessed,
		})
	}

	order, transitioned, err := oc.orders.MarkPaid(ctx, orderObjID, req.GatewayPaymentID, req.GatewaySignature)
	if err != nil {
		switch err {
		case models.ErrOrderExpired:
			return c.JSON(http.StatusGone, models.Response{
				Status:  http.StatusGone,
				Message: "Order has expired and can no longer be paid",
				Code:    models.CodeOrderExpired,
			})
		case models.ErrAlreadyProcessed:
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Order was already processed",
				Code:    models.CodeAlreadyProcessed,
			})
		case models.ErrOrderNotFound:
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Order not found",
				Code:    models.CodeNotFound,
			})
		default:
			return internalError(c, "Failed to update order", err)
		}
	}

	if !transitioned {
		// Already paid. Matching identifiers mean a duplicate callback:
		// idempotent success. Anything else is a conflicting payment claim.
		if order.GatewayPaymentID == req.GatewayPaymentID {
			return c.JSON(http.StatusOK, models.Response{
				Status:  http.StatusOK,
				Message: "Payment already verified",
				Data:    map[string]interface{}{"order": order},
			})
		}
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Order already paid with a different payment",
			Code:    models.CodeAlreadyProcessed,
		})
	}

	// This request won the created -> paid race and owns the follow-ups.
	order = oc.creditCommission(ctx, order)

	oc.dispatchNotifications(order)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment verified successfully",
		Data:    map[string]interface{}{"order": order},
	})
}

// creditCommission applies the affiliate credit for a freshly paid order.
// Failures are logged and never fail the verification response: the
// commission entry's unique index keeps retries and reconciliation safe.
func (oc *OrderController) creditCommission(ctx context.Context, order *models.Order) *models.Order {
	if order.AffiliateCode == "" || order.CommissionRate <= 0 {
		return order
	}

	affiliate, err := oc.affiliates.FindActiveByCode(ctx, order.AffiliateCode)
	if err != nil {
		if err != models.ErrAffiliateNotFound {
			log.Printf("Failed to resolve affiliate %s for order %s: %v", order.AffiliateCode, order.ID.Hex(), err)
		}
		return order
	}

	entry, err := oc.affiliates.CreditCommission(ctx, affiliate, order)
	if err != nil {
		if err == models.ErrCommissionAlreadyCredited {
			return order
		}
		log.Printf("Failed to credit commission for order %s: %v", order.ID.Hex(), err)
		return order
	}

	if err := oc.orders.MarkCommissionApplied(ctx, order.ID); err != nil {
		log.Printf("Failed to flag commission on order %s: %v", order.ID.Hex(), err)
	} else {
		order.CommissionApplied = true
	}

	go oc.notifyAffiliate(affiliate, order, entry)
	return order
}

// notifyAffiliate emails the affiliate and pushes a dashboard event.
func (oc *OrderController) notifyAffiliate(affiliate *models.Affiliate, order *models.Order, entry *models.CommissionEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buyerName := oc.buyerName(ctx, order.UserID)
	utils.SendAffiliateSaleAlert(affiliate, buyerName, order)

	if oc.hub != nil {
		var affiliateUser models.User
		err := config.GetCollection(oc.DB, "users").FindOne(ctx, bson.M{"affiliateId": affiliate.ID}).Decode(&affiliateUser)
		if err == nil {
			oc.hub.NotifyCommission(affiliateUser.ID, entry)
		}
	}
}

// dispatchNotifications fires the buyer receipt and dashboard sale event.
// Fire-and-forget: a notification failure is never a payment failure.
func (oc *OrderController) dispatchNotifications(order *models.Order) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var buyer models.User
		if err := config.GetCollection(oc.DB, "users").FindOne(ctx, bson.M{"_id": order.UserID}).Decode(&buyer); err != nil {
			log.Printf("Failed to load buyer for order %s: %v", order.ID.Hex(), err)
			return
		}

		var ebook *models.Ebook
		if order.EbookID != nil {
			var e models.Ebook
			if err := config.GetCollection(oc.DB, "ebooks").FindOne(ctx, bson.M{"_id": *order.EbookID}).Decode(&e); err == nil {
				ebook = &e
			}
		}

		utils.SendBuyerReceipt(&buyer, order, ebook)

		if oc.hub != nil {
			oc.hub.NotifySale(map[string]interface{}{
				"orderId":       order.ID.Hex(),
				"amount":        order.Amount,
				"currency":      order.Currency,
				"affiliateCode": order.AffiliateCode,
			})
		}
	}()
}

func (oc *OrderController) buyerName(ctx context.Context, userID primitive.ObjectID) string {
	var buyer models.User
	err := config.GetCollection(oc.DB, "users").FindOne(ctx, bson.M{"_id": userID}).Decode(&buyer)
	if err != nil {
		return ""
	}
	return buyer.FullName
}

// GetOrders handles GET /api/orders: the authenticated buyer's orders,
// newest first.
func (oc *OrderController) GetOrders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
			Code:    models.CodeUnauthorized,
		})
	}
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
			Code:    models.CodeValidation,
		})
	}

	orders, err := oc.orders.FindByBuyer(ctx, userObjID)
	if err != nil {
		return internalError(c, "Failed to fetch orders", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Orders retrieved successfully",
		Data:    orders,
	})
}

// FailOrder handles POST /api/orders/:id/failed. The SPA calls it when the
// buyer dismisses the checkout widget or the gateway rejects the payment.
// Only "created" orders move to "failed"; anything else is reported back
// unchanged, since a dismissal can race a successful verification.
func (oc *OrderController) FailOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
			Code:    models.CodeUnauthorized,
		})
	}
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
			Code:    models.CodeValidation,
		})
	}

	orderObjID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid order ID",
			Code:    models.CodeValidation,
		})
	}

	order, err := oc.orders.FindByID(ctx, orderObjID)
	if err != nil {
		if err == models.ErrOrderNotFound {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Order not found",
				Code:    models.CodeNotFound,
			})
		}
		return internalError(c, "Failed to fetch order", err)
	}
	if order.UserID != userObjID {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Order belongs to another buyer",
			Code:    models.CodeUnauthorized,
		})
	}

	order, err = oc.orders.MarkFailed(ctx, orderObjID)
	if err != nil {
		return internalError(c, "Failed to update order", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Order updated",
		Data:    order,
	})
}

// RefundOrder handles POST /api/orders/:id/refund (admin). The only
// permitted exit from "paid".
func (oc *OrderController) RefundOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orderObjID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid order ID",
			Code:    models.CodeValidation,
		})
	}

	order, err := oc.orders.Refund(ctx, orderObjID)
	if err != nil {
		switch err {
		case models.ErrOrderNotFound:
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Order not found",
				Code:    models.CodeNotFound,
			})
		case models.ErrOrderNotRefundable:
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Only paid orders can be refunded",
				Code:    models.CodeAlreadyProcessed,
			})
		default:
			return internalError(c, "Failed to refund order", err)
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Order refunded",
		Data:    order,
	})
}

// GetGatewayKey handles GET /api/payments/key: the publishable key id the
// SPA needs to open the checkout widget.
func (oc *OrderController) GetGatewayKey(c echo.Context) error {
	key := oc.gateway.KeyID()
	if key == "" {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Payment gateway key not configured",
			Code:    models.CodeInternal,
		})
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Gateway key",
		Data:    map[string]string{"key": key},
	})
}
