package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "stockai-backend/internal/common/errors"
	authmw "stockai-backend/internal/features/auth/middleware"
	authservice "stockai-backend/internal/features/auth/service"
	"stockai-backend/internal/features/payments/models"
	"stockai-backend/internal/features/payments/service"
	userservice "stockai-backend/internal/features/user/service"
)

type PaymentHandler struct {
	payments service.PaymentService
	users    userservice.UserService
	origin   string
}

func NewPaymentHandler(payments service.PaymentService, users userservice.UserService, origin string) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		users:    users,
		origin:   origin,
	}
}

// RegisterRoutes mounts the shared verify-by-id endpoint plus the per-product
// route groups. All product routes are thin adapters over the same engine;
// none carries its own gateway-then-database logic.
func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/payments/verify-by-id", h.VerifyByID)

	for _, product := range []models.ProductType{models.ProductPredictions, models.ProductTopGainers} {
		group := router.Group("/" + product.PathSegment())
		p := product

		group.GET("/verify-payment", func(c *gin.Context) { h.verifyPayment(c, p) })
		group.POST("/webhook", func(c *gin.Context) { h.webhook(c, p) })

		authed := group.Group("")
		authed.Use(authmw.RequireSession())
		{
			authed.POST("/create-payment", func(c *gin.Context) { h.createPayment(c, p) })
			authed.POST("/revert-payment", func(c *gin.Context) { h.revertPayment(c, p) })
			authed.GET("/check-access", func(c *gin.Context) { h.checkAccess(c, p) })
		}
	}
}

type verifyByIDRequest struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Product   string `json:"product"`
}

// @Summary Verify a payment by its gateway payment id
// @Description Reconciles a claimed payment against Razorpay and the order store, granting the entitlement on success.
// @Tags payments
// @Accept json
// @Produce json
// @Param request body verifyByIDRequest true "Payment to verify"
// @Success 200 {object} models.VerificationResult "Verified"
// @Failure 400 {object} models.VerificationResult "Missing payment_id"
// @Failure 402 {object} models.VerificationResult "Gateway status or amount mismatch"
// @Failure 404 {object} models.VerificationResult "No record of the payment anywhere"
// @Router /payments/verify-by-id [post]
func (h *PaymentHandler) VerifyByID(c *gin.Context) {
	var input verifyByIDRequest
	// A malformed or empty body falls through to the missing payment_id check.
	_ = c.ShouldBindJSON(&input)

	paymentID := strings.TrimSpace(input.PaymentID)
	if paymentID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"verified": false, "error": "Missing payment_id"})
		return
	}

	product := models.ProductPredictions
	if p, ok := models.ProductFromPath(input.Product); ok {
		product = p
	}

	result := h.payments.Verify(c.Request.Context(), service.VerifyRequest{
		PaymentID:           paymentID,
		OrderID:             input.OrderID,
		Product:             product,
		SessionUserID:       authmw.SessionUserID(c),
		SessionTokenPresent: authmw.SessionToken(c) != "",
	})

	c.JSON(verificationStatus(result), result)
}

// @Summary Verify a payment order
// @Description Looks up the order by id only; no gateway call on this path. With api=1 returns JSON, otherwise redirects back to the product page.
// @Tags payments
// @Produce json
// @Param order_id query string true "Order id"
// @Param api query string false "Set to 1 for a JSON response"
// @Success 200 {object} models.VerificationResult "Order state"
// @Failure 400 {object} models.VerificationResult "Missing order_id"
// @Failure 404 {object} models.VerificationResult "Order not found"
// @Router /{product}/verify-payment [get]
func (h *PaymentHandler) verifyPayment(c *gin.Context, product models.ProductType) {
	orderID := c.Query("order_id")
	apiMode := c.Query("api") == "1" || strings.Contains(c.GetHeader("Accept"), "application/json")
	page := "/" + product.PathSegment()

	if orderID == "" {
		// Refuse to auto-verify without an order id.
		if apiMode {
			c.JSON(http.StatusBadRequest, gin.H{"verified": false, "error": "missing_order"})
			return
		}
		h.redirect(c, page, "error=missing_order")
		return
	}

	result := h.payments.ConfirmOrder(c.Request.Context(), orderID, product)

	if apiMode {
		status := http.StatusOK
		if !result.Verified && result.Reason == models.ReasonNoRecord {
			status = http.StatusNotFound
		}
		c.JSON(status, result)
		return
	}

	switch {
	case result.Verified:
		h.redirect(c, page, "success=paid")
	case result.Reason == models.ReasonNoRecord:
		h.redirect(c, page, "error=order_not_found")
	default:
		h.redirect(c, page, "error=payment_not_verified")
	}
}

// @Summary Create a payment order
// @Description Creates a payment order and returns a hosted checkout link. Short-circuits with alreadyPaid when the session already has the entitlement.
// @Tags payments
// @Produce json
// @Success 200 {object} models.CreatePaymentResult "Order id and payment link"
// @Failure 401 {object} map[string]interface{} "No session"
// @Router /{product}/create-payment [post]
func (h *PaymentHandler) createPayment(c *gin.Context, product models.ProductType) {
	userID, email, name := h.identity(c)

	result, err := h.payments.CreatePayment(c.Request.Context(), userID, email, name, product)
	if err != nil {
		c.Error(apperrors.Wrapf(err, apperrors.ErrCodeInternal, "failed to create %s payment order", product))
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Revert paid access
// @Description Clears BOTH entitlement flags for the session's user and marks their orders reverted.
// @Tags payments
// @Produce json
// @Success 200 {object} map[string]interface{} "Reverted, with refreshed user snapshot"
// @Failure 400 {object} map[string]interface{} "User has no paid access"
// @Failure 401 {object} map[string]interface{} "No session"
// @Router /{product}/revert-payment [post]
func (h *PaymentHandler) revertPayment(c *gin.Context, product models.ProductType) {
	userID := authmw.SessionUserID(c)

	result, err := h.payments.Revert(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoAccess):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("User does not have %s access to revert", strings.ReplaceAll(string(product), "_", " "))})
		case errors.Is(err, service.ErrNoDatabase), errors.Is(err, userservice.ErrNoDatabase):
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database not configured"})
		case errors.Is(err, userservice.ErrUserNotFound):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized - User not found"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to revert payment", "details": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": result.Message,
		"user":    result.User,
	})
}

// @Summary Check paid access
// @Description Returns whether the session's user has the product entitlement.
// @Tags payments
// @Produce json
// @Success 200 {object} map[string]interface{} "hasAccess flag"
// @Failure 401 {object} map[string]interface{} "No session"
// @Router /{product}/check-access [get]
func (h *PaymentHandler) checkAccess(c *gin.Context, product models.ProductType) {
	userID := authmw.SessionUserID(c)

	hasAccess, err := h.payments.CheckAccess(c.Request.Context(), userID, product)
	if err != nil {
		if errors.Is(err, userservice.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.Error(apperrors.NewDatabaseError("check access", err))
		return
	}

	if !hasAccess {
		c.JSON(http.StatusOK, gin.H{"hasAccess": false, "message": fmt.Sprintf("Payment required for %s access", strings.ReplaceAll(string(product), "_", " "))})
		return
	}

	c.JSON(http.StatusOK, gin.H{"hasAccess": true})
}

// webhook accepts the gateway's payment-link callback. Razorpay posts the
// identifiers as query/form parameters.
func (h *PaymentHandler) webhook(c *gin.Context, product models.ProductType) {
	orderID := firstNonEmpty(
		c.Query("razorpay_payment_link_id"),
		c.PostForm("razorpay_payment_link_id"),
		c.Query("order_id"),
	)
	paymentID := firstNonEmpty(
		c.Query("razorpay_payment_id"),
		c.PostForm("razorpay_payment_id"),
	)
	linkStatus := firstNonEmpty(
		c.Query("razorpay_payment_link_status"),
		c.PostForm("razorpay_payment_link_status"),
	)

	if orderID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing order id"})
		return
	}

	if err := h.payments.HandleWebhook(c.Request.Context(), orderID, paymentID, linkStatus); err != nil {
		if errors.Is(err, service.ErrNoDatabase) {
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// identity returns the most complete identity available for the session:
// database snapshot when there is one, otherwise fields derived from a
// local token.
func (h *PaymentHandler) identity(c *gin.Context) (userID, email, name string) {
	userID = authmw.SessionUserID(c)

	if user, err := h.users.GetUser(c.Request.Context(), userID); err == nil {
		return userID, user.Email, user.Name
	}

	if localEmail, ok := authservice.ParseLocalToken(authmw.SessionToken(c)); ok {
		return userID, localEmail, userservice.DisplayName(localEmail)
	}

	return userID, "", ""
}

func (h *PaymentHandler) redirect(c *gin.Context, page, query string) {
	c.Redirect(http.StatusFound, fmt.Sprintf("%s%s?%s&t=%d", h.origin, page, query, time.Now().UnixMilli()))
}

func verificationStatus(result *models.VerificationResult) int {
	switch {
	case result.Verified:
		return http.StatusOK
	case result.Reason == models.ReasonMismatch:
		return http.StatusPaymentRequired
	case result.Reason == models.ReasonNoRecord:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
