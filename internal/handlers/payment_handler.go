package handlers

import (
	"net/http"

	"agroguide_backend/internal/dto"
	"agroguide_backend/internal/middleware"
	"agroguide_backend/internal/services"
	"agroguide_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	*BaseHandler
	paymentService services.PaymentService
}

func NewPaymentHandler(base *BaseHandler, paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	esewa := r.Group("/esewa")
	{
		// Consumed by the checkout UI before form-POSTing the browser
		// to the gateway.
		esewa.POST("/signature", h.GenerateSignature)
		// Called after the gateway redirects back, and by polling
		// clients retrying an ambiguous outcome.
		esewa.POST("/verify", middleware.OptionalAuthMiddleware(), h.VerifyPayment)
	}

	payments := r.Group("/payments")
	{
		payments.POST("/intent", middleware.OptionalAuthMiddleware(), h.CreateIntent)
		payments.GET("/:transactionUuid", middleware.AuthMiddleware(), h.GetIntent)
		payments.GET("/history", middleware.AuthMiddleware(), h.GetHistory)
	}
}

// GenerateSignature signs a canonical message for the checkout UI.
func (h *PaymentHandler) GenerateSignature(c *gin.Context) {
	var req dto.SignRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	c.JSON(http.StatusOK, dto.SignResponse{
		Success:   true,
		Signature: h.paymentService.SignMessage(req.Message),
	})
}

// CreateIntent starts a checkout: persists the intent and returns the
// signed redirect payload. Guests may create intents; the user id is
// attached when a valid token is present.
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req dto.CreateIntentRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.paymentService.CreateIntent(c.Request.Context(), h.OptionalUserID(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *PaymentHandler) GetIntent(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	transactionUUID := c.Param("transactionUuid")

	intent, err := h.paymentService.GetIntent(c.Request.Context(), transactionUUID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	// An intent is visible only to its owner; admins see everything,
	// including guest intents with no owner. A foreign intent reads as
	// absent so transaction ids cannot be probed.
	if intent.UserID != userID && !h.IsAdmin(c) {
		h.HandleServiceError(c, apperrors.ErrNotFound(nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactionUuid": intent.TransactionUUID,
		"planId":          intent.PlanID,
		"billingCycle":    intent.BillingCycle,
		"totalAmount":     intent.TotalAmount,
		"consumed":        intent.Consumed,
		"createdAt":       intent.CreatedAt,
	})
}

// GetHistory lists the caller's payment intents, newest first.
func (h *PaymentHandler) GetHistory(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	intents, err := h.paymentService.History(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": intents})
}

// VerifyPayment checks a transaction against the gateway and, exactly
// once per transaction, activates the subscription it paid for.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req dto.VerifyRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	// Authenticated callers cannot verify on behalf of someone else.
	if userID := h.OptionalUserID(c); userID != "" {
		req.UserID = userID
	}

	resp, err := h.paymentService.Verify(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
