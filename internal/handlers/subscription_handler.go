package handlers

import (
	"net/http"

	"agroguide_backend/internal/dto"
	"agroguide_backend/internal/middleware"
	"agroguide_backend/internal/models"
	"agroguide_backend/internal/services/subscription"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	*BaseHandler
	subscriptionService *subscription.Service
}

func NewSubscriptionHandler(base *BaseHandler, subscriptionService *subscription.Service) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
	}
}

func (h *SubscriptionHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Public - pricing page.
	r.GET("/plans", h.GetPlans)

	subscriptions := r.Group("/subscriptions")
	subscriptions.Use(middleware.AuthMiddleware())
	{
		subscriptions.GET("/my", h.GetMySubscription)
	}

	adminSubscriptions := r.Group("/admin/subscriptions")
	adminSubscriptions.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(models.UserRoleAdmin))
	{
		adminSubscriptions.GET("", h.ListSubscribers)
		adminSubscriptions.POST("/process-expired", h.ProcessExpired)
	}
}

func (h *SubscriptionHandler) GetPlans(c *gin.Context) {
	plans := models.Plans()
	c.JSON(http.StatusOK, gin.H{
		"plans": plans,
		"total": len(plans),
	})
}

// GetMySubscription returns the caller's subscription with its status
// evaluated at read time, so a lapsed plan reads as expired even if no
// sweep has run.
func (h *SubscriptionHandler) GetMySubscription(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	sub, status, err := h.subscriptionService.GetForUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscription": dto.NewSubscriptionSnapshot(sub, status),
	})
}

func (h *SubscriptionHandler) ListSubscribers(c *gin.Context) {
	var status *models.SubscriptionStatus
	if raw := c.Query("status"); raw != "" {
		s := models.SubscriptionStatus(raw)
		status = &s
	}

	users, err := h.subscriptionService.ListSubscribers(c.Request.Context(), status)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	type row struct {
		UserID       string                   `json:"userId"`
		Email        string                   `json:"email"`
		Subscription dto.SubscriptionSnapshot `json:"subscription"`
	}
	rows := make([]row, 0, len(users))
	for i := range users {
		rows = append(rows, row{
			UserID:       users[i].ID,
			Email:        users[i].Email,
			Subscription: dto.NewSubscriptionSnapshot(&users[i].Subscription, users[i].Subscription.Status),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"subscribers": rows,
		"total":       len(rows),
	})
}

// ProcessExpired triggers the expiry sweep on demand (the worker also
// runs it on a timer).
func (h *SubscriptionHandler) ProcessExpired(c *gin.Context) {
	n, err := h.subscriptionService.ProcessExpired(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Expired subscriptions processed",
		"updated": n,
	})
}
