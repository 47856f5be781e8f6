package services

import (
	"agroguide_backend/internal/services/subscription"
)

// ServiceContainer holds every service the application wires up.
type ServiceContainer struct {
	AuthService         AuthService
	PaymentService      PaymentService
	SubscriptionService *subscription.Service
}
