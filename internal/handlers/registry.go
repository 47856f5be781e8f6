package handlers

// AppHandlers holds every handler the router registers.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	PaymentHandler      *PaymentHandler
	SubscriptionHandler *SubscriptionHandler
}
