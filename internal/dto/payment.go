package dto

import (
	"time"

	"agroguide_backend/internal/models"
)

// CreateIntentRequest starts a checkout. Amount components are what the
// pricing UI displayed; the server recomputes the total and rejects
// negative components.
type CreateIntentRequest struct {
	PlanID         models.PlanID       `json:"planId" binding:"required" validate:"required,oneof=pro enterprise"`
	BillingCycle   models.BillingCycle `json:"billingCycle" binding:"required" validate:"required,oneof=monthly yearly"`
	Amount         int64               `json:"amount" validate:"gte=0"`
	TaxAmount      int64               `json:"taxAmount" validate:"gte=0"`
	ServiceCharge  int64               `json:"serviceCharge" validate:"gte=0"`
	DeliveryCharge int64               `json:"deliveryCharge" validate:"gte=0"`
	CustomerName   string              `json:"customerName" validate:"required"`
	CustomerEmail  string              `json:"customerEmail" validate:"required,email"`
	CustomerPhone  string              `json:"customerPhone" validate:"required"`
}

// CreateIntentResponse carries everything the checkout UI needs to
// form-POST the browser to the gateway.
type CreateIntentResponse struct {
	TransactionUUID string            `json:"transactionUuid"`
	TotalAmount     int64             `json:"totalAmount"`
	PaymentURL      string            `json:"paymentUrl"`
	Fields          map[string]string `json:"fields"`
}

// SignRequest is the body of the signature helper endpoint.
type SignRequest struct {
	Message string `json:"message" binding:"required" validate:"required"`
}

type SignResponse struct {
	Success   bool   `json:"success"`
	Signature string `json:"signature"`
}

// VerifyRequest is what the checkout UI sends after the gateway
// redirects back.
type VerifyRequest struct {
	TransactionUUID string              `json:"transaction_uuid" binding:"required" validate:"required"`
	TotalAmount     int64               `json:"total_amount" validate:"gte=0"`
	UserID          string              `json:"userId"`
	PlanID          models.PlanID       `json:"planId"`
	BillingCycle    models.BillingCycle `json:"billingCycle"`
}

// SubscriptionSnapshot is the serialized view of a subscription.
type SubscriptionSnapshot struct {
	Plan         models.PlanID             `json:"plan"`
	BillingCycle models.BillingCycle       `json:"billingCycle,omitempty"`
	Status       models.SubscriptionStatus `json:"status"`
	Amount       int64                     `json:"amount,omitempty"`
	StartDate    *time.Time                `json:"startDate,omitempty"`
	EndDate      *time.Time                `json:"endDate,omitempty"`
	VerifiedAt   *time.Time                `json:"verifiedAt,omitempty"`
}

// VerifyResponse is returned only on successful activation; every other
// outcome surfaces as an error response.
type VerifyResponse struct {
	Success         bool                 `json:"success"`
	Message         string               `json:"message"`
	TransactionUUID string               `json:"transactionUuid"`
	TransactionCode string               `json:"esewaTransactionCode,omitempty"`
	Subscription    SubscriptionSnapshot `json:"subscription"`
}

// NewSubscriptionSnapshot maps a model subscription with its evaluated
// status into the wire shape.
func NewSubscriptionSnapshot(sub *models.Subscription, status models.SubscriptionStatus) SubscriptionSnapshot {
	return SubscriptionSnapshot{
		Plan:         sub.Plan,
		BillingCycle: sub.BillingCycle,
		Status:       status,
		Amount:       sub.Amount,
		StartDate:    sub.StartDate,
		EndDate:      sub.EndDate,
		VerifiedAt:   sub.VerifiedAt,
	}
}
