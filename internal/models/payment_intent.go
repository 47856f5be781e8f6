package models

// PaymentIntent is the durable record of one attempted transaction,
// created before the browser is handed to the gateway. Intents are an
// audit trail: they are consumed exactly once and never deleted.
type PaymentIntent struct {
	BaseModel
	TransactionUUID string       `gorm:"uniqueIndex;not null"`
	PlanID          PlanID       `gorm:"not null"`
	BillingCycle    BillingCycle `gorm:"not null"`

	// Monetary components in whole NPR. TotalAmount is always the sum
	// of the four components.
	Amount         int64 `gorm:"not null"`
	TaxAmount      int64 `gorm:"not null;default:0"`
	ServiceCharge  int64 `gorm:"not null;default:0"`
	DeliveryCharge int64 `gorm:"not null;default:0"`
	TotalAmount    int64 `gorm:"not null"`

	// Empty for guest checkout.
	UserID string `gorm:"index"`

	// Receipt/display only, not trust-bearing.
	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	// Set true atomically when verification succeeds; the replay guard.
	Consumed bool `gorm:"not null;default:false"`
}
