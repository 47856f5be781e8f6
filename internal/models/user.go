package models

import (
	"time"
)

// Subscription is owned exclusively by its User row (embedded, one per
// user, overwritten on each activation). It references the activating
// PaymentIntent by transaction id only.
type Subscription struct {
	Plan         PlanID             `gorm:"default:'free'"`
	BillingCycle BillingCycle       // empty for the free plan
	Status       SubscriptionStatus `gorm:"default:'free'"`

	// Last transaction that activated this subscription, plus the
	// gateway's own reference code for support lookups.
	TransactionUUID string
	TransactionRef  string

	PaymentMethod string
	Amount        int64
	StartDate     *time.Time
	EndDate       *time.Time
	VerifiedAt    *time.Time
}

type User struct {
	BaseModel
	FirstName    string `gorm:"not null"`
	LastName     string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Phone        string
	Role         UserRole   `gorm:"default:'user'"`
	Status       UserStatus `gorm:"default:'active'"`

	FarmLocation string
	FarmSize     string

	Subscription Subscription `gorm:"embedded;embeddedPrefix:subscription_"`
}
