package models

type UserStatus string
type UserRole string
type PlanID string
type BillingCycle string
type SubscriptionStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"

	UserRoleUser      UserRole = "user"
	UserRoleModerator UserRole = "moderator"
	UserRoleAdmin     UserRole = "admin"

	PlanFree       PlanID = "free"
	PlanPro        PlanID = "pro"
	PlanEnterprise PlanID = "enterprise"

	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"

	// SubscriptionStatusFree is never persisted; it is the evaluated
	// state of a user without a paid plan.
	SubscriptionStatusFree    SubscriptionStatus = "free"
	SubscriptionStatusActive  SubscriptionStatus = "active"
	SubscriptionStatusExpired SubscriptionStatus = "expired"
)

// Valid reports whether the plan is one of the closed set.
func (p PlanID) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// Paid reports whether the plan requires a payment to activate.
func (p PlanID) Paid() bool {
	return p == PlanPro || p == PlanEnterprise
}

func (c BillingCycle) Valid() bool {
	return c == BillingCycleMonthly || c == BillingCycleYearly
}
