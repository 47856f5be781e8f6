package models

// Plan describes a subscription tier shown on the pricing page.
// The catalog is static, so it lives in code instead of a table.
type Plan struct {
	ID          PlanID                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Currency    string                 `json:"currency"`
	Prices      map[BillingCycle]int64 `json:"prices"`
	Features    []string               `json:"features"`
}

var planCatalog = []Plan{
	{
		ID:          PlanFree,
		Name:        "Free",
		Description: "Basic crop recommendations",
		Currency:    "NPR",
		Prices:      map[BillingCycle]int64{},
		Features:    []string{"3 predictions per month", "Community support"},
	},
	{
		ID:          PlanPro,
		Name:        "Pro",
		Description: "Full recommendations for working farms",
		Currency:    "NPR",
		Prices: map[BillingCycle]int64{
			BillingCycleMonthly: 3900,
			BillingCycleYearly:  39000,
		},
		Features: []string{"Unlimited predictions", "Soil insight reports", "Priority support"},
	},
	{
		ID:          PlanEnterprise,
		Name:        "Enterprise",
		Description: "For cooperatives and agribusiness",
		Currency:    "NPR",
		Prices: map[BillingCycle]int64{
			BillingCycleMonthly: 9900,
			BillingCycleYearly:  99000,
		},
		Features: []string{"Everything in Pro", "Multi-farm accounts", "Dedicated agronomist"},
	},
}

// Plans returns the full catalog.
func Plans() []Plan {
	return planCatalog
}

// PlanByID looks a plan up in the catalog.
func PlanByID(id PlanID) (Plan, bool) {
	for _, p := range planCatalog {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
