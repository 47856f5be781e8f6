package subscription

import (
	"context"
	"time"

	"agroguide_backend/internal/logger"
	"agroguide_backend/internal/models"
	"agroguide_backend/internal/repositories"
	"agroguide_backend/pkg/apperrors"
)

// CycleDuration returns the paid period for a billing cycle.
func CycleDuration(cycle models.BillingCycle) time.Duration {
	if cycle == models.BillingCycleYearly {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

// Evaluate derives the effective status of a subscription at a point in
// time. Pure: expiry is a date comparison, not a stored assertion, so
// the read path never depends on a background sweep having run.
func Evaluate(sub models.Subscription, now time.Time) models.SubscriptionStatus {
	if !sub.Plan.Paid() {
		return models.SubscriptionStatusFree
	}
	if sub.EndDate != nil && !now.After(*sub.EndDate) {
		return models.SubscriptionStatusActive
	}
	return models.SubscriptionStatusExpired
}

// Service owns the user's subscription record.
type Service struct {
	users repositories.UserRepository
}

func NewService(users repositories.UserRepository) *Service {
	return &Service{users: users}
}

// Activate overwrites the user's subscription with a freshly paid one.
// Upgrade, renewal and reactivation are all this same transition; the
// intent store guarantees a given transaction drives it at most once.
// The write is a single statement, so a partial activation cannot be
// observed; a failed write is surfaced as fatal, never retried.
func (s *Service) Activate(
	ctx context.Context,
	userID string,
	plan models.PlanID,
	cycle models.BillingCycle,
	transactionUUID, transactionRef string,
	amount int64,
) (*models.Subscription, error) {
	now := time.Now()
	end := now.Add(CycleDuration(cycle))

	sub := models.Subscription{
		Plan:            plan,
		BillingCycle:    cycle,
		Status:          models.SubscriptionStatusActive,
		TransactionUUID: transactionUUID,
		TransactionRef:  transactionRef,
		PaymentMethod:   "esewa",
		Amount:          amount,
		StartDate:       &now,
		EndDate:         &end,
		VerifiedAt:      &now,
	}

	if err := s.users.ReplaceSubscription(ctx, userID, sub); err != nil {
		// The transaction is already consumed at this point. Retrying
		// could double-extend the period, so this aborts the request.
		return nil, apperrors.ErrStorageInconsistent(err, "subscription activation failed after payment was consumed")
	}

	logger.CtxInfo(ctx, "subscription activated",
		"user_id", userID,
		"plan", string(plan),
		"billing_cycle", string(cycle),
		"transaction_uuid", transactionUUID,
		"end_date", end,
	)
	return &sub, nil
}

// GetForUser returns the stored subscription with its evaluated status.
func (s *Service) GetForUser(ctx context.Context, userID string) (*models.Subscription, models.SubscriptionStatus, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, "", apperrors.ErrNotFound(err)
		}
		return nil, "", err
	}
	status := Evaluate(user.Subscription, time.Now())
	return &user.Subscription, status, nil
}

// ProcessExpired reclassifies lapsed paid subscriptions in storage.
// Dashboards that read raw rows get fresher data; correctness does not
// depend on this running.
func (s *Service) ProcessExpired(ctx context.Context) (int64, error) {
	return s.users.MarkExpiredSubscriptions(ctx, time.Now())
}

// ListSubscribers returns paid-plan users for the admin dashboard, with
// the evaluated status applied to each row.
func (s *Service) ListSubscribers(ctx context.Context, status *models.SubscriptionStatus) ([]models.User, error) {
	users, err := s.users.ListSubscribers(ctx, status)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range users {
		users[i].Subscription.Status = Evaluate(users[i].Subscription, now)
	}
	return users, nil
}
