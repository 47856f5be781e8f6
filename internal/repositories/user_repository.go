package repositories

import (
	"context"
	"errors"
	"time"

	"agroguide_backend/internal/models"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// ReplaceSubscription overwrites the user's embedded subscription in a
	// single statement. All-or-nothing: a user row either carries the full
	// new subscription or is untouched.
	ReplaceSubscription(ctx context.Context, userID string, sub models.Subscription) error

	// MarkExpiredSubscriptions reclassifies paid subscriptions whose end
	// date has passed. Freshness aid for dashboards only; the read path
	// evaluates expiry itself.
	MarkExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error)

	// ListSubscribers returns users on paid plans, optionally filtered by
	// stored status.
	ListSubscribers(ctx context.Context, status *models.SubscriptionStatus) ([]models.User, error)
}

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepositoryImpl) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) ReplaceSubscription(ctx context.Context, userID string, sub models.Subscription) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"subscription_plan":             sub.Plan,
			"subscription_billing_cycle":    sub.BillingCycle,
			"subscription_status":           sub.Status,
			"subscription_transaction_uuid": sub.TransactionUUID,
			"subscription_transaction_ref":  sub.TransactionRef,
			"subscription_payment_method":   sub.PaymentMethod,
			"subscription_amount":           sub.Amount,
			"subscription_start_date":       sub.StartDate,
			"subscription_end_date":         sub.EndDate,
			"subscription_verified_at":      sub.VerifiedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) MarkExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("subscription_status = ? AND subscription_plan <> ? AND subscription_end_date < ?",
			models.SubscriptionStatusActive, models.PlanFree, now).
		Update("subscription_status", models.SubscriptionStatusExpired)
	return res.RowsAffected, res.Error
}

func (r *UserRepositoryImpl) ListSubscribers(ctx context.Context, status *models.SubscriptionStatus) ([]models.User, error) {
	q := r.db.WithContext(ctx).Where("subscription_plan <> ?", models.PlanFree)
	if status != nil {
		q = q.Where("subscription_status = ?", *status)
	}
	var users []models.User
	err := q.Order("subscription_end_date DESC").Find(&users).Error
	return users, err
}
