package repositories

import (
	"context"
	"errors"

	"agroguide_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrIntentNotFound        = errors.New("payment intent not found")
	ErrIntentAlreadyConsumed = errors.New("payment intent already consumed")
)

// PaymentIntentRepository is the durable store for payment intents.
// Intents are an audit trail: created once, consumed at most once,
// never deleted.
type PaymentIntentRepository interface {
	Create(ctx context.Context, intent *models.PaymentIntent) error
	FindByTransactionUUID(ctx context.Context, transactionUUID string) (*models.PaymentIntent, error)
	FindByUser(ctx context.Context, userID string) ([]models.PaymentIntent, error)

	// MarkConsumed flips consumed=false -> true for the transaction.
	// The update is a single guarded statement, so of any number of
	// concurrent verifications exactly one succeeds; the losers get
	// ErrIntentAlreadyConsumed.
	MarkConsumed(ctx context.Context, transactionUUID string) error
}

type PaymentIntentRepositoryImpl struct {
	db *gorm.DB
}

func NewPaymentIntentRepository(db *gorm.DB) *PaymentIntentRepositoryImpl {
	return &PaymentIntentRepositoryImpl{db: db}
}

func (r *PaymentIntentRepositoryImpl) Create(ctx context.Context, intent *models.PaymentIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

func (r *PaymentIntentRepositoryImpl) FindByTransactionUUID(ctx context.Context, transactionUUID string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).Where("transaction_uuid = ?", transactionUUID).First(&intent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIntentNotFound
		}
		return nil, err
	}
	return &intent, nil
}

func (r *PaymentIntentRepositoryImpl) FindByUser(ctx context.Context, userID string) ([]models.PaymentIntent, error) {
	var intents []models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&intents).Error
	return intents, err
}

func (r *PaymentIntentRepositoryImpl) MarkConsumed(ctx context.Context, transactionUUID string) error {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("transaction_uuid = ? AND consumed = ?", transactionUUID, false).
		Update("consumed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either the intent does not exist or another verification won
		// the race. Distinguish for the caller's taxonomy.
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.PaymentIntent{}).
			Where("transaction_uuid = ?", transactionUUID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrIntentNotFound
		}
		return ErrIntentAlreadyConsumed
	}
	return nil
}
