package services

import (
	"context"
	"fmt"
	"time"

	"agroguide_backend/internal/dto"
	"agroguide_backend/internal/logger"
	"agroguide_backend/internal/models"
	"agroguide_backend/internal/repositories"
	"agroguide_backend/internal/services/esewa"
	"agroguide_backend/internal/services/subscription"
	"agroguide_backend/pkg/apperrors"

	"github.com/google/uuid"
)

// RedirectBuilder assembles the browser-side payload for the gateway.
type RedirectBuilder interface {
	BuildRedirectPayload(intent *models.PaymentIntent, signature string) map[string]string
	PaymentURL() string
	ProductCode() string
}

// PaymentService owns the payment intent lifecycle and the verification
// flow that turns a completed gateway transaction into an active
// subscription, exactly once per transaction.
type PaymentService interface {
	SignMessage(message string) string
	CreateIntent(ctx context.Context, userID string, req *dto.CreateIntentRequest) (*dto.CreateIntentResponse, error)
	GetIntent(ctx context.Context, transactionUUID string) (*models.PaymentIntent, error)
	History(ctx context.Context, userID string) ([]models.PaymentIntent, error)
	Verify(ctx context.Context, req *dto.VerifyRequest) (*dto.VerifyResponse, error)
}

type paymentService struct {
	intents       repositories.PaymentIntentRepository
	subscriptions *subscription.Service
	gateway       esewa.StatusChecker
	redirect      RedirectBuilder
	signer        *esewa.SignatureService
}

func NewPaymentService(
	intents repositories.PaymentIntentRepository,
	subscriptions *subscription.Service,
	gateway esewa.StatusChecker,
	redirect RedirectBuilder,
	signer *esewa.SignatureService,
) PaymentService {
	return &paymentService{
		intents:       intents,
		subscriptions: subscriptions,
		gateway:       gateway,
		redirect:      redirect,
		signer:        signer,
	}
}

func (s *paymentService) SignMessage(message string) string {
	return s.signer.Sign(message)
}

// newTransactionUUID issues a namespaced, globally unique transaction
// id. The timestamp keeps ids sortable in support tooling; the random
// suffix rules out collisions between concurrent checkouts.
func newTransactionUUID() string {
	return fmt.Sprintf("AGR%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

func (s *paymentService) CreateIntent(ctx context.Context, userID string, req *dto.CreateIntentRequest) (*dto.CreateIntentResponse, error) {
	if !req.PlanID.Paid() {
		return nil, apperrors.ErrInvalidOperation("payment", "Plan does not require payment")
	}
	if !req.BillingCycle.Valid() {
		return nil, apperrors.NewBadRequestError("Invalid billing cycle")
	}
	if req.Amount < 0 || req.TaxAmount < 0 || req.ServiceCharge < 0 || req.DeliveryCharge < 0 {
		return nil, apperrors.NewBadRequestError("Amount components must be non-negative")
	}

	// The plan price is a server-side fact; the client's figure is only
	// accepted when it matches the catalog.
	plan, ok := models.PlanByID(req.PlanID)
	if !ok {
		return nil, apperrors.NewBadRequestError("Unknown plan")
	}
	if req.Amount != plan.Prices[req.BillingCycle] {
		return nil, apperrors.NewBadRequestError("Amount does not match the plan price")
	}

	intent := &models.PaymentIntent{
		TransactionUUID: newTransactionUUID(),
		PlanID:          req.PlanID,
		BillingCycle:    req.BillingCycle,
		Amount:          req.Amount,
		TaxAmount:       req.TaxAmount,
		ServiceCharge:   req.ServiceCharge,
		DeliveryCharge:  req.DeliveryCharge,
		TotalAmount:     req.Amount + req.TaxAmount + req.ServiceCharge + req.DeliveryCharge,
		UserID:          userID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
	}

	// Persisted before the browser ever leaves for the gateway, so a
	// crash here never produces an unverifiable transaction reference.
	if err := s.intents.Create(ctx, intent); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "payment", "Failed to store payment intent", 500)
	}

	message := esewa.CanonicalMessage(intent.TotalAmount, intent.TransactionUUID, s.redirect.ProductCode())
	signature := s.signer.Sign(message)

	logger.CtxInfo(ctx, "payment intent created",
		"transaction_uuid", intent.TransactionUUID,
		"plan", string(intent.PlanID),
		"billing_cycle", string(intent.BillingCycle),
		"total_amount", intent.TotalAmount,
	)

	return &dto.CreateIntentResponse{
		TransactionUUID: intent.TransactionUUID,
		TotalAmount:     intent.TotalAmount,
		PaymentURL:      s.redirect.PaymentURL(),
		Fields:          s.redirect.BuildRedirectPayload(intent, signature),
	}, nil
}

func (s *paymentService) GetIntent(ctx context.Context, transactionUUID string) (*models.PaymentIntent, error) {
	intent, err := s.intents.FindByTransactionUUID(ctx, transactionUUID)
	if err != nil {
		if err == repositories.ErrIntentNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, err
	}
	return intent, nil
}

func (s *paymentService) History(ctx context.Context, userID string) ([]models.PaymentIntent, error) {
	return s.intents.FindByUser(ctx, userID)
}

// Verify runs the full verification flow. Ordering matters: the intent
// is consumed atomically before activation, so two racing verifications
// for the same transaction produce exactly one activation.
func (s *paymentService) Verify(ctx context.Context, req *dto.VerifyRequest) (*dto.VerifyResponse, error) {
	log := logger.FromContext(ctx).With("transaction_uuid", req.TransactionUUID)

	intent, err := s.intents.FindByTransactionUUID(ctx, req.TransactionUUID)
	if err != nil {
		if err == repositories.ErrIntentNotFound {
			log.Warn("verification rejected: unknown transaction")
			return nil, apperrors.ErrUnknownTransaction(req.TransactionUUID)
		}
		return nil, apperrors.InternalError(err)
	}

	if intent.Consumed {
		log.Warn("verification rejected: replay")
		return nil, apperrors.ErrReplay(req.TransactionUUID)
	}

	// The client-reported total is untrusted; the stored intent is the
	// reference. A mismatch is tampering or a stale client, either way
	// a rejection.
	if req.TotalAmount != intent.TotalAmount {
		log.Warn("verification rejected: amount mismatch",
			"reported", req.TotalAmount, "stored", intent.TotalAmount)
		return nil, apperrors.ErrAmountMismatch(req.TransactionUUID)
	}

	// Only a positive COMPLETE activates. Anything else, including a
	// status value outside the known enum, leaves the intent unconsumed.
	result, gwErr := s.gateway.QueryStatus(ctx, intent.TransactionUUID, intent.TotalAmount)
	switch result.Status {
	case esewa.StatusComplete:
	case esewa.StatusPending, esewa.StatusFailed:
		// Not complete. Intent stays unconsumed: a PENDING payment that
		// later completes can still be verified.
		log.Warn("verification rejected: gateway status not complete", "gateway_status", string(result.Status))
		return nil, apperrors.ErrGatewayRejected(req.TransactionUUID, string(result.Status))
	default:
		// Unknown outcome. The intent stays unconsumed so the caller can
		// poll again; success is never assumed on a failed lookup.
		if gwErr != nil {
			log.Error("gateway status lookup failed", "error", gwErr.Error())
		} else {
			log.Warn("gateway reported unclassifiable status", "gateway_status", string(result.Status))
		}
		return nil, apperrors.ErrGatewayUnreachable(gwErr, req.TransactionUUID)
	}

	// Consume first: the guarded update is the serialization point,
	// losers of a verification race see a replay rejection.
	if err := s.intents.MarkConsumed(ctx, intent.TransactionUUID); err != nil {
		switch err {
		case repositories.ErrIntentAlreadyConsumed:
			log.Warn("verification rejected: lost consume race")
			return nil, apperrors.ErrReplay(req.TransactionUUID)
		case repositories.ErrIntentNotFound:
			return nil, apperrors.ErrUnknownTransaction(req.TransactionUUID)
		default:
			return nil, apperrors.InternalError(err)
		}
	}

	userID := intent.UserID
	if userID == "" {
		// Guest checkout: the post-redirect client supplies the account
		// to attach the subscription to.
		userID = req.UserID
	}
	if userID == "" {
		return nil, apperrors.ErrStorageInconsistent(nil, "no user to attach verified subscription to")
	}

	// Plan and cycle come from the stored intent, not the request body.
	sub, err := s.subscriptions.Activate(ctx, userID,
		intent.PlanID, intent.BillingCycle,
		intent.TransactionUUID, result.TransactionCode, intent.TotalAmount)
	if err != nil {
		return nil, err
	}

	return &dto.VerifyResponse{
		Success:         true,
		Message:         "Payment verified and subscription activated",
		TransactionUUID: intent.TransactionUUID,
		TransactionCode: result.TransactionCode,
		Subscription:    dto.NewSubscriptionSnapshot(sub, models.SubscriptionStatusActive),
	}, nil
}
