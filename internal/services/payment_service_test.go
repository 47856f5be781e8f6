package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"agroguide_backend/internal/dto"
	"agroguide_backend/internal/models"
	"agroguide_backend/internal/repositories"
	"agroguide_backend/internal/services/esewa"
	"agroguide_backend/internal/services/subscription"
	"agroguide_backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// --- in-memory fakes ---

type fakeIntentRepo struct {
	mu      sync.Mutex
	intents map[string]*models.PaymentIntent
}

func newFakeIntentRepo() *fakeIntentRepo {
	return &fakeIntentRepo{intents: make(map[string]*models.PaymentIntent)}
}

func (f *fakeIntentRepo) Create(_ context.Context, intent *models.PaymentIntent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.intents[intent.TransactionUUID]; exists {
		return errors.New("duplicate transaction uuid")
	}
	cp := *intent
	f.intents[intent.TransactionUUID] = &cp
	return nil
}

func (f *fakeIntentRepo) FindByTransactionUUID(_ context.Context, transactionUUID string) (*models.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[transactionUUID]
	if !ok {
		return nil, repositories.ErrIntentNotFound
	}
	cp := *intent
	return &cp, nil
}

func (f *fakeIntentRepo) FindByUser(_ context.Context, userID string) ([]models.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PaymentIntent
	for _, intent := range f.intents {
		if intent.UserID == userID {
			out = append(out, *intent)
		}
	}
	return out, nil
}

// MarkConsumed mirrors the guarded UPDATE: check-and-set under one lock.
func (f *fakeIntentRepo) MarkConsumed(_ context.Context, transactionUUID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[transactionUUID]
	if !ok {
		return repositories.ErrIntentNotFound
	}
	if intent.Consumed {
		return repositories.ErrIntentAlreadyConsumed
	}
	intent.Consumed = true
	return nil
}

type fakeUserRepo struct {
	mu          sync.Mutex
	users       map[string]*models.User
	activations int
}

func newFakeUserRepo(ids ...string) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, id := range ids {
		f.users[id] = &models.User{BaseModel: models.BaseModel{ID: id}}
	}
	return f
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) ReplaceSubscription(_ context.Context, userID string, sub models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Subscription = sub
	f.activations++
	return nil
}

func (f *fakeUserRepo) MarkExpiredSubscriptions(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeUserRepo) ListSubscribers(_ context.Context, _ *models.SubscriptionStatus) ([]models.User, error) {
	return nil, nil
}

type fakeGateway struct {
	mu      sync.Mutex
	result  esewa.StatusResult
	err     error
	queries int
}

func (f *fakeGateway) QueryStatus(_ context.Context, _ string, _ int64) (esewa.StatusResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	return f.result, f.err
}

type fakeRedirect struct{}

func (fakeRedirect) BuildRedirectPayload(intent *models.PaymentIntent, signature string) map[string]string {
	return map[string]string{
		"transaction_uuid": intent.TransactionUUID,
		"signature":        signature,
	}
}
func (fakeRedirect) PaymentURL() string  { return "https://gateway.example/form" }
func (fakeRedirect) ProductCode() string { return "EPAYTEST" }

type harness struct {
	svc     PaymentService
	intents *fakeIntentRepo
	users   *fakeUserRepo
	gateway *fakeGateway
	signer  *esewa.SignatureService
}

func newHarness(userIDs ...string) *harness {
	intents := newFakeIntentRepo()
	users := newFakeUserRepo(userIDs...)
	gateway := &fakeGateway{}
	signer := esewa.NewSignatureService("8gBm/:&EnhH.1/q")
	svc := NewPaymentService(intents, subscription.NewService(users), gateway, fakeRedirect{}, signer)
	return &harness{svc: svc, intents: intents, users: users, gateway: gateway, signer: signer}
}

func (h *harness) createProIntent(t *testing.T, userID string) *dto.CreateIntentResponse {
	t.Helper()
	resp, err := h.svc.CreateIntent(context.Background(), userID, &dto.CreateIntentRequest{
		PlanID:        models.PlanPro,
		BillingCycle:  models.BillingCycleMonthly,
		Amount:        3900,
		CustomerName:  "Ram Thapa",
		CustomerEmail: "ram@agroguide.example",
		CustomerPhone: "9800000000",
	})
	assert.NoError(t, err)
	return resp
}

func assertRejection(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	assert.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	assert.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

// --- intent creation ---

func TestCreateIntent_PersistsBeforeReturning(t *testing.T) {
	t.Parallel()

	h := newHarness("u1")
	resp := h.createProIntent(t, "u1")

	assert.Equal(t, int64(3900), resp.TotalAmount)
	assert.Equal(t, "https://gateway.example/form", resp.PaymentURL)
	assert.NotEmpty(t, resp.Fields["signature"])

	stored, err := h.intents.FindByTransactionUUID(context.Background(), resp.TransactionUUID)
	assert.NoError(t, err)
	assert.False(t, stored.Consumed)
	assert.Equal(t, models.PlanPro, stored.PlanID)
	assert.Equal(t, int64(3900), stored.TotalAmount)
}

func TestCreateIntent_TotalIsSumOfComponents(t *testing.T) {
	t.Parallel()

	h := newHarness("u1")
	resp, err := h.svc.CreateIntent(context.Background(), "u1", &dto.CreateIntentRequest{
		PlanID:         models.PlanPro,
		BillingCycle:   models.BillingCycleYearly,
		Amount:         39000,
		TaxAmount:      500,
		ServiceCharge:  100,
		DeliveryCharge: 25,
		CustomerName:   "Ram Thapa",
		CustomerEmail:  "ram@agroguide.example",
		CustomerPhone:  "9800000000",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(39625), resp.TotalAmount)
}

func TestCreateIntent_RejectsNegativeComponents(t *testing.T) {
	t.Parallel()

	h := newHarness("u1")
	_, err := h.svc.CreateIntent(context.Background(), "u1", &dto.CreateIntentRequest{
		PlanID:        models.PlanPro,
		BillingCycle:  models.BillingCycleMonthly,
		Amount:        3900,
		TaxAmount:     -1,
		CustomerName:  "Ram Thapa",
		CustomerEmail: "ram@agroguide.example",
		CustomerPhone: "9800000000",
	})

	assertRejection(t, err, apperrors.CodeValidationFailed)
}

func TestCreateIntent_RejectsOffCatalogPrice(t *testing.T) {
	t.Parallel()

	h := newHarness("u1")
	_, err := h.svc.CreateIntent(context.Background(), "u1", &dto.CreateIntentRequest{
		PlanID:        models.PlanPro,
		BillingCycle:  models.BillingCycleMonthly,
		Amount:        1,
		CustomerName:  "Ram Thapa",
		CustomerEmail: "ram@agroguide.example",
		CustomerPhone: "9800000000",
	})

	assertRejection(t, err, apperrors.CodeValidationFailed)
}

func TestCreateIntent_RejectsFreePlan(t *testing.T) {
	t.Parallel()

	h := newHarness("u1")
	_, err := h.svc.CreateIntent(context.Background(), "u1", &dto.CreateIntentRequest{
		PlanID:        models.PlanFree,
		BillingCycle:  models.BillingCycleMonthly,
		CustomerName:  "Ram Thapa",
		CustomerEmail: "ram@agroguide.example",
		CustomerPhone: "9800000000",
	})

	assertRejection(t, err, apperrors.CodeInvalidOperation)
}

func TestCreateIntent_SignatureCoversCanonicalMessage(t *testing.T) {
	t.Parallel()

	h := newHarness("u1")
	resp := h.createProIntent(t, "u1")

	message := esewa.CanonicalMessage(resp.TotalAmount, resp.TransactionUUID, "EPAYTEST")
	assert.True(t, h.signer.Verify(message, resp.Fields["signature"]))
}

func TestCreateIntent_UniqueTransactionUUIDs(t *testing.T) {
	t.Parallel()

	h := newHarness("u1")
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		resp := h.createProIntent(t, "u1")
		assert.False(t, seen[resp.TransactionUUID], "duplicate uuid %s", resp.TransactionUUID)
		seen[resp.TransactionUUID] = true
	}
}

// --- verification ---

func TestVerify_CompleteActivatesSubscription(t *testing.T) {
	t.Parallel()

	h := newHarness("u1")
	resp := h.createProIntent(t, "u1")
	h.gateway.result = esewa.StatusResult{Status: esewa.StatusComplete, TransactionCode: "000AWEO"}

	before := time.Now()
	out, err := h.svc.Verify(context.Background(), &dto.VerifyRequest{
		TransactionUUID: resp.TransactionUUID,
		TotalAmount:     3900,
	})

	assert.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "000AWEO", out.TransactionCode)
	assert.Equal(t, models.SubscriptionStatusActive, out.Subscription.Status)
	assert.Equal(t, models.PlanPro, out.Subscription.Plan)
	assert.False(t, out.Subscription.StartDate.Before(before))
	assert.Equal(t, out.Subscription.StartDate.Add(30*24*time.Hour), *out.Subscription.EndDate)

	user, _ := h.users.FindByID(context.Background(), "u1")
	assert.Equal(t, models.PlanPro, user.Subscription.Plan)
	assert.Equal(t, resp.TransactionUUID, user.Subscription.TransactionUUID)

	stored, _ := h.intents.FindByTransactionUUID(context.Background(), resp.TransactionUUID)
	assert.True(t, stored.Consumed)
}

func TestVerify_UnknownTransaction(t *testing.T) {
	t.Parallel()

	h := newHarness("u1")
	h.gateway.result = esewa.StatusResult{Status: esewa.StatusComplete}

	_, err := h.svc.Verify(context.Background(), &dto.VerifyRequest{
		TransactionUUID: "AGR0-never-issued",
		TotalAmount:     3900,
	})

	assertRejection(t, err, apperrors.CodeUnknownTransaction)
	assert.Equal(t, 0, h.gateway.queries, "unknown transactions must not reach the gateway")
}

func TestVerify_ReplayRejected(t *testing.T) {
	t.Parallel()

	h := newHarness("u1")
	resp := h.createProIntent(t, "u1")
	h.gateway.result = esewa.StatusResult{Status: esewa.StatusComplete}

	req := &dto.VerifyRequest{TransactionUUID: resp.TransactionUUID, TotalAmount: 3900}

	_, err := h.svc.Verify(context.Background(), req)
	assert.NoError(t, err)

	_, err = h.svc.Verify(context.Background(), req)
	assertRejection(t, err, apperrors.CodeReplay)
	assert.Equal(t, 1, h.users.activations, "a replay must not re-activate")
}

func TestVerify_AmountTamperAlwaysRejects(t *testing.T) {
	t.Parallel()

	// Even a COMPLETE gateway status must not rescue a tampered amount.
	h := newHarness("u1")
	resp := h.createProIntent(t, "u1")
	h.gateway.result = esewa.StatusResult{Status: esewa.StatusComplete}

	_, err := h.svc.Verify(context.Background(), &dto.VerifyRequest{
		TransactionUUID: resp.TransactionUUID,
		TotalAmount:     1,
	})

	assertRejection(t, err, apperrors.CodeAmountMismatch)
	assert.Equal(t, 0, h.gateway.queries)

	stored, _ := h.intents.FindByTransactionUUID(context.Background(), resp.TransactionUUID)
	assert.False(t, stored.Consumed, "a rejected verification must not consume the intent")
}

func TestVerify_PendingLeavesIntentRetryable(t *testing.T) {
	t.Parallel()

	h := newHarness("u1")
	resp := h.createProIntent(t, "u1")
	req := &dto.VerifyRequest{TransactionUUID: resp.TransactionUUID, TotalAmount: 3900}

	h.gateway.result = esewa.StatusResult{Status: esewa.StatusPending}
	_, err := h.svc.Verify(context.Background(), req)
	assertRejection(t, err, apperrors.CodeGatewayRejected)

	stored, _ := h.intents.FindByTransactionUUID(context.Background(), resp.TransactionUUID)
	assert.False(t, stored.Consumed)

	// The payment later completes; the same intent can still be verified.
	h.gateway.result = esewa.StatusResult{Status: esewa.StatusComplete}
	out, err := h.svc.Verify(context.Background(), req)
	assert.NoError(t, err)
	assert.True(t, out.Success)
}

func TestVerify_FailedRejected(t *testing.T) {
	t.Parallel()

	h := newHarness("u1")
	resp := h.createProIntent(t, "u1")
	h.gateway.result = esewa.StatusResult{Status: esewa.StatusFailed}

	_, err := h.svc.Verify(context.Background(), &dto.VerifyRequest{
		TransactionUUID: resp.TransactionUUID,
		TotalAmount:     3900,
	})

	assertRejection(t, err, apperrors.CodeGatewayRejected)
}

func TestVerify_AmbiguousNeverMutates(t *testing.T) {
	t.Parallel()

	h := newHarness("u1")
	resp := h.createProIntent(t, "u1")
	h.gateway.result = esewa.StatusResult{Status: esewa.StatusAmbiguous}
	h.gateway.err = errors.New("dial tcp: i/o timeout")

	_, err := h.svc.Verify(context.Background(), &dto.VerifyRequest{
		TransactionUUID: resp.TransactionUUID,
		TotalAmount:     3900,
	})

	assertRejection(t, err, apperrors.CodeGatewayUnreachable)

	stored, _ := h.intents.FindByTransactionUUID(context.Background(), resp.TransactionUUID)
	assert.False(t, stored.Consumed)
	assert.Equal(t, 0, h.users.activations)

	user, _ := h.users.FindByID(context.Background(), "u1")
	assert.Equal(t, models.PlanID(""), user.Subscription.Plan, "no subscription mutation on ambiguous outcome")
}

func TestVerify_OutOfEnumStatusNeverActivates(t *testing.T) {
	t.Parallel()

	// A checker implementation could report a status outside the known
	// set. Activation is gated on a positive COMPLETE, so anything
	// unclassifiable resolves like an ambiguous outcome.
	h := newHarness("u1")
	resp := h.createProIntent(t, "u1")
	h.gateway.result = esewa.StatusResult{Status: esewa.GatewayStatus("SETTLED")}

	_, err := h.svc.Verify(context.Background(), &dto.VerifyRequest{
		TransactionUUID: resp.TransactionUUID,
		TotalAmount:     3900,
	})

	assertRejection(t, err, apperrors.CodeGatewayUnreachable)
	assert.Equal(t, 0, h.users.activations)

	stored, _ := h.intents.FindByTransactionUUID(context.Background(), resp.TransactionUUID)
	assert.False(t, stored.Consumed)
}

func TestVerify_PlanFromIntentNotRequest(t *testing.T) {
	t.Parallel()

	// The request body's plan and cycle are untrusted; a pro/monthly
	// payment must not activate an enterprise/yearly subscription no
	// matter what the caller claims.
	h := newHarness("u1")
	resp := h.createProIntent(t, "u1")
	h.gateway.result = esewa.StatusResult{Status: esewa.StatusComplete}

	out, err := h.svc.Verify(context.Background(), &dto.VerifyRequest{
		TransactionUUID: resp.TransactionUUID,
		TotalAmount:     3900,
		PlanID:          models.PlanEnterprise,
		BillingCycle:    models.BillingCycleYearly,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.PlanPro, out.Subscription.Plan)
	assert.Equal(t, models.BillingCycleMonthly, out.Subscription.BillingCycle)
	assert.Equal(t, out.Subscription.StartDate.Add(30*24*time.Hour), *out.Subscription.EndDate)

	user, _ := h.users.FindByID(context.Background(), "u1")
	assert.Equal(t, models.PlanPro, user.Subscription.Plan)
	assert.Equal(t, models.BillingCycleMonthly, user.Subscription.BillingCycle)
}

func TestVerify_GuestIntentUsesCallerUserID(t *testing.T) {
	t.Parallel()

	h := newHarness("u2")
	resp := h.createProIntent(t, "") // guest checkout
	h.gateway.result = esewa.StatusResult{Status: esewa.StatusComplete}

	out, err := h.svc.Verify(context.Background(), &dto.VerifyRequest{
		TransactionUUID: resp.TransactionUUID,
		TotalAmount:     3900,
		UserID:          "u2",
	})

	assert.NoError(t, err)
	assert.True(t, out.Success)
	user, _ := h.users.FindByID(context.Background(), "u2")
	assert.Equal(t, models.PlanPro, user.Subscription.Plan)
}

func TestVerify_ConcurrentCallsActivateExactlyOnce(t *testing.T) {
	t.Parallel()

	// A client poll and a gateway redirect can race on the same
	// transaction. The guarded consume must let exactly one through.
	h := newHarness("u1")
	resp := h.createProIntent(t, "u1")
	h.gateway.result = esewa.StatusResult{Status: esewa.StatusComplete}

	const callers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	var activated, replayed int

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Verify(context.Background(), &dto.VerifyRequest{
				TransactionUUID: resp.TransactionUUID,
				TotalAmount:     3900,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				activated++
				return
			}
			if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.CodeReplay {
				replayed++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, activated)
	assert.Equal(t, callers-1, replayed)
	assert.Equal(t, 1, h.users.activations)
}
