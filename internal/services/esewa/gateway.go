package esewa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"agroguide_backend/internal/config"
	"agroguide_backend/internal/models"
)

// GatewayStatus is the closed set of outcomes a status lookup can have.
// Anything the gateway reports that we cannot positively classify maps
// to StatusAmbiguous, never to StatusComplete (fail-closed).
type GatewayStatus string

const (
	StatusComplete  GatewayStatus = "COMPLETE"
	StatusPending   GatewayStatus = "PENDING"
	StatusFailed    GatewayStatus = "FAILED"
	StatusAmbiguous GatewayStatus = "AMBIGUOUS"
)

// StatusResult is the mapped outcome of one status lookup.
type StatusResult struct {
	Status GatewayStatus
	// TransactionCode is the gateway's own reference for the payment,
	// stored on the subscription for support lookups.
	TransactionCode string
}

// StatusChecker is the outbound dependency the verification flow needs.
type StatusChecker interface {
	QueryStatus(ctx context.Context, transactionUUID string, totalAmount int64) (StatusResult, error)
}

// Client talks to the eSewa ePay v2 endpoints.
type Client struct {
	productCode string
	paymentURL  string
	statusURL   string
	successURL  string
	failureURL  string
	httpClient  *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		productCode: cfg.Esewa.ProductCode,
		paymentURL:  cfg.Esewa.PaymentURL,
		statusURL:   cfg.Esewa.StatusURL,
		successURL:  cfg.Esewa.SuccessURL,
		failureURL:  cfg.Esewa.FailureURL,
		httpClient:  &http.Client{Timeout: cfg.StatusTimeout()},
	}
}

// PaymentURL is where the checkout UI form-POSTs the redirect payload.
func (c *Client) PaymentURL() string {
	return c.paymentURL
}

// ProductCode identifies the merchant at the gateway.
func (c *Client) ProductCode() string {
	return c.productCode
}

// BuildRedirectPayload assembles the field set the gateway's payment
// form expects. Pure: no I/O, no clock.
func (c *Client) BuildRedirectPayload(intent *models.PaymentIntent, signature string) map[string]string {
	return map[string]string{
		"amount":                  strconv.FormatInt(intent.Amount, 10),
		"tax_amount":              strconv.FormatInt(intent.TaxAmount, 10),
		"total_amount":            strconv.FormatInt(intent.TotalAmount, 10),
		"transaction_uuid":        intent.TransactionUUID,
		"product_code":            c.productCode,
		"product_service_charge":  strconv.FormatInt(intent.ServiceCharge, 10),
		"product_delivery_charge": strconv.FormatInt(intent.DeliveryCharge, 10),
		"success_url":             c.successURL,
		"failure_url":             c.failureURL,
		"signed_field_names":      SignedFieldNames,
		"signature":               signature,
	}
}

// statusResponse is the wire shape of the transaction-status endpoint.
type statusResponse struct {
	Status          string `json:"status"`
	TransactionCode string `json:"transaction_code"`
	RefID           string `json:"ref_id"`
}

// QueryStatus asks the gateway for the authoritative state of a
// transaction. The returned error is diagnostic only: whenever it is
// non-nil the result is already StatusAmbiguous.
func (c *Client) QueryStatus(ctx context.Context, transactionUUID string, totalAmount int64) (StatusResult, error) {
	q := url.Values{}
	q.Set("product_code", c.productCode)
	q.Set("total_amount", strconv.FormatInt(totalAmount, 10))
	q.Set("transaction_uuid", transactionUUID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusURL+"?"+q.Encode(), nil)
	if err != nil {
		return StatusResult{Status: StatusAmbiguous}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return StatusResult{Status: StatusAmbiguous}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StatusResult{Status: StatusAmbiguous}, fmt.Errorf("esewa status endpoint returned %d", resp.StatusCode)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return StatusResult{Status: StatusAmbiguous}, fmt.Errorf("esewa status body: %w", err)
	}

	result := StatusResult{TransactionCode: body.TransactionCode}
	if result.TransactionCode == "" {
		result.TransactionCode = body.RefID
	}

	switch body.Status {
	case "COMPLETE":
		result.Status = StatusComplete
	case "PENDING":
		result.Status = StatusPending
	case "CANCELED", "FULL_REFUND", "PARTIAL_REFUND", "FAILED", "NOT_FOUND":
		result.Status = StatusFailed
	default:
		// Includes the gateway's own "AMBIGUOUS" and anything new it
		// starts reporting.
		result.Status = StatusAmbiguous
	}
	return result, nil
}
