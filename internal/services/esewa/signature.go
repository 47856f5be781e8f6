package esewa

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// SignedFieldNames lists, in order, exactly the fields covered by the
// signature. The gateway recomputes the HMAC over these fields, so the
// set and order must never drift from CanonicalMessage. Tampering with
// either charge field still breaks verification because total_amount
// includes both charges and is checked against the stored intent.
const SignedFieldNames = "total_amount,transaction_uuid,product_code"

// SignatureService computes and checks the HMAC-SHA256 signature the
// gateway requires on redirect payloads.
type SignatureService struct {
	secret []byte
}

func NewSignatureService(secret string) *SignatureService {
	return &SignatureService{secret: []byte(secret)}
}

// CanonicalMessage builds the exact string both ends sign. Field order
// and integer formatting are part of the contract: any deviation
// invalidates the signature.
func CanonicalMessage(totalAmount int64, transactionUUID, productCode string) string {
	return fmt.Sprintf("total_amount=%d,transaction_uuid=%s,product_code=%s",
		totalAmount, transactionUUID, productCode)
}

// Sign returns the base64-encoded HMAC-SHA256 of the message.
func (s *SignatureService) Sign(message string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature and compares in constant time.
// A mismatch is an expected outcome, not an error.
func (s *SignatureService) Verify(message, signature string) bool {
	expected := s.Sign(message)
	return hmac.Equal([]byte(expected), []byte(signature))
}
