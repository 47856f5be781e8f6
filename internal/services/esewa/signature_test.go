package esewa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Sandbox secret published in the gateway's integration docs.
const testSecret = "8gBm/:&EnhH.1/q"

func TestSignature_KnownVector(t *testing.T) {
	t.Parallel()

	s := NewSignatureService(testSecret)
	message := "total_amount=100,transaction_uuid=11-201-13,product_code=EPAYTEST"

	assert.Equal(t, "5DZywcrTKD0gia/rsSMcrRHmJl+4Tbol6S+lWgdJ94E=", s.Sign(message))
}

func TestSignature_RoundTrip(t *testing.T) {
	t.Parallel()

	s := NewSignatureService(testSecret)
	message := CanonicalMessage(3900, "AGR1700000000000-abcd1234", "EPAYTEST")

	sig := s.Sign(message)
	assert.Equal(t, "jadgarNAPHfXBEWDBSOTlEkjRpYO6N5hehBAos3/bgk=", sig)
	assert.True(t, s.Verify(message, sig))
}

func TestSignature_MutatedMessageFailsVerify(t *testing.T) {
	t.Parallel()

	s := NewSignatureService(testSecret)
	message := CanonicalMessage(3900, "AGR1700000000000-abcd1234", "EPAYTEST")
	sig := s.Sign(message)

	// Flip every single character in turn; none may verify.
	for i := 0; i < len(message); i++ {
		mutated := []byte(message)
		mutated[i] ^= 0x01
		assert.False(t, s.Verify(string(mutated), sig), "mutation at index %d must not verify", i)
	}
}

func TestSignature_WrongSecretFailsVerify(t *testing.T) {
	t.Parallel()

	message := CanonicalMessage(3900, "AGR1700000000000-abcd1234", "EPAYTEST")
	sig := NewSignatureService(testSecret).Sign(message)

	other := NewSignatureService("not-the-secret")
	assert.False(t, other.Verify(message, sig))
}

func TestCanonicalMessage_FieldOrderAndFormatting(t *testing.T) {
	t.Parallel()

	// The gateway signs the exact string: fixed field order, integer
	// amount formatting. This pins both.
	got := CanonicalMessage(3900, "AGR17-x", "EPAYTEST")
	assert.Equal(t, "total_amount=3900,transaction_uuid=AGR17-x,product_code=EPAYTEST", got)

	s := NewSignatureService(testSecret)
	reordered := "transaction_uuid=AGR17-x,total_amount=3900,product_code=EPAYTEST"
	assert.False(t, s.Verify(reordered, s.Sign(got)))
}

func TestSignedFieldNames_MatchesCanonicalOrder(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "total_amount,transaction_uuid,product_code", SignedFieldNames)
}
