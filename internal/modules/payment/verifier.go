package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrBadSignature means the receipt's HMAC did not verify against the
// shared gateway secret; nothing in the payload may be trusted.
var ErrBadSignature = errors.New("receipt signature verification failed")

// Verifier checks gateway receipt signatures with a shared HMAC secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// canonical builds the exact byte string the gateway signs. Field order and
// formatting match the gateway contract and must not change.
func canonical(r Receipt) string {
	return fmt.Sprintf("%s|%.2f|%s|%s", r.PaymentID, r.Amount, r.Currency, r.Customer.Subject)
}

// Sign computes the hex signature for a receipt. Used by tests and the
// sandbox gateway simulator.
func (v *Verifier) Sign(r Receipt) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(canonical(r)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the receipt's signature in constant time.
func (v *Verifier) Verify(r Receipt) error {
	want, err := hex.DecodeString(r.Signature)
	if err != nil {
		return ErrBadSignature
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(canonical(r)))
	if !hmac.Equal(mac.Sum(nil), want) {
		return ErrBadSignature
	}
	return nil
}
