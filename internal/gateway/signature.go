package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signer authenticates payment confirmations. The gateway signs the pair
// "orderID|paymentID" with the shared key secret; both sides derive the
// same hex digest.
type Signer struct {
	Secret string
}

func (s Signer) Sign(gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(s.Secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time. A decode failure is a mismatch.
func (s Signer) Verify(gatewayOrderID, gatewayPaymentID, signature string) bool {
	want := s.Sign(gatewayOrderID, gatewayPaymentID)
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	wantRaw, _ := hex.DecodeString(want)
	return hmac.Equal(wantRaw, got)
}
