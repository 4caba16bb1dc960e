package gateway

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Signer produces the `sign` parameter attached to outbound checkout
// requests. The Datatrans HMAC scheme keys an MD5 HMAC with the raw bytes
// of the hex-encoded merchant secret and signs the concatenation
// merchantId + amount + currency + refno.
//
// The inbound notification carries no signature in this protocol; the
// reconciler's invoice and amount cross-checks stand in for verification
// on that leg.
type Signer struct {
	merchantID string
	key        []byte
}

func NewSigner(merchantID, secretHex string) (*Signer, error) {
	key, err := hex.DecodeString(secretHex)
	if err != nil {
		return nil, fmt.Errorf("NewSigner: decode secret: %w", err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("NewSigner: empty secret")
	}
	return &Signer{merchantID: merchantID, key: key}, nil
}

func (s *Signer) MerchantID() string { return s.merchantID }

// Sign returns the hex digest over the signed checkout fields.
func (s *Signer) Sign(amountMinor int64, currency, refno string) string {
	mac := hmac.New(md5.New, s.key)
	mac.Write([]byte(s.merchantID))
	mac.Write([]byte(strconv.FormatInt(amountMinor, 10)))
	mac.Write([]byte(currency))
	mac.Write([]byte(refno))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature and compares in constant time. Unused on
// the notification leg today; kept for gateway contracts that echo the
// sign field back.
func (s *Signer) Verify(amountMinor int64, currency, refno, sig string) bool {
	expected := s.Sign(amountMinor, currency, refno)
	return hmac.Equal([]byte(expected), []byte(sig))
}
