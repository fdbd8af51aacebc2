package twocheckout

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Variant selects which vendor signing scheme to apply. The gateway exposes
// several endpoint families with independently documented signing rules, so
// the caller picks the variant matching the endpoint it targets and must use
// the same variant on both sides of an exchange.
type Variant string

const (
	// VariantBuyLink signs dynamic-product checkout links with HMAC-SHA256
	// over the length-prefixed canonical string.
	VariantBuyLink Variant = "buylink"
	// VariantDynamicTotal signs the fixed tuple seller id + currency +
	// total with plain SHA-256. The secret is prepended to the message;
	// this variant is not an HMAC.
	VariantDynamicTotal Variant = "dynamic-total"
	// VariantINS verifies inbound payment notifications with the legacy
	// MD5(canonical ++ secret) digest the vendor mandates for INS.
	VariantINS Variant = "ins"
)

var (
	// ErrSecretRequired is returned when a signing operation is attempted
	// without a secret. Signing with an empty key would silently produce
	// a digest the vendor rejects, so this fails fast instead.
	ErrSecretRequired = errors.New("twocheckout: signing secret is required")
	// ErrMissingField is returned when a value the chosen variant signs
	// over is empty.
	ErrMissingField = errors.New("twocheckout: required field is empty")
	// ErrUnknownVariant is returned for variants the signer does not know.
	ErrUnknownVariant = errors.New("twocheckout: unknown signing variant")
)

// SignBuyLink computes HMAC-SHA256(secret, Canonicalize(fields)) and returns
// the lowercase hex digest.
func SignBuyLink(secret string, fields map[string]string) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", ErrSecretRequired
	}
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: no fields to sign", ErrMissingField)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(Canonicalize(fields)))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// SignDynamicTotal computes SHA256(secret ++ sellerID ++ currency ++ total)
// as lowercase hex. The tuple order is fixed by the vendor and there is no
// sorting and no separator between the parts.
func SignDynamicTotal(secret, sellerID, currency, total string) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", ErrSecretRequired
	}
	for name, v := range map[string]string{"seller id": sellerID, "currency": currency, "total": total} {
		if strings.TrimSpace(v) == "" {
			return "", fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}
	sum := sha256.Sum256([]byte(secret + sellerID + currency + total))
	return hex.EncodeToString(sum[:]), nil
}

// SignINS computes MD5(Canonicalize(fields) ++ secret) as lowercase hex.
// MD5 is mandated by the vendor's legacy notification contract and is only
// used to check inbound notifications, never to sign outbound links. Empty
// field values are legitimate here: the vendor includes them in its own
// digest as zero-length entries.
func SignINS(secret string, fields map[string]string) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", ErrSecretRequired
	}
	sum := md5.Sum([]byte(Canonicalize(fields) + secret))
	return hex.EncodeToString(sum[:]), nil
}
