package twocheckout_test

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arfan-dev/storefront-api/internal/twocheckout"
)

const insSecret = "ins-secret"

func signedPayload(t *testing.T, fields map[string]string) map[string]string {
	t.Helper()
	hash, err := twocheckout.SignINS(insSecret, fields)
	require.NoError(t, err)
	payload := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload[twocheckout.HashField] = hash
	return payload
}

func TestVerifyINSAcceptsValidPayload(t *testing.T) {
	t.Parallel()

	payload := signedPayload(t, map[string]string{
		"REFNO":       "X",
		"ORDERSTATUS": "COMPLETE",
	})
	require.True(t, twocheckout.VerifyINS(payload, insSecret))
	require.Equal(t, twocheckout.OutcomeSuccessful, twocheckout.Classify(payload["ORDERSTATUS"]))
}

func TestVerifyINSRejectsFlippedHash(t *testing.T) {
	t.Parallel()

	payload := signedPayload(t, map[string]string{"REFNO": "X", "ORDERSTATUS": "COMPLETE"})
	hash := payload[twocheckout.HashField]
	flipped := "0"
	if hash[0] == '0' {
		flipped = "1"
	}
	payload[twocheckout.HashField] = flipped + hash[1:]
	require.False(t, twocheckout.VerifyINS(payload, insSecret))
}

func TestVerifyINSRejectsTamperedField(t *testing.T) {
	t.Parallel()

	payload := signedPayload(t, map[string]string{
		"REFNO":       "X",
		"ORDERSTATUS": "COMPLETE",
		"IPN_TOTAL":   "25.50",
	})
	payload["IPN_TOTAL"] = "25.51"
	require.False(t, twocheckout.VerifyINS(payload, insSecret))
}

func TestVerifyINSMissingHash(t *testing.T) {
	t.Parallel()

	require.False(t, twocheckout.VerifyINS(map[string]string{"REFNO": "X"}, insSecret))
	require.False(t, twocheckout.VerifyINS(map[string]string{"REFNO": "X", "HASH": ""}, insSecret))
	require.False(t, twocheckout.VerifyINS(nil, insSecret))
}

func TestVerifyINSRequiresSecret(t *testing.T) {
	t.Parallel()

	payload := signedPayload(t, map[string]string{"REFNO": "X"})
	require.False(t, twocheckout.VerifyINS(payload, ""))
	require.False(t, twocheckout.VerifyINS(payload, "   "))
}

func TestVerifyINSIncludesUnknownFields(t *testing.T) {
	t.Parallel()

	// Fields this service has no use for still take part in the digest.
	payload := signedPayload(t, map[string]string{
		"REFNO":        "X",
		"ORDERSTATUS":  "COMPLETE",
		"FUTURE_FIELD": "whatever",
		"EMPTY_FIELD":  "",
	})
	require.True(t, twocheckout.VerifyINS(payload, insSecret))

	payload["FUTURE_FIELD"] = "changed"
	require.False(t, twocheckout.VerifyINS(payload, insSecret))
}

func TestVerifyINSIsPure(t *testing.T) {
	t.Parallel()

	payload := signedPayload(t, map[string]string{"REFNO": "X", "ORDERSTATUS": "COMPLETE"})
	snapshot := make(map[string]string, len(payload))
	for k, v := range payload {
		snapshot[k] = v
	}

	first := twocheckout.VerifyINS(payload, insSecret)
	second := twocheckout.VerifyINS(payload, insSecret)
	require.Equal(t, first, second)
	require.True(t, first)
	require.Equal(t, snapshot, payload)
}

func TestVerifyINSCaseInsensitiveHash(t *testing.T) {
	t.Parallel()

	payload := signedPayload(t, map[string]string{"REFNO": "X"})
	payload[twocheckout.HashField] = strings.ToUpper(payload[twocheckout.HashField])
	require.True(t, twocheckout.VerifyINS(payload, insSecret))
}

func TestParseNotificationFormEncoded(t *testing.T) {
	t.Parallel()

	form := url.Values{}
	form.Set("REFNO", "X")
	form.Set("ORDERSTATUS", "COMPLETE")
	form.Set("HASH", "abc123")

	req := httptest.NewRequest("POST", "/webhooks/payment/twocheckout", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	payload, err := twocheckout.ParseNotification(req)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"REFNO": "X", "ORDERSTATUS": "COMPLETE", "HASH": "abc123"}, payload)
}

func TestParseNotificationMultipart(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("REFNO", "X"))
	require.NoError(t, mw.WriteField("HASH", "abc123"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/webhooks/payment/twocheckout", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	payload, err := twocheckout.ParseNotification(req)
	require.NoError(t, err)
	require.Equal(t, "X", payload["REFNO"])
	require.Equal(t, "abc123", payload["HASH"])
}
