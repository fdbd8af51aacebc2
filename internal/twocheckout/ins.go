package twocheckout

import (
	"crypto/hmac"
	"net/http"
	"strings"
)

// HashField is the payload key carrying the vendor's own signature in INS
// notifications.
const HashField = "HASH"

// maxNotificationBody bounds multipart notification parsing.
const maxNotificationBody = 1 << 20

// VerifyINS reports whether an inbound notification payload authenticates
// against the shared INS secret. The expected digest is
// MD5(Canonicalize(payload minus HASH) ++ secret); every other field in the
// payload participates, including ones this service does not recognise,
// because the vendor includes them in its own computation.
//
// VerifyINS is pure: it never mutates the payload and returns the same result
// for the same inputs, so redelivered notifications can be re-checked freely.
// A missing or empty HASH rejects immediately.
func VerifyINS(payload map[string]string, secret string) bool {
	if strings.TrimSpace(secret) == "" {
		return false
	}
	received, ok := payload[HashField]
	if !ok || received == "" {
		return false
	}
	fields := make(map[string]string, len(payload)-1)
	for k, v := range payload {
		if k == HashField {
			continue
		}
		fields[k] = v
	}
	expected, err := SignINS(secret, fields)
	if err != nil {
		return false
	}
	// hmac.Equal for constant-time comparison of the hex strings.
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(received)))
}

// ParseNotification flattens a form-encoded or multipart notification POST
// into the flat field map the INS digest is computed over. Repeated keys keep
// their first value, matching how the vendor serialises its payloads.
func ParseNotification(r *http.Request) (map[string]string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxNotificationBody); err != nil {
			return nil, err
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(r.PostForm))
	for k, vs := range r.PostForm {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out, nil
}
