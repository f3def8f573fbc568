package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"sort"
)

// ComputeSignature implements the gateway's request signing scheme:
// HMAC-SHA1 over the full webhook URL followed by the POST parameters,
// keys sorted, each key immediately followed by its value.
func ComputeSignature(authToken, requestURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(requestURL))
	for _, k := range keys {
		mac.Write([]byte(k))
		mac.Write([]byte(form.Get(k)))
	}

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignature checks the signature header the gateway attached to a
// webhook request.
func ValidateSignature(authToken, requestURL string, form url.Values, signature string) bool {
	if signature == "" {
		return false
	}
	expected := ComputeSignature(authToken, requestURL, form)
	return hmac.Equal([]byte(expected), []byte(signature))
}
