package rest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Sign computes the request signature for authenticated REST calls: an
// HMAC-SHA256 hex digest, keyed by the account secret, over the query-string
// rendering of the request parameters followed by the body parameters.
//
// Parameters are rendered as key=value pairs joined with "&", with keys in
// lexicographic order. The nonce/timestamp must already be present in params;
// Sign itself reads no clock and is fully deterministic.
func Sign(secretKey string, params, data map[string]string) string {
	payload := canonicalQuery(params) + canonicalQuery(data)

	m := hmac.New(sha256.New, []byte(secretKey))
	m.Write([]byte(payload))
	return hex.EncodeToString(m.Sum(nil))
}

func canonicalQuery(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}
	return strings.Join(pairs, "&")
}
