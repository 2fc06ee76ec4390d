package rest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign_KnownVectors(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		params map[string]string
		data   map[string]string
		want   string
	}{
		{
			name:   "params only",
			secret: "secret",
			params: map[string]string{"a": "1", "b": "2"},
			want:   "604fe97c66c6393ff22e3cae366eee1131e351ebc736bf12f5d62e1755b7a233",
		},
		{
			name:   "params and body",
			secret: "secret",
			params: map[string]string{"a": "1", "b": "2"},
			data:   map[string]string{"price": "4", "amount": "3"},
			want:   "c652655d70160c11ef4493540b7a4389e6458fe37d0667188617f1e369b0b003",
		},
		{
			name:   "signed call shape",
			secret: "topsecret",
			params: map[string]string{
				"symbol":    "coin-btc-eth",
				"accessKey": "key",
				"nonce":     "1577836800000",
			},
			want: "a4fb5299a00178e66baeeeabe6aa278c25ec68b669ee9d22ce174688f16a32cd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sign(tt.secret, tt.params, tt.data))
		})
	}
}

func TestSign_Deterministic(t *testing.T) {
	params := map[string]string{"symbol": "coin-btc-eth", "nonce": "12345", "size": "20"}
	data := map[string]string{"price": "0.05", "amount": "1"}

	first := Sign("sec", params, data)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Sign("sec", params, data), "signature must be stable across map iteration orders")
	}
}

func TestSign_KeyOrderIndependent(t *testing.T) {
	// Two maps built in different insertion orders must sign identically.
	a := map[string]string{}
	a["x"] = "1"
	a["y"] = "2"
	b := map[string]string{}
	b["y"] = "2"
	b["x"] = "1"

	assert.Equal(t, Sign("sec", a, nil), Sign("sec", b, nil))
}

func TestSign_EmptyInputs(t *testing.T) {
	assert.NotEmpty(t, Sign("sec", nil, nil))
	assert.Equal(t, Sign("sec", nil, nil), Sign("sec", map[string]string{}, nil))
}
