// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_broadcast

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureRoundTrip(t *testing.T) {
	body := []byte(`{"event":"call_ended","data":{"sessionId":"s-1"}}`)
	secret := "shared-secret"

	signature := Sign(body, secret)
	assert.Contains(t, signature, "sha256=")
	assert.NoError(t, VerifySignature(body, secret, signature))
}

func TestSignatureRejectsFlippedByte(t *testing.T) {
	body := []byte(`{"event":"call_ended"}`)
	secret := "shared-secret"
	signature := Sign(body, secret)

	// Flipping any single body byte must reject.
	for i := range body {
		tampered := make([]byte, len(body))
		copy(tampered, body)
		tampered[i] ^= 0x01

		err := VerifySignature(tampered, secret, signature)
		var sigErr *SignatureError
		require.ErrorAs(t, err, &sigErr)
	}
}

func TestSignatureRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"event":"call_ended"}`)
	signature := Sign(body, "right-secret")

	assert.Error(t, VerifySignature(body, "wrong-secret", signature))
}

func TestSignatureRejectsMalformed(t *testing.T) {
	body := []byte(`{}`)

	tests := []struct {
		name      string
		signature string
	}{
		{"empty", ""},
		{"missing prefix", "deadbeef"},
		{"wrong prefix", "sha1=deadbeef"},
		{"bad hex", "sha256=not-hex-at-all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(body, "secret", tt.signature)
			var sigErr *SignatureError
			assert.ErrorAs(t, err, &sigErr)
		})
	}
}

func TestExtractSignaturePrefersHubHeader(t *testing.T) {
	header := http.Header{}
	header.Set(SignatureHeaderAlt, "sha256=alt")
	assert.Equal(t, "sha256=alt", ExtractSignature(header))

	header.Set(SignatureHeader, "sha256=hub")
	assert.Equal(t, "sha256=hub", ExtractSignature(header))
}
