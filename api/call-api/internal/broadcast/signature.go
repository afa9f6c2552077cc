// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_broadcast

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

// Signature headers accepted on inbound integration webhooks, checked in
// order. Outbound signed deliveries use SignatureHeader.
const (
	SignatureHeader    = "X-Hub-Signature-256"
	SignatureHeaderAlt = "X-Signature"
)

const signaturePrefix = "sha256="

// SignatureError rejects an inbound webhook before any business logic
// runs.
type SignatureError struct {
	Reason string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("webhook signature invalid: %s", e.Reason)
}

func NewSignatureError(reason string) *SignatureError {
	return &SignatureError{Reason: reason}
}

// Sign computes the HMAC-SHA256 digest of body under secret in the
// standard "sha256=<hex>" header format.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a provided "sha256=<hex>" signature against the
// raw request body. Comparison is constant-time and independent of
// payload content.
func VerifySignature(body []byte, secret, provided string) error {
	if provided == "" {
		return NewSignatureError("signature header is empty")
	}
	if !strings.HasPrefix(provided, signaturePrefix) {
		return NewSignatureError("signature is not in sha256=<hex> format")
	}

	providedDigest, err := hex.DecodeString(strings.TrimPrefix(provided, signaturePrefix))
	if err != nil {
		return NewSignatureError("signature hex is malformed")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), providedDigest) {
		return NewSignatureError("digest mismatch")
	}
	return nil
}

// ExtractSignature reads the signature from the accepted headers,
// preferring X-Hub-Signature-256.
func ExtractSignature(header http.Header) string {
	if sig := header.Get(SignatureHeader); sig != "" {
		return sig
	}
	return header.Get(SignatureHeaderAlt)
}
