// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_telephony

import (
	"context"
	"fmt"
)

// Supported telephony vendors.
const (
	ProviderTwilio = "twilio"
	ProviderVonage = "vonage"
)

// Normalized call statuses shared by all vendors. Values match the call
// session status vocabulary so callbacks can be applied directly.
const (
	StatusRinging    = "ringing"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// CreateCallRequest carries everything a vendor needs to place an
// outbound call leg.
type CreateCallRequest struct {
	// To is the destination number in E.164 format.
	To string

	// AnswerURL is fetched by the vendor when the callee picks up; it
	// returns the call-control instructions that bridge media to us.
	AnswerURL string

	// StatusCallbackURL receives asynchronous lifecycle callbacks.
	StatusCallbackURL string
}

// CallHandle identifies a live call leg on the vendor side.
type CallHandle struct {
	// CallID is the vendor's identifier (Twilio CallSid, Vonage UUID).
	CallID string

	// SIPDialogHandle carries the vendor's dialog reference when one is
	// exposed (conversation UUID on Vonage); empty on vendors that only
	// expose the call id.
	SIPDialogHandle string
}

// Provider abstracts a telephony vendor. Implementations wrap the vendor
// SDK and translate vendor statuses into session statuses.
type Provider interface {
	Name() string

	// CreateCall places an outbound call and returns the vendor handle.
	CreateCall(ctx context.Context, req CreateCallRequest) (*CallHandle, error)

	// Transfer redirects a live call to another destination. Best-effort:
	// vendors reject transfers on calls that already ended.
	Transfer(ctx context.Context, callID, destination string) error

	// Hangup terminates a live call leg.
	Hangup(ctx context.Context, callID string) error

	// NormalizeStatus maps a vendor lifecycle status onto a session
	// status. Returns ok=false for statuses that carry no session
	// transition (intermediate media events, unknown values); callers
	// log and ignore those.
	NormalizeStatus(vendorStatus string) (status string, ok bool)
}

// TelephonyError wraps a vendor failure with the provider and operation
// that produced it.
type TelephonyError struct {
	Provider  string
	Operation string
	Err       error
}

func NewTelephonyError(provider, operation string, err error) *TelephonyError {
	return &TelephonyError{Provider: provider, Operation: operation, Err: err}
}

func (e *TelephonyError) Error() string {
	return fmt.Sprintf("telephony %s: %s failed: %v", e.Provider, e.Operation, e.Err)
}

func (e *TelephonyError) Unwrap() error {
	return e.Err
}
