// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.
package internal_twilio_telephony

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/vocalisai/api/call-api/config"
	internal_telephony "github.com/vocalisai/api/call-api/internal/telephony"
	"github.com/vocalisai/pkg/commons"
)

// Twilio lifecycle statuses mapped onto session statuses. Statuses with
// no entry carry no session transition and are ignored by the caller.
var statusTable = map[string]string{
	"queued":      internal_telephony.StatusRinging,
	"initiated":   internal_telephony.StatusRinging,
	"ringing":     internal_telephony.StatusRinging,
	"in-progress": internal_telephony.StatusInProgress,
	"answered":    internal_telephony.StatusInProgress,
	"completed":   internal_telephony.StatusCompleted,
	"busy":        internal_telephony.StatusFailed,
	"failed":      internal_telephony.StatusFailed,
	"no-answer":   internal_telephony.StatusFailed,
	"canceled":    internal_telephony.StatusFailed,
}

type twl struct {
	client     *twilio.RestClient
	fromNumber string
	logger     commons.Logger
}

// NewTwilio builds a Twilio provider from the configured credential.
func NewTwilio(credential config.TelephonyCredential, logger commons.Logger) (internal_telephony.Provider, error) {
	if credential.AccountSid == "" {
		return nil, fmt.Errorf("twilio: illegal credential config account_sid is not found")
	}
	if credential.AccountToken == "" {
		return nil, fmt.Errorf("twilio: illegal credential config account_token is not found")
	}
	if credential.FromNumber == "" {
		return nil, fmt.Errorf("twilio: illegal credential config from_number is not found")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: credential.AccountSid,
		Password: credential.AccountToken,
	})

	return &twl{
		client:     client,
		fromNumber: credential.FromNumber,
		logger:     logger,
	}, nil
}

func (tpc *twl) Name() string {
	return internal_telephony.ProviderTwilio
}

func (tpc *twl) CreateCall(ctx context.Context, req internal_telephony.CreateCallRequest) (*internal_telephony.CallHandle, error) {
	params := &openapi.CreateCallParams{}
	params.SetTo(req.To)
	params.SetFrom(tpc.fromNumber)
	params.SetUrl(req.AnswerURL)
	if req.StatusCallbackURL != "" {
		params.SetStatusCallback(req.StatusCallbackURL)
		params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	}

	call, err := tpc.client.Api.CreateCall(params)
	if err != nil {
		return nil, internal_telephony.NewTelephonyError(tpc.Name(), "create-call", err)
	}
	if call.Sid == nil {
		return nil, internal_telephony.NewTelephonyError(tpc.Name(), "create-call",
			fmt.Errorf("no call sid in response"))
	}

	tpc.logger.Infof("created twilio call: to=%s, callSid=%s", req.To, *call.Sid)

	return &internal_telephony.CallHandle{CallID: *call.Sid}, nil
}

// Transfer redirects a live call by pointing Twilio at new TwiML.
func (tpc *twl) Transfer(ctx context.Context, callID, destination string) error {
	params := &openapi.UpdateCallParams{}
	params.SetTwiml(fmt.Sprintf(`<Response><Dial>%s</Dial></Response>`, destination))

	if _, err := tpc.client.Api.UpdateCall(callID, params); err != nil {
		return internal_telephony.NewTelephonyError(tpc.Name(), "transfer", err)
	}

	tpc.logger.Infof("transferred twilio call: callSid=%s, destination=%s", callID, destination)
	return nil
}

// Hangup completes a live call leg.
func (tpc *twl) Hangup(ctx context.Context, callID string) error {
	params := &openapi.UpdateCallParams{}
	params.SetStatus("completed")

	if _, err := tpc.client.Api.UpdateCall(callID, params); err != nil {
		return internal_telephony.NewTelephonyError(tpc.Name(), "hangup", err)
	}

	tpc.logger.Infof("hung up twilio call: callSid=%s", callID)
	return nil
}

func (tpc *twl) NormalizeStatus(vendorStatus string) (string, bool) {
	status, ok := statusTable[vendorStatus]
	return status, ok
}
