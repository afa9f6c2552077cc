// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.
package internal_vonage_telephony

import (
	"context"
	"fmt"

	vng "github.com/vonage/vonage-go-sdk"

	"github.com/vocalisai/api/call-api/config"
	internal_telephony "github.com/vocalisai/api/call-api/internal/telephony"
	"github.com/vocalisai/pkg/commons"
)

// Vonage lifecycle statuses mapped onto session statuses. Statuses with
// no entry carry no session transition and are ignored by the caller.
var statusTable = map[string]string{
	"started":    internal_telephony.StatusRinging,
	"ringing":    internal_telephony.StatusRinging,
	"answered":   internal_telephony.StatusInProgress,
	"completed":  internal_telephony.StatusCompleted,
	"busy":       internal_telephony.StatusFailed,
	"cancelled":  internal_telephony.StatusFailed,
	"failed":     internal_telephony.StatusFailed,
	"rejected":   internal_telephony.StatusFailed,
	"timeout":    internal_telephony.StatusFailed,
	"unanswered": internal_telephony.StatusFailed,
}

type vg struct {
	voice      *vng.VoiceClient
	fromNumber string
	logger     commons.Logger
}

// NewVonage builds a Vonage provider from the configured application
// credential. Vonage voice calls authenticate with an application id and
// its private key rather than an api key pair.
func NewVonage(credential config.TelephonyCredential, logger commons.Logger) (internal_telephony.Provider, error) {
	if credential.ApplicationId == "" {
		return nil, fmt.Errorf("vonage: illegal credential config application_id is not found")
	}
	if credential.PrivateKey == "" {
		return nil, fmt.Errorf("vonage: illegal credential config private_key is not found")
	}
	if credential.FromNumber == "" {
		return nil, fmt.Errorf("vonage: illegal credential config from_number is not found")
	}

	auth, err := vng.CreateAuthFromAppPrivateKey(credential.ApplicationId, []byte(credential.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("vonage: failed to build application auth: %w", err)
	}

	return &vg{
		voice:      vng.NewVoiceClient(auth),
		fromNumber: credential.FromNumber,
		logger:     logger,
	}, nil
}

func (vt *vg) Name() string {
	return internal_telephony.ProviderVonage
}

func (vt *vg) CreateCall(ctx context.Context, req internal_telephony.CreateCallRequest) (*internal_telephony.CallHandle, error) {
	result, _, err := vt.voice.CreateCall(vng.CreateCallOpts{
		From:      vng.CallFrom{Type: "phone", Number: vt.fromNumber},
		To:        vng.CallTo{Type: "phone", Number: req.To},
		AnswerUrl: []string{req.AnswerURL},
		EventUrl:  []string{req.StatusCallbackURL},
	})
	if err != nil {
		return nil, internal_telephony.NewTelephonyError(vt.Name(), "create-call", err)
	}
	if result.Uuid == "" {
		return nil, internal_telephony.NewTelephonyError(vt.Name(), "create-call",
			fmt.Errorf("no call uuid in response"))
	}

	vt.logger.Infof("created vonage call: to=%s, uuid=%s", req.To, result.Uuid)

	return &internal_telephony.CallHandle{
		CallID:          result.Uuid,
		SIPDialogHandle: result.ConversationUuid,
	}, nil
}

// Transfer points the live call at a new answer URL.
func (vt *vg) Transfer(ctx context.Context, callID, destination string) error {
	if _, _, err := vt.voice.TransferCall(vng.TransferCallOpts{Uuid: callID, AnswerUrl: []string{destination}}); err != nil {
		return internal_telephony.NewTelephonyError(vt.Name(), "transfer", err)
	}

	vt.logger.Infof("transferred vonage call: uuid=%s, destination=%s", callID, destination)
	return nil
}

func (vt *vg) Hangup(ctx context.Context, callID string) error {
	if _, _, err := vt.voice.Hangup(callID); err != nil {
		return internal_telephony.NewTelephonyError(vt.Name(), "hangup", err)
	}

	vt.logger.Infof("hung up vonage call: uuid=%s", callID)
	return nil
}

func (vt *vg) NormalizeStatus(vendorStatus string) (string, bool) {
	status, ok := statusTable[vendorStatus]
	return status, ok
}
