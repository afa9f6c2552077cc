// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_manager

import (
	"context"
	"fmt"
	"time"

	internal_broadcast "github.com/vocalisai/api/call-api/internal/broadcast"
	internal_session "github.com/vocalisai/api/call-api/internal/session"
	internal_telephony "github.com/vocalisai/api/call-api/internal/telephony"
	"github.com/vocalisai/pkg/commons"
)

// Routing is the external lookup that decides which assistant, workflow
// or squad answers a call. The dashboard owns routing rules; the call
// plane only consumes the resolved target.
type Routing interface {
	Resolve(ctx context.Context, phoneNumber string) (assistantID, workflowID, squadID string, err error)
}

// staticRouting answers every call with one configured assistant.
type staticRouting struct {
	assistantID string
}

// NewStaticRouting routes all inbound calls to a single assistant.
func NewStaticRouting(assistantID string) Routing {
	return &staticRouting{assistantID: assistantID}
}

func (s *staticRouting) Resolve(ctx context.Context, phoneNumber string) (string, string, string, error) {
	if s.assistantID == "" {
		return "", "", "", fmt.Errorf("no assistant configured for inbound calls")
	}
	return s.assistantID, "", "", nil
}

// Broadcaster is the slice of the event broadcaster the manager needs.
type Broadcaster interface {
	Broadcast(eventType string, data map[string]interface{})
}

// Manager bridges telephony-level call events to sessions: inbound call
// setup, outbound placement, teardown, transfer and vendor status
// callbacks.
type Manager struct {
	logger      commons.Logger
	store       internal_session.Store
	registry    internal_session.Registry
	routing     Routing
	telephony   map[string]internal_telephony.Provider
	broadcaster Broadcaster
}

// NewManager wires the call manager. The telephony map holds one
// provider per configured vendor.
func NewManager(
	logger commons.Logger,
	store internal_session.Store,
	registry internal_session.Registry,
	routing Routing,
	telephony map[string]internal_telephony.Provider,
	broadcaster Broadcaster,
) *Manager {
	return &Manager{
		logger:      logger,
		store:       store,
		registry:    registry,
		routing:     routing,
		telephony:   telephony,
		broadcaster: broadcaster,
	}
}

func (m *Manager) provider(name string) (internal_telephony.Provider, error) {
	provider, ok := m.telephony[name]
	if !ok {
		return nil, fmt.Errorf("telephony provider %q is not configured", name)
	}
	return provider, nil
}

// HandleIncomingCall creates a session for an inbound call: resolve the
// routing target, persist the session, register the vendor call id and
// move to in_progress once the media leg is expected.
func (m *Manager) HandleIncomingCall(ctx context.Context, provider, callID, callerNumber string) (*internal_session.CallSession, error) {
	if callerNumber == "" {
		return nil, fmt.Errorf("inbound call %s/%s carries no caller number", provider, callID)
	}

	assistantID, workflowID, squadID, err := m.routing.Resolve(ctx, callerNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve routing for %s: %w", callerNumber, err)
	}

	cs := &internal_session.CallSession{
		Direction:         internal_session.DirectionInbound,
		Status:            internal_session.StatusRinging,
		AssistantID:       assistantID,
		WorkflowID:        workflowID,
		SquadID:           squadID,
		PhoneNumber:       callerNumber,
		TelephonyProvider: provider,
		TelephonyCallID:   callID,
		StartTime:         time.Now(),
	}
	sessionID, err := m.store.Save(ctx, cs)
	if err != nil {
		return nil, err
	}

	if err := m.registry.Register(ctx, provider, callID, sessionID); err != nil {
		m.logger.Errorf("manager: failed to register inbound call %s/%s: %v", provider, callID, err)
	}

	if err := m.store.UpdateStatus(ctx, sessionID, internal_session.StatusInProgress); err != nil {
		return nil, err
	}
	cs.Status = internal_session.StatusInProgress

	m.broadcaster.Broadcast(internal_broadcast.EventCallStarted, map[string]interface{}{
		"sessionId":   cs.SessionID,
		"direction":   cs.Direction,
		"phoneNumber": cs.PhoneNumber,
		"assistantId": cs.AssistantID,
	})

	m.logger.Infof("handled incoming call: sessionId=%s, provider=%s, caller=%s",
		cs.SessionID, provider, callerNumber)

	return cs, nil
}

// InitiateOutboundCall asks the telephony vendor to place a call for an
// already-saved outbound session. Placement failures finalize the
// session as failed and propagate to the caller; they are never retried
// automatically.
func (m *Manager) InitiateOutboundCall(ctx context.Context, cs *internal_session.CallSession, answerURL, statusCallbackURL string) error {
	provider, err := m.provider(cs.TelephonyProvider)
	if err != nil {
		return err
	}

	handle, err := provider.CreateCall(ctx, internal_telephony.CreateCallRequest{
		To:                cs.PhoneNumber,
		AnswerURL:         answerURL,
		StatusCallbackURL: statusCallbackURL,
	})
	if err != nil {
		if _, _, ferr := m.store.Finalize(ctx, cs.SessionID, internal_session.StatusFailed); ferr != nil {
			m.logger.Errorf("manager: failed to finalize session %s after placement failure: %v", cs.SessionID, ferr)
		}
		cs.Status = internal_session.StatusFailed

		m.broadcaster.Broadcast(internal_broadcast.EventCallFailed, map[string]interface{}{
			"sessionId":   cs.SessionID,
			"phoneNumber": cs.PhoneNumber,
			"reason":      err.Error(),
		})
		return err
	}

	if err := m.store.UpdateField(ctx, cs.SessionID, "telephony_call_id", handle.CallID); err != nil {
		m.logger.Errorf("manager: failed to record call id on session %s: %v", cs.SessionID, err)
	}
	cs.TelephonyCallID = handle.CallID
	if handle.SIPDialogHandle != "" {
		if err := m.store.UpdateField(ctx, cs.SessionID, "sip_dialog_handle", handle.SIPDialogHandle); err != nil {
			m.logger.Errorf("manager: failed to record dialog handle on session %s: %v", cs.SessionID, err)
		}
		cs.SIPDialogHandle = handle.SIPDialogHandle
	}

	if err := m.registry.Register(ctx, provider.Name(), handle.CallID, cs.SessionID); err != nil {
		m.logger.Errorf("manager: failed to register outbound call %s/%s: %v", provider.Name(), handle.CallID, err)
	}

	m.broadcaster.Broadcast(internal_broadcast.EventCallStarted, map[string]interface{}{
		"sessionId":   cs.SessionID,
		"direction":   cs.Direction,
		"phoneNumber": cs.PhoneNumber,
	})

	m.logger.Infof("initiated outbound call: sessionId=%s, provider=%s, to=%s, callId=%s",
		cs.SessionID, provider.Name(), cs.PhoneNumber, handle.CallID)

	return nil
}

// EndCall finalizes a session. Idempotent: ending an already-ended
// session is a no-op that emits no second event.
func (m *Manager) EndCall(ctx context.Context, sessionID string) error {
	return m.endCall(ctx, sessionID, internal_session.StatusCompleted)
}

func (m *Manager) endCall(ctx context.Context, sessionID, status string) error {
	cs, finalized, err := m.store.Finalize(ctx, sessionID, status)
	if err != nil {
		return err
	}
	if !finalized {
		m.logger.Debugf("manager: session %s already ended, nothing to do", sessionID)
		return nil
	}

	// Release telephony resources best-effort; the session is already
	// terminal either way.
	if cs.TelephonyCallID != "" {
		if provider, perr := m.provider(cs.TelephonyProvider); perr == nil {
			if herr := provider.Hangup(ctx, cs.TelephonyCallID); herr != nil {
				m.logger.Warnf("manager: hangup failed for session %s: %v", sessionID, herr)
			}
		}
		if uerr := m.registry.Unregister(ctx, cs.TelephonyProvider, cs.TelephonyCallID); uerr != nil {
			m.logger.Warnf("manager: failed to unregister call for session %s: %v", sessionID, uerr)
		}
	}

	event := internal_broadcast.EventCallEnded
	if status == internal_session.StatusFailed {
		event = internal_broadcast.EventCallFailed
	}
	m.broadcaster.Broadcast(event, map[string]interface{}{
		"sessionId":        cs.SessionID,
		"direction":        cs.Direction,
		"phoneNumber":      cs.PhoneNumber,
		"durationMs":       cs.DurationMs,
		"turnCount":        cs.Analytics.TurnCount,
		"avgTurnLatencyMs": cs.Analytics.AvgTurnLatencyMs,
	})

	m.logger.Infof("ended call: sessionId=%s, status=%s, durationMs=%d", sessionID, status, cs.DurationMs)
	return nil
}

// TransferCall redirects a live call to another number. Best-effort: a
// vendor failure is reported to the caller and the session stays
// in_progress.
func (m *Manager) TransferCall(ctx context.Context, sessionID, targetNumber string) error {
	cs, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if cs.IsTerminal() {
		return fmt.Errorf("call session %s already ended, cannot transfer", sessionID)
	}

	provider, err := m.provider(cs.TelephonyProvider)
	if err != nil {
		return err
	}

	if err := provider.Transfer(ctx, cs.TelephonyCallID, targetNumber); err != nil {
		m.logger.Warnf("manager: transfer failed for session %s, call stays up: %v", sessionID, err)
		return err
	}

	m.broadcaster.Broadcast(internal_broadcast.EventCallTransferred, map[string]interface{}{
		"sessionId":    cs.SessionID,
		"targetNumber": targetNumber,
	})

	m.logger.Infof("transferred call: sessionId=%s, target=%s", sessionID, targetNumber)
	return nil
}

// HandleStatusCallback applies an asynchronous vendor status callback to
// its session. Unknown calls and unmapped statuses are logged and
// ignored; a callback must never crash the handler.
func (m *Manager) HandleStatusCallback(ctx context.Context, providerName, callID, vendorStatus string) error {
	provider, err := m.provider(providerName)
	if err != nil {
		return err
	}

	sessionID, err := m.registry.Resolve(ctx, providerName, callID)
	if err != nil {
		m.logger.Warnf("manager: status callback for unknown call %s/%s (%s), ignoring",
			providerName, callID, vendorStatus)
		return nil
	}

	status, ok := provider.NormalizeStatus(vendorStatus)
	if !ok {
		m.logger.Infof("manager: unmapped %s status %q for session %s, ignoring",
			providerName, vendorStatus, sessionID)
		return nil
	}

	switch status {
	case internal_session.StatusRinging:
		// Sessions start in ringing; nothing to apply.
		return nil
	case internal_session.StatusInProgress:
		cs, err := m.store.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if cs.Status != internal_session.StatusRinging {
			return nil
		}
		return m.store.UpdateStatus(ctx, sessionID, internal_session.StatusInProgress)
	case internal_session.StatusCompleted, internal_session.StatusFailed:
		return m.endCall(ctx, sessionID, status)
	default:
		m.logger.Warnf("manager: unexpected normalized status %q for session %s", status, sessionID)
		return nil
	}
}
