// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_pipeline

import (
	"time"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
)

// Internal pipeline event types. These feed the observability notifier
// and are distinct from the external lifecycle events the broadcaster
// fans out: a notifier failure must never be able to affect turn control
// flow, and external sinks must never see per-stage noise.
const (
	EventProcessingStarted   = "call_processing_started"
	EventProcessingCompleted = "call_processing_completed"
	EventProcessingError     = "call_processing_error"
)

// TurnEvent is one state transition of an in-flight turn.
type TurnEvent struct {
	Type      string
	SessionID string
	Stage     internal_transformer.Stage
	Err       error
	Timestamp time.Time
}

// Notifier receives internal turn state transitions. Implementations
// must be non-blocking; the orchestrator calls Notify inline.
type Notifier interface {
	Notify(event TurnEvent)
}

// loggingNotifier is the default notifier: transitions land in the
// structured log and nowhere else.
type loggingNotifier struct {
	logger commons.Logger
}

// NewLoggingNotifier returns a notifier that writes transitions to the
// application log.
func NewLoggingNotifier(logger commons.Logger) Notifier {
	return &loggingNotifier{logger: logger}
}

func (n *loggingNotifier) Notify(event TurnEvent) {
	if event.Err != nil {
		n.logger.Warnf("pipeline event: type=%s, sessionId=%s, stage=%s, err=%v",
			event.Type, event.SessionID, event.Stage, event.Err)
		return
	}
	n.logger.Debugf("pipeline event: type=%s, sessionId=%s, stage=%s",
		event.Type, event.SessionID, event.Stage)
}
