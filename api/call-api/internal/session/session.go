// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_session

import (
	"time"

	"gorm.io/gorm"
)

// Call direction constants.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Call session status constants.
const (
	StatusRinging    = "ringing"     // Created, telephony leg not yet answered
	StatusInProgress = "in_progress" // Media connected, turns may run
	StatusCompleted  = "completed"   // Call ended normally
	StatusFailed     = "failed"      // Call setup or execution failed
)

// TranscriptEntry is one utterance in the conversation. The transcript
// is append-only; insertion order is conversation order.
type TranscriptEntry struct {
	Speaker    string    `json:"speaker"` // user or assistant
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float32   `json:"confidence"`
}

const (
	SpeakerUser      = "user"
	SpeakerAssistant = "assistant"
)

// Analytics holds running aggregates updated incrementally per turn and
// finalized when the session ends.
type Analytics struct {
	TurnCount         int     `json:"turnCount" gorm:"column:turn_count"`
	TalkTimeMs        int64   `json:"talkTimeMs" gorm:"column:talk_time_ms"`
	InterruptionCount int     `json:"interruptionCount" gorm:"column:interruption_count"`
	AvgTurnLatencyMs  float64 `json:"avgTurnLatencyMs" gorm:"column:avg_turn_latency_ms"`
	Sentiment         float32 `json:"sentiment" gorm:"column:sentiment"`
}

// RecordTurnLatency folds one turn's end-to-end latency into the running
// mean without keeping per-turn samples:
//
//	newAvg = (oldAvg*n + x) / (n+1)
func (a *Analytics) RecordTurnLatency(latencyMs float64) {
	a.AvgTurnLatencyMs = (a.AvgTurnLatencyMs*float64(a.TurnCount) + latencyMs) / float64(a.TurnCount+1)
	a.TurnCount++
}

// CallSession is the state record for one phone call. It is a plain
// record: invariants are enforced by the call manager and the pipeline
// at their operation boundaries, not here.
//
// Stored in Postgres (call_sessions table). Telephony providers send
// status callbacks asynchronously; these can arrive after the call has
// ended, so the row is never deleted during the call lifecycle; it only
// transitions from ringing or in_progress to completed or failed.
type CallSession struct {
	Id        uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID string `json:"sessionId" gorm:"column:session_id;type:varchar(36);not null;uniqueIndex"`
	Direction string `json:"direction" gorm:"column:direction;type:varchar(20);not null"`
	Status    string `json:"status" gorm:"column:status;type:varchar(20);not null;default:ringing"`

	// Routing target: exactly one of assistant, workflow or squad drives
	// response generation for a turn.
	AssistantID string `json:"assistantId" gorm:"column:assistant_id;type:varchar(100);not null;default:''"`
	WorkflowID  string `json:"workflowId" gorm:"column:workflow_id;type:varchar(100);not null;default:''"`
	SquadID     string `json:"squadId" gorm:"column:squad_id;type:varchar(100);not null;default:''"`

	// PhoneNumber is the caller for inbound calls, the callee for
	// outbound. Inbound sessions always carry a non-empty number.
	PhoneNumber string `json:"phoneNumber" gorm:"column:phone_number;type:varchar(50);not null;default:''"`

	// TelephonyProvider and TelephonyCallID identify the live call on the
	// vendor (Twilio CallSid, Vonage UUID). Owned by the call manager;
	// read-only for the orchestrator.
	TelephonyProvider string `json:"telephonyProvider" gorm:"column:telephony_provider;type:varchar(50);not null;default:''"`
	TelephonyCallID   string `json:"telephonyCallId" gorm:"column:telephony_call_id;type:varchar(200);not null;default:''"`
	SIPDialogHandle   string `json:"sipDialogHandle" gorm:"column:sip_dialog_handle;type:varchar(200);not null;default:''"`

	Transcript []TranscriptEntry `json:"transcript" gorm:"column:transcript;serializer:json"`
	Analytics  Analytics         `json:"analytics" gorm:"embedded;embeddedPrefix:analytics_"`

	StartTime  time.Time  `json:"startTime" gorm:"column:start_time;type:timestamp;not null"`
	EndTime    *time.Time `json:"endTime" gorm:"column:end_time;type:timestamp;default:null"`
	DurationMs int64      `json:"durationMs" gorm:"column:duration_ms;not null;default:0"`

	CreatedDate time.Time `json:"createdDate" gorm:"type:timestamp;not null;<-:create"`
	UpdatedDate time.Time `json:"updatedDate" gorm:"type:timestamp;default:null"`
}

func (CallSession) TableName() string {
	return "call_sessions"
}

func (cs *CallSession) BeforeCreate(tx *gorm.DB) (err error) {
	if cs.StartTime.IsZero() {
		cs.StartTime = time.Now()
	}
	if cs.CreatedDate.IsZero() {
		cs.CreatedDate = time.Now()
	}
	return nil
}

// IsTerminal returns true once the session reached completed or failed.
func (cs *CallSession) IsTerminal() bool {
	return cs.Status == StatusCompleted || cs.Status == StatusFailed
}

// AppendTranscript adds one utterance, preserving insertion order.
func (cs *CallSession) AppendTranscript(entry TranscriptEntry) {
	cs.Transcript = append(cs.Transcript, entry)
}

// GenerationTarget returns which routing target drives a turn. Workflow
// wins over assistant, squad only applies when set explicitly.
type GenerationTarget string

const (
	TargetWorkflow  GenerationTarget = "workflow"
	TargetAssistant GenerationTarget = "assistant"
	TargetSquad     GenerationTarget = "squad"
	TargetNone      GenerationTarget = "none"
)

func (cs *CallSession) GenerationTarget() GenerationTarget {
	switch {
	case cs.WorkflowID != "":
		return TargetWorkflow
	case cs.AssistantID != "":
		return TargetAssistant
	case cs.SquadID != "":
		return TargetSquad
	default:
		return TargetNone
	}
}
