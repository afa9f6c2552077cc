// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/connectors"
)

// Store provides operations to save and retrieve call sessions from Postgres.
//
// Sessions are call-scoped records that live for the entire duration of a
// call. Telephony providers (Twilio, Vonage) send status callbacks
// asynchronously; these can arrive at any time, including after the media
// stream has disconnected and the session has been finalized. Therefore the
// row is never deleted during the call lifecycle; it only transitions
// from ringing or in_progress to completed or failed.
type Store interface {
	// Save stores a session with a generated sessionId (UUID).
	// Returns the generated sessionId.
	Save(ctx context.Context, cs *CallSession) (string, error)

	// Get retrieves a session by sessionId regardless of its current
	// status. This is intentional: status callbacks from upstream
	// telephony providers are asynchronous and may arrive after the call
	// has already ended. The row must remain readable for the full
	// lifetime of the session.
	Get(ctx context.Context, sessionID string) (*CallSession, error)

	// UpdateStatus transitions a session's status unconditionally. Used
	// for the ringing to in_progress transition when media connects.
	UpdateStatus(ctx context.Context, sessionID, status string) error

	// UpdateField sets a single column on an existing session row.
	// Used to patch the telephony call id after the provider returns it.
	UpdateField(ctx context.Context, sessionID, field, value string) error

	// RecordTurn persists the session's transcript and analytics after a
	// completed conversation turn. Transcript writes are append-only; the
	// caller appends to the in-memory session before recording.
	RecordTurn(ctx context.Context, cs *CallSession) error

	// Finalize atomically transitions a session from "ringing" or
	// "in_progress" to a terminal status and stamps end time and duration.
	// Only one concurrent caller can win. Subsequent callers get
	// finalized=false because the row is no longer in an endable status.
	// The session ending twice must not double-report, so callers treat
	// finalized=false as "already ended" rather than an error.
	Finalize(ctx context.Context, sessionID, status string) (cs *CallSession, finalized bool, err error)

	// Delete removes a session row. Only intended for cleanup (TTL-based
	// garbage collection), NOT during active call flows, because async
	// status callbacks may still reference the sessionId.
	Delete(ctx context.Context, sessionID string) error
}

type postgresStore struct {
	postgres connectors.PostgresConnector
	logger   commons.Logger
}

// NewStore creates a new call session store backed by Postgres.
func NewStore(postgres connectors.PostgresConnector, logger commons.Logger) Store {
	return &postgresStore{
		postgres: postgres,
		logger:   logger,
	}
}

// Save stores a session in Postgres with a generated UUID as the sessionId.
func (s *postgresStore) Save(ctx context.Context, cs *CallSession) (string, error) {
	if cs.SessionID == "" {
		cs.SessionID = uuid.New().String()
	}
	if cs.Status == "" {
		cs.Status = StatusRinging
	}

	db := s.postgres.DB(ctx)
	if err := db.Create(cs).Error; err != nil {
		return "", fmt.Errorf("failed to save call session %s: %w", cs.SessionID, err)
	}

	s.logger.Infof("saved call session: sessionId=%s, direction=%s, assistant=%s, phone=%s",
		cs.SessionID, cs.Direction, cs.AssistantID, cs.PhoneNumber)

	return cs.SessionID, nil
}

// Get retrieves a session by sessionId regardless of its status.
// This deliberately reads any status because upstream telephony providers
// fire status webhooks asynchronously, so a "completed" callback from Twilio
// can arrive well after the media stream ends.
func (s *postgresStore) Get(ctx context.Context, sessionID string) (*CallSession, error) {
	db := s.postgres.DB(ctx)
	var cs CallSession
	if err := db.Where("session_id = ?", sessionID).First(&cs).Error; err != nil {
		return nil, fmt.Errorf("call session not found: %s: %w", sessionID, err)
	}

	s.logger.Debugf("resolved call session: sessionId=%s, status=%s, direction=%s",
		cs.SessionID, cs.Status, cs.Direction)

	return &cs, nil
}

// UpdateStatus transitions the session's status.
func (s *postgresStore) UpdateStatus(ctx context.Context, sessionID, status string) error {
	db := s.postgres.DB(ctx)
	result := db.Model(&CallSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":       status,
			"updated_date": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update status on call session %s: %w", sessionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("call session %s not found", sessionID)
	}

	s.logger.Debugf("updated call session status: sessionId=%s, status=%s", sessionID, status)
	return nil
}

// UpdateField sets a single column on an existing session row.
func (s *postgresStore) UpdateField(ctx context.Context, sessionID, field, value string) error {
	db := s.postgres.DB(ctx)

	// Allowlist of updatable fields to prevent SQL injection
	allowed := map[string]bool{
		"telephony_call_id":  true,
		"telephony_provider": true,
		"sip_dialog_handle":  true,
		"phone_number":       true,
	}
	if !allowed[field] {
		return fmt.Errorf("field %q is not updatable on call session", field)
	}

	result := db.Model(&CallSession{}).
		Where("session_id = ?", sessionID).
		Update(field, value)

	if result.Error != nil {
		return fmt.Errorf("failed to update field %s on call session %s: %w", field, sessionID, result.Error)
	}

	s.logger.Debugf("updated call session field: sessionId=%s, %s=%s", sessionID, field, value)
	return nil
}

// RecordTurn persists transcript and analytics after a completed turn.
func (s *postgresStore) RecordTurn(ctx context.Context, cs *CallSession) error {
	db := s.postgres.DB(ctx)
	result := db.Model(&CallSession{}).
		Where("session_id = ?", cs.SessionID).
		Updates(map[string]interface{}{
			"transcript":                    cs.Transcript,
			"analytics_turn_count":          cs.Analytics.TurnCount,
			"analytics_talk_time_ms":        cs.Analytics.TalkTimeMs,
			"analytics_interruption_count":  cs.Analytics.InterruptionCount,
			"analytics_avg_turn_latency_ms": cs.Analytics.AvgTurnLatencyMs,
			"analytics_sentiment":           cs.Analytics.Sentiment,
			"updated_date":                  time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to record turn on call session %s: %w", cs.SessionID, result.Error)
	}

	s.logger.Debugf("recorded turn: sessionId=%s, turns=%d, avgLatencyMs=%.1f",
		cs.SessionID, cs.Analytics.TurnCount, cs.Analytics.AvgTurnLatencyMs)

	return nil
}

// Finalize atomically ends a session using an atomic
// UPDATE ... WHERE status IN ('ringing','in_progress'). Only one concurrent
// caller can win. The row remains in the database so late status callbacks
// can still read it.
func (s *postgresStore) Finalize(ctx context.Context, sessionID, status string) (*CallSession, bool, error) {
	if status != StatusCompleted && status != StatusFailed {
		return nil, false, fmt.Errorf("status %q is not a terminal call session status", status)
	}

	db := s.postgres.DB(ctx)

	var current CallSession
	if err := db.Where("session_id = ?", sessionID).First(&current).Error; err != nil {
		return nil, false, fmt.Errorf("call session not found: %s: %w", sessionID, err)
	}

	now := time.Now()
	result := db.Model(&CallSession{}).
		Where("session_id = ? AND status IN ?", sessionID, []string{StatusRinging, StatusInProgress}).
		Updates(map[string]interface{}{
			"status":       status,
			"end_time":     now,
			"duration_ms":  now.Sub(current.StartTime).Milliseconds(),
			"updated_date": now,
		})

	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to finalize call session %s: %w", sessionID, result.Error)
	}

	// Fetch the full row after the transition attempt
	var cs CallSession
	if err := db.Where("session_id = ?", sessionID).First(&cs).Error; err != nil {
		return nil, false, fmt.Errorf("failed to fetch finalized call session %s: %w", sessionID, err)
	}

	if result.RowsAffected == 0 {
		// Already in a terminal status; the caller lost the race.
		s.logger.Debugf("call session already finalized: sessionId=%s, status=%s", sessionID, cs.Status)
		return &cs, false, nil
	}

	s.logger.Infof("finalized call session: sessionId=%s, status=%s, durationMs=%d",
		cs.SessionID, cs.Status, cs.DurationMs)

	return &cs, true, nil
}

// Delete removes a session row from Postgres.
func (s *postgresStore) Delete(ctx context.Context, sessionID string) error {
	db := s.postgres.DB(ctx)
	if err := db.Where("session_id = ?", sessionID).Delete(&CallSession{}).Error; err != nil {
		return fmt.Errorf("failed to delete call session %s: %w", sessionID, err)
	}

	s.logger.Debugf("deleted call session: sessionId=%s", sessionID)
	return nil
}
