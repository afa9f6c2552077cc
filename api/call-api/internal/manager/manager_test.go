// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	internal_broadcast "github.com/vocalisai/api/call-api/internal/broadcast"
	internal_session "github.com/vocalisai/api/call-api/internal/session"
	internal_telephony "github.com/vocalisai/api/call-api/internal/telephony"
	"github.com/vocalisai/pkg/connectors"
)

// =============================================================================
// Mock Logger Implementation
// =============================================================================

type mockLogger struct{}

func (m *mockLogger) Level() zapcore.Level                                           { return zapcore.DebugLevel }
func (m *mockLogger) Debug(args ...interface{})                                      {}
func (m *mockLogger) Debugf(template string, args ...interface{})                    {}
func (m *mockLogger) Info(args ...interface{})                                       {}
func (m *mockLogger) Infof(template string, args ...interface{})                     {}
func (m *mockLogger) Warn(args ...interface{})                                       {}
func (m *mockLogger) Warnf(template string, args ...interface{})                     {}
func (m *mockLogger) Error(args ...interface{})                                      {}
func (m *mockLogger) Errorf(template string, args ...interface{})                    {}
func (m *mockLogger) DPanic(args ...interface{})                                     {}
func (m *mockLogger) DPanicf(template string, args ...interface{})                   {}
func (m *mockLogger) Panic(args ...interface{})                                      {}
func (m *mockLogger) Panicf(template string, args ...interface{})                    {}
func (m *mockLogger) Fatal(args ...interface{})                                      {}
func (m *mockLogger) Fatalf(template string, args ...interface{})                    {}
func (m *mockLogger) Benchmark(functionName string, duration time.Duration)          {}
func (m *mockLogger) Tracef(ctx context.Context, format string, args ...interface{}) {}
func (m *mockLogger) Sync() error                                                    { return nil }

// =============================================================================
// Test Fixtures
// =============================================================================

type memoryRegistry struct {
	mu       sync.Mutex
	mappings map[string]string
}

func newMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{mappings: make(map[string]string)}
}

func (r *memoryRegistry) Register(ctx context.Context, provider, callID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings[provider+":"+callID] = sessionID
	return nil
}

func (r *memoryRegistry) Resolve(ctx context.Context, provider, callID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessionID, ok := r.mappings[provider+":"+callID]
	if !ok {
		return "", internal_session.ErrCallNotRegistered
	}
	return sessionID, nil
}

func (r *memoryRegistry) Unregister(ctx context.Context, provider, callID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.mappings, provider+":"+callID)
	return nil
}

type fakeTelephony struct {
	name string

	mu           sync.Mutex
	createErr    error
	transferErr  error
	hangups      int
	transfers    int
	createdCalls int
}

func (f *fakeTelephony) Name() string { return f.name }

func (f *fakeTelephony) CreateCall(ctx context.Context, req internal_telephony.CreateCallRequest) (*internal_telephony.CallHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createdCalls++
	return &internal_telephony.CallHandle{CallID: fmt.Sprintf("call-%d", f.createdCalls)}, nil
}

func (f *fakeTelephony) Transfer(ctx context.Context, callID, destination string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transferErr != nil {
		return f.transferErr
	}
	f.transfers++
	return nil
}

func (f *fakeTelephony) Hangup(ctx context.Context, callID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hangups++
	return nil
}

func (f *fakeTelephony) NormalizeStatus(vendorStatus string) (string, bool) {
	table := map[string]string{
		"ringing":     internal_telephony.StatusRinging,
		"in-progress": internal_telephony.StatusInProgress,
		"completed":   internal_telephony.StatusCompleted,
		"busy":        internal_telephony.StatusFailed,
	}
	status, ok := table[vendorStatus]
	return status, ok
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingBroadcaster) Broadcast(eventType string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
}

func (r *recordingBroadcaster) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == eventType {
			n++
		}
	}
	return n
}

type fixture struct {
	manager     *Manager
	store       internal_session.Store
	registry    *memoryRegistry
	telephony   *fakeTelephony
	broadcaster *recordingBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&internal_session.CallSession{}))

	store := internal_session.NewStore(connectors.NewGormConnector(db, &mockLogger{}), &mockLogger{})
	registry := newMemoryRegistry()
	telephony := &fakeTelephony{name: internal_telephony.ProviderTwilio}
	broadcaster := &recordingBroadcaster{}

	manager := NewManager(
		&mockLogger{},
		store,
		registry,
		NewStaticRouting("assistant-demo"),
		map[string]internal_telephony.Provider{telephony.name: telephony},
		broadcaster,
	)

	return &fixture{
		manager:     manager,
		store:       store,
		registry:    registry,
		telephony:   telephony,
		broadcaster: broadcaster,
	}
}

// =============================================================================
// Manager Tests
// =============================================================================

func TestHandleIncomingCall(t *testing.T) {
	f := newFixture(t)

	cs, err := f.manager.HandleIncomingCall(context.Background(), "twilio", "CA1", "+14155550100")
	require.NoError(t, err)

	assert.Equal(t, internal_session.StatusInProgress, cs.Status)
	assert.Equal(t, internal_session.DirectionInbound, cs.Direction)
	assert.Equal(t, "assistant-demo", cs.AssistantID)
	assert.Equal(t, "+14155550100", cs.PhoneNumber)

	sessionID, err := f.registry.Resolve(context.Background(), "twilio", "CA1")
	require.NoError(t, err)
	assert.Equal(t, cs.SessionID, sessionID)

	assert.Equal(t, 1, f.broadcaster.count(internal_broadcast.EventCallStarted))
}

func TestHandleIncomingCallRequiresCallerNumber(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.HandleIncomingCall(context.Background(), "twilio", "CA1", "")
	assert.Error(t, err)
}

func TestEndCallIsIdempotent(t *testing.T) {
	f := newFixture(t)

	cs, err := f.manager.HandleIncomingCall(context.Background(), "twilio", "CA1", "+14155550100")
	require.NoError(t, err)

	require.NoError(t, f.manager.EndCall(context.Background(), cs.SessionID))
	require.NoError(t, f.manager.EndCall(context.Background(), cs.SessionID))

	// One termination, one event, one hangup.
	assert.Equal(t, 1, f.broadcaster.count(internal_broadcast.EventCallEnded))
	assert.Equal(t, 1, f.telephony.hangups)

	got, err := f.store.Get(context.Background(), cs.SessionID)
	require.NoError(t, err)
	assert.Equal(t, internal_session.StatusCompleted, got.Status)
	assert.NotNil(t, got.EndTime)
}

func TestInitiateOutboundCall(t *testing.T) {
	f := newFixture(t)

	cs := &internal_session.CallSession{
		Direction:         internal_session.DirectionOutbound,
		PhoneNumber:       "+14155550111",
		TelephonyProvider: internal_telephony.ProviderTwilio,
		AssistantID:       "assistant-demo",
	}
	_, err := f.store.Save(context.Background(), cs)
	require.NoError(t, err)

	require.NoError(t, f.manager.InitiateOutboundCall(context.Background(), cs,
		"https://example.test/answer", "https://example.test/status"))

	assert.Equal(t, "call-1", cs.TelephonyCallID)
	sessionID, err := f.registry.Resolve(context.Background(), "twilio", "call-1")
	require.NoError(t, err)
	assert.Equal(t, cs.SessionID, sessionID)
}

func TestInitiateOutboundCallPlacementFailure(t *testing.T) {
	f := newFixture(t)
	f.telephony.createErr = errors.New("vendor rejected the call")

	cs := &internal_session.CallSession{
		Direction:         internal_session.DirectionOutbound,
		PhoneNumber:       "+14155550111",
		TelephonyProvider: internal_telephony.ProviderTwilio,
	}
	_, err := f.store.Save(context.Background(), cs)
	require.NoError(t, err)

	err = f.manager.InitiateOutboundCall(context.Background(), cs,
		"https://example.test/answer", "https://example.test/status")
	require.Error(t, err)

	got, err := f.store.Get(context.Background(), cs.SessionID)
	require.NoError(t, err)
	assert.Equal(t, internal_session.StatusFailed, got.Status)
	assert.Equal(t, 1, f.broadcaster.count(internal_broadcast.EventCallFailed))
}

func TestTransferCallFailureKeepsSessionOpen(t *testing.T) {
	f := newFixture(t)
	f.telephony.transferErr = errors.New("transfer rejected")

	cs, err := f.manager.HandleIncomingCall(context.Background(), "twilio", "CA1", "+14155550100")
	require.NoError(t, err)

	err = f.manager.TransferCall(context.Background(), cs.SessionID, "+14155550199")
	require.Error(t, err)

	got, err := f.store.Get(context.Background(), cs.SessionID)
	require.NoError(t, err)
	assert.Equal(t, internal_session.StatusInProgress, got.Status)
	assert.Equal(t, 0, f.broadcaster.count(internal_broadcast.EventCallTransferred))
}

func TestTransferCall(t *testing.T) {
	f := newFixture(t)

	cs, err := f.manager.HandleIncomingCall(context.Background(), "twilio", "CA1", "+14155550100")
	require.NoError(t, err)

	require.NoError(t, f.manager.TransferCall(context.Background(), cs.SessionID, "+14155550199"))
	assert.Equal(t, 1, f.telephony.transfers)
	assert.Equal(t, 1, f.broadcaster.count(internal_broadcast.EventCallTransferred))
}

func TestHandleStatusCallbackCompleted(t *testing.T) {
	f := newFixture(t)

	cs, err := f.manager.HandleIncomingCall(context.Background(), "twilio", "CA1", "+14155550100")
	require.NoError(t, err)

	require.NoError(t, f.manager.HandleStatusCallback(context.Background(), "twilio", "CA1", "completed"))

	got, err := f.store.Get(context.Background(), cs.SessionID)
	require.NoError(t, err)
	assert.Equal(t, internal_session.StatusCompleted, got.Status)
	assert.Equal(t, 1, f.broadcaster.count(internal_broadcast.EventCallEnded))
}

func TestHandleStatusCallbackUnmappedStatusIgnored(t *testing.T) {
	f := newFixture(t)

	cs, err := f.manager.HandleIncomingCall(context.Background(), "twilio", "CA1", "+14155550100")
	require.NoError(t, err)

	require.NoError(t, f.manager.HandleStatusCallback(context.Background(), "twilio", "CA1", "machine-detected"))

	got, err := f.store.Get(context.Background(), cs.SessionID)
	require.NoError(t, err)
	assert.Equal(t, internal_session.StatusInProgress, got.Status)
}

func TestHandleStatusCallbackUnknownCallIgnored(t *testing.T) {
	f := newFixture(t)

	assert.NoError(t, f.manager.HandleStatusCallback(context.Background(), "twilio", "no-such-call", "completed"))
}
