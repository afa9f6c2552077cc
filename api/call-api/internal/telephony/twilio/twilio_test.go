// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.
package internal_twilio_telephony

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/vocalisai/api/call-api/config"
	internal_telephony "github.com/vocalisai/api/call-api/internal/telephony"
)

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

func TestNewTwilioCredentialValidation(t *testing.T) {
	tests := []struct {
		name       string
		credential config.TelephonyCredential
		wantErr    string
	}{
		{
			name:       "missing account sid",
			credential: config.TelephonyCredential{AccountToken: "tok", FromNumber: "+15550100"},
			wantErr:    "account_sid",
		},
		{
			name:       "missing account token",
			credential: config.TelephonyCredential{AccountSid: "AC123", FromNumber: "+15550100"},
			wantErr:    "account_token",
		},
		{
			name:       "missing from number",
			credential: config.TelephonyCredential{AccountSid: "AC123", AccountToken: "tok"},
			wantErr:    "from_number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTwilio(tt.credential, &mockLogger{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	provider, err := NewTwilio(config.TelephonyCredential{
		AccountSid:   "AC123",
		AccountToken: "tok",
		FromNumber:   "+15550100",
	}, &mockLogger{})
	require.NoError(t, err)
	assert.Equal(t, internal_telephony.ProviderTwilio, provider.Name())
}

func TestTwilioNormalizeStatus(t *testing.T) {
	provider, err := NewTwilio(config.TelephonyCredential{
		AccountSid:   "AC123",
		AccountToken: "tok",
		FromNumber:   "+15550100",
	}, &mockLogger{})
	require.NoError(t, err)

	tests := []struct {
		vendorStatus string
		want         string
		wantOk       bool
	}{
		{"queued", internal_telephony.StatusRinging, true},
		{"ringing", internal_telephony.StatusRinging, true},
		{"in-progress", internal_telephony.StatusInProgress, true},
		{"completed", internal_telephony.StatusCompleted, true},
		{"busy", internal_telephony.StatusFailed, true},
		{"no-answer", internal_telephony.StatusFailed, true},
		// Unmapped vendor statuses carry no session transition.
		{"speech-started", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.vendorStatus, func(t *testing.T) {
			status, ok := provider.NormalizeStatus(tt.vendorStatus)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, status)
		})
	}
}
