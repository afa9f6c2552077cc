// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.
package internal_vonage_telephony

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
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

func testPrivateKey(t *testing.T) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	return string(pem.EncodeToMemory(block))
}

func TestNewVonageCredentialValidation(t *testing.T) {
	privateKey := testPrivateKey(t)

	tests := []struct {
		name       string
		credential config.TelephonyCredential
		wantErr    string
	}{
		{
			name:       "missing application id",
			credential: config.TelephonyCredential{PrivateKey: privateKey, FromNumber: "15550100"},
			wantErr:    "application_id",
		},
		{
			name:       "missing private key",
			credential: config.TelephonyCredential{ApplicationId: "app-1", FromNumber: "15550100"},
			wantErr:    "private_key",
		},
		{
			name:       "missing from number",
			credential: config.TelephonyCredential{ApplicationId: "app-1", PrivateKey: privateKey},
			wantErr:    "from_number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVonage(tt.credential, &mockLogger{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	provider, err := NewVonage(config.TelephonyCredential{
		ApplicationId: "app-1",
		PrivateKey:    privateKey,
		FromNumber:    "15550100",
	}, &mockLogger{})
	require.NoError(t, err)
	assert.Equal(t, internal_telephony.ProviderVonage, provider.Name())
}

func TestVonageNormalizeStatus(t *testing.T) {
	provider, err := NewVonage(config.TelephonyCredential{
		ApplicationId: "app-1",
		PrivateKey:    testPrivateKey(t),
		FromNumber:    "15550100",
	}, &mockLogger{})
	require.NoError(t, err)

	tests := []struct {
		vendorStatus string
		want         string
		wantOk       bool
	}{
		{"started", internal_telephony.StatusRinging, true},
		{"ringing", internal_telephony.StatusRinging, true},
		{"answered", internal_telephony.StatusInProgress, true},
		{"completed", internal_telephony.StatusCompleted, true},
		{"unanswered", internal_telephony.StatusFailed, true},
		{"timeout", internal_telephony.StatusFailed, true},
		// Unmapped vendor statuses carry no session transition.
		{"record", "", false},
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
