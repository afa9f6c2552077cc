package internal_transformer_registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocalisai/api/call-api/config"
	internal_harness "github.com/vocalisai/api/call-api/internal/harness"
	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	logger, err := commons.NewApplicationLogger()
	require.NoError(t, err)
	return New(logger, &config.AppConfig{
		ProviderCredentials: map[string]config.ProviderCredential{
			"deepgram": {Key: "dg-key"},
			"openai":   {Key: "oa-key"},
			"azure":    {Key: "az-key", Region: "eastus"},
		},
		PollInterval:    time.Second,
		PollMaxAttempts: 10,
	})
}

// An unsupported provider string must fail with ConfigurationError,
// never silently fall back to another vendor.
func TestUnsupportedProvider(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.SpeechToText("carrier-pigeon")
	var cerr *internal_transformer.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

// A supported vendor with no credential entry is unavailable, reported
// as a ConfigurationError rather than a crash.
func TestUnconfiguredProvider(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.ResponseGenerator("anthropic")
	var cerr *internal_transformer.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, err.Error(), "not configured")
}

func TestConfiguredProviders(t *testing.T) {
	r := newTestRegistry(t)

	stt, err := r.SpeechToText("deepgram")
	require.NoError(t, err)
	assert.Equal(t, "deepgram", stt.Name())

	gen, err := r.ResponseGenerator("openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", gen.Name())

	tts, err := r.SpeechSynthesizer("azure")
	require.NoError(t, err)
	assert.Equal(t, "azure", tts.Name())
}

// Adapter instances are cached so latency tracking persists per vendor.
func TestAdapterCaching(t *testing.T) {
	r := newTestRegistry(t)

	first, err := r.SpeechToText("deepgram")
	require.NoError(t, err)
	second, err := r.SpeechToText("deepgram")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

// Every constructed adapter reports its own probe result; one vendor's
// failure must not cancel or distort the status of healthy vendors.
func TestHealthReportsEveryProvider(t *testing.T) {
	r := newTestRegistry(t)
	r.transcribers = map[string]internal_transformer.SpeechToText{
		"good": &internal_harness.StubSpeechToText{Transcription: "ok"},
		"bad":  &internal_harness.StubSpeechToText{Err: errors.New("revoked credential")},
	}

	health := r.Health(context.Background())

	require.Len(t, health, 2)
	assert.NoError(t, health["stt:good"])
	require.Error(t, health["stt:bad"])
	assert.Contains(t, health["stt:bad"].Error(), "revoked credential")
}
