package internal_transformer_assemblyai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger()
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return logger
}

// stubServer mimics the AssemblyAI batch API. pollStatus controls what
// every poll returns.
func stubServer(t *testing.T, pollStatus string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/upload":
			json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/upload/1"})
		case r.URL.Path == "/transcript" && r.Method == http.MethodPost:
			json.NewEncoder(w).Encode(map[string]string{"id": "job-1", "status": "queued"})
		case strings.HasPrefix(r.URL.Path, "/transcript/"):
			json.NewEncoder(w).Encode(map[string]string{"id": "job-1", "status": pollStatus, "text": "hello world"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestNewAssemblyaiOption_MissingKey(t *testing.T) {
	opt, err := NewAssemblyaiOption(newTestLogger(t), internal_transformer.Credential{}, utils.Option{})
	assert.Error(t, err)
	assert.Nil(t, opt)
	assert.Contains(t, err.Error(), "illegal credential config")
}

func TestGetTranscriptRequest_Options(t *testing.T) {
	cred := internal_transformer.Credential{"key": "k"}
	opt, err := NewAssemblyaiOption(newTestLogger(t), cred, utils.Option{
		internal_transformer.OptionLanguage: "en-US",
	})
	require.NoError(t, err)

	payload := opt.GetTranscriptRequest("https://cdn.example/a", utils.Option{
		internal_transformer.OptionPunctuate:   true,
		internal_transformer.OptionDiarization: true,
		internal_transformer.OptionKeywords:    "vocalis, billing",
	})

	assert.Equal(t, "https://cdn.example/a", payload["audio_url"])
	assert.Equal(t, "en-US", payload["language_code"])
	assert.Equal(t, true, payload["punctuate"])
	assert.Equal(t, true, payload["speaker_labels"])
	assert.Equal(t, []string{"vocalis", "billing"}, payload["word_boost"])
}

func TestTranscribe_Completed(t *testing.T) {
	srv := stubServer(t, "completed")
	defer srv.Close()

	stt, err := NewSpeechToText(newTestLogger(t), internal_transformer.Credential{"key": "k"}, utils.Option{},
		WithBaseURL(srv.URL),
		WithPollInterval(time.Millisecond),
		WithMaxAttempts(3),
	)
	require.NoError(t, err)

	text, err := stt.Transcribe(context.Background(), []byte{0, 0, 0, 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.Greater(t, stt.LastLatency(), time.Duration(0), "latency must be recorded")
}

// A job that never leaves "processing" must hit the attempt bound and
// surface TimeoutError, not hang.
func TestTranscribe_PollBoundExceeded(t *testing.T) {
	srv := stubServer(t, "processing")
	defer srv.Close()

	stt, err := NewSpeechToText(newTestLogger(t), internal_transformer.Credential{"key": "k"}, utils.Option{},
		WithBaseURL(srv.URL),
		WithPollInterval(time.Millisecond),
		WithMaxAttempts(5),
	)
	require.NoError(t, err)

	done := make(chan struct{})
	var terr *internal_transformer.TimeoutError
	go func() {
		defer close(done)
		_, err := stt.Transcribe(context.Background(), []byte{0, 0}, nil)
		require.Error(t, err)
		require.True(t, errors.As(err, &terr))
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poll loop did not terminate within the bound")
	}
	assert.Equal(t, 5, terr.Attempts)
}

func TestTranscribe_VendorError(t *testing.T) {
	srv := stubServer(t, "error")
	defer srv.Close()

	stt, _ := NewSpeechToText(newTestLogger(t), internal_transformer.Credential{"key": "k"}, utils.Option{},
		WithBaseURL(srv.URL),
		WithPollInterval(time.Millisecond),
		WithMaxAttempts(3),
	)

	_, err := stt.Transcribe(context.Background(), []byte{0, 0}, nil)
	var perr *internal_transformer.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "assemblyai", perr.Provider)
	assert.Equal(t, internal_transformer.StageSpeechToText, perr.Stage)
}
