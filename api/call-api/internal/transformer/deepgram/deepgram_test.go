package internal_transformer_deepgram

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
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

// --- Constructor Tests ---

func TestNewDeepgramOption_ValidCredentials(t *testing.T) {
	cred := internal_transformer.Credential{"key": "test-api-key"}
	opt, err := NewDeepgramOption(newTestLogger(t), cred, utils.Option{})
	assert.NoError(t, err)
	assert.NotNil(t, opt)
	assert.Equal(t, "test-api-key", opt.GetKey())
}

func TestNewDeepgramOption_MissingKey(t *testing.T) {
	cred := internal_transformer.Credential{"other": "value"}
	opt, err := NewDeepgramOption(newTestLogger(t), cred, utils.Option{})
	assert.Error(t, err)
	assert.Nil(t, opt)
	assert.Contains(t, err.Error(), "illegal credential config")
}

func TestNewDeepgramOption_EmptyKey(t *testing.T) {
	cred := internal_transformer.Credential{"key": ""}
	opt, err := NewDeepgramOption(newTestLogger(t), cred, utils.Option{})
	assert.Error(t, err)
	assert.Nil(t, opt)
}

// --- Connection string Tests ---

func TestGetSpeechToTextConnectionString_Defaults(t *testing.T) {
	cred := internal_transformer.Credential{"key": "k"}
	opt, _ := NewDeepgramOption(newTestLogger(t), cred, utils.Option{})

	cs := opt.GetSpeechToTextConnectionString(nil)
	assert.Contains(t, cs, "wss://api.deepgram.com/v1/listen?")
	assert.Contains(t, cs, "model=nova-2")
	assert.Contains(t, cs, "language=en-US")
	assert.Contains(t, cs, "punctuate=true")
	assert.Contains(t, cs, "encoding=linear16")
	assert.Contains(t, cs, "sample_rate=16000")
	assert.NotContains(t, cs, "diarize")
}

func TestGetSpeechToTextConnectionString_WithOverrides(t *testing.T) {
	cred := internal_transformer.Credential{"key": "k"}
	defaults := utils.Option{
		internal_transformer.OptionLanguage: "hi-IN",
	}
	opt, _ := NewDeepgramOption(newTestLogger(t), cred, defaults)

	cs := opt.GetSpeechToTextConnectionString(utils.Option{
		internal_transformer.OptionSTTModel:    "nova-3",
		internal_transformer.OptionPunctuate:   false,
		internal_transformer.OptionDiarization: true,
		internal_transformer.OptionKeywords:    "vocalis, refund",
	})
	assert.Contains(t, cs, "model=nova-3")
	assert.Contains(t, cs, "language=hi-IN", "stored default should apply when not overridden")
	assert.Contains(t, cs, "punctuate=false")
	assert.Contains(t, cs, "diarize=true")
	assert.Contains(t, cs, "keywords=vocalis")
	assert.Contains(t, cs, "keywords=refund")
}

func TestDeepgramGetEncoding(t *testing.T) {
	cred := internal_transformer.Credential{"key": "k"}
	opt, _ := NewDeepgramOption(newTestLogger(t), cred, utils.Option{})
	assert.Equal(t, "linear16", opt.GetEncoding())
}

func TestNewSpeechToText_Name(t *testing.T) {
	cred := internal_transformer.Credential{"key": "k"}
	stt, err := NewSpeechToText(newTestLogger(t), cred, utils.Option{})
	assert.NoError(t, err)
	assert.Equal(t, "deepgram", stt.Name())
}

// --- Live streaming Tests ---

type liveEvent struct {
	text  string
	final bool
}

// liveStub replays the live-transcription protocol: an interim result
// once audio starts arriving, the final result when the client flushes
// the stream with CloseStream.
func liveStub(t *testing.T, interim, final string) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token live-key", r.Header.Get("Authorization"))
		assert.Equal(t, "linear16", r.URL.Query().Get("encoding"))

		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sentInterim := false
		for {
			messageType, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
			switch messageType {
			case websocket.BinaryMessage:
				if sentInterim {
					continue
				}
				sentInterim = true
				_ = conn.WriteJSON(map[string]interface{}{
					"type":     "Results",
					"is_final": false,
					"channel": map[string]interface{}{
						"alternatives": []map[string]interface{}{{"transcript": interim}},
					},
				})
			case websocket.TextMessage:
				// CloseStream: flush the final transcript.
				_ = conn.WriteJSON(map[string]interface{}{
					"type":     "Results",
					"is_final": true,
					"channel": map[string]interface{}{
						"alternatives": []map[string]interface{}{{"transcript": final}},
					},
				})
				return
			}
		}
	}))
}

func liveCredential(srv *httptest.Server) internal_transformer.Credential {
	return internal_transformer.Credential{
		"key": "live-key",
		"url": "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/listen",
	}
}

// Interim results arrive with isFinal=false while audio is flowing; the
// final transcript arrives exactly once with isFinal=true after the
// stream is flushed.
func TestStreamRelaysInterimAndFinalResults(t *testing.T) {
	srv := liveStub(t, "hello wor", "hello world")
	defer srv.Close()

	stt, err := NewSpeechToText(newTestLogger(t), liveCredential(srv), utils.Option{})
	require.NoError(t, err)

	var mu sync.Mutex
	var got []liveEvent
	var streamErr error

	err = stt.Stream(context.Background(), bytes.NewReader(make([]byte, 8192)),
		func(text string, isFinal bool) {
			mu.Lock()
			got = append(got, liveEvent{text: text, final: isFinal})
			mu.Unlock()
		},
		func(err error) { streamErr = err })
	require.NoError(t, err)
	assert.NoError(t, streamErr)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.True(t, last.final, "the last result must be the final transcript")
	assert.Equal(t, "hello world", last.text)
	assert.Contains(t, got, liveEvent{text: "hello wor", final: false})
	for _, ev := range got[:len(got)-1] {
		assert.False(t, ev.final, "only one final result per stream")
	}
}

// A socket failure mid-stream surfaces through onError as a
// ProviderError; Stream itself settles instead of hanging.
func TestStreamSocketFailureSurfacesOnError(t *testing.T) {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Drop the connection without ever producing a result.
		conn.Close()
	}))
	defer srv.Close()

	stt, err := NewSpeechToText(newTestLogger(t), liveCredential(srv), utils.Option{})
	require.NoError(t, err)

	var streamErr error
	err = stt.Stream(context.Background(), bytes.NewReader(nil),
		func(text string, isFinal bool) {
			t.Errorf("unexpected result %q after socket drop", text)
		},
		func(err error) { streamErr = err })
	require.NoError(t, err)

	require.Error(t, streamErr)
	var perr *internal_transformer.ProviderError
	require.True(t, errors.As(streamErr, &perr))
	assert.Equal(t, "deepgram", perr.Provider)
}

// A dial failure is the caller's error, not an onError callback.
func TestStreamDialFailure(t *testing.T) {
	cred := internal_transformer.Credential{"key": "live-key", "url": "ws://127.0.0.1:1/v1/listen"}
	stt, err := NewSpeechToText(newTestLogger(t), cred, utils.Option{})
	require.NoError(t, err)

	err = stt.Stream(context.Background(), bytes.NewReader(nil),
		func(string, bool) {}, func(error) {})
	require.Error(t, err)
	var perr *internal_transformer.ProviderError
	require.True(t, errors.As(err, &perr))
}
