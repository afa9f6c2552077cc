// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/vocalisai/pkg/utils"
)

// Stage identifies one step of the voice pipeline.
type Stage string

const (
	StageSpeechToText Stage = "speech-to-text"
	StageGeneration   Stage = "generation"
	StageSynthesis    Stage = "speech-synthesis"
)

// Recognized option keys. Every adapter understands this set; anything
// else in the bag is ignored and the provider default applies.
const (
	OptionProvider    = "provider"
	OptionLanguage    = "listen.language"
	OptionPunctuate   = "listen.punctuate"
	OptionDiarization = "listen.diarization"
	OptionKeywords    = "listen.keywords"
	OptionSTTModel    = "listen.model"
	OptionModel       = "generate.model"
	OptionTemperature = "generate.temperature"
	OptionVoice       = "speak.voice.id"
	OptionTTSModel    = "speak.model"
)

// Credential is a vendor credential bundle resolved once at startup.
// The shape mirrors what the vault hands out: loosely-typed keys the
// vendor option constructor validates.
type Credential map[string]interface{}

// Transformer is the base contract every stage adapter satisfies.
type Transformer interface {
	// Name returns the vendor identifier ("deepgram", "openai", ...).
	Name() string

	// LastLatency reports the wall-clock duration of the most recently
	// completed call on this adapter instance.
	LastLatency() time.Duration

	// Verify probes the vendor with the configured credential so that a
	// missing or revoked credential is discoverable before first real use.
	Verify(ctx context.Context) error
}

// SpeechToText transcribes one buffered utterance to text.
type SpeechToText interface {
	Transformer
	Transcribe(ctx context.Context, audio []byte, opts utils.Option) (string, error)
}

// StreamingSpeechToText is implemented by vendors with a live streaming
// endpoint. onResult is called zero or more times with isFinal=false and
// exactly once with isFinal=true. If the stream errors the final result
// never arrives and the error surfaces through onError.
type StreamingSpeechToText interface {
	SpeechToText
	Stream(ctx context.Context, audio io.Reader, onResult func(text string, isFinal bool), onError func(err error)) error
}

// Message is one turn of conversation context passed to a generator.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GenerateRequest carries everything a generator needs for one response:
// the rendered system prompt, the trimmed conversation history (last
// entry is the user's current utterance) and per-call option overrides.
type GenerateRequest struct {
	System   string
	Messages []Message
	Options  utils.Option
}

// ResponseGenerator produces the assistant's reply text.
type ResponseGenerator interface {
	Transformer
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}

// SpeechSynthesizer renders reply text to raw audio bytes.
type SpeechSynthesizer interface {
	Transformer
	Synthesize(ctx context.Context, text string, opts utils.Option) ([]byte, error)
}

// LatencyTracker records per-call wall-clock latency. Vendor adapters
// embed it and wrap each call in Track:
//
//	defer d.Track()()
type LatencyTracker struct {
	mu   sync.Mutex
	last time.Duration
}

// Track returns a func that, when invoked, records the elapsed time
// since Track was called as the adapter's last latency.
func (lt *LatencyTracker) Track() func() {
	start := time.Now()
	return func() {
		lt.mu.Lock()
		lt.last = time.Since(start)
		lt.mu.Unlock()
	}
}

// LastLatency returns the duration of the most recently completed call.
func (lt *LatencyTracker) LastLatency() time.Duration {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.last
}
