// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

// Package internal_harness provides a synthetic call session and
// deterministic stub adapters so an end-to-end pipeline cycle can be
// validated without telephony or vendor credentials. The harness feeds
// the identical ProcessTurn entry point used for real calls.
package internal_harness

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	internal_audio "github.com/vocalisai/api/call-api/internal/audio"
	internal_session "github.com/vocalisai/api/call-api/internal/session"
	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/utils"
)

// SyntheticSession returns an in-progress inbound session routed at the
// given assistant, ready to be fed through the pipeline.
func SyntheticSession(assistantID string) *internal_session.CallSession {
	return &internal_session.CallSession{
		SessionID:   uuid.New().String(),
		Direction:   internal_session.DirectionInbound,
		Status:      internal_session.StatusInProgress,
		AssistantID: assistantID,
		PhoneNumber: "+15550100000",
		StartTime:   time.Now(),
	}
}

// SilenceBuffer returns d of linear16 16kHz mono silence.
func SilenceBuffer(d time.Duration) []byte {
	return internal_audio.NewLinear16khzMonoAudioConfig().Silence(d)
}

// StubSpeechToText returns a fixed transcription after an optional
// artificial delay. The delay makes sequential-ordering behavior
// observable in tests.
type StubSpeechToText struct {
	internal_transformer.LatencyTracker
	Transcription string
	Delay         time.Duration
	Err           error
}

func (s *StubSpeechToText) Name() string { return "stub-stt" }

func (s *StubSpeechToText) Verify(ctx context.Context) error { return s.Err }

func (s *StubSpeechToText) Transcribe(ctx context.Context, audio []byte, opts utils.Option) (string, error) {
	defer s.Track()()
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.Transcription, nil
}

// StubStreamingSpeechToText exercises the live-transcription path: each
// Stream call drains the audio reader, emits the configured interim
// transcripts in order and settles with Final. A non-nil StreamErr is
// reported through onError instead, the way a live socket failure would
// surface.
type StubStreamingSpeechToText struct {
	StubSpeechToText
	Interims  []string
	Final     string
	StreamErr error

	// BytesRead records how much audio the last Stream call consumed.
	BytesRead int
}

func (s *StubStreamingSpeechToText) Stream(ctx context.Context, audio io.Reader, onResult func(text string, isFinal bool), onError func(err error)) error {
	defer s.Track()()

	n, err := io.Copy(io.Discard, audio)
	if err != nil {
		return err
	}
	s.BytesRead = int(n)

	if s.StreamErr != nil {
		onError(s.StreamErr)
		return nil
	}
	for _, interim := range s.Interims {
		onResult(interim, false)
	}
	onResult(s.Final, true)
	return nil
}

// StubResponseGenerator returns a fixed reply and remembers the last
// request it saw so tests can assert on context assembly.
type StubResponseGenerator struct {
	internal_transformer.LatencyTracker
	Reply       string
	Err         error
	LastRequest *internal_transformer.GenerateRequest
}

func (s *StubResponseGenerator) Name() string { return "stub-llm" }

func (s *StubResponseGenerator) Verify(ctx context.Context) error { return s.Err }

func (s *StubResponseGenerator) Generate(ctx context.Context, req *internal_transformer.GenerateRequest) (string, error) {
	defer s.Track()()
	s.LastRequest = req
	if s.Err != nil {
		return "", s.Err
	}
	return s.Reply, nil
}

// StubSpeechSynthesizer returns fixed audio bytes.
type StubSpeechSynthesizer struct {
	internal_transformer.LatencyTracker
	Audio []byte
	Err   error
}

func (s *StubSpeechSynthesizer) Name() string { return "stub-tts" }

func (s *StubSpeechSynthesizer) Verify(ctx context.Context) error { return s.Err }

func (s *StubSpeechSynthesizer) Synthesize(ctx context.Context, text string, opts utils.Option) ([]byte, error) {
	defer s.Track()()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Audio, nil
}

// StubAdapterSource satisfies the pipeline's adapter source with the
// three stubs, regardless of the provider name requested.
type StubAdapterSource struct {
	STT *StubSpeechToText
	LLM *StubResponseGenerator
	TTS *StubSpeechSynthesizer
}

// NewStubAdapterSource builds a source for the canonical synthetic
// scenario: "hello" in, "hi there" out, 16 bytes of audio.
func NewStubAdapterSource() *StubAdapterSource {
	return &StubAdapterSource{
		STT: &StubSpeechToText{Transcription: "hello"},
		LLM: &StubResponseGenerator{Reply: "hi there"},
		TTS: &StubSpeechSynthesizer{Audio: make([]byte, 16)},
	}
}

func (s *StubAdapterSource) SpeechToText(name string) (internal_transformer.SpeechToText, error) {
	return s.STT, nil
}

func (s *StubAdapterSource) ResponseGenerator(name string) (internal_transformer.ResponseGenerator, error) {
	return s.LLM, nil
}

func (s *StubAdapterSource) SpeechSynthesizer(name string) (internal_transformer.SpeechSynthesizer, error) {
	return s.TTS, nil
}
