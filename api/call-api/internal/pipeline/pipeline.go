// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/vocalisai/api/call-api/config"
	internal_audio "github.com/vocalisai/api/call-api/internal/audio"
	internal_normalizers "github.com/vocalisai/api/call-api/internal/normalizers"
	internal_prompt "github.com/vocalisai/api/call-api/internal/prompt"
	internal_session "github.com/vocalisai/api/call-api/internal/session"
	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

// DefaultFallbackText is what the channel may synthesize when a turn
// fails: the call stays open and the caller should not sit in dead air.
const DefaultFallbackText = "I'm sorry, I didn't catch that. Could you say that again?"

// AdapterSource resolves provider names to stage adapters. Satisfied by
// the transformer registry in production and by stub sources in tests.
type AdapterSource interface {
	SpeechToText(name string) (internal_transformer.SpeechToText, error)
	ResponseGenerator(name string) (internal_transformer.ResponseGenerator, error)
	SpeechSynthesizer(name string) (internal_transformer.SpeechSynthesizer, error)
}

// StageLatency holds per-stage adapter latency for one turn.
type StageLatency struct {
	STT int64 `json:"stt"`
	LLM int64 `json:"llm"`
	TTS int64 `json:"tts"`
}

// TurnResult is the ephemeral output of one pipeline cycle. It is
// consumed immediately by the channel and the broadcaster, never stored.
type TurnResult struct {
	Success       bool         `json:"success"`
	Transcription string       `json:"transcription"`
	ResponseText  string       `json:"responseText"`
	AudioResponse []byte       `json:"-"`
	LatencyMs     StageLatency `json:"latencyMs"`
	Err           error        `json:"-"`

	// FallbackText is set on failed turns; the channel may synthesize it
	// instead of leaving the caller in silence.
	FallbackText string `json:"fallbackText,omitempty"`
}

// Orchestrator executes voice turns: one speech-to-text, generation,
// synthesis cycle per turn. Turns within a session run strictly
// sequentially; turns across sessions interleave freely.
type Orchestrator struct {
	logger      commons.Logger
	cfg         *config.AppConfig
	adapters    AdapterSource
	store       internal_session.Store
	notifier    Notifier
	normalizers []internal_normalizers.Normalizer
	window      *contextWindow
	audioCfg    *internal_audio.AudioConfig

	mu        sync.Mutex
	turnLocks map[string]*sync.Mutex
}

// NewOrchestrator wires the turn pipeline. The adapter source is shared
// across all sessions; per-call option overrides arrive with each turn.
func NewOrchestrator(
	logger commons.Logger,
	cfg *config.AppConfig,
	adapters AdapterSource,
	store internal_session.Store,
	notifier Notifier,
) *Orchestrator {
	if notifier == nil {
		notifier = NewLoggingNotifier(logger)
	}
	return &Orchestrator{
		logger:      logger,
		cfg:         cfg,
		adapters:    adapters,
		store:       store,
		notifier:    notifier,
		normalizers: internal_normalizers.BuildPipeline(logger, []string{"number", "symbol"}),
		window:      newContextWindow(logger, DefaultTokenBudget),
		audioCfg:    internal_audio.NewLinear16khzMonoAudioConfig(),
		turnLocks:   make(map[string]*sync.Mutex),
	}
}

// turnLock returns the per-session mutex, creating it on first use.
// Locks are never removed; a session's lock is a few dozen bytes and the
// map is bounded by concurrent call volume.
func (o *Orchestrator) turnLock(sessionID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()

	lock, ok := o.turnLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		o.turnLocks[sessionID] = lock
	}
	return lock
}

// ProcessTurn runs exactly one voice turn for the session: transcribe
// the caller's audio, generate a reply from the session's routing
// target, synthesize it. The per-session lock is held for the whole
// turn, so transcript append order matches conversation order.
//
// A failed stage fails the turn, not the call: the session stays open
// and the caller may retry on the next utterance.
func (o *Orchestrator) ProcessTurn(ctx context.Context, cs *internal_session.CallSession, audio []byte, opts utils.Option) *TurnResult {
	return o.runTurn(ctx, cs, opts,
		func(ctx context.Context, result *TurnResult) (string, error) {
			return o.transcribe(ctx, audio, opts, result)
		},
		func() int { return len(audio) })
}

// ProcessStreamingTurn runs one voice turn with the caller's audio
// arriving on a live stream instead of a settled buffer. Interim
// transcripts are relayed through onInterim as the vendor produces
// them; the final transcript drives generation and synthesis exactly
// like ProcessTurn. A transcriber without a live endpoint drains the
// stream into a buffer and the turn proceeds on the buffered path.
func (o *Orchestrator) ProcessStreamingTurn(ctx context.Context, cs *internal_session.CallSession, audio io.Reader, opts utils.Option, onInterim func(text string)) *TurnResult {
	counted := &countingReader{reader: audio}
	return o.runTurn(ctx, cs, opts,
		func(ctx context.Context, result *TurnResult) (string, error) {
			return o.streamTranscribe(ctx, counted, opts, onInterim, result)
		},
		counted.count)
}

// runTurn is the turn cycle shared by the buffered and streaming entry
// points. transcribe settles the caller's utterance; audioBytes reports
// how much caller audio the turn consumed, for talk-time accounting.
func (o *Orchestrator) runTurn(ctx context.Context, cs *internal_session.CallSession, opts utils.Option, transcribe func(ctx context.Context, result *TurnResult) (string, error), audioBytes func() int) *TurnResult {
	lock := o.turnLock(cs.SessionID)
	lock.Lock()
	defer lock.Unlock()

	result := &TurnResult{}

	if cs.IsTerminal() {
		result.Err = fmt.Errorf("call session %s already ended with status %s", cs.SessionID, cs.Status)
		return result
	}

	o.notifier.Notify(TurnEvent{
		Type:      EventProcessingStarted,
		SessionID: cs.SessionID,
		Timestamp: time.Now(),
	})

	// Upstream vendors do not guarantee a response; a hung request must
	// not hold the session lock forever.
	timeout := o.cfg.ProviderTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	turnStart := time.Now()

	transcription, err := transcribe(ctx, result)
	if err != nil {
		return o.fail(cs, result, internal_transformer.StageSpeechToText, &TranscriptionError{Err: err})
	}
	result.Transcription = transcription

	// Nothing intelligible in the audio: skip generation and synthesis,
	// the turn succeeds with empty output.
	if strings.TrimSpace(transcription) == "" {
		result.Success = true
		o.notifier.Notify(TurnEvent{
			Type:      EventProcessingCompleted,
			SessionID: cs.SessionID,
			Stage:     internal_transformer.StageSpeechToText,
			Timestamp: time.Now(),
		})
		return result
	}

	reply, err := o.generate(ctx, cs, transcription, opts, result)
	if err != nil {
		return o.fail(cs, result, internal_transformer.StageGeneration, &GenerationError{Err: err})
	}
	result.ResponseText = reply

	audioOut, err := o.synthesize(ctx, reply, opts, result)
	if err != nil {
		return o.fail(cs, result, internal_transformer.StageSynthesis, &SynthesisError{Err: err})
	}
	result.AudioResponse = audioOut

	now := time.Now()
	cs.AppendTranscript(internal_session.TranscriptEntry{
		Speaker:    internal_session.SpeakerUser,
		Text:       transcription,
		Timestamp:  turnStart,
		Confidence: 1,
	})
	cs.AppendTranscript(internal_session.TranscriptEntry{
		Speaker:    internal_session.SpeakerAssistant,
		Text:       reply,
		Timestamp:  now,
		Confidence: 1,
	})
	cs.Analytics.RecordTurnLatency(float64(now.Sub(turnStart).Milliseconds()))
	if bpms := o.audioCfg.BytesPerMillisecond(); bpms > 0 {
		cs.Analytics.TalkTimeMs += int64(audioBytes() / bpms)
	}

	// Turn output already stands on its own; a persistence failure is
	// logged, not surfaced as a failed turn.
	if err := o.store.RecordTurn(ctx, cs); err != nil {
		o.logger.Errorf("pipeline: failed to persist turn for session %s: %v", cs.SessionID, err)
	}

	result.Success = true
	o.notifier.Notify(TurnEvent{
		Type:      EventProcessingCompleted,
		SessionID: cs.SessionID,
		Stage:     internal_transformer.StageSynthesis,
		Timestamp: now,
	})

	return result
}

func (o *Orchestrator) transcribe(ctx context.Context, audio []byte, opts utils.Option, result *TurnResult) (string, error) {
	stt, err := o.adapters.SpeechToText(o.cfg.SpeechToTextProvider)
	if err != nil {
		return "", err
	}

	text, err := stt.Transcribe(ctx, audio, opts)
	result.LatencyMs.STT = stt.LastLatency().Milliseconds()
	if err != nil {
		return "", err
	}
	return text, nil
}

// streamTranscribe feeds the live endpoint when the configured
// transcriber has one. Interim results only flow outward through
// onInterim; the final transcript is the one that continues the turn.
func (o *Orchestrator) streamTranscribe(ctx context.Context, audio io.Reader, opts utils.Option, onInterim func(text string), result *TurnResult) (string, error) {
	stt, err := o.adapters.SpeechToText(o.cfg.SpeechToTextProvider)
	if err != nil {
		return "", err
	}

	live, ok := stt.(internal_transformer.StreamingSpeechToText)
	if !ok {
		buffered, err := io.ReadAll(audio)
		if err != nil {
			return "", err
		}
		text, err := stt.Transcribe(ctx, buffered, opts)
		result.LatencyMs.STT = stt.LastLatency().Milliseconds()
		return text, err
	}

	var final string
	var streamErr error
	err = live.Stream(ctx, audio, func(text string, isFinal bool) {
		if isFinal {
			final = text
			return
		}
		if onInterim != nil && text != "" {
			onInterim(text)
		}
	}, func(err error) {
		streamErr = err
	})
	result.LatencyMs.STT = live.LastLatency().Milliseconds()
	if err != nil {
		return "", err
	}
	if streamErr != nil {
		return "", streamErr
	}
	return final, nil
}

// countingReader tracks how many caller-audio bytes a turn consumed so
// talk time can be accounted without buffering the stream.
type countingReader struct {
	reader io.Reader
	mu     sync.Mutex
	n      int
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.mu.Lock()
	cr.n += n
	cr.mu.Unlock()
	return n, err
}

func (cr *countingReader) count() int {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.n
}

func (o *Orchestrator) generate(ctx context.Context, cs *internal_session.CallSession, transcription string, opts utils.Option, result *TurnResult) (string, error) {
	system, err := o.systemPrompt(cs)
	if err != nil {
		return "", err
	}

	gen, err := o.adapters.ResponseGenerator(o.cfg.ResponseGeneratorProvider)
	if err != nil {
		return "", err
	}

	messages := make([]internal_transformer.Message, 0, len(cs.Transcript)+1)
	for _, entry := range cs.Transcript {
		role := internal_transformer.RoleUser
		if entry.Speaker == internal_session.SpeakerAssistant {
			role = internal_transformer.RoleAssistant
		}
		messages = append(messages, internal_transformer.Message{Role: role, Content: entry.Text})
	}
	messages = append(messages, internal_transformer.Message{
		Role:    internal_transformer.RoleUser,
		Content: transcription,
	})
	messages = o.window.Trim(messages)

	reply, err := gen.Generate(ctx, &internal_transformer.GenerateRequest{
		System:   system,
		Messages: messages,
		Options:  opts,
	})
	result.LatencyMs.LLM = gen.LastLatency().Milliseconds()
	if err != nil {
		return "", err
	}
	return reply, nil
}

// systemPrompt resolves the session's generation target. A turn must
// have exactly one target before the generator is invoked; a session
// carrying none fails with a ConfigurationError, never a silent no-op.
func (o *Orchestrator) systemPrompt(cs *internal_session.CallSession) (string, error) {
	vars := map[string]interface{}{
		"assistant_name": cs.AssistantID,
		"caller_number":  cs.PhoneNumber,
	}

	switch cs.GenerationTarget() {
	case internal_session.TargetWorkflow:
		vars["workflow_id"] = cs.WorkflowID
		return internal_prompt.Render(internal_prompt.WorkflowSystemTemplate, vars)
	case internal_session.TargetAssistant:
		return internal_prompt.RenderSystem("", vars)
	case internal_session.TargetSquad:
		vars["squad_id"] = cs.SquadID
		return internal_prompt.Render(internal_prompt.SquadSystemTemplate, vars)
	default:
		return "", internal_transformer.NewConfigurationError(
			"no generation target resolved for session %s", cs.SessionID)
	}
}

func (o *Orchestrator) synthesize(ctx context.Context, reply string, opts utils.Option, result *TurnResult) ([]byte, error) {
	tts, err := o.adapters.SpeechSynthesizer(o.cfg.SpeechSynthesizerProvider)
	if err != nil {
		return nil, err
	}

	speech := internal_normalizers.Apply(ctx, o.normalizers, reply)
	audioOut, err := tts.Synthesize(ctx, speech, opts)
	result.LatencyMs.TTS = tts.LastLatency().Milliseconds()
	if err != nil {
		return nil, err
	}
	return audioOut, nil
}

func (o *Orchestrator) fail(cs *internal_session.CallSession, result *TurnResult, stage internal_transformer.Stage, err error) *TurnResult {
	result.Success = false
	result.Err = err
	result.FallbackText = DefaultFallbackText

	o.notifier.Notify(TurnEvent{
		Type:      EventProcessingError,
		SessionID: cs.SessionID,
		Stage:     stage,
		Err:       err,
		Timestamp: time.Now(),
	})

	return result
}
