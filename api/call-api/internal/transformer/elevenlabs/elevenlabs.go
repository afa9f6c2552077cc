// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer_elevenlabs

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io/v1"
	DefaultVoice   = "21m00Tcm4TlvDq8ikWAM" // Rachel
	DefaultModel   = "eleven_turbo_v2_5"
	OutputFormat   = "pcm_16000"
)

type elevenlabsOption struct {
	logger  commons.Logger
	key     string
	mdlOpts utils.Option
}

func NewElevenlabsOption(logger commons.Logger, credential internal_transformer.Credential, mdlOpts utils.Option) (*elevenlabsOption, error) {
	cx, ok := credential["key"]
	if !ok {
		return nil, fmt.Errorf("elevenlabs: illegal credential config")
	}
	key, ok := cx.(string)
	if !ok || key == "" {
		return nil, fmt.Errorf("elevenlabs: illegal credential config")
	}
	return &elevenlabsOption{
		logger:  logger,
		mdlOpts: mdlOpts,
		key:     key,
	}, nil
}

func (eo *elevenlabsOption) GetKey() string {
	return eo.key
}

// Voice resolves the voice id from the option bag.
func (eo *elevenlabsOption) Voice(opts utils.Option) string {
	if v, err := eo.mdlOpts.Merge(opts).GetString(internal_transformer.OptionVoice); err == nil {
		return v
	}
	return DefaultVoice
}

// Model resolves the synthesis model from the option bag.
func (eo *elevenlabsOption) Model(opts utils.Option) string {
	if m, err := eo.mdlOpts.Merge(opts).GetString(internal_transformer.OptionTTSModel); err == nil {
		return m
	}
	return DefaultModel
}

type elevenlabsTextToSpeech struct {
	*elevenlabsOption
	internal_transformer.LatencyTracker
	logger  commons.Logger
	client  *resty.Client
	baseURL string
}

// SynthOption configures the ElevenLabs synthesizer.
type SynthOption func(*elevenlabsTextToSpeech)

// WithBaseURL points the adapter at a different API host.
func WithBaseURL(u string) SynthOption {
	return func(e *elevenlabsTextToSpeech) { e.baseURL = u }
}

// NewSpeechSynthesizer builds the ElevenLabs synthesizer, requesting raw
// 16kHz PCM output.
func NewSpeechSynthesizer(logger commons.Logger, credential internal_transformer.Credential, defaults utils.Option, opts ...SynthOption) (internal_transformer.SpeechSynthesizer, error) {
	option, err := NewElevenlabsOption(logger, credential, defaults)
	if err != nil {
		return nil, err
	}
	e := &elevenlabsTextToSpeech{
		elevenlabsOption: option,
		logger:           logger,
		client:           resty.New(),
		baseURL:          DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *elevenlabsTextToSpeech) Name() string {
	return "elevenlabs"
}

func (e *elevenlabsTextToSpeech) Synthesize(ctx context.Context, text string, opts utils.Option) ([]byte, error) {
	defer e.Track()()

	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("xi-api-key", e.GetKey()).
		SetQueryParam("output_format", OutputFormat).
		SetBody(map[string]interface{}{
			"text":     text,
			"model_id": e.Model(opts),
		}).
		Post(fmt.Sprintf("%s/text-to-speech/%s", e.baseURL, e.Voice(opts)))
	if err != nil {
		return nil, internal_transformer.NewProviderError(e.Name(), internal_transformer.StageSynthesis, err)
	}
	if resp.IsError() {
		return nil, internal_transformer.NewProviderError(e.Name(), internal_transformer.StageSynthesis,
			fmt.Errorf("synthesis returned %d", resp.StatusCode()))
	}
	return resp.Body(), nil
}

func (e *elevenlabsTextToSpeech) Verify(ctx context.Context) error {
	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("xi-api-key", e.GetKey()).
		Get(e.baseURL + "/voices")
	if err != nil {
		return internal_transformer.NewProviderError(e.Name(), internal_transformer.StageSynthesis, err)
	}
	if resp.IsError() {
		return internal_transformer.NewProviderError(e.Name(), internal_transformer.StageSynthesis,
			fmt.Errorf("credential probe returned %d", resp.StatusCode()))
	}
	return nil
}
