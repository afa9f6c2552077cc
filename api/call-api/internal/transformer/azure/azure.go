// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer_azure

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

const (
	DefaultVoice    = "en-US-JennyNeural"
	DefaultLanguage = "en-US"
	OutputFormat    = "raw-16khz-16bit-mono-pcm"
)

type azureOption struct {
	logger  commons.Logger
	key     string
	region  string
	mdlOpts utils.Option
}

func NewAzureOption(logger commons.Logger, credential internal_transformer.Credential, mdlOpts utils.Option) (*azureOption, error) {
	cx, ok := credential["key"]
	if !ok {
		return nil, fmt.Errorf("azure: illegal credential config")
	}
	key, ok := cx.(string)
	if !ok || key == "" {
		return nil, fmt.Errorf("azure: illegal credential config")
	}
	rx, ok := credential["region"]
	if !ok {
		return nil, fmt.Errorf("azure: illegal credential config region is not found")
	}
	region, ok := rx.(string)
	if !ok || region == "" {
		return nil, fmt.Errorf("azure: illegal credential config region is not found")
	}
	return &azureOption{
		logger:  logger,
		key:     key,
		region:  region,
		mdlOpts: mdlOpts,
	}, nil
}

func (ao *azureOption) GetKey() string {
	return ao.key
}

// GetSynthesisEndpoint returns the regional cognitive-services endpoint.
func (ao *azureOption) GetSynthesisEndpoint() string {
	return fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", ao.region)
}

// GetSSML renders the synthesis request body for the resolved voice.
func (ao *azureOption) GetSSML(text string, opts utils.Option) string {
	resolved := ao.mdlOpts.Merge(opts)

	voice := DefaultVoice
	if v, err := resolved.GetString(internal_transformer.OptionVoice); err == nil {
		voice = v
	}
	language := DefaultLanguage
	if l, err := resolved.GetString(internal_transformer.OptionLanguage); err == nil {
		language = l
	}
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice xml:lang='%s' name='%s'>%s</voice></speak>`,
		language, language, voice, text)
}

type azureTextToSpeech struct {
	*azureOption
	internal_transformer.LatencyTracker
	logger   commons.Logger
	client   *resty.Client
	endpoint string
}

// SynthOption configures the Azure synthesizer.
type SynthOption func(*azureTextToSpeech)

// WithEndpoint overrides the regional endpoint.
func WithEndpoint(u string) SynthOption {
	return func(a *azureTextToSpeech) { a.endpoint = u }
}

// NewSpeechSynthesizer builds the Azure neural TTS synthesizer over the
// cognitive-services REST surface.
func NewSpeechSynthesizer(logger commons.Logger, credential internal_transformer.Credential, defaults utils.Option, opts ...SynthOption) (internal_transformer.SpeechSynthesizer, error) {
	option, err := NewAzureOption(logger, credential, defaults)
	if err != nil {
		return nil, err
	}
	a := &azureTextToSpeech{
		azureOption: option,
		logger:      logger,
		client:      resty.New(),
		endpoint:    option.GetSynthesisEndpoint(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *azureTextToSpeech) Name() string {
	return "azure"
}

func (a *azureTextToSpeech) Synthesize(ctx context.Context, text string, opts utils.Option) ([]byte, error) {
	defer a.Track()()

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Ocp-Apim-Subscription-Key", a.GetKey()).
		SetHeader("Content-Type", "application/ssml+xml").
		SetHeader("X-Microsoft-OutputFormat", OutputFormat).
		SetBody(a.GetSSML(text, opts)).
		Post(a.endpoint)
	if err != nil {
		return nil, internal_transformer.NewProviderError(a.Name(), internal_transformer.StageSynthesis, err)
	}
	if resp.IsError() {
		return nil, internal_transformer.NewProviderError(a.Name(), internal_transformer.StageSynthesis,
			fmt.Errorf("synthesis returned %d", resp.StatusCode()))
	}
	return resp.Body(), nil
}

func (a *azureTextToSpeech) Verify(ctx context.Context) error {
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Ocp-Apim-Subscription-Key", a.GetKey()).
		Get(fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/voices/list", a.region))
	if err != nil {
		return internal_transformer.NewProviderError(a.Name(), internal_transformer.StageSynthesis, err)
	}
	if resp.IsError() {
		return internal_transformer.NewProviderError(a.Name(), internal_transformer.StageSynthesis,
			fmt.Errorf("credential probe returned %d", resp.StatusCode()))
	}
	return nil
}
