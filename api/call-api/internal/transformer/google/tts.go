// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer_google

import (
	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"context"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

type googleTextToSpeech struct {
	*googleOption
	internal_transformer.LatencyTracker
	logger commons.Logger
}

// NewSpeechSynthesizer builds the Google Cloud Text-to-Speech synthesizer.
func NewSpeechSynthesizer(logger commons.Logger, credential internal_transformer.Credential, defaults utils.Option) (internal_transformer.SpeechSynthesizer, error) {
	opt, err := NewGoogleOption(logger, credential, defaults)
	if err != nil {
		return nil, err
	}
	return &googleTextToSpeech{
		googleOption: opt,
		logger:       logger,
	}, nil
}

func (g *googleTextToSpeech) Name() string {
	return "google"
}

func (g *googleTextToSpeech) Synthesize(ctx context.Context, text string, opts utils.Option) ([]byte, error) {
	defer g.Track()()

	client, err := texttospeech.NewClient(ctx, g.GetClientOptions()...)
	if err != nil {
		return nil, internal_transformer.NewProviderError(g.Name(), internal_transformer.StageSynthesis, err)
	}
	defer client.Close()

	voice, audioCfg := g.TextToSpeechOptions(opts)
	resp, err := client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice:       voice,
		AudioConfig: audioCfg,
	})
	if err != nil {
		return nil, internal_transformer.NewProviderError(g.Name(), internal_transformer.StageSynthesis, err)
	}
	return resp.GetAudioContent(), nil
}

func (g *googleTextToSpeech) Verify(ctx context.Context) error {
	client, err := texttospeech.NewClient(ctx, g.GetClientOptions()...)
	if err != nil {
		return internal_transformer.NewProviderError(g.Name(), internal_transformer.StageSynthesis, err)
	}
	return client.Close()
}
