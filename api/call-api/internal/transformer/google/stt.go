// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer_google

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv2"
	"cloud.google.com/go/speech/apiv2/speechpb"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

type googleSpeechToText struct {
	*googleOption
	internal_transformer.LatencyTracker
	logger commons.Logger
}

// NewSpeechToText builds the Google Cloud Speech-to-Text v2 transcriber.
func NewSpeechToText(logger commons.Logger, credential internal_transformer.Credential, defaults utils.Option) (internal_transformer.SpeechToText, error) {
	opt, err := NewGoogleOption(logger, credential, defaults)
	if err != nil {
		return nil, err
	}
	return &googleSpeechToText{
		googleOption: opt,
		logger:       logger,
	}, nil
}

func (g *googleSpeechToText) Name() string {
	return "google"
}

func (g *googleSpeechToText) Transcribe(ctx context.Context, audio []byte, opts utils.Option) (string, error) {
	defer g.Track()()

	client, err := speech.NewClient(ctx, g.GetSpeechToTextClientOptions(opts)...)
	if err != nil {
		return "", internal_transformer.NewProviderError(g.Name(), internal_transformer.StageSpeechToText, err)
	}
	defer client.Close()

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Recognizer: g.GetRecognizer(opts),
		Config:     g.SpeechToTextOptions(opts),
		AudioSource: &speechpb.RecognizeRequest_Content{
			Content: audio,
		},
	})
	if err != nil {
		return "", internal_transformer.NewProviderError(g.Name(), internal_transformer.StageSpeechToText, err)
	}

	var sb strings.Builder
	for _, result := range resp.GetResults() {
		if alts := result.GetAlternatives(); len(alts) > 0 {
			if sb.Len() > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(alts[0].GetTranscript())
		}
	}
	if sb.Len() == 0 {
		return "", internal_transformer.NewProviderError(g.Name(), internal_transformer.StageSpeechToText,
			fmt.Errorf("empty transcription result"))
	}
	return sb.String(), nil
}

// Verify confirms a recognition client can be constructed with the
// stored credentials.
func (g *googleSpeechToText) Verify(ctx context.Context) error {
	client, err := speech.NewClient(ctx, g.GetClientOptions()...)
	if err != nil {
		return internal_transformer.NewProviderError(g.Name(), internal_transformer.StageSpeechToText, err)
	}
	return client.Close()
}
