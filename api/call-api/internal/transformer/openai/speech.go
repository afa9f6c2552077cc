// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer_openai

import (
	"bytes"
	"context"
	"io"

	"github.com/openai/openai-go"

	internal_audio "github.com/vocalisai/api/call-api/internal/audio"
	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

type openaiSpeechToText struct {
	*openaiOption
	internal_transformer.LatencyTracker
	logger commons.Logger
}

// NewSpeechToText builds the Whisper batch transcriber. Raw linear16 is
// wrapped in a WAV container because the endpoint rejects headerless PCM.
func NewSpeechToText(logger commons.Logger, credential internal_transformer.Credential, defaults utils.Option) (internal_transformer.SpeechToText, error) {
	opt, err := NewOpenaiOption(logger, credential, defaults)
	if err != nil {
		return nil, err
	}
	return &openaiSpeechToText{
		openaiOption: opt,
		logger:       logger,
	}, nil
}

func (os *openaiSpeechToText) Name() string {
	return "openai"
}

func (os *openaiSpeechToText) Transcribe(ctx context.Context, audio []byte, opts utils.Option) (string, error) {
	defer os.Track()()

	wav := internal_audio.WrapWAV(audio, 16000, 1)
	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(wav), "utterance.wav", "audio/wav"),
		Model: openai.AudioModelWhisper1,
	}
	if m, err := os.resolve(opts).GetString(internal_transformer.OptionSTTModel); err == nil {
		params.Model = m
	}
	if l, err := os.resolve(opts).GetString(internal_transformer.OptionLanguage); err == nil {
		params.Language = openai.String(l)
	}

	client := os.Client()
	resp, err := client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", internal_transformer.NewProviderError(os.Name(), internal_transformer.StageSpeechToText, err)
	}
	return resp.Text, nil
}

func (os *openaiSpeechToText) Verify(ctx context.Context) error {
	client := os.Client()
	if _, err := client.Models.List(ctx); err != nil {
		return internal_transformer.NewProviderError(os.Name(), internal_transformer.StageSpeechToText, err)
	}
	return nil
}

type openaiTextToSpeech struct {
	*openaiOption
	internal_transformer.LatencyTracker
	logger commons.Logger
}

// NewSpeechSynthesizer builds the OpenAI speech synthesizer, returning
// raw PCM suitable for the telephony edge.
func NewSpeechSynthesizer(logger commons.Logger, credential internal_transformer.Credential, defaults utils.Option) (internal_transformer.SpeechSynthesizer, error) {
	opt, err := NewOpenaiOption(logger, credential, defaults)
	if err != nil {
		return nil, err
	}
	return &openaiTextToSpeech{
		openaiOption: opt,
		logger:       logger,
	}, nil
}

func (ot *openaiTextToSpeech) Name() string {
	return "openai"
}

func (ot *openaiTextToSpeech) Synthesize(ctx context.Context, text string, opts utils.Option) ([]byte, error) {
	defer ot.Track()()

	resolved := ot.resolve(opts)
	params := openai.AudioSpeechNewParams{
		Model:          DefaultSpeechModel,
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(DefaultVoice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatPCM,
	}
	if m, err := resolved.GetString(internal_transformer.OptionTTSModel); err == nil {
		params.Model = m
	}
	if v, err := resolved.GetString(internal_transformer.OptionVoice); err == nil {
		params.Voice = openai.AudioSpeechNewParamsVoice(v)
	}

	client := ot.Client()
	resp, err := client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, internal_transformer.NewProviderError(ot.Name(), internal_transformer.StageSynthesis, err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, internal_transformer.NewProviderError(ot.Name(), internal_transformer.StageSynthesis, err)
	}
	return audio, nil
}

func (ot *openaiTextToSpeech) Verify(ctx context.Context) error {
	client := ot.Client()
	if _, err := client.Models.List(ctx); err != nil {
		return internal_transformer.NewProviderError(ot.Name(), internal_transformer.StageSynthesis, err)
	}
	return nil
}
