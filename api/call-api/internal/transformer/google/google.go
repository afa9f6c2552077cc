// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer_google

import (
	"fmt"
	"strings"

	"cloud.google.com/go/speech/apiv2/speechpb"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

// Introduced constants for default values
const (
	DefaultLanguageCode = "en-US"            // Default language code for Speech-to-Text
	DefaultModel        = "long"             // Default model used for Speech recognition
	DefaultVoice        = "en-US-Chirp-HD-F" // Default voice for Text-to-Speech
)

// googleOption is the primary configuration structure for Google services
type googleOption struct {
	logger        commons.Logger
	clientOptions []option.ClientOption
	mdlOpts       utils.Option
	projectId     string
}

// NewGoogleOption initializes googleOption with provided credentials and options.
func NewGoogleOption(logger commons.Logger, credential internal_transformer.Credential, opts utils.Option) (*googleOption, error) {
	co := make([]option.ClientOption, 0)
	var projectID string

	if v, ok := credential["key"]; ok {
		if key, ok := v.(string); ok && key != "" {
			co = append(co, option.WithAPIKey(key))
		}
	}
	if v, ok := credential["project_id"]; ok {
		if prj, ok := v.(string); ok && prj != "" {
			projectID = prj
			co = append(co, option.WithQuotaProject(prj))
		}
	}
	if v, ok := credential["service_account_key"]; ok {
		if serviceCrd, ok := v.(string); ok && serviceCrd != "" {
			co = append(co, option.WithCredentialsJSON([]byte(serviceCrd)))
		}
	}
	if len(co) == 0 {
		return nil, fmt.Errorf("google: illegal credential config")
	}

	return &googleOption{
		logger:        logger,
		mdlOpts:       opts,
		clientOptions: co,
		projectId:     projectID,
	}, nil
}

// GetClientOptions returns all configured Google API client options.
func (gO *googleOption) GetClientOptions() []option.ClientOption {
	return gO.clientOptions
}

func (gO *googleOption) resolve(opts utils.Option) utils.Option {
	return gO.mdlOpts.Merge(opts)
}

// SpeechToTextOptions generates a configuration for Google Speech-to-Text
// recognition. Defaults apply unless overridden through the option bag.
func (gO *googleOption) SpeechToTextOptions(opts utils.Option) *speechpb.RecognitionConfig {
	resolved := gO.resolve(opts)

	cfg := &speechpb.RecognitionConfig{
		DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
			ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
				Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
				SampleRateHertz:   16000,
				AudioChannelCount: 1,
			},
		},
		Features: &speechpb.RecognitionFeatures{
			EnableAutomaticPunctuation: true,
			EnableWordConfidence:       true,
		},
		LanguageCodes: []string{DefaultLanguageCode},
		Model:         DefaultModel,
	}

	if language, err := resolved.GetString(internal_transformer.OptionLanguage); err == nil {
		codes := []string{}
		for _, code := range strings.Split(language, commons.SEPARATOR) {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, code)
			}
		}
		if len(codes) > 0 {
			cfg.LanguageCodes = codes
		}
	}
	if punctuate, err := resolved.GetBool(internal_transformer.OptionPunctuate); err == nil {
		cfg.Features.EnableAutomaticPunctuation = punctuate
	}
	if diarize, err := resolved.GetBool(internal_transformer.OptionDiarization); err == nil && diarize {
		cfg.Features.DiarizationConfig = &speechpb.SpeakerDiarizationConfig{
			MinSpeakerCount: 1,
			MaxSpeakerCount: 2,
		}
	}
	if model, err := resolved.GetString(internal_transformer.OptionSTTModel); err == nil {
		cfg.Model = model
	}

	return cfg
}

// TextToSpeechOptions generates the synthesis input for Google Text-to-Speech.
func (gO *googleOption) TextToSpeechOptions(opts utils.Option) (*texttospeechpb.VoiceSelectionParams, *texttospeechpb.AudioConfig) {
	resolved := gO.resolve(opts)

	voice := &texttospeechpb.VoiceSelectionParams{
		LanguageCode: DefaultLanguageCode,
		Name:         DefaultVoice,
	}
	audioCfg := &texttospeechpb.AudioConfig{
		AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
		SampleRateHertz: 16000,
	}

	if v, err := resolved.GetString(internal_transformer.OptionVoice); err == nil {
		voice.Name = v
	} else {
		gO.logger.Warn("Voice not specified, defaulting to " + DefaultVoice)
	}
	if l, err := resolved.GetString(internal_transformer.OptionLanguage); err == nil {
		voice.LanguageCode = strings.TrimSpace(strings.Split(l, commons.SEPARATOR)[0])
	}

	return voice, audioCfg
}

// GetRecognizer returns the fully-qualified recognizer resource name.
func (gO *googleOption) GetRecognizer(opts utils.Option) string {
	if region, err := gO.resolve(opts).GetString("listen.region"); err == nil {
		if region != "global" {
			return fmt.Sprintf("projects/%s/locations/%s/recognizers/_", gO.projectId, region)
		}
	}
	return fmt.Sprintf("projects/%s/locations/global/recognizers/_", gO.projectId)
}

// GetSpeechToTextClientOptions adds the regional endpoint when a
// non-global region is configured.
func (gO *googleOption) GetSpeechToTextClientOptions(opts utils.Option) []option.ClientOption {
	if region, err := gO.resolve(opts).GetString("listen.region"); err == nil {
		if region != "global" {
			return append(gO.clientOptions, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:443", region)))
		}
	}
	return gO.clientOptions
}
