// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer_deepgram

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

const (
	DefaultModel    = "nova-2"
	DefaultLanguage = "en-US"
	LiveURL         = "wss://api.deepgram.com/v1/listen"
)

type deepgramOption struct {
	logger  commons.Logger
	key     string
	liveURL string
	mdlOpts utils.Option
}

// NewDeepgramOption validates the credential bundle. An optional "url"
// entry points the live channel at a self-hosted deployment instead of
// the hosted endpoint.
func NewDeepgramOption(logger commons.Logger, credential internal_transformer.Credential, mdlOpts utils.Option) (*deepgramOption, error) {
	cx, ok := credential["key"]
	if !ok {
		return nil, fmt.Errorf("deepgram: illegal credential config")
	}
	key, ok := cx.(string)
	if !ok || key == "" {
		return nil, fmt.Errorf("deepgram: illegal credential config")
	}
	liveURL := LiveURL
	if u, ok := credential["url"].(string); ok && u != "" {
		liveURL = u
	}
	return &deepgramOption{
		logger:  logger,
		mdlOpts: mdlOpts,
		key:     key,
		liveURL: liveURL,
	}, nil
}

func (do *deepgramOption) GetKey() string {
	return do.key
}

func (do *deepgramOption) GetEncoding() string {
	return "linear16"
}

// resolve merges per-call overrides over the stored defaults.
func (do *deepgramOption) resolve(opts utils.Option) utils.Option {
	return do.mdlOpts.Merge(opts)
}

// GetSpeechToTextConnectionString builds the live-transcription websocket
// URL from the resolved option bag.
func (do *deepgramOption) GetSpeechToTextConnectionString(opts utils.Option) string {
	resolved := do.resolve(opts)

	params := url.Values{}
	params.Add("encoding", do.GetEncoding())
	params.Add("sample_rate", "16000")
	params.Add("channels", "1")
	params.Add("interim_results", "true")

	model := DefaultModel
	if m, err := resolved.GetString(internal_transformer.OptionSTTModel); err == nil {
		model = m
	}
	params.Add("model", model)

	language := DefaultLanguage
	if l, err := resolved.GetString(internal_transformer.OptionLanguage); err == nil {
		language = l
	}
	params.Add("language", language)

	punctuate := true
	if p, err := resolved.GetBool(internal_transformer.OptionPunctuate); err == nil {
		punctuate = p
	}
	params.Add("punctuate", strconv.FormatBool(punctuate))

	if d, err := resolved.GetBool(internal_transformer.OptionDiarization); err == nil && d {
		params.Add("diarize", "true")
	}

	if kw, err := resolved.GetString(internal_transformer.OptionKeywords); err == nil {
		for _, k := range strings.Split(kw, commons.SEPARATOR) {
			if k = strings.TrimSpace(k); k != "" {
				params.Add("keywords", k)
			}
		}
	}

	return fmt.Sprintf("%s?%s", do.liveURL, params.Encode())
}
