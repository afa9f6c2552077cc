// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer_openai

import (
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

const (
	DefaultChatModel   = openai.ChatModelGPT4oMini
	DefaultSpeechModel = openai.SpeechModelTTS1
	DefaultVoice       = "alloy"
	DefaultTemperature = 0.7
)

type openaiOption struct {
	logger  commons.Logger
	key     string
	mdlOpts utils.Option
}

func NewOpenaiOption(logger commons.Logger, credential internal_transformer.Credential, mdlOpts utils.Option) (*openaiOption, error) {
	cx, ok := credential["key"]
	if !ok {
		return nil, fmt.Errorf("openai: illegal credential config")
	}
	key, ok := cx.(string)
	if !ok || key == "" {
		return nil, fmt.Errorf("openai: illegal credential config")
	}
	return &openaiOption{
		logger:  logger,
		mdlOpts: mdlOpts,
		key:     key,
	}, nil
}

func (oo *openaiOption) GetKey() string {
	return oo.key
}

func (oo *openaiOption) Client() openai.Client {
	return openai.NewClient(option.WithAPIKey(oo.key))
}

func (oo *openaiOption) resolve(opts utils.Option) utils.Option {
	return oo.mdlOpts.Merge(opts)
}

// ChatModel resolves the generation model from the option bag.
func (oo *openaiOption) ChatModel(opts utils.Option) string {
	if m, err := oo.resolve(opts).GetString(internal_transformer.OptionModel); err == nil {
		return m
	}
	return DefaultChatModel
}

// Temperature resolves the sampling temperature from the option bag.
func (oo *openaiOption) Temperature(opts utils.Option) float64 {
	if tmp, err := oo.resolve(opts).GetFloat64(internal_transformer.OptionTemperature); err == nil {
		return tmp
	}
	return DefaultTemperature
}
