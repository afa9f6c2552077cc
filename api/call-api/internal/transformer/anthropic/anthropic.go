// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer_anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

const (
	DefaultModel       = "claude-3-5-haiku-latest"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
)

type anthropicOption struct {
	logger  commons.Logger
	key     string
	mdlOpts utils.Option
}

func NewAnthropicOption(logger commons.Logger, credential internal_transformer.Credential, mdlOpts utils.Option) (*anthropicOption, error) {
	cx, ok := credential["key"]
	if !ok {
		return nil, fmt.Errorf("anthropic: illegal credential config")
	}
	key, ok := cx.(string)
	if !ok || key == "" {
		return nil, fmt.Errorf("anthropic: illegal credential config")
	}
	return &anthropicOption{
		logger:  logger,
		mdlOpts: mdlOpts,
		key:     key,
	}, nil
}

func (ao *anthropicOption) resolve(opts utils.Option) utils.Option {
	return ao.mdlOpts.Merge(opts)
}

type anthropicResponseGenerator struct {
	*anthropicOption
	internal_transformer.LatencyTracker
	logger commons.Logger
}

// NewResponseGenerator builds the Anthropic messages generator.
func NewResponseGenerator(logger commons.Logger, credential internal_transformer.Credential, defaults utils.Option) (internal_transformer.ResponseGenerator, error) {
	opt, err := NewAnthropicOption(logger, credential, defaults)
	if err != nil {
		return nil, err
	}
	return &anthropicResponseGenerator{
		anthropicOption: opt,
		logger:          logger,
	}, nil
}

func (ag *anthropicResponseGenerator) Name() string {
	return "anthropic"
}

func (ag *anthropicResponseGenerator) Generate(ctx context.Context, req *internal_transformer.GenerateRequest) (string, error) {
	defer ag.Track()()

	resolved := ag.resolve(req.Options)

	model := DefaultModel
	if m, err := resolved.GetString(internal_transformer.OptionModel); err == nil {
		model = m
	}
	temperature := DefaultTemperature
	if tmp, err := resolved.GetFloat64(internal_transformer.OptionTemperature); err == nil {
		temperature = tmp
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == internal_transformer.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   DefaultMaxTokens,
		Messages:    messages,
		Temperature: anthropic.Float(temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	client := anthropic.NewClient(option.WithAPIKey(ag.key))
	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", internal_transformer.NewProviderError(ag.Name(), internal_transformer.StageGeneration, err)
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", internal_transformer.NewProviderError(ag.Name(), internal_transformer.StageGeneration,
		fmt.Errorf("no text block in response"))
}

// Verify sends a single-token request so a revoked key fails fast.
func (ag *anthropicResponseGenerator) Verify(ctx context.Context) error {
	client := anthropic.NewClient(option.WithAPIKey(ag.key))
	_, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(DefaultModel),
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return internal_transformer.NewProviderError(ag.Name(), internal_transformer.StageGeneration, err)
	}
	return nil
}
