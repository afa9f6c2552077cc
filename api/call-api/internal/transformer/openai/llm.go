// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer_openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

type openaiResponseGenerator struct {
	*openaiOption
	internal_transformer.LatencyTracker
	logger commons.Logger
}

// NewResponseGenerator builds the OpenAI chat-completion generator.
func NewResponseGenerator(logger commons.Logger, credential internal_transformer.Credential, defaults utils.Option) (internal_transformer.ResponseGenerator, error) {
	opt, err := NewOpenaiOption(logger, credential, defaults)
	if err != nil {
		return nil, err
	}
	return &openaiResponseGenerator{
		openaiOption: opt,
		logger:       logger,
	}, nil
}

func (og *openaiResponseGenerator) Name() string {
	return "openai"
}

func (og *openaiResponseGenerator) Generate(ctx context.Context, req *internal_transformer.GenerateRequest) (string, error) {
	defer og.Track()()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case internal_transformer.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	client := og.Client()
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       og.ChatModel(req.Options),
		Messages:    messages,
		Temperature: openai.Float(og.Temperature(req.Options)),
	})
	if err != nil {
		return "", internal_transformer.NewProviderError(og.Name(), internal_transformer.StageGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", internal_transformer.NewProviderError(og.Name(), internal_transformer.StageGeneration,
			fmt.Errorf("empty completion"))
	}
	return resp.Choices[0].Message.Content, nil
}

func (og *openaiResponseGenerator) Verify(ctx context.Context) error {
	client := og.Client()
	if _, err := client.Models.List(ctx); err != nil {
		return internal_transformer.NewProviderError(og.Name(), internal_transformer.StageGeneration, err)
	}
	return nil
}
