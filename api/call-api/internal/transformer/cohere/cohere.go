// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer_cohere

import (
	"context"
	"fmt"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

const DefaultModel = "command-r"

type cohereOption struct {
	logger  commons.Logger
	key     string
	mdlOpts utils.Option
}

func NewCohereOption(logger commons.Logger, credential internal_transformer.Credential, mdlOpts utils.Option) (*cohereOption, error) {
	cx, ok := credential["key"]
	if !ok {
		return nil, fmt.Errorf("cohere: illegal credential config")
	}
	key, ok := cx.(string)
	if !ok || key == "" {
		return nil, fmt.Errorf("cohere: illegal credential config")
	}
	return &cohereOption{
		logger:  logger,
		mdlOpts: mdlOpts,
		key:     key,
	}, nil
}

type cohereResponseGenerator struct {
	*cohereOption
	internal_transformer.LatencyTracker
	logger commons.Logger
}

// NewResponseGenerator builds the Cohere chat generator.
func NewResponseGenerator(logger commons.Logger, credential internal_transformer.Credential, defaults utils.Option) (internal_transformer.ResponseGenerator, error) {
	opt, err := NewCohereOption(logger, credential, defaults)
	if err != nil {
		return nil, err
	}
	return &cohereResponseGenerator{
		cohereOption: opt,
		logger:       logger,
	}, nil
}

func (cg *cohereResponseGenerator) Name() string {
	return "cohere"
}

func (cg *cohereResponseGenerator) Generate(ctx context.Context, req *internal_transformer.GenerateRequest) (string, error) {
	defer cg.Track()()

	if len(req.Messages) == 0 {
		return "", internal_transformer.NewProviderError(cg.Name(), internal_transformer.StageGeneration,
			fmt.Errorf("empty message history"))
	}

	resolved := cg.mdlOpts.Merge(req.Options)
	model := DefaultModel
	if m, err := resolved.GetString(internal_transformer.OptionModel); err == nil {
		model = m
	}

	// Cohere takes the current utterance separately from the history.
	current := req.Messages[len(req.Messages)-1]
	history := make([]*cohere.Message, 0, len(req.Messages)-1)
	for _, m := range req.Messages[:len(req.Messages)-1] {
		if m.Role == internal_transformer.RoleAssistant {
			history = append(history, &cohere.Message{
				Role:    "CHATBOT",
				Chatbot: &cohere.ChatMessage{Message: m.Content},
			})
		} else {
			history = append(history, &cohere.Message{
				Role: "USER",
				User: &cohere.ChatMessage{Message: m.Content},
			})
		}
	}

	chatReq := &cohere.ChatRequest{
		Message:     current.Content,
		ChatHistory: history,
		Model:       &model,
	}
	if req.System != "" {
		chatReq.Preamble = &req.System
	}
	if tmp, err := resolved.GetFloat64(internal_transformer.OptionTemperature); err == nil {
		chatReq.Temperature = &tmp
	}

	client := cohereclient.NewClient(cohereclient.WithToken(cg.key))
	resp, err := client.Chat(ctx, chatReq)
	if err != nil {
		return "", internal_transformer.NewProviderError(cg.Name(), internal_transformer.StageGeneration, err)
	}
	return resp.Text, nil
}

func (cg *cohereResponseGenerator) Verify(ctx context.Context) error {
	client := cohereclient.NewClient(cohereclient.WithToken(cg.key))
	_, err := client.Chat(ctx, &cohere.ChatRequest{Message: "ping"})
	if err != nil {
		return internal_transformer.NewProviderError(cg.Name(), internal_transformer.StageGeneration, err)
	}
	return nil
}
