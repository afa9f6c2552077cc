// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer_gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

const (
	DefaultModel       = "gemini-2.0-flash"
	DefaultTemperature = float32(0.7)
)

type geminiOption struct {
	logger  commons.Logger
	key     string
	mdlOpts utils.Option
}

func NewGeminiOption(logger commons.Logger, credential internal_transformer.Credential, mdlOpts utils.Option) (*geminiOption, error) {
	cx, ok := credential["key"]
	if !ok {
		return nil, fmt.Errorf("gemini: illegal credential config")
	}
	key, ok := cx.(string)
	if !ok || key == "" {
		return nil, fmt.Errorf("gemini: illegal credential config")
	}
	return &geminiOption{
		logger:  logger,
		mdlOpts: mdlOpts,
		key:     key,
	}, nil
}

type geminiResponseGenerator struct {
	*geminiOption
	internal_transformer.LatencyTracker
	logger commons.Logger
}

// NewResponseGenerator builds the Gemini generator.
func NewResponseGenerator(logger commons.Logger, credential internal_transformer.Credential, defaults utils.Option) (internal_transformer.ResponseGenerator, error) {
	opt, err := NewGeminiOption(logger, credential, defaults)
	if err != nil {
		return nil, err
	}
	return &geminiResponseGenerator{
		geminiOption: opt,
		logger:       logger,
	}, nil
}

func (gg *geminiResponseGenerator) Name() string {
	return "gemini"
}

func (gg *geminiResponseGenerator) client(ctx context.Context) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  gg.key,
		Backend: genai.BackendGeminiAPI,
	})
}

func (gg *geminiResponseGenerator) Generate(ctx context.Context, req *internal_transformer.GenerateRequest) (string, error) {
	defer gg.Track()()

	resolved := gg.mdlOpts.Merge(req.Options)

	model := DefaultModel
	if m, err := resolved.GetString(internal_transformer.OptionModel); err == nil {
		model = m
	}
	temperature := DefaultTemperature
	if tmp, err := resolved.GetFloat64(internal_transformer.OptionTemperature); err == nil {
		temperature = float32(tmp)
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == internal_transformer.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	client, err := gg.client(ctx)
	if err != nil {
		return "", internal_transformer.NewProviderError(gg.Name(), internal_transformer.StageGeneration, err)
	}
	resp, err := client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", internal_transformer.NewProviderError(gg.Name(), internal_transformer.StageGeneration, err)
	}
	text := resp.Text()
	if text == "" {
		return "", internal_transformer.NewProviderError(gg.Name(), internal_transformer.StageGeneration,
			fmt.Errorf("empty generation result"))
	}
	return text, nil
}

func (gg *geminiResponseGenerator) Verify(ctx context.Context) error {
	client, err := gg.client(ctx)
	if err != nil {
		return internal_transformer.NewProviderError(gg.Name(), internal_transformer.StageGeneration, err)
	}
	if _, err := client.Models.Get(ctx, DefaultModel, nil); err != nil {
		return internal_transformer.NewProviderError(gg.Name(), internal_transformer.StageGeneration, err)
	}
	return nil
}
