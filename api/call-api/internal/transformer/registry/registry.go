// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer_registry

import (
	"context"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/vocalisai/api/call-api/config"
	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	internal_transformer_anthropic "github.com/vocalisai/api/call-api/internal/transformer/anthropic"
	internal_transformer_assemblyai "github.com/vocalisai/api/call-api/internal/transformer/assemblyai"
	internal_transformer_aws "github.com/vocalisai/api/call-api/internal/transformer/aws"
	internal_transformer_azure "github.com/vocalisai/api/call-api/internal/transformer/azure"
	internal_transformer_cohere "github.com/vocalisai/api/call-api/internal/transformer/cohere"
	internal_transformer_deepgram "github.com/vocalisai/api/call-api/internal/transformer/deepgram"
	internal_transformer_elevenlabs "github.com/vocalisai/api/call-api/internal/transformer/elevenlabs"
	internal_transformer_gemini "github.com/vocalisai/api/call-api/internal/transformer/gemini"
	internal_transformer_google "github.com/vocalisai/api/call-api/internal/transformer/google"
	internal_transformer_openai "github.com/vocalisai/api/call-api/internal/transformer/openai"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

// Registry resolves provider names to stage adapters. Credentials are
// read once at startup and are read-only afterwards; adapters are cached
// per name so latency tracking survives across turns.
type Registry struct {
	logger      commons.Logger
	credentials map[string]internal_transformer.Credential

	pollInterval    time.Duration
	pollMaxAttempts int

	mu           sync.Mutex
	transcribers map[string]internal_transformer.SpeechToText
	generators   map[string]internal_transformer.ResponseGenerator
	synthesizers map[string]internal_transformer.SpeechSynthesizer
}

// New builds the registry from the application config. A vendor with no
// credential entry stays absent from the map and is reported unavailable
// on first use, never at startup.
func New(logger commons.Logger, cfg *config.AppConfig) *Registry {
	credentials := make(map[string]internal_transformer.Credential, len(cfg.ProviderCredentials))
	for name, pc := range cfg.ProviderCredentials {
		var cred internal_transformer.Credential
		if err := mapstructure.Decode(pc, &cred); err != nil {
			logger.Warnf("registry: skipping credential for %s: %v", name, err)
			continue
		}
		credentials[name] = cred
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = internal_transformer_assemblyai.DefaultPollInterval
	}
	pollMaxAttempts := cfg.PollMaxAttempts
	if pollMaxAttempts <= 0 {
		pollMaxAttempts = internal_transformer_assemblyai.DefaultMaxAttempts
	}

	return &Registry{
		logger:          logger,
		credentials:     credentials,
		pollInterval:    pollInterval,
		pollMaxAttempts: pollMaxAttempts,
		transcribers:    make(map[string]internal_transformer.SpeechToText),
		generators:      make(map[string]internal_transformer.ResponseGenerator),
		synthesizers:    make(map[string]internal_transformer.SpeechSynthesizer),
	}
}

func (r *Registry) credential(name string) (internal_transformer.Credential, error) {
	cred, ok := r.credentials[name]
	if !ok {
		return nil, internal_transformer.NewConfigurationError("provider %q is not configured", name)
	}
	return cred, nil
}

// SpeechToText returns the transcriber registered under name. An
// unsupported name never falls back to another vendor.
func (r *Registry) SpeechToText(name string) (internal_transformer.SpeechToText, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stt, ok := r.transcribers[name]; ok {
		return stt, nil
	}
	cred, err := r.credential(name)
	if err != nil {
		return nil, err
	}

	var stt internal_transformer.SpeechToText
	switch name {
	case "deepgram":
		stt, err = internal_transformer_deepgram.NewSpeechToText(r.logger, cred, utils.Option{})
	case "assemblyai":
		stt, err = internal_transformer_assemblyai.NewSpeechToText(r.logger, cred, utils.Option{},
			internal_transformer_assemblyai.WithPollInterval(r.pollInterval),
			internal_transformer_assemblyai.WithMaxAttempts(r.pollMaxAttempts))
	case "google":
		stt, err = internal_transformer_google.NewSpeechToText(r.logger, cred, utils.Option{})
	case "openai":
		stt, err = internal_transformer_openai.NewSpeechToText(r.logger, cred, utils.Option{})
	default:
		return nil, internal_transformer.NewConfigurationError("unsupported speech-to-text provider %q", name)
	}
	if err != nil {
		return nil, err
	}
	r.transcribers[name] = stt
	return stt, nil
}

// ResponseGenerator returns the generator registered under name.
func (r *Registry) ResponseGenerator(name string) (internal_transformer.ResponseGenerator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen, ok := r.generators[name]; ok {
		return gen, nil
	}
	cred, err := r.credential(name)
	if err != nil {
		return nil, err
	}

	var gen internal_transformer.ResponseGenerator
	switch name {
	case "openai":
		gen, err = internal_transformer_openai.NewResponseGenerator(r.logger, cred, utils.Option{})
	case "anthropic":
		gen, err = internal_transformer_anthropic.NewResponseGenerator(r.logger, cred, utils.Option{})
	case "gemini":
		gen, err = internal_transformer_gemini.NewResponseGenerator(r.logger, cred, utils.Option{})
	case "cohere":
		gen, err = internal_transformer_cohere.NewResponseGenerator(r.logger, cred, utils.Option{})
	default:
		return nil, internal_transformer.NewConfigurationError("unsupported generation provider %q", name)
	}
	if err != nil {
		return nil, err
	}
	r.generators[name] = gen
	return gen, nil
}

// SpeechSynthesizer returns the synthesizer registered under name.
func (r *Registry) SpeechSynthesizer(name string) (internal_transformer.SpeechSynthesizer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tts, ok := r.synthesizers[name]; ok {
		return tts, nil
	}
	cred, err := r.credential(name)
	if err != nil {
		return nil, err
	}

	var tts internal_transformer.SpeechSynthesizer
	switch name {
	case "google":
		tts, err = internal_transformer_google.NewSpeechSynthesizer(r.logger, cred, utils.Option{})
	case "azure":
		tts, err = internal_transformer_azure.NewSpeechSynthesizer(r.logger, cred, utils.Option{})
	case "elevenlabs":
		tts, err = internal_transformer_elevenlabs.NewSpeechSynthesizer(r.logger, cred, utils.Option{})
	case "aws":
		tts, err = internal_transformer_aws.NewSpeechSynthesizer(r.logger, cred, utils.Option{})
	case "openai":
		tts, err = internal_transformer_openai.NewSpeechSynthesizer(r.logger, cred, utils.Option{})
	default:
		return nil, internal_transformer.NewConfigurationError("unsupported synthesis provider %q", name)
	}
	if err != nil {
		return nil, err
	}
	r.synthesizers[name] = tts
	return tts, nil
}

// Health probes every constructed adapter concurrently and returns a map
// of provider name to probe error (nil means healthy). Providers that
// were never constructed are not probed.
func (r *Registry) Health(ctx context.Context) map[string]error {
	r.mu.Lock()
	probes := make(map[string]internal_transformer.Transformer)
	for name, stt := range r.transcribers {
		probes["stt:"+name] = stt
	}
	for name, gen := range r.generators {
		probes["llm:"+name] = gen
	}
	for name, tts := range r.synthesizers {
		probes["tts:"+name] = tts
	}
	r.mu.Unlock()

	var mu sync.Mutex
	results := make(map[string]error, len(probes))

	// Every probe must report its own status; a failing vendor must not
	// cancel the probes of healthy ones.
	var wg sync.WaitGroup
	for name, probe := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			err := probe.Verify(probeCtx)

			mu.Lock()
			results[name] = err
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}
