// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer_assemblyai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

const (
	DefaultBaseURL      = "https://api.assemblyai.com/v2"
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 30
)

type assemblyaiOption struct {
	logger  commons.Logger
	key     string
	mdlOpts utils.Option
}

func NewAssemblyaiOption(logger commons.Logger, credential internal_transformer.Credential, mdlOpts utils.Option) (*assemblyaiOption, error) {
	cx, ok := credential["key"]
	if !ok {
		return nil, fmt.Errorf("assemblyai: illegal credential config")
	}
	key, ok := cx.(string)
	if !ok || key == "" {
		return nil, fmt.Errorf("assemblyai: illegal credential config")
	}
	return &assemblyaiOption{
		logger:  logger,
		mdlOpts: mdlOpts,
		key:     key,
	}, nil
}

func (ao *assemblyaiOption) GetKey() string {
	return ao.key
}

// GetTranscriptRequest builds the submit payload from the resolved
// option bag.
func (ao *assemblyaiOption) GetTranscriptRequest(audioURL string, opts utils.Option) map[string]interface{} {
	resolved := ao.mdlOpts.Merge(opts)

	payload := map[string]interface{}{
		"audio_url": audioURL,
	}
	if l, err := resolved.GetString(internal_transformer.OptionLanguage); err == nil {
		payload["language_code"] = l
	}
	if p, err := resolved.GetBool(internal_transformer.OptionPunctuate); err == nil {
		payload["punctuate"] = p
	}
	if d, err := resolved.GetBool(internal_transformer.OptionDiarization); err == nil {
		payload["speaker_labels"] = d
	}
	if kw, err := resolved.GetString(internal_transformer.OptionKeywords); err == nil {
		words := []string{}
		for _, k := range strings.Split(kw, commons.SEPARATOR) {
			if k = strings.TrimSpace(k); k != "" {
				words = append(words, k)
			}
		}
		if len(words) > 0 {
			payload["word_boost"] = words
		}
	}
	return payload
}

// PollOption bounds the submit-then-poll loop.
type PollOption func(*assemblyaiSpeechToText)

// WithPollInterval sets the sleep between poll attempts.
func WithPollInterval(d time.Duration) PollOption {
	return func(a *assemblyaiSpeechToText) { a.pollInterval = d }
}

// WithMaxAttempts caps the number of poll attempts before TimeoutError.
func WithMaxAttempts(n int) PollOption {
	return func(a *assemblyaiSpeechToText) { a.maxAttempts = n }
}

// WithBaseURL points the adapter at a different API host.
func WithBaseURL(u string) PollOption {
	return func(a *assemblyaiSpeechToText) { a.baseURL = u }
}

type assemblyaiSpeechToText struct {
	*assemblyaiOption
	internal_transformer.LatencyTracker
	logger       commons.Logger
	client       *resty.Client
	baseURL      string
	pollInterval time.Duration
	maxAttempts  int
}

// NewSpeechToText builds the AssemblyAI transcriber. AssemblyAI's batch
// API is asynchronous: the audio is uploaded, a transcription job is
// submitted, then the job is polled at a fixed interval up to a maximum
// attempt count.
func NewSpeechToText(logger commons.Logger, credential internal_transformer.Credential, defaults utils.Option, opts ...PollOption) (internal_transformer.SpeechToText, error) {
	option, err := NewAssemblyaiOption(logger, credential, defaults)
	if err != nil {
		return nil, err
	}
	a := &assemblyaiSpeechToText{
		assemblyaiOption: option,
		logger:           logger,
		client:           resty.New(),
		baseURL:          DefaultBaseURL,
		pollInterval:     DefaultPollInterval,
		maxAttempts:      DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *assemblyaiSpeechToText) Name() string {
	return "assemblyai"
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptResponse struct {
	Id     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

func (a *assemblyaiSpeechToText) Transcribe(ctx context.Context, audio []byte, opts utils.Option) (string, error) {
	defer a.Track()()

	// 1. upload raw audio
	var upload uploadResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Authorization", a.GetKey()).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(audio).
		SetResult(&upload).
		Post(a.baseURL + "/upload")
	if err != nil {
		return "", internal_transformer.NewProviderError(a.Name(), internal_transformer.StageSpeechToText, err)
	}
	if resp.IsError() {
		return "", internal_transformer.NewProviderError(a.Name(), internal_transformer.StageSpeechToText,
			fmt.Errorf("upload returned %d", resp.StatusCode()))
	}

	// 2. submit the transcription job
	var job transcriptResponse
	resp, err = a.client.R().
		SetContext(ctx).
		SetHeader("Authorization", a.GetKey()).
		SetBody(a.GetTranscriptRequest(upload.UploadURL, opts)).
		SetResult(&job).
		Post(a.baseURL + "/transcript")
	if err != nil {
		return "", internal_transformer.NewProviderError(a.Name(), internal_transformer.StageSpeechToText, err)
	}
	if resp.IsError() {
		return "", internal_transformer.NewProviderError(a.Name(), internal_transformer.StageSpeechToText,
			fmt.Errorf("submit returned %d", resp.StatusCode()))
	}

	// 3. poll until terminal status, bounded by maxAttempts
	return a.poll(ctx, job.Id)
}

func (a *assemblyaiSpeechToText) poll(ctx context.Context, jobID string) (string, error) {
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		var job transcriptResponse
		resp, err := a.client.R().
			SetContext(ctx).
			SetHeader("Authorization", a.GetKey()).
			SetResult(&job).
			Get(a.baseURL + "/transcript/" + jobID)
		if err != nil {
			return "", internal_transformer.NewProviderError(a.Name(), internal_transformer.StageSpeechToText, err)
		}
		if resp.IsError() {
			return "", internal_transformer.NewProviderError(a.Name(), internal_transformer.StageSpeechToText,
				fmt.Errorf("poll returned %d", resp.StatusCode()))
		}

		switch job.Status {
		case "completed":
			return job.Text, nil
		case "error":
			return "", internal_transformer.NewProviderError(a.Name(), internal_transformer.StageSpeechToText,
				fmt.Errorf("transcription failed: %s", job.Error))
		}

		select {
		case <-ctx.Done():
			return "", &internal_transformer.TimeoutError{Operation: "assemblyai transcription", Err: ctx.Err()}
		case <-time.After(a.pollInterval):
		}
	}
	return "", &internal_transformer.TimeoutError{Operation: "assemblyai transcription", Attempts: a.maxAttempts}
}

// Verify hits an authenticated endpoint to confirm the key works.
func (a *assemblyaiSpeechToText) Verify(ctx context.Context) error {
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Authorization", a.GetKey()).
		Get(a.baseURL + "/transcript?limit=1")
	if err != nil {
		return internal_transformer.NewProviderError(a.Name(), internal_transformer.StageSpeechToText, err)
	}
	if resp.IsError() {
		return internal_transformer.NewProviderError(a.Name(), internal_transformer.StageSpeechToText,
			fmt.Errorf("credential probe returned %d", resp.StatusCode()))
	}
	return nil
}
