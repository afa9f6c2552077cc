// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer_deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	listenv1rest "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"github.com/gorilla/websocket"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/utils"
)

type deepgramSpeechToText struct {
	*deepgramOption
	internal_transformer.LatencyTracker
	logger commons.Logger
}

// NewSpeechToText builds the Deepgram transcriber. The buffered path goes
// through the official REST client, the streaming path connects to the
// live websocket endpoint directly.
func NewSpeechToText(logger commons.Logger, credential internal_transformer.Credential, defaults utils.Option) (internal_transformer.StreamingSpeechToText, error) {
	opt, err := NewDeepgramOption(logger, credential, defaults)
	if err != nil {
		return nil, err
	}
	return &deepgramSpeechToText{
		deepgramOption: opt,
		logger:         logger,
	}, nil
}

func (dg *deepgramSpeechToText) Name() string {
	return "deepgram"
}

func (dg *deepgramSpeechToText) Transcribe(ctx context.Context, audio []byte, opts utils.Option) (string, error) {
	defer dg.Track()()

	resolved := dg.resolve(opts)

	tOptions := &interfaces.PreRecordedTranscriptionOptions{
		Model:       DefaultModel,
		Language:    DefaultLanguage,
		Punctuate:   true,
		SmartFormat: true,
		Encoding:    dg.GetEncoding(),
		SampleRate:  16000,
	}
	if m, err := resolved.GetString(internal_transformer.OptionSTTModel); err == nil {
		tOptions.Model = m
	}
	if l, err := resolved.GetString(internal_transformer.OptionLanguage); err == nil {
		tOptions.Language = l
	}
	if p, err := resolved.GetBool(internal_transformer.OptionPunctuate); err == nil {
		tOptions.Punctuate = p
	}
	if d, err := resolved.GetBool(internal_transformer.OptionDiarization); err == nil {
		tOptions.Diarize = d
	}
	if kw, err := resolved.GetString(internal_transformer.OptionKeywords); err == nil {
		tOptions.Keywords = strings.Split(kw, commons.SEPARATOR)
	}

	client := listen.NewREST(dg.GetKey(), &interfaces.ClientOptions{})
	api := listenv1rest.New(client)

	res, err := api.FromStream(ctx, bytes.NewReader(audio), tOptions)
	if err != nil {
		return "", internal_transformer.NewProviderError(dg.Name(), internal_transformer.StageSpeechToText, err)
	}
	if len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return "", internal_transformer.NewProviderError(dg.Name(), internal_transformer.StageSpeechToText,
			fmt.Errorf("empty transcription result"))
	}
	return res.Results.Channels[0].Alternatives[0].Transcript, nil
}

// liveResult is the subset of the live-transcription message we consume.
type liveResult struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// Stream sends audio to the live endpoint and relays interim and final
// transcripts through onResult. The connection closes when the reader is
// drained or the context ends; a transport error surfaces via onError.
func (dg *deepgramSpeechToText) Stream(ctx context.Context, audio io.Reader, onResult func(text string, isFinal bool), onError func(err error)) error {
	defer dg.Track()()

	header := http.Header{"Authorization": {"Token " + dg.GetKey()}}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, dg.GetSpeechToTextConnectionString(nil), header)
	if err != nil {
		return internal_transformer.NewProviderError(dg.Name(), internal_transformer.StageSpeechToText, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					onError(internal_transformer.NewProviderError(dg.Name(), internal_transformer.StageSpeechToText, err))
				}
				return
			}
			var result liveResult
			if err := json.Unmarshal(message, &result); err != nil {
				dg.logger.Errorf("deepgram: unparseable live message: %v", err)
				continue
			}
			if result.Type != "Results" || len(result.Channel.Alternatives) == 0 {
				continue
			}
			text := result.Channel.Alternatives[0].Transcript
			if text == "" && !result.IsFinal {
				continue
			}
			onResult(text, result.IsFinal)
			if result.IsFinal {
				return
			}
		}
	}()

	buf := make([]byte, 4096)
	for {
		n, err := audio.Read(buf)
		if n > 0 {
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				conn.Close()
				return internal_transformer.NewProviderError(dg.Name(), internal_transformer.StageSpeechToText, werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			conn.Close()
			return internal_transformer.NewProviderError(dg.Name(), internal_transformer.StageSpeechToText, err)
		}
	}

	// CloseStream asks the endpoint to flush the final result.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		dg.logger.Warnf("deepgram: close-stream write failed: %v", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
	conn.Close()
	return nil
}

// Verify issues a minimal authenticated request so a bad key is caught
// by the health probe instead of the first live call.
func (dg *deepgramSpeechToText) Verify(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.deepgram.com/v1/auth/token", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token "+dg.GetKey())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return internal_transformer.NewProviderError(dg.Name(), internal_transformer.StageSpeechToText, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return internal_transformer.NewProviderError(dg.Name(), internal_transformer.StageSpeechToText,
			fmt.Errorf("credential probe returned %d", resp.StatusCode))
	}
	return nil
}
