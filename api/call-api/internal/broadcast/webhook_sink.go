// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/vocalisai/api/call-api/config"
	"github.com/vocalisai/pkg/commons"
)

// Integration auth schemes.
const (
	AuthTypeBearer = "bearer"
	AuthTypeBasic  = "basic"
	AuthTypeNone   = "none"
)

// webhookSink POSTs each event as JSON to one integration endpoint
// (Zapier, Make, n8n, custom). Auth comes from the integration config;
// delivery failures surface to the broadcaster, which logs and moves on.
type webhookSink struct {
	sink   config.IntegrationSink
	client *resty.Client
	logger commons.Logger
}

// NewWebhookSink builds a sink for one configured integration.
func NewWebhookSink(sink config.IntegrationSink, logger commons.Logger) Sink {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")

	switch sink.AuthType {
	case AuthTypeBearer:
		client.SetAuthToken(sink.AuthKey)
	case AuthTypeBasic:
		client.SetBasicAuth(sink.AuthUser, sink.AuthKey)
	}

	return &webhookSink{
		sink:   sink,
		client: client,
		logger: logger,
	}
}

func (w *webhookSink) Id() string {
	return w.sink.Id
}

func (w *webhookSink) Deliver(ctx context.Context, event Event) error {
	request := w.client.R().
		SetContext(ctx).
		SetBody(event)

	// Signed payloads let the receiver verify origin with the shared
	// integration secret. resty serializes the struct body the same way.
	if w.sink.Secret != "" {
		body, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.Event, err)
		}
		request.SetBody(body)
		request.SetHeader("Content-Type", "application/json")
		request.SetHeader(SignatureHeader, Sign(body, w.sink.Secret))
	}

	resp, err := request.Post(w.sink.Url)
	if err != nil {
		return fmt.Errorf("failed to deliver %s to %s: %w", event.Event, w.sink.Url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to deliver %s to %s: status %d", event.Event, w.sink.Url, resp.StatusCode())
	}

	w.logger.Debugf("delivered webhook event: integration=%s, event=%s, status=%d",
		w.sink.Id, event.Event, resp.StatusCode())
	return nil
}
