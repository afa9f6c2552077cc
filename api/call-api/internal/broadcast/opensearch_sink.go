// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_broadcast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/connectors"
)

// EventIndex is where call lifecycle events land for analytics queries.
const EventIndex = "call-events"

// openSearchSink indexes every lifecycle event as an analytics document.
// Like every sink, failures are reported upward and swallowed there.
type openSearchSink struct {
	opensearch connectors.OpenSearchConnector
	logger     commons.Logger
}

// NewOpenSearchSink builds the analytics sink.
func NewOpenSearchSink(opensearch connectors.OpenSearchConnector, logger commons.Logger) Sink {
	return &openSearchSink{
		opensearch: opensearch,
		logger:     logger,
	}
}

func (o *openSearchSink) Id() string {
	return "opensearch-analytics"
}

func (o *openSearchSink) Deliver(ctx context.Context, event Event) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Event, err)
	}

	req := opensearchapi.IndexRequest{
		Index: EventIndex,
		Body:  bytes.NewReader(doc),
	}
	res, err := req.Do(ctx, o.opensearch.Client())
	if err != nil {
		return fmt.Errorf("failed to index event %s: %w", event.Event, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to index event %s: status %s", event.Event, res.Status())
	}

	o.logger.Debugf("indexed call event: event=%s, index=%s", event.Event, EventIndex)
	return nil
}
