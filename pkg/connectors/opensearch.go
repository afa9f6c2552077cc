// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package connectors

import (
	"context"
	"fmt"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/vocalisai/pkg/commons"
)

// OpenSearchConnector hands out the shared opensearch client.
type OpenSearchConnector interface {
	Client() *opensearch.Client
	Ping(ctx context.Context) error
}

type openSearchConnector struct {
	client *opensearch.Client
	logger commons.Logger
}

// NewOpenSearchConnector connects to an opensearch cluster and verifies it.
func NewOpenSearchConnector(addresses []string, username, password string, logger commons.Logger) (OpenSearchConnector, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: addresses,
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build opensearch client: %w", err)
	}

	c := &openSearchConnector{client: client, logger: logger}
	if err := c.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect opensearch %v: %w", addresses, err)
	}

	logger.Infof("connected opensearch: addresses=%v", addresses)
	return c, nil
}

func (c *openSearchConnector) Client() *opensearch.Client {
	return c.client
}

func (c *openSearchConnector) Ping(ctx context.Context) error {
	req := opensearchapi.PingRequest{}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("opensearch ping failed: %s", res.Status())
	}
	return nil
}
