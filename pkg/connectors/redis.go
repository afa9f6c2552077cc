// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package connectors

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vocalisai/pkg/commons"
)

// RedisConnector hands out the shared redis client.
type RedisConnector interface {
	Client() *redis.Client
	Ping(ctx context.Context) error
	Close() error
}

type redisConnector struct {
	client *redis.Client
	logger commons.Logger
}

// NewRedisConnector connects to redis and verifies the connection.
func NewRedisConnector(host string, port int, password string, db int, logger commons.Logger) (RedisConnector, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	c := &redisConnector{client: client, logger: logger}
	if err := c.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect redis %s:%d: %w", host, port, err)
	}

	logger.Infof("connected redis: host=%s, db=%d", host, db)
	return c, nil
}

// NewRedisClientConnector wraps an existing client. Used by tests with
// a mock client.
func NewRedisClientConnector(client *redis.Client, logger commons.Logger) RedisConnector {
	return &redisConnector{client: client, logger: logger}
}

func (c *redisConnector) Client() *redis.Client {
	return c.client
}

func (c *redisConnector) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisConnector) Close() error {
	return c.client.Close()
}
