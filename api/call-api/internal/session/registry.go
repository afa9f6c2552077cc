// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/connectors"
)

// ErrCallNotRegistered is returned when a provider call id has no known
// session. Webhook handlers treat this as "unknown call" and ignore the
// callback.
var ErrCallNotRegistered = errors.New("call session: provider call id not registered")

// registryKeyTTL bounds how long a call id mapping can outlive the call.
// Status callbacks arrive within minutes of call end; a day is generous.
const registryKeyTTL = 24 * time.Hour

// Registry maps a telephony provider's call id (Twilio CallSid, Vonage
// call UUID) to a sessionId so asynchronous webhooks can resolve the
// session they belong to.
type Registry interface {
	Register(ctx context.Context, provider, callID, sessionID string) error
	Resolve(ctx context.Context, provider, callID string) (string, error)
	Unregister(ctx context.Context, provider, callID string) error
}

type redisRegistry struct {
	redis  connectors.RedisConnector
	logger commons.Logger
}

// NewRegistry creates a redis backed call id registry.
func NewRegistry(redis connectors.RedisConnector, logger commons.Logger) Registry {
	return &redisRegistry{
		redis:  redis,
		logger: logger,
	}
}

func registryKey(provider, callID string) string {
	return fmt.Sprintf("call-api:call:%s:%s", provider, callID)
}

func (r *redisRegistry) Register(ctx context.Context, provider, callID, sessionID string) error {
	key := registryKey(provider, callID)
	if err := r.redis.Client().Set(ctx, key, sessionID, registryKeyTTL).Err(); err != nil {
		return fmt.Errorf("failed to register call %s/%s: %w", provider, callID, err)
	}

	r.logger.Debugf("registered call: provider=%s, callId=%s, sessionId=%s", provider, callID, sessionID)
	return nil
}

func (r *redisRegistry) Resolve(ctx context.Context, provider, callID string) (string, error) {
	key := registryKey(provider, callID)
	sessionID, err := r.redis.Client().Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCallNotRegistered
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve call %s/%s: %w", provider, callID, err)
	}
	return sessionID, nil
}

func (r *redisRegistry) Unregister(ctx context.Context, provider, callID string) error {
	key := registryKey(provider, callID)
	if err := r.redis.Client().Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to unregister call %s/%s: %w", provider, callID, err)
	}
	return nil
}
