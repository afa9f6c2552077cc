// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_session

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocalisai/pkg/connectors"
)

func newTestRegistry(t *testing.T) (Registry, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	return NewRegistry(connectors.NewRedisClientConnector(client, &mockLogger{}), &mockLogger{}), mock
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	registry, mock := newTestRegistry(t)

	key := "call-api:call:twilio:CA1234"
	mock.ExpectSet(key, "session-1", registryKeyTTL).SetVal("OK")
	mock.ExpectGet(key).SetVal("session-1")

	require.NoError(t, registry.Register(context.Background(), "twilio", "CA1234", "session-1"))

	sessionID, err := registry.Resolve(context.Background(), "twilio", "CA1234")
	require.NoError(t, err)
	assert.Equal(t, "session-1", sessionID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryResolveUnknownCall(t *testing.T) {
	registry, mock := newTestRegistry(t)

	mock.ExpectGet("call-api:call:vonage:no-such-call").RedisNil()

	_, err := registry.Resolve(context.Background(), "vonage", "no-such-call")
	assert.ErrorIs(t, err, ErrCallNotRegistered)
}

func TestRegistryUnregister(t *testing.T) {
	registry, mock := newTestRegistry(t)

	mock.ExpectDel("call-api:call:twilio:CA1234").SetVal(1)

	require.NoError(t, registry.Unregister(context.Background(), "twilio", "CA1234"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
