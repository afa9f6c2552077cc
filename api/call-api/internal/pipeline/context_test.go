// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
)

func TestContextWindowTrimKeepsNewestMessages(t *testing.T) {
	window := newContextWindow(&mockLogger{}, 40)

	long := strings.Repeat("word ", 50)
	messages := []internal_transformer.Message{
		{Role: internal_transformer.RoleUser, Content: long},
		{Role: internal_transformer.RoleAssistant, Content: long},
		{Role: internal_transformer.RoleUser, Content: "short question"},
	}

	trimmed := window.Trim(messages)
	require.NotEmpty(t, trimmed)
	assert.Less(t, len(trimmed), len(messages))
	assert.Equal(t, "short question", trimmed[len(trimmed)-1].Content)
}

func TestContextWindowTrimKeepsCurrentUtterance(t *testing.T) {
	window := newContextWindow(&mockLogger{}, 5)

	messages := []internal_transformer.Message{
		{Role: internal_transformer.RoleUser, Content: strings.Repeat("oversized utterance ", 20)},
	}

	trimmed := window.Trim(messages)
	require.Len(t, trimmed, 1)
}

func TestContextWindowNoTrimWithinBudget(t *testing.T) {
	window := newContextWindow(&mockLogger{}, DefaultTokenBudget)

	messages := []internal_transformer.Message{
		{Role: internal_transformer.RoleUser, Content: "hello"},
		{Role: internal_transformer.RoleAssistant, Content: "hi there"},
	}

	assert.Len(t, window.Trim(messages), 2)
}
