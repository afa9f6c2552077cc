// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_pipeline

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	internal_transformer "github.com/vocalisai/api/call-api/internal/transformer"
	"github.com/vocalisai/pkg/commons"
)

// DefaultTokenBudget bounds how much conversation history is replayed to
// the generator each turn. Long calls would otherwise grow the request
// without bound.
const DefaultTokenBudget = 3000

// contextWindow trims conversation history to a token budget. Token
// counts come from tiktoken's cl100k_base encoding; if the encoding
// cannot be loaded the window falls back to a bytes/4 estimate, which is
// close enough for trimming purposes.
type contextWindow struct {
	logger commons.Logger
	budget int

	once    sync.Once
	encoder *tiktoken.Tiktoken
}

func newContextWindow(logger commons.Logger, budget int) *contextWindow {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	return &contextWindow{logger: logger, budget: budget}
}

func (w *contextWindow) countTokens(text string) int {
	w.once.Do(func() {
		encoder, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			w.logger.Warnf("pipeline: tiktoken encoding unavailable, estimating token counts: %v", err)
			return
		}
		w.encoder = encoder
	})

	if w.encoder == nil {
		return (len(text) + 3) / 4
	}
	return len(w.encoder.Encode(text, nil, nil))
}

// Trim drops the oldest messages until the remainder fits the budget.
// The most recent message (the caller's current utterance) is always
// kept, even if it alone exceeds the budget.
func (w *contextWindow) Trim(messages []internal_transformer.Message) []internal_transformer.Message {
	if len(messages) == 0 {
		return messages
	}

	total := 0
	start := len(messages)
	for i := len(messages) - 1; i >= 0; i-- {
		tokens := w.countTokens(messages[i].Content)
		if total+tokens > w.budget && start < len(messages) {
			break
		}
		total += tokens
		start = i
	}

	if start > 0 {
		w.logger.Debugf("pipeline: trimmed %d oldest messages to fit %d token budget", start, w.budget)
	}
	return messages[start:]
}
