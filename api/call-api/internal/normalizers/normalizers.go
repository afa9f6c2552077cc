// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_normalizers

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	ntw "moul.io/number-to-words"

	"github.com/vocalisai/pkg/commons"
)

// Normalizer transforms reply text for better speech synthesis. Each
// implementation handles one concern; they compose in order.
type Normalizer interface {
	Name() string
	Normalize(ctx context.Context, text string) string
}

// Apply runs the pipeline left to right.
func Apply(ctx context.Context, normalizers []Normalizer, text string) string {
	for _, n := range normalizers {
		text = n.Normalize(ctx, text)
	}
	return text
}

// BuildPipeline resolves normalizer names into a pipeline, skipping
// anything unknown.
func BuildPipeline(logger commons.Logger, names []string) []Normalizer {
	normalizers := make([]Normalizer, 0, len(names))
	for _, name := range names {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "number", "number-to-word":
			normalizers = append(normalizers, NewNumberToWordNormalizer(logger))
		case "symbol":
			normalizers = append(normalizers, NewSymbolNormalizer(logger))
		default:
			logger.Warnf("normalizer: unknown normalizer '%s', skipping", name)
		}
	}
	return normalizers
}

var integerPattern = regexp.MustCompile(`\b\d+\b`)

type numberToWordNormalizer struct {
	logger commons.Logger
}

// NewNumberToWordNormalizer spells out standalone integers so the TTS
// voice reads "forty-two" instead of spelling digits.
func NewNumberToWordNormalizer(logger commons.Logger) Normalizer {
	return &numberToWordNormalizer{logger: logger}
}

func (n *numberToWordNormalizer) Name() string {
	return "number-to-word"
}

func (n *numberToWordNormalizer) Normalize(ctx context.Context, text string) string {
	return integerPattern.ReplaceAllStringFunc(text, func(match string) string {
		// Long digit runs are ids or phone numbers; spelling them out as a
		// single quantity would be wrong, leave them to the voice engine.
		if len(match) > 6 {
			return match
		}
		v, err := strconv.Atoi(match)
		if err != nil {
			return match
		}
		return ntw.IntegerToEnUs(v)
	})
}

var symbolReplacer = strings.NewReplacer(
	"%", " percent",
	"&", " and ",
	"+", " plus ",
	"@", " at ",
)

type symbolNormalizer struct {
	logger commons.Logger
}

// NewSymbolNormalizer replaces symbols the voice engines read poorly.
func NewSymbolNormalizer(logger commons.Logger) Normalizer {
	return &symbolNormalizer{logger: logger}
}

func (s *symbolNormalizer) Name() string {
	return "symbol"
}

func (s *symbolNormalizer) Normalize(ctx context.Context, text string) string {
	text = symbolReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}
