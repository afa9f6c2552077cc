// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAnalyticsRecordTurnLatency(t *testing.T) {
	tests := []struct {
		name      string
		latencies []float64
		wantAvg   float64
		wantCount int
	}{
		{
			name:      "single turn",
			latencies: []float64{150},
			wantAvg:   150,
			wantCount: 1,
		},
		{
			name:      "three turns averaged incrementally",
			latencies: []float64{100, 200, 300},
			wantAvg:   200,
			wantCount: 3,
		},
		{
			name:      "uneven latencies",
			latencies: []float64{80, 90, 250, 100},
			wantAvg:   130,
			wantCount: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Analytics
			for _, l := range tt.latencies {
				a.RecordTurnLatency(l)
			}
			assert.InDelta(t, tt.wantAvg, a.AvgTurnLatencyMs, 0.001)
			assert.Equal(t, tt.wantCount, a.TurnCount)
		})
	}
}

func TestGenerationTarget(t *testing.T) {
	tests := []struct {
		name    string
		session CallSession
		want    GenerationTarget
	}{
		{
			name:    "workflow wins over assistant",
			session: CallSession{WorkflowID: "wf-1", AssistantID: "as-1"},
			want:    TargetWorkflow,
		},
		{
			name:    "assistant wins over squad",
			session: CallSession{AssistantID: "as-1", SquadID: "sq-1"},
			want:    TargetAssistant,
		},
		{
			name:    "squad alone",
			session: CallSession{SquadID: "sq-1"},
			want:    TargetSquad,
		},
		{
			name:    "no target",
			session: CallSession{},
			want:    TargetNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.session.GenerationTarget())
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, (&CallSession{Status: StatusRinging}).IsTerminal())
	assert.False(t, (&CallSession{Status: StatusInProgress}).IsTerminal())
	assert.True(t, (&CallSession{Status: StatusCompleted}).IsTerminal())
	assert.True(t, (&CallSession{Status: StatusFailed}).IsTerminal())
}

func TestAppendTranscriptPreservesOrder(t *testing.T) {
	cs := &CallSession{}
	cs.AppendTranscript(TranscriptEntry{Speaker: SpeakerUser, Text: "hello", Timestamp: time.Now()})
	cs.AppendTranscript(TranscriptEntry{Speaker: SpeakerAssistant, Text: "hi there", Timestamp: time.Now()})
	cs.AppendTranscript(TranscriptEntry{Speaker: SpeakerUser, Text: "bye", Timestamp: time.Now()})

	assert.Len(t, cs.Transcript, 3)
	assert.Equal(t, "hello", cs.Transcript[0].Text)
	assert.Equal(t, "hi there", cs.Transcript[1].Text)
	assert.Equal(t, "bye", cs.Transcript[2].Text)
}
