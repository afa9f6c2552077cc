// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/vocalisai/pkg/commons"
)

// External lifecycle event types fanned out to integration sinks.
const (
	EventCallStarted     = "call_started"
	EventCallEnded       = "call_ended"
	EventCallFailed      = "call_failed"
	EventCallTransferred = "call_transferred"
	EventTurnCompleted   = "turn_completed"
)

// Event is the JSON body delivered to every sink.
type Event struct {
	Event         string                 `json:"event"`
	Data          map[string]interface{} `json:"data"`
	Timestamp     time.Time              `json:"timestamp"`
	IntegrationId string                 `json:"integrationId"`
}

// Sink is one delivery target. Deliver is called from the sink's own
// dispatch goroutine, one event at a time, in broadcast order.
type Sink interface {
	Id() string
	Deliver(ctx context.Context, event Event) error
}

// queueCapacity bounds each sink's backlog. A sink that cannot keep up
// loses its oldest undelivered events rather than growing without bound
// or blocking the caller; delivery is at-most-once by contract.
const queueCapacity = 256

// deliverTimeout bounds a single sink delivery.
const deliverTimeout = 15 * time.Second

// Broadcaster fans session lifecycle events out to all registered sinks.
// Dispatch is concurrent across sinks and FIFO within a sink. Failures
// are logged per sink and never propagate: broadcasting is best-effort
// and must never affect a call-processing path.
type Broadcaster struct {
	logger commons.Logger

	mu     sync.Mutex
	queues map[string]chan Event
	sinks  map[string]Sink
	wg     sync.WaitGroup
	closed bool
}

// NewBroadcaster starts a dispatch goroutine per sink.
func NewBroadcaster(logger commons.Logger, sinks ...Sink) *Broadcaster {
	b := &Broadcaster{
		logger: logger,
		queues: make(map[string]chan Event),
		sinks:  make(map[string]Sink),
	}
	for _, sink := range sinks {
		b.register(sink)
	}
	return b
}

func (b *Broadcaster) register(sink Sink) {
	queue := make(chan Event, queueCapacity)
	b.queues[sink.Id()] = queue
	b.sinks[sink.Id()] = sink

	b.wg.Add(1)
	go b.dispatch(sink, queue)
}

func (b *Broadcaster) dispatch(sink Sink, queue chan Event) {
	defer b.wg.Done()

	for event := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		if err := sink.Deliver(ctx, event); err != nil {
			b.logger.Warnf("broadcast: sink %s failed to deliver %s: %v", sink.Id(), event.Event, err)
		}
		cancel()
	}
}

// Broadcast enqueues the event for every sink and returns immediately.
// A full sink queue drops that sink's oldest event to make room.
func (b *Broadcaster) Broadcast(eventType string, data map[string]interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	now := time.Now().UTC()
	for id, queue := range b.queues {
		event := Event{
			Event:         eventType,
			Data:          data,
			Timestamp:     now,
			IntegrationId: id,
		}
		for {
			select {
			case queue <- event:
			default:
				select {
				case dropped := <-queue:
					b.logger.Warnf("broadcast: sink %s queue full, dropped %s", id, dropped.Event)
				default:
				}
				continue
			}
			break
		}
	}
}

// Close stops accepting events and waits for queued deliveries to drain.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, queue := range b.queues {
		close(queue)
	}
	b.mu.Unlock()

	b.wg.Wait()
}
