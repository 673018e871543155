// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

// Package eventbus is a concurrency-safe publish/subscribe bus. The
// orchestrator emits one event per completed scenario so the CLI progress
// bar, the webhook notifier and the audit store can observe a run without
// coupling to each other.
package eventbus

import (
	"sync"
)

// Topics emitted during an audit run.
const (
	TopicRunStarted      = "run.started"
	TopicScenarioResult  = "run.scenario_result"
	TopicRunFinished     = "run.finished"
	TopicInfraCheck      = "run.infra_check"
	TopicSnapshotsTaken  = "run.snapshots"
	TopicScenarioStarted = "run.scenario_started"
)

// HandlerID identifies a registered listener; pass it to Unsubscribe.
type HandlerID uint64

// Handler receives an event payload.
type Handler func(payload any)

// EventBus is safe for concurrent Emit, Subscribe and Unsubscribe.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string]map[HandlerID]Handler
	nextID   HandlerID
}

// New returns a ready-to-use EventBus.
func New() *EventBus {
	return &EventBus{
		handlers: make(map[string]map[HandlerID]Handler),
	}
}

// Subscribe registers handler for the topic and returns its id.
func (b *EventBus) Subscribe(topic string, handler Handler) HandlerID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID

	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[HandlerID]Handler)
	}
	b.handlers[topic][id] = handler

	return id
}

// Unsubscribe removes the listener identified by id from the topic. Safe
// to call from within a handler or concurrently with Emit.
func (b *EventBus) Unsubscribe(topic string, id HandlerID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if listeners, ok := b.handlers[topic]; ok {
		delete(listeners, id)
		if len(listeners) == 0 {
			delete(b.handlers, topic)
		}
	}
}

// Emit delivers payload to every handler subscribed to topic. Handler
// references are copied out under the lock, then invoked without it, so a
// handler may itself subscribe or unsubscribe.
func (b *EventBus) Emit(topic string, payload any) {
	b.mu.RLock()
	listeners := b.handlers[topic]
	snapshot := make([]Handler, 0, len(listeners))
	for _, h := range listeners {
		snapshot = append(snapshot, h)
	}
	b.mu.RUnlock()

	for _, h := range snapshot {
		h(payload)
	}
}

// Topics returns the topics with at least one subscriber.
func (b *EventBus) Topics() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	topics := make([]string, 0, len(b.handlers))
	for t := range b.handlers {
		topics = append(topics, t)
	}
	return topics
}

// SubscriberCount returns the number of active subscribers for a topic.
func (b *EventBus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic])
}
