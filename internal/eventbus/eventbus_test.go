// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSubscribeAndEmit(t *testing.T) {
	bus := New()

	var received []any
	bus.Subscribe(TopicScenarioResult, func(payload any) {
		received = append(received, payload)
	})

	bus.Emit(TopicScenarioResult, "unauthorized-admin-call")
	bus.Emit(TopicScenarioResult, 42)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0] != "unauthorized-admin-call" {
		t.Errorf("expected scenario id, got %v", received[0])
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := New()

	var count int
	id := bus.Subscribe(TopicRunFinished, func(any) { count++ })

	bus.Emit(TopicRunFinished, nil)
	if count != 1 {
		t.Fatalf("expected 1 call before unsubscribe, got %d", count)
	}

	bus.Unsubscribe(TopicRunFinished, id)
	bus.Emit(TopicRunFinished, nil)

	if count != 1 {
		t.Errorf("handler called after Unsubscribe: got %d calls total", count)
	}
}

func TestEmitNoSubscribers(t *testing.T) {
	bus := New()
	// must not panic
	bus.Emit("ghost.topic", "payload")
	bus.Unsubscribe("ghost.topic", HandlerID(999))
}

func TestTopicIsolation(t *testing.T) {
	bus := New()

	var results, infra int
	bus.Subscribe(TopicScenarioResult, func(any) { results++ })
	bus.Subscribe(TopicInfraCheck, func(any) { infra++ })

	bus.Emit(TopicScenarioResult, nil)
	bus.Emit(TopicScenarioResult, nil)
	bus.Emit(TopicInfraCheck, nil)

	if results != 2 || infra != 1 {
		t.Errorf("expected 2/1, got %d/%d", results, infra)
	}
}

// Regression test: concurrent map write when Unsubscribe races Emit.
// Run with -race.
func TestConcurrentEmitAndUnsubscribe(t *testing.T) {
	bus := New()

	const goroutines = 50
	const iterations = 200

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < goroutines*iterations; i++ {
			bus.Emit(TopicScenarioResult, i)
		}
	}()

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				id := bus.Subscribe(TopicScenarioResult, func(any) {})
				bus.Unsubscribe(TopicScenarioResult, id)
			}
		}()
	}

	wg.Wait()
}

func TestConcurrentMultipleEmitters(t *testing.T) {
	bus := New()

	var counter atomic.Int64
	bus.Subscribe(TopicScenarioResult, func(any) {
		counter.Add(1)
	})

	const emitters = 20
	const emitsEach = 100

	var wg sync.WaitGroup
	for i := 0; i < emitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < emitsEach; j++ {
				bus.Emit(TopicScenarioResult, nil)
			}
		}()
	}
	wg.Wait()

	if got := counter.Load(); got != emitters*emitsEach {
		t.Errorf("expected %d total handler calls, got %d", emitters*emitsEach, got)
	}
}

func TestUnsubscribeDuringEmit(t *testing.T) {
	bus := New()

	var id HandlerID
	var callCount int

	id = bus.Subscribe(TopicRunStarted, func(any) {
		callCount++
		bus.Unsubscribe(TopicRunStarted, id)
	})

	bus.Emit(TopicRunStarted, nil)
	bus.Emit(TopicRunStarted, nil)

	if callCount != 1 {
		t.Errorf("expected handler called exactly once, got %d", callCount)
	}
}
