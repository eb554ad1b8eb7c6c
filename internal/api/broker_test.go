package api

import (
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	runID := "r1"
	ch := b.Subscribe(runID)

	evt := Event{Type: EventSolveProgress, Data: map[string]any{"bestCost": 12.0}}
	b.Publish(runID, evt)

	select {
	case got := <-ch:
		if got.Type != evt.Type {
			t.Fatalf("got type %s, want %s", got.Type, evt.Type)
		}
		if got.Data["bestCost"].(float64) != 12.0 {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe(runID, ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("channel should be closed after unsubscribe")
		}
	case <-time.After(50 * time.Millisecond):
		// acceptable if already drained and closed
	}
}

func TestBrokerDropsWhenSubscriberIsSlow(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("r1")

	// Fill the buffer and keep publishing; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish("r1", Event{Type: EventSolveProgress})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	b.Unsubscribe("r1", ch)
}

func TestBrokerIsolatesRuns(t *testing.T) {
	b := NewBroker()
	ch1 := b.Subscribe("r1")
	ch2 := b.Subscribe("r2")
	defer b.Unsubscribe("r1", ch1)
	defer b.Unsubscribe("r2", ch2)

	b.Publish("r1", Event{Type: EventSolveStarted})
	select {
	case <-ch2:
		t.Fatal("event leaked across runs")
	case <-time.After(50 * time.Millisecond):
	}
	select {
	case <-ch1:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("subscriber missed its own run's event")
	}
}
