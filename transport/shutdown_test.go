package transport

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestShutdownManager_TrackAndComplete(t *testing.T) {
	sm := NewShutdownManager(DefaultShutdownConfig())

	if !sm.Track() {
		t.Fatal("Track must succeed before draining")
	}
	if sm.InFlight() != 1 {
		t.Errorf("InFlight() = %d, want 1", sm.InFlight())
	}

	sm.Complete()
	if sm.InFlight() != 0 {
		t.Errorf("InFlight() = %d, want 0", sm.InFlight())
	}
}

func TestShutdownManager_RejectsWhileDraining(t *testing.T) {
	sm := NewShutdownManager(ShutdownConfig{Timeout: time.Second})

	if err := sm.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sm.IsDraining() {
		t.Error("IsDraining() = false after shutdown")
	}
	if sm.Track() {
		t.Error("Track must be rejected while draining")
	}
}

func TestShutdownManager_WaitsForInFlight(t *testing.T) {
	var completed bool
	sm := NewShutdownManager(ShutdownConfig{
		Timeout:            time.Second,
		OnShutdownComplete: func(err error) { completed = err == nil },
	})

	sm.Track()
	go func() {
		time.Sleep(100 * time.Millisecond)
		sm.Complete()
	}()

	if err := sm.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !completed {
		t.Error("OnShutdownComplete not called with nil error")
	}

	select {
	case <-sm.Done():
	default:
		t.Error("Done() channel not closed after shutdown")
	}
}

func TestShutdownManager_TimesOut(t *testing.T) {
	sm := NewShutdownManager(ShutdownConfig{Timeout: 50 * time.Millisecond})

	sm.Track() // never completed
	err := sm.Shutdown(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want context.DeadlineExceeded", err)
	}
}
