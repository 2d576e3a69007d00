package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ShutdownConfig configures graceful shutdown behavior for servers that
// juggle multiple transports.
type ShutdownConfig struct {
	// Timeout is the maximum time to wait for in-flight payloads to
	// complete. Default: 30 seconds.
	Timeout time.Duration

	// DrainDelay is the time to wait before starting to drain. This lets
	// upstream routing remove the server from rotation first.
	DrainDelay time.Duration

	// OnShutdownStart is called when shutdown begins.
	OnShutdownStart func()

	// OnDrainStart is called when draining begins (after DrainDelay).
	OnDrainStart func()

	// OnShutdownComplete is called when shutdown is complete.
	OnShutdownComplete func(err error)
}

// DefaultShutdownConfig returns sensible defaults for shutdown.
func DefaultShutdownConfig() ShutdownConfig {
	return ShutdownConfig{
		Timeout: 30 * time.Second,
	}
}

// ShutdownManager coordinates graceful shutdown across connections. Each
// payload being processed is tracked so shutdown can wait for in-flight
// work before tearing transports down.
type ShutdownManager struct {
	config ShutdownConfig

	draining  atomic.Bool
	inFlight  atomic.Int64
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewShutdownManager creates a shutdown manager.
func NewShutdownManager(config ShutdownConfig) *ShutdownManager {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &ShutdownManager{
		config: config,
		doneCh: make(chan struct{}),
	}
}

// IsDraining reports whether the server is draining.
func (sm *ShutdownManager) IsDraining() bool {
	return sm.draining.Load()
}

// InFlight returns the number of payloads currently being processed.
func (sm *ShutdownManager) InFlight() int64 {
	return sm.inFlight.Load()
}

// Track registers a payload as in flight. It returns false if the server
// is draining and new work should be rejected.
func (sm *ShutdownManager) Track() bool {
	if sm.draining.Load() {
		return false
	}
	sm.inFlight.Add(1)
	return true
}

// Complete marks a tracked payload as finished.
func (sm *ShutdownManager) Complete() {
	sm.inFlight.Add(-1)
}

// Shutdown initiates graceful shutdown. It returns once all in-flight
// payloads complete or the configured timeout is reached.
func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	if sm.config.OnShutdownStart != nil {
		sm.config.OnShutdownStart()
	}

	if sm.config.DrainDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sm.config.DrainDelay):
		}
	}

	sm.draining.Store(true)
	if sm.config.OnDrainStart != nil {
		sm.config.OnDrainStart()
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, sm.config.Timeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var shutdownErr error
wait:
	for {
		select {
		case <-timeoutCtx.Done():
			if sm.inFlight.Load() > 0 {
				shutdownErr = timeoutCtx.Err()
			}
			break wait
		case <-ticker.C:
			if sm.inFlight.Load() == 0 {
				break wait
			}
		}
	}

	sm.closeOnce.Do(func() {
		close(sm.doneCh)
	})

	if sm.config.OnShutdownComplete != nil {
		sm.config.OnShutdownComplete(shutdownErr)
	}

	return shutdownErr
}

// Done returns a channel closed when shutdown has completed.
func (sm *ShutdownManager) Done() <-chan struct{} {
	return sm.doneCh
}
