// Package signal cancels the root context on SIGINT/SIGTERM and lets
// short critical sections (store migrations) defer that cancellation.
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	mu            sync.Mutex
	blockCount    int
	pendingCancel context.CancelFunc
)

// WithSignalCancel returns a context that is cancelled when SIGINT or SIGTERM is received.
// The returned cancel function should be called to release the signal handler.
func WithSignalCancel(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			mu.Lock()
			if blockCount > 0 {
				pendingCancel = cancel
				mu.Unlock()
				return
			}
			mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// BlockSignals holds back signal-driven cancellation until UnblockSignals.
// Calls nest.
func BlockSignals() {
	mu.Lock()
	defer mu.Unlock()
	blockCount++
}

// UnblockSignals releases one BlockSignals. When the last one is released,
// a cancellation that arrived in the meantime is applied.
func UnblockSignals() {
	mu.Lock()
	defer mu.Unlock()
	if blockCount > 0 {
		blockCount--
	}
	if blockCount == 0 && pendingCancel != nil {
		pendingCancel()
		pendingCancel = nil
	}
}
