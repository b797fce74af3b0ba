// Package eventbus decouples trigger producers (the HTTP API) from the
// notification engine. Triggers are dispatched through a buffered channel and
// processed by a worker pool.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tutorrio/icalsender/internal/engine"
)

const (
	defaultWorkers    = 3
	defaultBufferSize = 100
)

// Listener handles one trigger. Listeners run on bus workers and must not
// block indefinitely.
type Listener func(ctx context.Context, t engine.Trigger)

// Bus is the interface for publishing lifecycle triggers.
type Bus interface {
	// Publish enqueues a trigger. It never blocks: if the buffer is full,
	// the trigger is dropped and a warning is logged.
	Publish(t engine.Trigger)

	// Subscribe registers a listener invoked for every published trigger.
	// Subscribe must be called before the first Publish; behavior is
	// undefined if called after Close.
	Subscribe(listener Listener)

	// Close stops accepting new triggers and waits for pending ones to be
	// processed.
	Close()
}

type inMemoryBus struct {
	ch        chan engine.Trigger
	listeners []Listener
	mu        sync.RWMutex
	wg        sync.WaitGroup
	workers   int
	logger    *slog.Logger
}

// New creates an in-memory Bus with the specified number of worker
// goroutines. If workers is <= 0, defaultWorkers is used.
func New(workers int, logger *slog.Logger) Bus {
	if workers <= 0 {
		workers = defaultWorkers
	}
	b := &inMemoryBus{
		ch:      make(chan engine.Trigger, defaultBufferSize),
		workers: workers,
		logger:  logger.With("component", "eventbus"),
	}
	b.startWorkers()
	return b
}

func (b *inMemoryBus) startWorkers() {
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for t := range b.ch {
				b.dispatch(t)
			}
		}()
	}
}

// dispatch calls all registered listeners for the trigger, each with panic
// recovery so one bad listener cannot take a worker down.
func (b *inMemoryBus) dispatch(t engine.Trigger) {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	ctx := context.Background()
	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("listener panicked",
						"trigger", t.Kind, "panic", r)
				}
			}()
			l(ctx, t)
		}()
	}
}

func (b *inMemoryBus) Publish(t engine.Trigger) {
	select {
	case b.ch <- t:
	default:
		b.logger.Warn("buffer full, dropping trigger", "trigger", t.Kind)
	}
}

func (b *inMemoryBus) Subscribe(listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener)
}

// Close drains and closes the trigger channel, then waits for all workers to
// finish.
func (b *inMemoryBus) Close() {
	close(b.ch)
	b.wg.Wait()
}
