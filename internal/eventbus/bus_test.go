package eventbus_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorrio/icalsender/internal/engine"
	"github.com/tutorrio/icalsender/internal/eventbus"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishAndReceive(t *testing.T) {
	bus := eventbus.New(2, discardLogger())
	defer bus.Close()

	var mu sync.Mutex
	var received []engine.Trigger

	bus.Subscribe(func(_ context.Context, trig engine.Trigger) {
		mu.Lock()
		received = append(received, trig)
		mu.Unlock()
	})

	bus.Publish(engine.Trigger{Kind: engine.TriggerEventCreated, EventID: "ev1"})

	// Give workers time to process
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, engine.TriggerEventCreated, received[0].Kind)
	assert.Equal(t, "ev1", received[0].EventID)
}

func TestMultipleListeners(t *testing.T) {
	bus := eventbus.New(2, discardLogger())
	defer bus.Close()

	var count int32
	for i := 0; i < 3; i++ {
		bus.Subscribe(func(_ context.Context, _ engine.Trigger) {
			atomic.AddInt32(&count, 1)
		})
	}

	bus.Publish(engine.Trigger{Kind: engine.TriggerEventUpdated})
	time.Sleep(50 * time.Millisecond)

	assert.EqualValues(t, 3, atomic.LoadInt32(&count))
}

func TestListenerPanicDoesNotCrash(t *testing.T) {
	bus := eventbus.New(1, discardLogger())
	defer bus.Close()

	var handled int32
	bus.Subscribe(func(_ context.Context, _ engine.Trigger) {
		panic("boom")
	})
	bus.Subscribe(func(_ context.Context, _ engine.Trigger) {
		atomic.AddInt32(&handled, 1)
	})

	bus.Publish(engine.Trigger{Kind: engine.TriggerEventDeleted})
	time.Sleep(50 * time.Millisecond)

	assert.EqualValues(t, 1, atomic.LoadInt32(&handled))
}

func TestCloseWaitsForPending(t *testing.T) {
	bus := eventbus.New(2, discardLogger())

	var count int32
	bus.Subscribe(func(_ context.Context, _ engine.Trigger) {
		atomic.AddInt32(&count, 1)
	})

	for i := 0; i < 10; i++ {
		bus.Publish(engine.Trigger{Kind: engine.TriggerUserJoinedCourse})
	}
	bus.Close()

	assert.EqualValues(t, 10, atomic.LoadInt32(&count))
}
