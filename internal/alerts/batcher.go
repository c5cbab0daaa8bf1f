package alerts

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FlushFunc receives the accumulated events for one key when its
// debounce window expires or the batcher is drained
type FlushFunc func(key string, events []*TriggerEvent)

// pendingBatch is the queue and timer state for one key. gen guards
// against a stale timer firing after its batch was replaced.
type pendingBatch struct {
	events []*TriggerEvent
	timer  *time.Timer
	gen    uint64
}

// Batcher coalesces trigger events per key with a trailing-edge
// debounce: every new event for a key restarts its window, so a
// continuously-firing key holds delivery until it goes quiet. At most
// one timer is live per key.
type Batcher struct {
	mu      sync.Mutex
	pending map[string]*pendingBatch
	logger  zerolog.Logger
}

// NewBatcher creates a debounce batcher
func NewBatcher(logger zerolog.Logger) *Batcher {
	return &Batcher{
		pending: make(map[string]*pendingBatch),
		logger:  logger.With().Str("component", "batcher").Logger(),
	}
}

// Add appends the event to the key's queue and re-arms its timer for
// the given window, cancelling any timer already pending for that key.
// onReady fires exactly once per flush, from the timer goroutine.
func (b *Batcher) Add(key string, event *TriggerEvent, window time.Duration, onReady FlushFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pb, ok := b.pending[key]
	if !ok {
		pb = &pendingBatch{}
		b.pending[key] = pb
	} else {
		pb.timer.Stop()
	}

	pb.events = append(pb.events, event)
	pb.gen++
	gen := pb.gen
	pb.timer = time.AfterFunc(window, func() {
		b.expire(key, gen, onReady)
	})

	b.logger.Debug().
		Str("key", key).
		Int("queued", len(pb.events)).
		Dur("window", window).
		Msg("event added to batch")
}

// expire delivers the key's queue when the firing timer is still the
// current one. A Stop that lost the race to the timer goroutine shows
// up here as a generation mismatch and is dropped.
func (b *Batcher) expire(key string, gen uint64, onReady FlushFunc) {
	b.mu.Lock()
	pb, ok := b.pending[key]
	if !ok || pb.gen != gen {
		b.mu.Unlock()
		return
	}
	events := pb.events
	delete(b.pending, key)
	b.mu.Unlock()

	b.logger.Debug().Str("key", key).Int("count", len(events)).Msg("batch window expired")
	onReady(key, events)
}

// FlushAll cancels every pending timer and synchronously delivers each
// non-empty queue, leaving the batcher with no pending state. Used for
// graceful shutdown and forced delivery.
func (b *Batcher) FlushAll(onReady FlushFunc) {
	b.mu.Lock()
	drained := b.pending
	b.pending = make(map[string]*pendingBatch)
	for _, pb := range drained {
		pb.timer.Stop()
	}
	b.mu.Unlock()

	for key, pb := range drained {
		if len(pb.events) == 0 {
			continue
		}
		b.logger.Debug().Str("key", key).Int("count", len(pb.events)).Msg("batch force-flushed")
		onReady(key, pb.events)
	}
}

// PendingKeys returns the number of keys with undelivered events
func (b *Batcher) PendingKeys() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
