package pricehistory

import (
	"sync"
	"time"
)

// PricePoint is a single observed price/volume sample for a symbol
type PricePoint struct {
	Time   time.Time `json:"time"`
	Price  float64   `json:"price"`
	Volume float64   `json:"volume"`
}

// Buffer is a fixed-size circular buffer of price points. O(1) append,
// overwrites the oldest sample when full.
type Buffer struct {
	points []PricePoint
	head   int // next insertion position
	size   int
	mu     sync.RWMutex
}

// NewBuffer creates a buffer holding up to capacity samples
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{points: make([]PricePoint, capacity)}
}

// Append adds a sample, evicting the oldest when the buffer is full
func (b *Buffer) Append(p PricePoint) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.points[b.head] = p
	b.head = (b.head + 1) % len(b.points)

	if b.size < len(b.points) {
		b.size++
	}
}

// Size returns the current number of samples
func (b *Buffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Last returns the most recent count samples in chronological order
func (b *Buffer) Last(count int) []PricePoint {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if count <= 0 || b.size == 0 {
		return nil
	}
	if count > b.size {
		count = b.size
	}

	result := make([]PricePoint, count)
	start := b.head - count
	if start < 0 {
		start += len(b.points)
	}
	for i := 0; i < count; i++ {
		result[i] = b.points[(start+i)%len(b.points)]
	}
	return result
}

// Latest returns the most recent sample, or nil when empty
func (b *Buffer) Latest() *PricePoint {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return nil
	}
	idx := b.head - 1
	if idx < 0 {
		idx = len(b.points) - 1
	}
	p := b.points[idx]
	return &p
}

// Snapshot returns every sample in chronological order
func (b *Buffer) Snapshot() []PricePoint {
	return b.Last(b.Size())
}

// Tracker maintains one buffer per symbol
type Tracker struct {
	buffers  map[string]*Buffer
	capacity int
	mu       sync.RWMutex
}

// NewTracker creates a tracker whose per-symbol buffers hold up to
// capacity samples
func NewTracker(capacity int) *Tracker {
	return &Tracker{
		buffers:  make(map[string]*Buffer),
		capacity: capacity,
	}
}

// Append records a sample for a symbol, creating its buffer on first use
func (t *Tracker) Append(symbol string, p PricePoint) {
	t.mu.Lock()
	buf, ok := t.buffers[symbol]
	if !ok {
		buf = NewBuffer(t.capacity)
		t.buffers[symbol] = buf
	}
	t.mu.Unlock()

	buf.Append(p)
}

// Symbols returns the number of symbols with recorded history
func (t *Tracker) Symbols() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.buffers)
}

// Snapshot returns the symbol's samples in chronological order, nil for
// an unknown symbol
func (t *Tracker) Snapshot(symbol string) []PricePoint {
	t.mu.RLock()
	buf, ok := t.buffers[symbol]
	t.mu.RUnlock()

	if !ok {
		return nil
	}
	return buf.Snapshot()
}
