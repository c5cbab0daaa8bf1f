package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	// persistBatchSize is the queue length that forces an early flush
	persistBatchSize = 50
	// persistFlushInterval bounds how long a trigger waits in the queue
	persistFlushInterval = 5 * time.Second
)

// TriggerPersister writes trigger events to the trigger_history table
// in batches. Events queue in memory and flush on size or interval.
// Daily-cap counting does not read from this table, so a delayed flush
// never affects gating.
type TriggerPersister struct {
	db     *pgxpool.Pool
	logger zerolog.Logger
	queue  []*TriggerEvent
	mu     sync.Mutex
	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewTriggerPersister creates a persister and starts its background
// flusher
func NewTriggerPersister(db *pgxpool.Pool, logger zerolog.Logger) *TriggerPersister {
	p := &TriggerPersister{
		db:     db,
		logger: logger.With().Str("component", "trigger-persister").Logger(),
		queue:  make([]*TriggerEvent, 0, persistBatchSize),
		ticker: time.NewTicker(persistFlushInterval),
		done:   make(chan struct{}),
	}

	p.wg.Add(1)
	go p.flusher()

	return p
}

// Save queues a trigger event for batched persistence
func (p *TriggerPersister) Save(event *TriggerEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue = append(p.queue, event)
	if len(p.queue) >= persistBatchSize {
		p.flushLocked()
	}
}

func (p *TriggerPersister) flusher() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ticker.C:
			p.mu.Lock()
			p.flushLocked()
			p.mu.Unlock()

		case <-p.done:
			p.mu.Lock()
			p.flushLocked()
			p.mu.Unlock()
			return
		}
	}
}

// flushLocked writes the current queue to the database; caller holds mu
func (p *TriggerPersister) flushLocked() {
	if len(p.queue) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	events := make([]*TriggerEvent, len(p.queue))
	copy(events, p.queue)
	p.queue = p.queue[:0]

	if err := p.writeEvents(ctx, events); err != nil {
		p.logger.Error().Err(err).Int("count", len(events)).Msg("failed to persist trigger events")
		return
	}

	p.logger.Debug().Int("count", len(events)).Msg("persisted trigger events")
}

func (p *TriggerPersister) writeEvents(ctx context.Context, events []*TriggerEvent) error {
	query := `
		INSERT INTO trigger_history (
			id, alert_id, symbol, triggered_at, reason, conditions_met,
			price, volume, news_count, news_sentiment, user_action
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	batch := &pgx.Batch{}
	for _, ev := range events {
		conditionsJSON, err := json.Marshal(ev.ConditionsMet)
		if err != nil {
			p.logger.Error().Err(err).Str("event_id", ev.ID).Msg("failed to marshal conditions")
			continue
		}

		batch.Queue(query,
			ev.ID, ev.AlertID, ev.Symbol, ev.TriggeredAt, ev.Reason, conditionsJSON,
			ev.Price, ev.Volume, ev.NewsCount, ev.NewsSentiment, ev.UserAction,
		)
	}

	if batch.Len() == 0 {
		return nil
	}

	results := p.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert trigger event %d: %w", i, err)
		}
	}
	return nil
}

// Close stops the persister and flushes whatever is still queued
func (p *TriggerPersister) Close() error {
	close(p.done)
	p.ticker.Stop()
	p.wg.Wait()
	return nil
}
