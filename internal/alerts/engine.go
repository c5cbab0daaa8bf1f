package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/watchdesk/stock-alerts-backend/internal/pricehistory"
)

// Input carries everything one evaluation tick knows about a symbol.
// Observation may be nil for news-only ticks; History is the rolling
// window backing the statistical anomaly signal.
type Input struct {
	Observation *MarketObservation
	News        *NewsContext
	NewsItems   []NewsItem
	History     []pricehistory.PricePoint
}

// Engine evaluates alerts against incoming observations. The evaluator
// paths are pure; the engine adds gating, trigger bookkeeping and the
// daily-count recording around them.
type Engine struct {
	counter TriggerCounter
	logger  zerolog.Logger
}

// NewEngine creates an alert evaluation engine
func NewEngine(counter TriggerCounter, logger zerolog.Logger) *Engine {
	return &Engine{
		counter: counter,
		logger:  logger.With().Str("component", "alert-engine").Logger(),
	}
}

// Evaluate runs one alert against the tick's input and returns a
// trigger event when it fires, nil otherwise. Exactly one evaluation
// path is taken per alert type. On a trigger the alert's bookkeeping
// (LastTriggeredAt, TriggeredCount) is mutated in place; persisting it
// is the caller's job.
func (e *Engine) Evaluate(ctx context.Context, a *Alert, in Input) (*TriggerEvent, error) {
	now := evalTime(in)

	if g := e.gate(ctx, a, now); !g.Allowed {
		e.logger.Debug().
			Str("alert_id", a.ID).
			Str("symbol", a.Symbol).
			Str("blocked", g.Blocked).
			Msg("alert gated")
		return nil, nil
	}

	var event *TriggerEvent

	switch a.Type {
	case TypeThreshold, TypeMultiCondition:
		if in.Observation == nil {
			return nil, nil
		}
		result := EvaluateGroups(a.ConditionGroups, in.Observation, in.News)
		if result.Triggered {
			event = e.newEvent(a, in, now, result.Reason, result.ConditionsMet)
		}

	case TypeNewsTriggered:
		fired, avg := NewsTriggered(in.NewsItems)
		if fired {
			reason := fmt.Sprintf("negative news sentiment %.2f across %d articles", avg, len(in.NewsItems))
			event = e.newEvent(a, in, now, reason, nil)
			count := len(in.NewsItems)
			event.NewsCount = &count
			event.NewsSentiment = &avg
		}

	case TypeAnomaly:
		if in.Observation == nil {
			return nil, nil
		}
		cfg := DefaultAnomalyConfig()
		if a.Anomaly != nil {
			cfg = *a.Anomaly
		}
		result := DetectAnomaly(cfg, in.Observation, in.News, in.History)
		if result.ExplainedByNews {
			e.logger.Debug().
				Str("alert_id", a.ID).
				Str("symbol", a.Symbol).
				Float64("price_change_pct", result.PriceChangePercent).
				Msg("anomaly explained by news, trigger suppressed")
			return nil, nil
		}
		if result.Triggerable {
			event = e.newEvent(a, in, now, result.Reason(), result.Signals)
		}

	default:
		return nil, fmt.Errorf("unknown alert type %q", a.Type)
	}

	if event == nil {
		return nil, nil
	}

	a.LastTriggeredAt = &event.TriggeredAt
	a.TriggeredCount++

	if err := e.counter.Record(ctx, a.ID, event.TriggeredAt); err != nil {
		e.logger.Error().Err(err).Str("alert_id", a.ID).Msg("failed to record daily trigger count")
	}

	e.logger.Info().
		Str("alert_id", a.ID).
		Str("symbol", a.Symbol).
		Str("type", string(a.Type)).
		Str("reason", event.Reason).
		Msg("alert triggered")

	return event, nil
}

// newEvent builds the immutable trigger record with the price/volume
// snapshot and optional news context at trigger time
func (e *Engine) newEvent(a *Alert, in Input, now time.Time, reason string, met []string) *TriggerEvent {
	ev := &TriggerEvent{
		ID:            uuid.New().String(),
		AlertID:       a.ID,
		Symbol:        a.Symbol,
		TriggeredAt:   now,
		Reason:        reason,
		ConditionsMet: met,
		UserAction:    ActionPending,
	}

	if in.Observation != nil {
		ev.Price = in.Observation.Price
		ev.Volume = in.Observation.Volume
	}
	if in.News != nil && in.News.ArticleCount > 0 {
		count := in.News.ArticleCount
		sentiment := in.News.AvgSentiment
		ev.NewsCount = &count
		ev.NewsSentiment = &sentiment
	}

	return ev
}

// evalTime anchors the evaluation to the observation timestamp when one
// is supplied, so gating decisions follow the data rather than wall
// clock skew.
func evalTime(in Input) time.Time {
	if in.Observation != nil && !in.Observation.ObservedAt.IsZero() {
		return in.Observation.ObservedAt
	}
	return time.Now().UTC()
}
