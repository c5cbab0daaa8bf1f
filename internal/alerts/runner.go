package alerts

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
)

// Runner fans one tick's (alert, input) evaluations across a bounded
// pool of workers. Evaluations are independent and unordered; a failure
// or panic in one alert never aborts the others.
type Runner struct {
	workers int
	engine  *Engine
	logger  zerolog.Logger
}

// NewRunner creates an evaluation runner with the given parallelism
func NewRunner(engine *Engine, workers int, logger zerolog.Logger) *Runner {
	if workers <= 0 {
		workers = 4
	}
	return &Runner{
		workers: workers,
		engine:  engine,
		logger:  logger.With().Str("component", "runner").Logger(),
	}
}

// Run evaluates every alert against the input and collects the trigger
// events. The order of the returned events is unspecified.
func (r *Runner) Run(ctx context.Context, alerts []*Alert, in Input) []*TriggerEvent {
	if len(alerts) == 0 {
		return nil
	}

	jobs := make(chan *Alert)
	results := make(chan *TriggerEvent, len(alerts))

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range jobs {
				r.evaluateOne(ctx, a, in, results)
			}
		}()
	}

	for _, a := range alerts {
		jobs <- a
	}
	close(jobs)
	wg.Wait()
	close(results)

	var events []*TriggerEvent
	for ev := range results {
		events = append(events, ev)
	}
	return events
}

// evaluateOne isolates a single alert's evaluation: errors are logged
// as diagnostics and panics are recovered so the rest of the tick
// proceeds.
func (r *Runner) evaluateOne(ctx context.Context, a *Alert, in Input, results chan<- *TriggerEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("alert_id", a.ID).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("recovered panic during alert evaluation")
		}
	}()

	event, err := r.engine.Evaluate(ctx, a, in)
	if err != nil {
		r.logger.Error().Err(err).Str("alert_id", a.ID).Msg("alert evaluation failed")
		return
	}
	if event != nil {
		results <- event
	}
}
