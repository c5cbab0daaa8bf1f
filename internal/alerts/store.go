package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Store loads alert definitions from PostgreSQL and persists the
// bookkeeping mutations the engine makes when alerts fire
type Store struct {
	db     *pgxpool.Pool
	logger zerolog.Logger
}

// NewStore creates an alert store backed by the given pool
func NewStore(db *pgxpool.Pool, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "alert-store").Logger(),
	}
}

// LoadActive loads every active alert, keyed by symbol. Condition
// groups, anomaly config, frequency and quiet hours live in JSONB
// columns; a row whose JSON fails to decode is skipped with a
// diagnostic instead of failing the whole load.
func (s *Store) LoadActive(ctx context.Context) (map[string][]*Alert, error) {
	query := `
		SELECT id, symbol, name, type, status,
		       condition_groups, anomaly_config, frequency, quiet_hours,
		       expires_at, last_triggered_at, triggered_count,
		       created_at, updated_at
		FROM alerts
		WHERE status = 'active'
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	bySymbol := make(map[string][]*Alert)
	count := 0

	for rows.Next() {
		var (
			a             Alert
			groupsJSON    []byte
			anomalyJSON   []byte
			frequencyJSON []byte
			quietJSON     []byte
		)

		if err := rows.Scan(
			&a.ID, &a.Symbol, &a.Name, &a.Type, &a.Status,
			&groupsJSON, &anomalyJSON, &frequencyJSON, &quietJSON,
			&a.ExpiresAt, &a.LastTriggeredAt, &a.TriggeredCount,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}

		if err := s.decodeConfig(&a, groupsJSON, anomalyJSON, frequencyJSON, quietJSON); err != nil {
			s.logger.Error().Err(err).Str("alert_id", a.ID).Msg("skipping alert with malformed config")
			continue
		}

		bySymbol[a.Symbol] = append(bySymbol[a.Symbol], &a)
		count++
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}

	s.logger.Info().Int("count", count).Int("symbols", len(bySymbol)).Msg("loaded active alerts")
	return bySymbol, nil
}

func (s *Store) decodeConfig(a *Alert, groups, anomaly, frequency, quiet []byte) error {
	if len(groups) > 0 {
		if err := json.Unmarshal(groups, &a.ConditionGroups); err != nil {
			return fmt.Errorf("unmarshal condition groups: %w", err)
		}
	}
	if len(anomaly) > 0 {
		a.Anomaly = &AnomalyConfig{}
		if err := json.Unmarshal(anomaly, a.Anomaly); err != nil {
			return fmt.Errorf("unmarshal anomaly config: %w", err)
		}
	}
	if len(frequency) > 0 {
		if err := json.Unmarshal(frequency, &a.Frequency); err != nil {
			return fmt.Errorf("unmarshal frequency: %w", err)
		}
	}
	if len(quiet) > 0 {
		if err := json.Unmarshal(quiet, &a.QuietHours); err != nil {
			return fmt.Errorf("unmarshal quiet hours: %w", err)
		}
	}
	return nil
}

// SaveBookkeeping persists the engine-owned mutable fields after a
// trigger: status, last trigger time and cumulative count
func (s *Store) SaveBookkeeping(ctx context.Context, a *Alert) error {
	query := `
		UPDATE alerts
		SET status = $2,
		    last_triggered_at = $3,
		    triggered_count = $4,
		    updated_at = $5
		WHERE id = $1
	`

	if _, err := s.db.Exec(ctx, query,
		a.ID, a.Status, a.LastTriggeredAt, a.TriggeredCount, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("update alert %s: %w", a.ID, err)
	}
	return nil
}
