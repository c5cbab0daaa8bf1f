package alerts

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TriggerCounter tracks how many times an alert has fired on a given
// day. The daily-cap check consults it instead of assuming zero; the
// count is backed by external state (Redis in production).
type TriggerCounter interface {
	CountForDay(ctx context.Context, alertID string, day time.Time) (int, error)
	Record(ctx context.Context, alertID string, at time.Time) error
}

// GateResult says whether an alert should be evaluated at all and, if
// not, which check blocked it.
type GateResult struct {
	Allowed bool
	Blocked string // empty when allowed
}

func blocked(reason string) GateResult { return GateResult{Blocked: reason} }

// gate runs the pre-evaluation checks in order, short-circuiting on the
// first failure: status, expiry, quiet hours, cooldown, daily cap.
// A counter error fails open: the cap check is skipped rather than
// silently suppressing the alert.
func (e *Engine) gate(ctx context.Context, a *Alert, now time.Time) GateResult {
	if a.Status != StatusActive {
		return blocked(fmt.Sprintf("status %s", a.Status))
	}

	if a.ExpiresAt != nil && now.After(*a.ExpiresAt) {
		return blocked("expired")
	}

	if inQuietHours(a.QuietHours, now) {
		return blocked("quiet hours")
	}

	if a.Frequency.CooldownMinutes > 0 && a.LastTriggeredAt != nil {
		cooldown := time.Duration(a.Frequency.CooldownMinutes) * time.Minute
		if now.Sub(*a.LastTriggeredAt) < cooldown {
			return blocked("cooldown")
		}
	}

	if a.Frequency.MaxPerDay > 0 {
		count, err := e.counter.CountForDay(ctx, a.ID, now)
		if err != nil {
			e.logger.Error().Err(err).Str("alert_id", a.ID).Msg("trigger count lookup failed")
		} else if count >= a.Frequency.MaxPerDay {
			return blocked("daily cap")
		}
	}

	return GateResult{Allowed: true}
}

// inQuietHours reports whether now falls inside the configured
// do-not-disturb window. A window whose start is after its end wraps
// midnight: inside means now >= start or now <= end. Weekday and clock
// are derived in the alert's timezone (UTC when unset). Malformed
// clock strings disable the window rather than suppressing the alert.
func inQuietHours(q QuietHours, now time.Time) bool {
	if !q.Enabled {
		return false
	}

	loc := time.UTC
	if q.Timezone != "" {
		if l, err := time.LoadLocation(q.Timezone); err == nil {
			loc = l
		}
	}
	local := now.In(loc)

	if len(q.Weekdays) > 0 {
		applies := false
		for _, d := range q.Weekdays {
			if local.Weekday() == d {
				applies = true
				break
			}
		}
		if !applies {
			return false
		}
	}

	start, err := parseClock(q.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(q.End)
	if err != nil {
		return false
	}

	minute := local.Hour()*60 + local.Minute()
	if start > end {
		return minute >= start || minute <= end
	}
	return minute >= start && minute <= end
}

// parseClock converts "HH:MM" to minutes since midnight
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}
