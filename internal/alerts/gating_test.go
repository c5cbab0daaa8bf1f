package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// stubCounter returns a fixed count for the daily-cap check
type stubCounter struct {
	count    int
	err      error
	recorded int
}

func (s *stubCounter) CountForDay(_ context.Context, _ string, _ time.Time) (int, error) {
	return s.count, s.err
}

func (s *stubCounter) Record(_ context.Context, _ string, _ time.Time) error {
	s.recorded++
	return nil
}

func newTestEngine(counter TriggerCounter) *Engine {
	if counter == nil {
		counter = NewMemoryCounter()
	}
	return NewEngine(counter, zerolog.Nop())
}

func activeAlert() *Alert {
	return &Alert{
		ID:     "alert-1",
		Symbol: "AAPL",
		Type:   TypeThreshold,
		Status: StatusActive,
	}
}

func TestGate_Status(t *testing.T) {
	e := newTestEngine(nil)
	now := time.Now().UTC()

	for _, status := range []AlertStatus{StatusSnoozed, StatusDismissed, StatusExpired, StatusDisabled, StatusTriggered} {
		a := activeAlert()
		a.Status = status
		if g := e.gate(context.Background(), a, now); g.Allowed {
			t.Errorf("status %s should block evaluation", status)
		}
	}

	if g := e.gate(context.Background(), activeAlert(), now); !g.Allowed {
		t.Errorf("active alert should evaluate, blocked by %q", g.Blocked)
	}
}

func TestGate_Expiry(t *testing.T) {
	e := newTestEngine(nil)
	now := time.Now().UTC()

	a := activeAlert()
	past := now.Add(-time.Hour)
	a.ExpiresAt = &past
	if g := e.gate(context.Background(), a, now); g.Allowed {
		t.Error("expired alert should not evaluate")
	}

	future := now.Add(time.Hour)
	a.ExpiresAt = &future
	if g := e.gate(context.Background(), a, now); !g.Allowed {
		t.Errorf("unexpired alert should evaluate, blocked by %q", g.Blocked)
	}
}

func TestInQuietHours_WrapsMidnight(t *testing.T) {
	q := QuietHours{Enabled: true, Start: "22:00", End: "08:00"}

	tests := []struct {
		clock string
		want  bool
	}{
		{"23:30", true},
		{"03:00", true},
		{"12:00", false},
		{"22:00", true},
		{"08:00", true},
		{"08:01", false},
	}

	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			now, err := time.Parse("2006-01-02 15:04", "2025-06-02 "+tt.clock)
			if err != nil {
				t.Fatalf("parse time: %v", err)
			}
			if got := inQuietHours(q, now.UTC()); got != tt.want {
				t.Errorf("inQuietHours at %s = %v, want %v", tt.clock, got, tt.want)
			}
		})
	}
}

func TestInQuietHours_SameDayWindow(t *testing.T) {
	q := QuietHours{Enabled: true, Start: "09:00", End: "17:00"}

	inside := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	outside := time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)

	if !inQuietHours(q, inside) {
		t.Error("12:00 should be inside a 09:00-17:00 window")
	}
	if inQuietHours(q, outside) {
		t.Error("18:00 should be outside a 09:00-17:00 window")
	}
}

func TestInQuietHours_WeekdaySet(t *testing.T) {
	// 2025-06-02 is a Monday.
	monday := time.Date(2025, 6, 2, 23, 0, 0, 0, time.UTC)
	tuesday := monday.Add(24 * time.Hour)

	q := QuietHours{
		Enabled:  true,
		Start:    "22:00",
		End:      "08:00",
		Weekdays: []time.Weekday{time.Monday},
	}

	if !inQuietHours(q, monday) {
		t.Error("quiet hours should apply on a configured weekday")
	}
	if inQuietHours(q, tuesday) {
		t.Error("quiet hours should not apply on an unconfigured weekday")
	}
}

func TestInQuietHours_DisabledAndMalformed(t *testing.T) {
	now := time.Date(2025, 6, 2, 23, 0, 0, 0, time.UTC)

	if inQuietHours(QuietHours{Enabled: false, Start: "22:00", End: "08:00"}, now) {
		t.Error("disabled quiet hours should never be inside")
	}
	if inQuietHours(QuietHours{Enabled: true, Start: "25:00", End: "08:00"}, now) {
		t.Error("malformed start time should disable the window")
	}
	if inQuietHours(QuietHours{Enabled: true, Start: "22:00", End: "bogus"}, now) {
		t.Error("malformed end time should disable the window")
	}
}

func TestGate_Cooldown(t *testing.T) {
	e := newTestEngine(nil)
	now := time.Now().UTC()

	a := activeAlert()
	a.Frequency.CooldownMinutes = 60

	last := now.Add(-59 * time.Minute)
	a.LastTriggeredAt = &last
	if g := e.gate(context.Background(), a, now); g.Allowed {
		t.Error("59 minutes into a 60 minute cooldown should block")
	}

	last = now.Add(-61 * time.Minute)
	a.LastTriggeredAt = &last
	if g := e.gate(context.Background(), a, now); !g.Allowed {
		t.Errorf("61 minutes into a 60 minute cooldown should allow, blocked by %q", g.Blocked)
	}

	// Never triggered: cooldown does not apply.
	a.LastTriggeredAt = nil
	if g := e.gate(context.Background(), a, now); !g.Allowed {
		t.Errorf("alert without prior trigger should pass cooldown, blocked by %q", g.Blocked)
	}
}

func TestGate_DailyCap(t *testing.T) {
	now := time.Now().UTC()

	a := activeAlert()
	a.Frequency.MaxPerDay = 3

	e := newTestEngine(&stubCounter{count: 3})
	if g := e.gate(context.Background(), a, now); g.Allowed {
		t.Error("alert at its daily cap should not evaluate")
	}

	e = newTestEngine(&stubCounter{count: 2})
	if g := e.gate(context.Background(), a, now); !g.Allowed {
		t.Errorf("alert under its daily cap should evaluate, blocked by %q", g.Blocked)
	}
}

func TestGate_CheckOrder(t *testing.T) {
	// A snoozed alert inside quiet hours must report the status block;
	// checks short-circuit in order.
	e := newTestEngine(nil)

	a := activeAlert()
	a.Status = StatusSnoozed
	a.QuietHours = QuietHours{Enabled: true, Start: "00:00", End: "23:59"}

	g := e.gate(context.Background(), a, time.Now().UTC())
	if g.Allowed {
		t.Fatal("snoozed alert should be blocked")
	}
	if g.Blocked != "status snoozed" {
		t.Errorf("expected status block to short-circuit first, got %q", g.Blocked)
	}
}
