package alerts

import (
	"strings"
	"testing"
	"time"
)

func floatPtr(v float64) *float64 { return &v }

func testObservation() *MarketObservation {
	return &MarketObservation{
		Symbol:        "AAPL",
		Price:         115,
		PreviousClose: 100,
		Volume:        2_000_000,
		AvgVolume:     floatPtr(1_000_000),
		RSI:           floatPtr(72),
		ObservedAt:    time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC),
	}
}

func TestEvaluateCondition_Operators(t *testing.T) {
	obs := testObservation()

	tests := []struct {
		name      string
		condition Condition
		want      bool
	}{
		{"above_true", Condition{FieldPrice, OpAbove, 100}, true},
		{"above_false", Condition{FieldPrice, OpAbove, 120}, false},
		{"below_true", Condition{FieldPrice, OpBelow, 120}, true},
		{"above_eq_boundary", Condition{FieldPrice, OpAboveEq, 115}, true},
		{"below_eq_boundary", Condition{FieldPrice, OpBelowEq, 115}, true},
		{"equal_exact", Condition{FieldPrice, OpEqual, 115}, true},
		{"equal_within_tolerance", Condition{FieldPrice, OpEqual, 115.009}, true},
		{"equal_within_tolerance_negative_diff", Condition{FieldPrice, OpEqual, 114.995}, true},
		{"equal_outside_tolerance", Condition{FieldPrice, OpEqual, 115.02}, false},
		{"not_equal_within_tolerance", Condition{FieldPrice, OpNotEq, 115.005}, false},
		{"not_equal_outside_tolerance", Condition{FieldPrice, OpNotEq, 116}, true},
		{"pct_change_magnitude", Condition{FieldChangePercent, OpPctChange, 15}, true},
		{"pct_change_below_threshold", Condition{FieldChangePercent, OpPctChange, 15.1}, false},
		{"volume_ratio", Condition{FieldVolumeRatio, OpAboveEq, 2}, true},
		{"rsi_above", Condition{FieldRSI, OpAbove, 70}, true},
		{"crosses_above_never_matches", Condition{FieldPrice, OpCrossAbove, 100}, false},
		{"crosses_below_never_matches", Condition{FieldPrice, OpCrossBelow, 200}, false},
		{"unknown_operator", Condition{FieldPrice, Operator("between"), 100}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, _ := evaluateCondition(tt.condition, obs, nil)
			if matched != tt.want {
				t.Errorf("evaluateCondition(%+v) = %v, want %v", tt.condition, matched, tt.want)
			}
		})
	}
}

func TestEvaluateCondition_PctChangeNegativeMove(t *testing.T) {
	obs := testObservation()
	obs.Price = 85 // -15% from previous close

	matched, _ := evaluateCondition(Condition{FieldChangePercent, OpPctChange, 15}, obs, nil)
	if !matched {
		t.Error("pct_change should match on magnitude regardless of direction")
	}
}

func TestEvaluateCondition_MissingField(t *testing.T) {
	obs := testObservation() // no PE ratio, no market cap

	tests := []struct {
		name      string
		condition Condition
	}{
		{"missing_pe_ratio", Condition{FieldPERatio, OpAbove, 0}},
		{"missing_market_cap", Condition{FieldMarketCap, OpBelow, 1e12}},
		{"sentiment_without_news", Condition{FieldSentiment, OpBelow, 0}},
		{"unknown_field", Condition{Field("dividend_yield"), OpAbove, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, desc := evaluateCondition(tt.condition, obs, nil)
			if matched {
				t.Errorf("condition on missing field must not match, got matched with %q", desc)
			}
			if !strings.Contains(desc, "unavailable") {
				t.Errorf("description should state the field is unavailable, got %q", desc)
			}
		})
	}
}

func TestEvaluateCondition_ZeroPreviousClose(t *testing.T) {
	obs := testObservation()
	obs.PreviousClose = 0

	matched, desc := evaluateCondition(Condition{FieldChangePercent, OpAbove, -100}, obs, nil)
	if matched {
		t.Errorf("change_percent with zero previous close must be unresolvable, got matched with %q", desc)
	}
}

func TestEvaluateCondition_NilObservation(t *testing.T) {
	matched, _ := evaluateCondition(Condition{FieldPrice, OpAbove, 0}, nil, nil)
	if matched {
		t.Error("condition with nil observation must not match")
	}
}

func TestEvaluateCondition_SentimentField(t *testing.T) {
	news := &NewsContext{ArticleCount: 3, AvgSentiment: -0.5}

	matched, _ := evaluateCondition(Condition{FieldSentiment, OpBelow, -0.3}, testObservation(), news)
	if !matched {
		t.Error("sentiment condition should resolve from news context")
	}
}

func TestEvaluateGroups_AndLogic(t *testing.T) {
	obs := testObservation()

	groups := []ConditionGroup{{
		Logic: LogicAnd,
		Conditions: []Condition{
			{FieldPrice, OpAbove, 100},
			{FieldVolume, OpAbove, 1_000_000},
		},
	}}

	result := EvaluateGroups(groups, obs, nil)
	if !result.Triggered {
		t.Fatal("AND group with all conditions satisfied should trigger")
	}
	if len(result.ConditionsMet) != 2 {
		t.Errorf("expected 2 satisfied conditions, got %d", len(result.ConditionsMet))
	}

	// One failing condition breaks the AND group.
	groups[0].Conditions = append(groups[0].Conditions, Condition{FieldPrice, OpBelow, 50})
	result = EvaluateGroups(groups, obs, nil)
	if result.Triggered {
		t.Error("AND group with one failing condition should not trigger")
	}
}

func TestEvaluateGroups_OrLogic(t *testing.T) {
	obs := testObservation()

	groups := []ConditionGroup{{
		Logic: LogicOr,
		Conditions: []Condition{
			{FieldPrice, OpBelow, 50}, // not satisfied
			{FieldPrice, OpAbove, 100},
		},
	}}

	result := EvaluateGroups(groups, obs, nil)
	if !result.Triggered {
		t.Fatal("OR group with one satisfied condition should trigger")
	}
	if len(result.ConditionsMet) != 1 {
		t.Errorf("only the satisfied condition should be reported, got %d", len(result.ConditionsMet))
	}
}

func TestEvaluateGroups_SecondGroupOnly(t *testing.T) {
	obs := testObservation()

	groups := []ConditionGroup{
		{
			Logic:      LogicAnd,
			Conditions: []Condition{{FieldPrice, OpBelow, 50}},
		},
		{
			Logic:      LogicAnd,
			Conditions: []Condition{{FieldVolume, OpAbove, 1_000_000}},
		},
	}

	result := EvaluateGroups(groups, obs, nil)
	if !result.Triggered {
		t.Fatal("alert should trigger when any group is satisfied")
	}
	if len(result.ConditionsMet) != 1 {
		t.Fatalf("expected only the second group's condition, got %v", result.ConditionsMet)
	}
	if !strings.Contains(result.ConditionsMet[0], "volume") {
		t.Errorf("conditions met should come from the satisfied group, got %q", result.ConditionsMet[0])
	}
}

func TestEvaluateGroups_MalformedConditionDoesNotAbortGroup(t *testing.T) {
	obs := testObservation()

	groups := []ConditionGroup{{
		Logic: LogicOr,
		Conditions: []Condition{
			{Field("bogus"), Operator("???"), 1},
			{FieldPrice, OpAbove, 100},
		},
	}}

	result := EvaluateGroups(groups, obs, nil)
	if !result.Triggered {
		t.Error("malformed condition should evaluate unmatched, not abort the group")
	}
}

func TestEvaluateGroups_EmptyGroupNeverSatisfied(t *testing.T) {
	result := EvaluateGroups([]ConditionGroup{{Logic: LogicAnd}}, testObservation(), nil)
	if result.Triggered {
		t.Error("empty condition group must not trigger")
	}
}
