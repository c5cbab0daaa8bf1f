package alerts

import (
	"fmt"
	"math"
	"strings"
)

// GroupResult is the outcome of evaluating an alert's condition groups
type GroupResult struct {
	Triggered     bool
	Reason        string
	ConditionsMet []string
}

// resolveField extracts the named numeric field from the current
// observation and news context. The second return is false when the
// field is absent for this instrument; an absent field must never be
// treated as zero.
func resolveField(field Field, obs *MarketObservation, news *NewsContext) (float64, bool) {
	if obs == nil {
		return 0, false
	}

	switch field {
	case FieldPrice:
		return obs.Price, true
	case FieldChangePercent:
		if obs.PreviousClose == 0 {
			return 0, false
		}
		return (obs.Price - obs.PreviousClose) / obs.PreviousClose * 100, true
	case FieldVolume:
		return obs.Volume, true
	case FieldVolumeRatio:
		if obs.AvgVolume == nil || *obs.AvgVolume == 0 {
			return 0, false
		}
		return obs.Volume / *obs.AvgVolume, true
	case FieldPERatio:
		if obs.PERatio == nil {
			return 0, false
		}
		return *obs.PERatio, true
	case FieldRSI:
		if obs.RSI == nil {
			return 0, false
		}
		return *obs.RSI, true
	case FieldSentiment:
		if news == nil {
			return 0, false
		}
		return news.AvgSentiment, true
	case FieldMarketCap:
		if obs.MarketCap == nil {
			return 0, false
		}
		return *obs.MarketCap, true
	default:
		return 0, false
	}
}

// evaluateCondition compares one condition against the current
// observation. Unresolvable fields and unknown operators fail closed:
// the condition is unmatched and the description says why, so a single
// malformed condition never aborts the rest of its group.
func evaluateCondition(c Condition, obs *MarketObservation, news *NewsContext) (bool, string) {
	value, ok := resolveField(c.Field, obs, news)
	if !ok {
		return false, fmt.Sprintf("%s unavailable", c.Field)
	}

	switch c.Operator {
	case OpAbove:
		return value > c.Threshold, describe(c, value)
	case OpBelow:
		return value < c.Threshold, describe(c, value)
	case OpAboveEq:
		return value >= c.Threshold, describe(c, value)
	case OpBelowEq:
		return value <= c.Threshold, describe(c, value)
	case OpEqual:
		return math.Abs(value-c.Threshold) <= equalityTolerance, describe(c, value)
	case OpNotEq:
		return math.Abs(value-c.Threshold) > equalityTolerance, describe(c, value)
	case OpPctChange:
		return math.Abs(value) >= c.Threshold, fmt.Sprintf("|%s| %.2f vs %.2f", c.Field, value, c.Threshold)
	case OpCrossAbove, OpCrossBelow:
		// Needs the previous tick's value to detect the sign change;
		// that state is not available here, so never matched.
		return false, fmt.Sprintf("%s %s: previous value not tracked", c.Field, c.Operator)
	default:
		return false, fmt.Sprintf("unknown operator %q", c.Operator)
	}
}

func describe(c Condition, value float64) string {
	return fmt.Sprintf("%s %.2f %s %.2f", c.Field, value, c.Operator, c.Threshold)
}

// evaluateGroup applies the group's and/or logic over its conditions
// and returns the satisfied-condition descriptions. An empty group is
// never satisfied.
func evaluateGroup(g ConditionGroup, obs *MarketObservation, news *NewsContext) (bool, []string) {
	if len(g.Conditions) == 0 {
		return false, nil
	}

	var met []string
	anyMatched := false
	allMatched := true

	for _, c := range g.Conditions {
		matched, desc := evaluateCondition(c, obs, news)
		if matched {
			anyMatched = true
			met = append(met, desc)
		} else {
			allMatched = false
		}
	}

	if g.Logic == LogicOr {
		return anyMatched, met
	}
	return allMatched, met
}

// EvaluateGroups evaluates every condition group independently and
// triggers when any single group is satisfied. The reason concatenates
// the satisfied conditions of the satisfied groups.
func EvaluateGroups(groups []ConditionGroup, obs *MarketObservation, news *NewsContext) GroupResult {
	var result GroupResult

	for _, g := range groups {
		satisfied, met := evaluateGroup(g, obs, news)
		if satisfied {
			result.Triggered = true
			result.ConditionsMet = append(result.ConditionsMet, met...)
		}
	}

	if result.Triggered {
		result.Reason = strings.Join(result.ConditionsMet, "; ")
	}
	return result
}
