package alerts

import (
	"fmt"
	"math"

	"github.com/watchdesk/stock-alerts-backend/internal/pricehistory"
)

// minHistoryPoints is the sample size below which the statistical
// outlier signal is skipped entirely
const minHistoryPoints = 20

// AnomalyResult combines the three anomaly signals with the news gate.
// Detected reports whether any signal fired; Triggerable is the final
// verdict after news suppression.
type AnomalyResult struct {
	Detected           bool
	Triggerable        bool
	ExplainedByNews    bool
	Signals            []string
	PriceChangePercent float64
	ZScore             float64
}

// Reason renders the fired signals as a human-readable trigger reason
func (r AnomalyResult) Reason() string {
	if r.ExplainedByNews {
		return "anomaly explained by news"
	}
	var reason string
	for i, s := range r.Signals {
		if i > 0 {
			reason += "; "
		}
		reason += s
	}
	return reason
}

// DetectAnomaly computes the price-shock, volume-shock and statistical
// outlier signals independently and combines them. The caller supplies
// history as a rolling window and news already scoped to the config's
// lookback window. When RequiresNoNews is set and news is present, a
// detected anomaly is reported as explained rather than triggerable.
func DetectAnomaly(cfg AnomalyConfig, obs *MarketObservation, news *NewsContext, history []pricehistory.PricePoint) AnomalyResult {
	var result AnomalyResult
	if obs == nil {
		return result
	}

	// Price shock: percent move from previous close, magnitude only.
	if obs.PreviousClose != 0 {
		result.PriceChangePercent = (obs.Price - obs.PreviousClose) / obs.PreviousClose * 100
		if math.Abs(result.PriceChangePercent) >= cfg.PriceChangeThreshold {
			result.Detected = true
			result.Signals = append(result.Signals,
				fmt.Sprintf("price moved %.2f%% (threshold %.2f%%)", result.PriceChangePercent, cfg.PriceChangeThreshold))
		}
	}

	// Volume shock: skipped when no average volume is supplied.
	if obs.AvgVolume != nil && *obs.AvgVolume > 0 {
		if obs.Volume >= *obs.AvgVolume*cfg.VolumeSpikeMultiplier {
			result.Detected = true
			result.Signals = append(result.Signals,
				fmt.Sprintf("volume %.0f is %.1fx average", obs.Volume, obs.Volume / *obs.AvgVolume))
		}
	}

	// Statistical outlier: needs enough history for a stable baseline.
	if len(history) >= minHistoryPoints {
		mean, stddev := priceStats(history)
		if stddev > 0 {
			result.ZScore = math.Abs(obs.Price-mean) / stddev
			if result.ZScore >= cfg.StatisticalSigma {
				result.Detected = true
				result.Signals = append(result.Signals,
					fmt.Sprintf("price %.2f is %.1f sigma from mean %.2f", obs.Price, result.ZScore, mean))
			}
		}
	}

	if !result.Detected {
		return result
	}

	if cfg.RequiresNoNews && news != nil && news.ArticleCount > 0 {
		result.ExplainedByNews = true
		return result
	}

	result.Triggerable = true
	return result
}

// priceStats returns the population mean and standard deviation of the
// historical prices
func priceStats(history []pricehistory.PricePoint) (mean, stddev float64) {
	n := float64(len(history))

	var sum float64
	for _, p := range history {
		sum += p.Price
	}
	mean = sum / n

	var variance float64
	for _, p := range history {
		d := p.Price - mean
		variance += d * d
	}
	variance /= n

	return mean, math.Sqrt(variance)
}
