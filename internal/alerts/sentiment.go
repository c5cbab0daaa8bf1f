package alerts

import "strings"

// Keyword polarity lists for the lightweight sentiment scorer. Matching
// is case-insensitive substring matching against title + summary.
var negativeKeywords = []string{
	"lawsuit", "investigation", "fraud", "recall", "downgrade",
	"bankruptcy", "miss", "plunge", "layoff", "scandal", "probe",
	"warning", "default", "delisting", "selloff", "decline",
}

var positiveKeywords = []string{
	"beat", "upgrade", "record", "surge", "breakthrough", "approval",
	"partnership", "buyback", "outperform", "rally", "expansion",
	"milestone",
}

// keywordWeight is the per-match contribution to an article's score
const keywordWeight = 0.2

// newsTriggerThreshold is the averaged sentiment below which a
// news-triggered alert fires
const newsTriggerThreshold = -0.3

// scoreItem scores a single article in [-1, 1]: each negative keyword
// match subtracts keywordWeight, each positive match adds it, and the
// total is clamped before averaging.
func scoreItem(item NewsItem) float64 {
	text := strings.ToLower(item.Title + " " + item.Summary)

	var score float64
	for _, kw := range negativeKeywords {
		if strings.Contains(text, kw) {
			score -= keywordWeight
		}
	}
	for _, kw := range positiveKeywords {
		if strings.Contains(text, kw) {
			score += keywordWeight
		}
	}

	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

// ScoreNews averages the per-item sentiment of a list of articles.
// Returns 0 for an empty list.
func ScoreNews(items []NewsItem) float64 {
	if len(items) == 0 {
		return 0
	}

	var sum float64
	for _, item := range items {
		sum += scoreItem(item)
	}
	return sum / float64(len(items))
}

// NewsTriggered reports whether the articles fire a news-driven alert:
// at least one article and an averaged sentiment below the threshold.
// An empty article list never triggers.
func NewsTriggered(items []NewsItem) (bool, float64) {
	if len(items) == 0 {
		return false, 0
	}
	avg := ScoreNews(items)
	return avg < newsTriggerThreshold, avg
}
