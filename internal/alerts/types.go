package alerts

import "time"

// AlertType selects which evaluation path an alert takes
type AlertType string

const (
	TypeThreshold      AlertType = "threshold"
	TypeMultiCondition AlertType = "multi_condition"
	TypeNewsTriggered  AlertType = "news_triggered"
	TypeAnomaly        AlertType = "anomaly"
)

// AlertStatus is the lifecycle state of an alert rule
type AlertStatus string

const (
	StatusActive    AlertStatus = "active"
	StatusTriggered AlertStatus = "triggered"
	StatusSnoozed   AlertStatus = "snoozed"
	StatusDismissed AlertStatus = "dismissed"
	StatusExpired   AlertStatus = "expired"
	StatusDisabled  AlertStatus = "disabled"
)

// Field names a numeric input a condition can compare against.
// The set is closed; anything else evaluates as unresolvable.
type Field string

const (
	FieldPrice         Field = "price"
	FieldChangePercent Field = "change_percent"
	FieldVolume        Field = "volume"
	FieldVolumeRatio   Field = "volume_ratio"
	FieldPERatio       Field = "pe_ratio"
	FieldRSI           Field = "rsi"
	FieldSentiment     Field = "sentiment"
	FieldMarketCap     Field = "market_cap"
)

// Operator compares a resolved field value against a condition threshold
type Operator string

const (
	OpAbove   Operator = ">"
	OpBelow   Operator = "<"
	OpAboveEq Operator = ">="
	OpBelowEq Operator = "<="
	OpEqual   Operator = "="
	OpNotEq   Operator = "!="
	// OpPctChange matches on magnitude: |value| >= threshold
	OpPctChange Operator = "pct_change"
	// Cross operators need the previous tick's value, which is not
	// threaded into the evaluator. They parse but never match.
	OpCrossAbove Operator = "crosses_above"
	OpCrossBelow Operator = "crosses_below"
)

// equalityTolerance absorbs float noise in =/!= comparisons
const equalityTolerance = 0.01

// GroupLogic combines the conditions inside one group
type GroupLogic string

const (
	LogicAnd GroupLogic = "and"
	LogicOr  GroupLogic = "or"
)

// Condition is one atomic field comparison
type Condition struct {
	Field     Field    `json:"field"`
	Operator  Operator `json:"operator"`
	Threshold float64  `json:"threshold"`
}

// ConditionGroup is an and/or combination of conditions. An alert
// carrying several groups fires when any single group is satisfied.
type ConditionGroup struct {
	Logic      GroupLogic  `json:"logic"`
	Conditions []Condition `json:"conditions"`
}

// AnomalyConfig tunes the statistical detector for anomaly-type alerts
type AnomalyConfig struct {
	PriceChangeThreshold  float64 `json:"price_change_threshold"`
	VolumeSpikeMultiplier float64 `json:"volume_spike_multiplier"`
	StatisticalSigma      float64 `json:"statistical_sigma"`
	RequiresNoNews        bool    `json:"requires_no_news"`
	NewsLookbackHours     int     `json:"news_lookback_hours"`
}

// DefaultAnomalyConfig returns the stock detector tuning: 15% price
// move, 5x volume, 2 sigma, suppressed when news explains the move.
func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		PriceChangeThreshold:  15,
		VolumeSpikeMultiplier: 5,
		StatisticalSigma:      2,
		RequiresNoNews:        true,
		NewsLookbackHours:     24,
	}
}

// Frequency caps how often an alert may fire and how its trigger
// events are coalesced before delivery
type Frequency struct {
	MaxPerDay          int  `json:"max_per_day"`
	CooldownMinutes    int  `json:"cooldown_minutes"`
	BatchingEnabled    bool `json:"batching_enabled"`
	BatchWindowMinutes int  `json:"batch_window_minutes"`
}

// QuietHours is a recurring do-not-disturb window. Start after End
// means the window wraps midnight (e.g. 22:00 through 08:00).
type QuietHours struct {
	Enabled  bool           `json:"enabled"`
	Start    string         `json:"start"` // "15:04" clock time
	End      string         `json:"end"`
	Weekdays []time.Weekday `json:"weekdays,omitempty"` // empty = every day
	Timezone string         `json:"timezone,omitempty"` // IANA name, default UTC
}

// Alert is a persisted watch rule. Status, LastTriggeredAt and
// TriggeredCount are the engine's bookkeeping; the caller persists them.
type Alert struct {
	ID              string           `json:"id"`
	Symbol          string           `json:"symbol"`
	Name            string           `json:"name"`
	Type            AlertType        `json:"type"`
	Status          AlertStatus      `json:"status"`
	ConditionGroups []ConditionGroup `json:"condition_groups,omitempty"`
	Anomaly         *AnomalyConfig   `json:"anomaly_config,omitempty"`
	Frequency       Frequency        `json:"frequency"`
	QuietHours      QuietHours       `json:"quiet_hours"`
	ExpiresAt       *time.Time       `json:"expires_at,omitempty"`
	LastTriggeredAt *time.Time       `json:"last_triggered_at,omitempty"`
	TriggeredCount  int              `json:"triggered_count"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// MarketObservation is one tick of market data for a symbol. Optional
// fields are pointers so "absent" is distinguishable from zero.
type MarketObservation struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Volume        float64   `json:"volume"`
	AvgVolume     *float64  `json:"avg_volume,omitempty"`
	PERatio       *float64  `json:"pe_ratio,omitempty"`
	RSI           *float64  `json:"rsi,omitempty"`
	MA50          *float64  `json:"ma_50,omitempty"`
	MA200         *float64  `json:"ma_200,omitempty"`
	MarketCap     *float64  `json:"market_cap,omitempty"`
	ObservedAt    time.Time `json:"observed_at"`
}

// NewsContext summarizes the news seen for a symbol inside the
// configured lookback window
type NewsContext struct {
	ArticleCount int     `json:"article_count"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

// NewsItem is a single article fed to the sentiment analyzer
type NewsItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source,omitempty"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// UserAction is how the user responded to a trigger event. The engine
// only ever writes the initial pending state.
type UserAction string

const (
	ActionPending   UserAction = "pending"
	ActionViewed    UserAction = "viewed"
	ActionDismissed UserAction = "dismissed"
	ActionSnoozed   UserAction = "snoozed"
)

// TriggerEvent records one firing of an alert. Immutable once created,
// except for UserAction which the UI layer owns.
type TriggerEvent struct {
	ID            string     `json:"id"`
	AlertID       string     `json:"alert_id"`
	Symbol        string     `json:"symbol"`
	TriggeredAt   time.Time  `json:"triggered_at"`
	Reason        string     `json:"reason"`
	ConditionsMet []string   `json:"conditions_met,omitempty"`
	Price         float64    `json:"price"`
	Volume        float64    `json:"volume"`
	NewsCount     *int       `json:"news_count,omitempty"`
	NewsSentiment *float64   `json:"news_sentiment,omitempty"`
	UserAction    UserAction `json:"user_action"`
}
