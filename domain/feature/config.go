package feature

// Imputation selects how missing readings are repaired before feature
// derivation. Every strategy uses only values at or before the gap, except
// linear interpolation which bridges to the next valid observation.
type Imputation string

const (
	ImputeDrop        Imputation = "drop"
	ImputeForwardFill Imputation = "forward-fill"
	ImputeInterpolate Imputation = "interpolate"
	ImputeMeanFill    Imputation = "mean-fill"
)

// RollingStat names a statistic computed over a trailing window.
type RollingStat string

const (
	RollMean RollingStat = "mean"
	RollStd  RollingStat = "std"
	RollMin  RollingStat = "min"
	RollMax  RollingStat = "max"
)

// Granularity controls optional resample-and-average before modeling,
// mirroring the dashboard's Daily/Weekly/Monthly resample control.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// CalendarConfig toggles date-derived features.
type CalendarConfig struct {
	DayOfYear bool `json:"day_of_year"`
	Month     bool `json:"month"`
	IsWeekend bool `json:"is_weekend"`
}

// Config enumerates every preprocessing decision so a run can be reproduced
// from configuration alone.
type Config struct {
	Target      string         `json:"target"`
	Resample    Granularity    `json:"resample"`
	Imputation  Imputation     `json:"imputation"`
	Lags        []int          `json:"lags"`
	Windows     []int          `json:"windows"`
	WindowStats []RollingStat  `json:"window_stats"`
	Covariates  []string       `json:"covariates,omitempty"` // other climate variables, joined at lag 1
	Calendar    CalendarConfig `json:"calendar"`
}

// DefaultConfig returns the preprocessing setup used when nothing is
// configured: daily Tavg with a week of lags and a weekly rolling window.
func DefaultConfig() Config {
	return Config{
		Target:      "Tavg",
		Resample:    Daily,
		Imputation:  ImputeForwardFill,
		Lags:        []int{1, 2, 3, 7},
		Windows:     []int{7},
		WindowStats: []RollingStat{RollMean, RollStd},
		Calendar:    CalendarConfig{DayOfYear: true, Month: true, IsWeekend: true},
	}
}

// MaxHistory returns the longest lookback any configured feature needs.
// Rows earlier than this offset cannot be derived and are dropped.
func (c Config) MaxHistory() int {
	max := 0
	for _, lag := range c.Lags {
		if lag > max {
			max = lag
		}
	}
	for _, w := range c.Windows {
		// Window stats trail the previous observation, so a window of w
		// needs w+1 points of history at row t.
		if w+1 > max {
			max = w + 1
		}
	}
	return max
}
