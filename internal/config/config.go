package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/climate"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/feature"
	"github.com/ppisarski/Climate-Data-Daily-IDN/internal/errors"
)

// dateLayout matches the day-first dates in climate_data.csv.
const dateLayout = "02-01-2006"

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig
	Run      RunConfig
	Server   ServerConfig
	Database DatabaseConfig
}

// DataConfig holds dataset source and loader settings
type DataConfig struct {
	ClimateFile  string
	StationFile  string
	ProvinceFile string
	From         time.Time
	To           time.Time
	ProvinceID   int
	RegionID     int
	StationID    int
	Dedup        climate.DedupPolicy
}

// RunConfig holds everything one evaluation run needs to be reproducible
type RunConfig struct {
	Preprocess  feature.Config
	Policy      eval.WindowPolicy
	Models      []eval.ModelSpec
	Seed        int64
	Parallelism int
	FitTimeout  time.Duration
}

// ServerConfig holds the report API settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds result persistence settings; empty URL disables it
type DatabaseConfig struct {
	URL string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	dataConfig, err := loadDataConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load data configuration")
	}

	runConfig, err := loadRunConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load run configuration")
	}

	config := &Config{
		Data: *dataConfig,
		Run:  *runConfig,
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
	}

	return config, nil
}

func loadDataConfig() (*DataConfig, error) {
	climateFile := os.Getenv("CLIMATE_FILE")
	if climateFile == "" {
		return nil, errors.ConfigInvalid("CLIMATE_FILE is required")
	}

	cfg := &DataConfig{
		ClimateFile:  climateFile,
		StationFile:  getEnvOrDefault("STATION_FILE", ""),
		ProvinceFile: getEnvOrDefault("PROVINCE_FILE", ""),
		ProvinceID:   getEnvIntOrDefault("PROVINCE_ID", 0),
		RegionID:     getEnvIntOrDefault("REGION_ID", 0),
		StationID:    getEnvIntOrDefault("STATION_ID", 0),
		Dedup:        climate.DedupPolicy(getEnvOrDefault("DEDUP_POLICY", string(climate.DedupReject))),
	}

	switch cfg.Dedup {
	case climate.DedupReject, climate.DedupKeepFirst, climate.DedupKeepLast, climate.DedupAverage:
	default:
		return nil, errors.ConfigInvalid("DEDUP_POLICY must be one of reject, keep-first, keep-last, average")
	}

	var err error
	if cfg.From, err = getEnvDate("DATE_FROM"); err != nil {
		return nil, err
	}
	if cfg.To, err = getEnvDate("DATE_TO"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRunConfig() (*RunConfig, error) {
	pre := feature.DefaultConfig()
	pre.Target = getEnvOrDefault("TARGET", climate.DefaultTarget)
	pre.Resample = feature.Granularity(getEnvOrDefault("RESAMPLE", string(feature.Daily)))
	pre.Imputation = feature.Imputation(getEnvOrDefault("IMPUTATION", string(feature.ImputeForwardFill)))
	pre.Lags = getEnvIntsOrDefault("LAGS", pre.Lags)
	pre.Covariates = getEnvList("COVARIATES")
	pre.Windows = getEnvIntsOrDefault("WINDOWS", pre.Windows)
	if stats := getEnvList("WINDOW_STATS"); len(stats) > 0 {
		pre.WindowStats = pre.WindowStats[:0]
		for _, s := range stats {
			pre.WindowStats = append(pre.WindowStats, feature.RollingStat(s))
		}
	}

	if calendar := getEnvList("CALENDAR"); calendar != nil {
		pre.Calendar = feature.CalendarConfig{}
		for _, name := range calendar {
			switch name {
			case "day_of_year":
				pre.Calendar.DayOfYear = true
			case "month":
				pre.Calendar.Month = true
			case "is_weekend":
				pre.Calendar.IsWeekend = true
			case "none":
			default:
				return nil, errors.ConfigInvalid("CALENDAR features are day_of_year, month, is_weekend or none")
			}
		}
	}

	switch pre.Resample {
	case feature.Daily, feature.Weekly, feature.Monthly:
	default:
		return nil, errors.ConfigInvalid("RESAMPLE must be one of daily, weekly, monthly")
	}

	switch pre.Imputation {
	case feature.ImputeDrop, feature.ImputeForwardFill, feature.ImputeInterpolate, feature.ImputeMeanFill:
	default:
		return nil, errors.ConfigInvalid("IMPUTATION must be one of drop, forward-fill, interpolate, mean-fill")
	}

	policy := eval.WindowPolicy{
		Kind:        eval.WindowKind(getEnvOrDefault("WINDOW_KIND", string(eval.WindowExpanding))),
		InitialSize: getEnvIntOrDefault("WINDOW_INITIAL", 365),
		Step:        getEnvIntOrDefault("WINDOW_STEP", 30),
		Horizon:     getEnvIntOrDefault("HORIZON", 7),
	}
	if policy.Kind != eval.WindowExpanding && policy.Kind != eval.WindowRolling {
		return nil, errors.ConfigInvalid("WINDOW_KIND must be expanding or rolling")
	}

	specs, err := parseModelSpecs(getEnvOrDefault("MODELS", "naive,seasonal_naive,moving_average,ses,holt,ar,linear,ridge,gbt,mlp"))
	if err != nil {
		return nil, err
	}

	return &RunConfig{
		Preprocess:  pre,
		Policy:      policy,
		Models:      specs,
		Seed:        int64(getEnvIntOrDefault("SEED", 42)),
		Parallelism: getEnvIntOrDefault("PARALLELISM", 4),
		FitTimeout:  getEnvDurationOrDefault("FIT_TIMEOUT", 30*time.Second),
	}, nil
}

// parseModelSpecs parses "name,name(key=v key=v),..." into specs, e.g.
// MODELS="naive,moving_average(window=7),ridge(lambda=0.5)".
func parseModelSpecs(raw string) ([]eval.ModelSpec, error) {
	var specs []eval.ModelSpec
	for _, part := range splitTopLevel(raw) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		spec := eval.ModelSpec{Name: part}
		if open := strings.IndexByte(part, '('); open >= 0 {
			if !strings.HasSuffix(part, ")") {
				return nil, errors.ConfigInvalid("unbalanced parenthesis in MODELS entry " + part)
			}
			spec.Name = part[:open]
			spec.Params = make(map[string]float64)
			for _, kv := range strings.Fields(part[open+1 : len(part)-1]) {
				eq := strings.IndexByte(kv, '=')
				if eq < 0 {
					return nil, errors.ConfigInvalid("malformed hyperparameter " + kv)
				}
				v, err := strconv.ParseFloat(kv[eq+1:], 64)
				if err != nil {
					return nil, errors.ConfigInvalid("malformed hyperparameter value " + kv)
				}
				spec.Params[kv[:eq]] = v
			}
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, errors.ConfigInvalid("MODELS must name at least one model")
	}
	return specs, nil
}

// splitTopLevel splits on commas outside parentheses.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvIntsOrDefault(key string, defaultValue []int) []int {
	parts := getEnvList(key)
	if len(parts) == 0 {
		return defaultValue
	}
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		if n, err := strconv.Atoi(part); err == nil {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDate(key string) (time.Time, error) {
	value := os.Getenv(key)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, errors.ConfigInvalid(key + " must use DD-MM-YYYY")
	}
	return t, nil
}
