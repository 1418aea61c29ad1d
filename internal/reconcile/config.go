package reconcile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"energy-reconcile/internal/dataset"
)

// Config holds pipeline settings.
type Config struct {
	// FloorDate is the earliest month ingested from the source table.
	FloorDate time.Time
	// StabilizationDate bounds the history used for EU-member fitting and the
	// reconciled output range. Regional and estimated aggregates diverge
	// materially before it.
	StabilizationDate time.Time
	// MinHistoryMonths is the fewest observed months for a seasonal fit.
	MinHistoryMonths int
	// Workers sizes the per-series fitting pool.
	Workers int
	// DiscontinuedAfterMonths excludes a non-EU entity whose last observation
	// is older than this many months before the calendar end.
	DiscontinuedAfterMonths int
	// ExcludeEntities drops entities by code before any fitting.
	ExcludeEntities []string
}

type fileConfig struct {
	FloorDate               string   `yaml:"floor_date"`
	StabilizationDate       string   `yaml:"stabilization_date"`
	MinHistoryMonths        int      `yaml:"min_history_months"`
	Workers                 int      `yaml:"workers"`
	DiscontinuedAfterMonths int      `yaml:"discontinued_after_months"`
	ExcludeEntities         []string `yaml:"exclude_entities"`
}

const monthLayout = "2006-01"

// LoadConfig loads pipeline config from env and an optional yaml file named
// by RECONCILE_CONFIG. File values override env values.
func LoadConfig() (Config, error) {
	raw := fileConfig{
		FloorDate:               getenvDefault("RECONCILE_FLOOR_DATE", "2015-01"),
		StabilizationDate:       getenvDefault("RECONCILE_STABILIZATION_DATE", "2019-01"),
		MinHistoryMonths:        getenvIntDefault("RECONCILE_MIN_HISTORY_MONTHS", 24),
		Workers:                 getenvIntDefault("RECONCILE_WORKERS", 4),
		DiscontinuedAfterMonths: getenvIntDefault("RECONCILE_DISCONTINUED_AFTER_MONTHS", 12),
	}

	if path := os.Getenv("RECONCILE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, err
		}
	}

	return raw.parse()
}

func (raw fileConfig) parse() (Config, error) {
	floor, err := time.Parse(monthLayout, raw.FloorDate)
	if err != nil {
		return Config{}, fmt.Errorf("reconcile: bad floor_date %q", raw.FloorDate)
	}
	stabilization, err := time.Parse(monthLayout, raw.StabilizationDate)
	if err != nil {
		return Config{}, fmt.Errorf("reconcile: bad stabilization_date %q", raw.StabilizationDate)
	}
	if stabilization.Before(floor) {
		return Config{}, errors.New("reconcile: stabilization_date before floor_date")
	}
	cfg := Config{
		FloorDate:               dataset.MonthFloor(floor),
		StabilizationDate:       dataset.MonthFloor(stabilization),
		MinHistoryMonths:        raw.MinHistoryMonths,
		Workers:                 raw.Workers,
		DiscontinuedAfterMonths: raw.DiscontinuedAfterMonths,
		ExcludeEntities:         raw.ExcludeEntities,
	}
	if cfg.MinHistoryMonths <= 0 {
		cfg.MinHistoryMonths = 24
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.DiscontinuedAfterMonths <= 0 {
		cfg.DiscontinuedAfterMonths = 12
	}
	return cfg, nil
}

// IsExcluded reports whether an entity code is excluded by configuration.
func (c Config) IsExcluded(code string) bool {
	for _, excluded := range c.ExcludeEntities {
		if excluded == code {
			return true
		}
	}
	return false
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
