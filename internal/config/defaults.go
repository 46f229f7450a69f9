package config

import (
	"os"
	"path/filepath"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: DefaultDBPath(),
		},
		Planner: PlannerConfig{
			WorkdayStart:    "08:00",
			WorkdayEnd:      "17:00",
			HorizonDays:     5,
			DefaultDuration: 30,
			SkipWeekends:    true,
		},
		Weights: WeightsConfig{
			DeadlineType: map[string]float64{
				"hard":     3,
				"soft":     2,
				"advisory": 1,
				"none":     0,
			},
			Priority: map[string]float64{
				"1": 1,
				"2": 2,
				"3": 3,
				"4": 4,
				"5": 5,
			},
			Buckets: []BucketConfig{
				{WithinDays: 0, Weight: 5},
				{WithinDays: 1, Weight: 4},
				{WithinDays: 7, Weight: 3},
				{WithinDays: 14, Weight: 2},
				{WithinDays: 30, Weight: 1},
			},
			RiskFactor: 1,
			Leftover:   2,
		},
	}
}

// WriteDefault writes the default configuration to path, creating its directory
func WriteDefault(path string) error {
	content := `# rooted configuration

database:
  # defaults to $XDG_DATA_HOME/rooted/rooted.db
  # path: ~/.local/share/rooted/rooted.db

planner:
  workday_start: "08:00"
  workday_end: "17:00"
  # number of workdays "rooted plan" fills
  horizon_days: 5
  # minutes assumed for a task without a duration or focus history; 0 leaves such tasks unplanned
  default_duration: 30
  skip_weekends: true

# Score = deadline_type + priority + deadline bucket + risk_factor * risk + leftover.
weights:
  deadline_type:
    hard: 3
    soft: 2
    advisory: 1
    none: 0
  priority:
    "1": 1
    "2": 2
    "3": 3
    "4": 4
    "5": 5
  # a deadline at most within_days away earns weight; overdue counts as 0 days
  deadline_buckets:
    - {within_days: 0, weight: 5}
    - {within_days: 1, weight: 4}
    - {within_days: 7, weight: 3}
    - {within_days: 14, weight: 2}
    - {within_days: 30, weight: 1}
  risk_factor: 1
  leftover: 2
`
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}
