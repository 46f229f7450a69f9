package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the XDG directories at a temp dir so the user's own files
// are never read
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, filepath.Join(dir, "data", "rooted", "rooted.db"), cfg.Database.Path)
}

func TestDefaultPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, ".config", "rooted", "config.yaml"), GlobalConfigPath())
	assert.Equal(t, filepath.Join(home, ".local", "share", "rooted", "rooted.db"), DefaultDBPath())

	// no home directory: stay absolute instead of resolving against the working dir
	t.Setenv("HOME", "")
	assert.Equal(t, filepath.Join(os.TempDir(), "rooted", "config.yaml"), GlobalConfigPath())
	assert.Equal(t, filepath.Join(os.TempDir(), "rooted", "rooted.db"), DefaultDBPath())
	assert.True(t, filepath.IsAbs(DefaultDBPath()))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "rooted.yaml")
	writeFile(t, path, `
database:
  path: /tmp/elsewhere.db
planner:
  workday_start: "09:30"
  horizon_days: 3
weights:
  priority:
    "3": 10
  leftover: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/elsewhere.db", cfg.Database.Path)
	assert.Equal(t, "09:30", cfg.Planner.WorkdayStart)
	assert.Equal(t, "17:00", cfg.Planner.WorkdayEnd)
	assert.Equal(t, 3, cfg.Planner.HorizonDays)
	assert.Equal(t, 30, cfg.Planner.DefaultDuration)
	assert.Equal(t, 10.0, cfg.Weights.Priority["3"])
	assert.Equal(t, 5.0, cfg.Weights.Priority["5"], "unset priorities keep their default")
	assert.Zero(t, cfg.Weights.Leftover)
	assert.Len(t, cfg.Weights.Buckets, 5)
}

func TestLoadGlobalFile(t *testing.T) {
	isolate(t)
	writeFile(t, GlobalConfigPath(), "planner:\n  skip_weekends: false\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Planner.SkipWeekends)
}

func TestLoadBucketsReplaceDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "rooted.yaml")
	writeFile(t, path, `
weights:
  deadline_buckets:
    - {within_days: 2, weight: 8}
    - {within_days: 10, weight: 1}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []BucketConfig{{WithinDays: 2, Weight: 8}, {WithinDays: 10, Weight: 1}}, cfg.Weights.Buckets)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "rooted.yaml")
	writeFile(t, path, "planner:\n  horizon_days: 3\n")
	t.Setenv("ROOTED_PLANNER_HORIZON_DAYS", "8")
	t.Setenv("ROOTED_DATABASE_PATH", filepath.Join(dir, "env.db"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Planner.HorizonDays)
	assert.Equal(t, filepath.Join(dir, "env.db"), cfg.Database.Path)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"end before start", "planner:\n  workday_start: \"17:00\"\n  workday_end: \"08:00\"\n"},
		{"bad clock", "planner:\n  workday_end: \"5pm\"\n"},
		{"no horizon", "planner:\n  horizon_days: 0\n"},
		{"negative default duration", "planner:\n  default_duration: -5\n"},
		{"priority out of range", "weights:\n  priority:\n    \"7\": 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := filepath.Join(dir, "rooted.yaml")
			writeFile(t, path, tt.content)

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestWriteDefaultLoadsAsDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.yaml")

	require.NoError(t, WriteDefault(path))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseClock(t *testing.T) {
	d, err := ParseClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour+30*time.Minute, d)

	d, err = ParseClock(" 17:00 ")
	require.NoError(t, err)
	assert.Equal(t, 17*time.Hour, d)

	_, err = ParseClock("8h")
	assert.Error(t, err)
}

func TestYAMLShowsEffectiveValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Planner.HorizonDays = 9

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.Contains(t, out, "horizon_days: 9")
	assert.Contains(t, out, "deadline_buckets:")
}
