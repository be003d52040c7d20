package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.NoError(t, err)
	assert.Equal(t, ":8274", cfg.Server.Addr)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "data", cfg.Storage.DataDir)
	assert.Equal(t, 366, cfg.Calendar.MaxEnumerationDays)
	assert.Equal(t, 18, cfg.EndOfDay.Hour)
	assert.Equal(t, 0, cfg.EndOfDay.Minute)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daytoday_config.yml")
	raw := `
version: "1"
server:
  addr: ":9000"
storage:
  driver: sqlite
  data_dir: /var/lib/daytoday
notifications:
  enabled: true
calendar:
  max_enumeration_days: 31
end_of_day:
  hour: 22
  minute: 30
`
	assert.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/daytoday", cfg.Storage.DataDir)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, 31, cfg.Calendar.MaxEnumerationDays)
	assert.Equal(t, 22, cfg.EndOfDay.Hour)
	assert.Equal(t, 30, cfg.EndOfDay.Minute)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	assert.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: redis\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yml")
	assert.NoError(t, os.WriteFile(path, []byte("server: [\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DAYTODAY_ADDR", ":7777")
	t.Setenv("DAYTODAY_STORAGE_DRIVER", "memory")
	t.Setenv("DAYTODAY_DATA_DIR", "/tmp/dt")
	t.Setenv("DAYTODAY_NOTIFICATIONS", "true")
	t.Setenv("DAYTODAY_MAX_ENUMERATION_DAYS", "90")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/dt", cfg.Storage.DataDir)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, 90, cfg.Calendar.MaxEnumerationDays)
}

func TestApplyEnv_IgnoresGarbage(t *testing.T) {
	t.Setenv("DAYTODAY_NOTIFICATIONS", "maybe")
	t.Setenv("DAYTODAY_MAX_ENUMERATION_DAYS", "not-a-number")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.NoError(t, err)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Equal(t, 366, cfg.Calendar.MaxEnumerationDays)
}
