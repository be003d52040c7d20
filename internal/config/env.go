package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv overrides config fields from environment variables, so a
// container deployment can skip the YAML file entirely.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("DAYTODAY_ADDR")); v != "" {
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYTODAY_STORAGE_DRIVER")); v != "" {
		c.Storage.Driver = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYTODAY_DATA_DIR")); v != "" {
		c.Storage.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYTODAY_NOTIFICATIONS")); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes":
			c.Notifications.Enabled = true
		case "0", "false", "no":
			c.Notifications.Enabled = false
		}
	}
	if v := getEnvInt("DAYTODAY_MAX_ENUMERATION_DAYS"); v > 0 {
		c.Calendar.MaxEnumerationDays = v
	}
}

func getEnvInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
