// Package config handles configuration for the NoteYou application,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for NoteYou.
//
// Fields:
//   - DataDir: directory for the file-backed key-value store and the session record.
//   - SQLiteDSN: path or DSN for the embedded SQLite database.
//   - RedisAddr / RedisPassword: document-store connection; empty addr disables the backend.
//   - CleanupGracePeriod: delay between a completed migration and legacy-data cleanup.
//   - MinPasswordLen: minimum accepted password length at registration.
type Config struct {
	DataDir            string
	SQLiteDSN          string
	RedisAddr          string
	RedisPassword      string
	CleanupGracePeriod time.Duration
	MinPasswordLen     int
}

// LoadDefaults populates Config with sensible development defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = "./noteyou-data"
	c.SQLiteDSN = "./noteyou-data/noteyou.db"
	c.RedisAddr = ""
	c.RedisPassword = ""
	c.CleanupGracePeriod = 5 * time.Second
	c.MinPasswordLen = 6
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
