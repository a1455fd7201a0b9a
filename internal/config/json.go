package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/noteyou/noteyou/internal/flagx"
	"github.com/noteyou/noteyou/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "5s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	DataDir            string         `json:"data_dir"`
	SQLiteDSN          string         `json:"sqlite_dsn"`
	RedisAddr          string         `json:"redis_addr"`
	RedisPassword      string         `json:"redis_password"`
	CleanupGracePeriod timex.Duration `json:"cleanup_grace_period"`
	MinPasswordLen     int            `json:"min_password_len"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; when neither is set no JSON file is loaded. An unreadable or
// invalid file panics, since starting with half-applied configuration is
// worse than not starting.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.DataDir = c.DataDir
	config.SQLiteDSN = c.SQLiteDSN
	config.RedisAddr = c.RedisAddr
	config.RedisPassword = c.RedisPassword
	config.CleanupGracePeriod = time.Duration(c.CleanupGracePeriod.Duration)
	config.MinPasswordLen = c.MinPasswordLen
}
