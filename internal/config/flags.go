package config

import (
	"flag"
	"os"
	"time"

	"github.com/noteyou/noteyou/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   data directory for the file-backed store
//	-q string   SQLite DSN or file path
//	-r string   redis address (host:port); empty disables the backend
//	-p string   redis password
//	-g int      cleanup grace period after migration, seconds
//	-l int      minimum password length
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-q", "-r", "-p", "-g", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DataDir, "d", config.DataDir, "data directory")
	fs.StringVar(&config.SQLiteDSN, "q", config.SQLiteDSN, "sqlite DSN")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.RedisPassword, "p", config.RedisPassword, "redis password")

	cleanupGrace := fs.Int("g", int(config.CleanupGracePeriod.Seconds()), "cleanup grace period (in seconds)")

	fs.IntVar(&config.MinPasswordLen, "l", config.MinPasswordLen, "minimum password length")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.CleanupGracePeriod = time.Duration(*cleanupGrace) * time.Second
}
