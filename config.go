// config.go
//
// Command-line and environment configuration.
// Responsibilities:
//   - Define the flags of every command.
//   - Fill unset flags from CUCA_* environment variables (plus PORT, DATABASE_URL
//     and ATLAS_URI, as deployed hosts set them).
//   - Validate the result before a command runs.
//
// A .env file in the working directory is loaded first, so its values behave like
// real environment variables.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/robalobadob/cuca/internal/game"
	"github.com/robalobadob/cuca/internal/store"
)

const envPrefix = "CUCA"

// envFallbacks lists plain variable names honored after the CUCA_ ones.
var envFallbacks = map[string][]string{
	"port":         {"PORT"},
	"database-url": {"DATABASE_URL", "ATLAS_URI"},
}

type Config struct {
	// shared
	logLevel    string
	logFormat   string
	databaseURL string

	// serve
	port           int
	clientOrigin   string
	wordsDir       string
	storeTimeout   time.Duration
	requestTimeout time.Duration
	rateLimitRPS   int
	rateLimitBurst int
	warm           bool

	// play / stats
	apiURL   string
	userFile string
	bombFile string
	theme    string
	mode     string
}

// validateShared checks the settings every command uses.
func (c *Config) validateShared() error {
	if _, err := zerolog.ParseLevel(c.logLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.logLevel)
	}
	if c.logFormat != "json" && c.logFormat != "console" {
		return fmt.Errorf("invalid log format %q (json or console)", c.logFormat)
	}
	return nil
}

// validateServe checks the server settings.
func (c *Config) validateServe() error {
	if err := c.validateShared(); err != nil {
		return err
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if _, _, err := store.ParseDSN(c.databaseURL); err != nil {
		return err
	}
	if c.storeTimeout <= 0 || c.requestTimeout <= 0 {
		return errors.New("store and request timeouts must be positive")
	}
	if c.rateLimitRPS < 1 || c.rateLimitBurst < 1 {
		return errors.New("rate limit and burst must be at least 1")
	}
	return nil
}

// validateClient checks the terminal client settings.
func (c *Config) validateClient() error {
	if err := c.validateShared(); err != nil {
		return err
	}
	if c.apiURL == "" {
		return errors.New("--api-url is required")
	}
	if c.userFile == "" || c.bombFile == "" {
		return errors.New("--user-file and --bomb-file are required")
	}
	if _, err := game.ParseMode(c.mode); err != nil {
		return err
	}
	return nil
}

// bindEnv fills every flag of fs not given on the command line from the
// environment, the way partybox does it, with envFallbacks on top.
func bindEnv(fs *pflag.FlagSet) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		names := append([]string{f.Name, envName(f.Name)}, envFallbacks[f.Name]...)
		_ = v.BindEnv(names...)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func envName(flag string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func normalizeFlags(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// defaultStatePath places client files under the user's config directory.
func defaultStatePath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "cuca", name)
}
