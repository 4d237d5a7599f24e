// Package config holds the cloudsync runtime configuration and converts it into
// s3sync client options.
//
// # Basic Usage
//
// The CLI fills a viper instance from flags, CLOUDSYNC_* environment variables and
// an optional config file, then loads it:
//
//	v := viper.New()
//	cfg, err := config.Load(v)
//	if err != nil {
//	    return err
//	}
//	client, err := s3sync.New(cfg.ClientOptions(logger)...)
//
// A config file might look like:
//
//	strict: true
//	delete: true
//	exclude: ["*.tmp", ".git/*"]
//	retries: 2
//	retry_delay: 5s
//	profile: ml-artifacts
package config

import (
	"log/slog"
	"time"

	"github.com/networksecurity/cloudsync/s3sync"
)

// Config is the complete runtime configuration.
type Config struct {
	// Program is the sync tool to run.
	Program string `mapstructure:"program"`

	// Strict propagates sync failures instead of logging and ignoring them.
	Strict bool `mapstructure:"strict"`

	// DryRun asks the tool to report without transferring.
	DryRun bool `mapstructure:"dryrun"`

	// Delete removes destination files missing from the source.
	Delete bool `mapstructure:"delete"`

	// Exclude and Include are tool filter patterns. Excludes are passed first so
	// an include can re-admit files an exclude removed.
	Exclude []string `mapstructure:"exclude"`
	Include []string `mapstructure:"include"`

	// Retries is how many times a failed sync is re-run.
	Retries    int           `mapstructure:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`

	// Preflight checks the local directory and bucket before syncing.
	Preflight bool `mapstructure:"preflight"`

	// Quiet stops the tool's own output from being streamed to the terminal.
	Quiet bool `mapstructure:"quiet"`

	// Profile sets AWS_PROFILE for the tool when non-empty.
	Profile string `mapstructure:"profile"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// Default returns the configuration that reproduces the historical behavior.
func Default() *Config {
	return &Config{
		Program:    s3sync.DefaultProgram,
		RetryDelay: time.Second,
		LogLevel:   "info",
	}
}

// FailureMode maps Strict to an s3sync failure mode.
func (c *Config) FailureMode() s3sync.FailureMode {
	if c.Strict {
		return s3sync.FailurePropagate
	}
	return s3sync.FailureSilent
}

// ClientOptions converts the configuration to s3sync options. Preflight is not
// included because building a checker may need AWS credentials; see cmd/cloudsync.
func (c *Config) ClientOptions(logger *slog.Logger) []s3sync.Option {
	opts := []s3sync.Option{
		s3sync.WithProgram(c.Program),
		s3sync.WithLogger(logger),
		s3sync.WithFailureMode(c.FailureMode()),
		s3sync.WithDryRun(c.DryRun),
		s3sync.WithDeleteExtra(c.Delete),
		s3sync.WithConsoleOutput(!c.Quiet),
	}

	for _, p := range c.Exclude {
		opts = append(opts, s3sync.WithExcludePattern(p))
	}
	for _, p := range c.Include {
		opts = append(opts, s3sync.WithIncludePattern(p))
	}

	if c.Retries > 0 {
		opts = append(opts, s3sync.WithRetry(c.Retries, c.RetryDelay))
	}
	if c.Profile != "" {
		opts = append(opts, s3sync.WithEnv("AWS_PROFILE", c.Profile))
	}

	return opts
}

// Level converts LogLevel to a slog level. Validate rejects unknown values.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
