package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/networksecurity/cloudsync/errors"
)

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New(errors.CodeInvalidInput, "configuration is nil")
	}

	var problems []string

	if strings.TrimSpace(c.Program) == "" {
		problems = append(problems, "program must not be empty")
	}
	if c.Retries < 0 {
		problems = append(problems, fmt.Sprintf("retries must not be negative (got %d)", c.Retries))
	}
	if c.RetryDelay < 0 {
		problems = append(problems, fmt.Sprintf("retry_delay must not be negative (got %s)", c.RetryDelay))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		problems = append(problems, fmt.Sprintf("unknown log_level %q", c.LogLevel))
	}

	problems = append(problems, invalidPatterns("exclude", c.Exclude)...)
	problems = append(problems, invalidPatterns("include", c.Include)...)

	if len(problems) > 0 {
		return errors.New(
			errors.CodeInvalidConfig,
			fmt.Sprintf("configuration validation failed: %s", strings.Join(problems, "; ")),
		)
	}
	return nil
}

func invalidPatterns(field string, patterns []string) []string {
	var out []string
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			out = append(out, fmt.Sprintf("invalid %s pattern %q", field, p))
		}
	}
	return out
}
