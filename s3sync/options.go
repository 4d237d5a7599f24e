package s3sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/networksecurity/cloudsync/executor"
)

// FailureMode controls whether a failed sync is reported to the caller.
type FailureMode int

const (
	// FailureSilent logs failures and returns a nil error.
	FailureSilent FailureMode = iota
	// FailurePropagate returns a *SyncError for failures.
	FailurePropagate
)

// String returns "silent" or "propagate".
func (m FailureMode) String() string {
	if m == FailurePropagate {
		return "propagate"
	}
	return "silent"
}

// ParseFailureMode converts "silent" or "propagate" to a FailureMode. An empty
// string means silent and "strict" is accepted for propagate, matching the CLI flag.
func ParseFailureMode(s string) (FailureMode, error) {
	switch s {
	case "silent", "":
		return FailureSilent, nil
	case "propagate", "strict":
		return FailurePropagate, nil
	}
	return FailureSilent, fmt.Errorf("%w: unknown failure mode %q", ErrInvalidOption, s)
}

// Checker verifies a request before the external tool is started.
type Checker interface {
	Check(ctx context.Context, req Request) error
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context, req Request) error

// Check implements Checker.
func (f CheckerFunc) Check(ctx context.Context, req Request) error {
	return f(ctx, req)
}

type filter struct {
	flag    string
	pattern string
}

// clientConfig holds the immutable configuration of a Client.
type clientConfig struct {
	runner      executor.Runner
	program     string
	logger      *slog.Logger
	failureMode FailureMode
	preflight   Checker

	dryRun      bool
	deleteExtra bool
	filters     []filter
	extraArgs   []string

	maxRetries int
	retryDelay time.Duration
	console    bool
	env        map[string]string
}

// Option is a functional option for configuring the Client.
type Option func(*clientConfig)

func defaultConfig() *clientConfig {
	return &clientConfig{
		runner:      executor.NewOSRunner(),
		program:     DefaultProgram,
		logger:      nil,
		failureMode: FailureSilent,
		retryDelay:  time.Second,
		env:         make(map[string]string),
	}
}

// flags renders the behavior flags appended after --region.
func (c *clientConfig) flags() []string {
	var out []string
	if c.dryRun {
		out = append(out, "--dryrun")
	}
	if c.deleteExtra {
		out = append(out, "--delete")
	}
	for _, f := range c.filters {
		out = append(out, f.flag, f.pattern)
	}
	return append(out, c.extraArgs...)
}

func (c *clientConfig) validate() error {
	if c.runner == nil {
		return fmt.Errorf("%w: runner cannot be nil", ErrInvalidOption)
	}
	if c.program == "" {
		return fmt.Errorf("%w: program cannot be empty", ErrInvalidOption)
	}
	if c.maxRetries < 0 {
		return fmt.Errorf("%w: retries cannot be negative", ErrInvalidOption)
	}
	for _, f := range c.filters {
		if !doublestar.ValidatePattern(f.pattern) {
			return fmt.Errorf("%w: invalid %s pattern %q", ErrInvalidOption, f.flag, f.pattern)
		}
	}
	return nil
}

// runOptions converts the client configuration to executor options.
func (c *clientConfig) runOptions() []executor.Option {
	opts := []executor.Option{
		executor.WithCapture(true, true, false),
		executor.WithConsoleRedirect(c.console),
	}
	if c.maxRetries > 0 {
		opts = append(opts,
			executor.WithRetry(c.maxRetries, c.retryDelay),
			executor.WithRetryCondition(retryable),
		)
	}
	if len(c.env) > 0 {
		opts = append(opts, executor.WithEnv(c.env))
	}
	return opts
}

// Exit statuses of the AWS CLI that repeat identically on a rerun.
const (
	exitInterrupted   = 130
	exitUsageError    = 252
	exitInvalidConfig = 253
)

// retryable reports whether a failed run is worth repeating.
func retryable(r *executor.Result, _ error) bool {
	if r == nil {
		return true
	}
	switch r.ExitCode {
	case exitInterrupted, exitUsageError, exitInvalidConfig:
		return false
	}
	return true
}

// WithRunner replaces the process runner. Tests use this to record invocations.
func WithRunner(runner executor.Runner) Option {
	return func(c *clientConfig) {
		c.runner = runner
	}
}

// WithProgram sets the path or name of the external tool. Default is "aws".
func WithProgram(program string) Option {
	return func(c *clientConfig) {
		c.program = program
	}
}

// WithLogger configures the client with a custom logger.
// If logger is nil, logging will be disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithFailureMode selects silent (legacy) or propagating failure handling.
func WithFailureMode(mode FailureMode) Option {
	return func(c *clientConfig) {
		c.failureMode = mode
	}
}

// WithPreflight runs checker before every sync. A nil checker disables preflight.
func WithPreflight(checker Checker) Option {
	return func(c *clientConfig) {
		c.preflight = checker
	}
}

// WithDryRun passes --dryrun so the tool only reports what it would transfer.
func WithDryRun(dryRun bool) Option {
	return func(c *clientConfig) {
		c.dryRun = dryRun
	}
}

// WithDeleteExtra passes --delete so files missing from the source are removed
// from the destination.
func WithDeleteExtra(deleteExtra bool) Option {
	return func(c *clientConfig) {
		c.deleteExtra = deleteExtra
	}
}

// WithExcludePattern appends an --exclude filter. Filters keep the order in which
// they were added; the tool gives later filters precedence.
func WithExcludePattern(pattern string) Option {
	return func(c *clientConfig) {
		c.filters = append(c.filters, filter{flag: "--exclude", pattern: pattern})
	}
}

// WithIncludePattern appends an --include filter.
func WithIncludePattern(pattern string) Option {
	return func(c *clientConfig) {
		c.filters = append(c.filters, filter{flag: "--include", pattern: pattern})
	}
}

// WithExtraArgs appends arguments verbatim after all other flags.
func WithExtraArgs(args ...string) Option {
	return func(c *clientConfig) {
		c.extraArgs = append(c.extraArgs, args...)
	}
}

// WithRetry re-runs a failing sync up to maxRetries more times, waiting delay
// between attempts. Default is no retries.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *clientConfig) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

// WithConsoleOutput streams the tool's output to the process stdout/stderr while
// still capturing it.
func WithConsoleOutput(enabled bool) Option {
	return func(c *clientConfig) {
		c.console = enabled
	}
}

// WithEnv sets an environment variable for the external tool, for example AWS_PROFILE.
func WithEnv(key, value string) Option {
	return func(c *clientConfig) {
		if c.env == nil {
			c.env = make(map[string]string)
		}
		c.env[key] = value
	}
}
