package s3sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Client runs directory syncs through the external tool.
//
// Thread Safety: a Client holds only configuration fixed at construction time and
// is safe for concurrent use. Concurrent syncs into the same directory or prefix are
// not coordinated; that is the caller's concern.
type Client struct {
	cfg    *clientConfig
	logger *slog.Logger
}

// New creates a Client. Without options it behaves like the historical utility:
// it runs `aws` from PATH, runs no checks and swallows failures.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{cfg: cfg, logger: logger}, nil
}

// FailureMode returns the configured failure mode.
func (c *Client) FailureMode() FailureMode {
	return c.cfg.failureMode
}

// PushToRemote syncs localPath to remoteLocation:
//
//	aws s3 sync <localPath> <remoteLocation> --region ap-southeast-1
//
// Neither argument is validated. The call blocks until the tool exits. In
// FailureSilent mode the error is always nil; inspect Result to see the outcome.
func (c *Client) PushToRemote(ctx context.Context, localPath, remoteLocation string) (*Result, error) {
	return c.Sync(ctx, Request{Direction: Push, LocalPath: localPath, RemoteLocation: remoteLocation})
}

// PullFromRemote syncs remoteLocation to localPath:
//
//	aws s3 sync <remoteLocation> <localPath> --region ap-southeast-1
//
// It follows the same contract as PushToRemote.
func (c *Client) PullFromRemote(ctx context.Context, localPath, remoteLocation string) (*Result, error) {
	return c.Sync(ctx, Request{Direction: Pull, LocalPath: localPath, RemoteLocation: remoteLocation})
}

// Sync runs a single request. PushToRemote and PullFromRemote are the usual entry points.
func (c *Client) Sync(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	cmd := c.BuildCommand(req)
	result := &Result{Request: req, Command: cmd, ExitCode: -1}

	logger := c.logger.With(
		"direction", req.Direction.String(),
		"local", req.LocalPath,
		"remote", req.RemoteLocation,
		"region", Region,
	)

	if c.cfg.preflight != nil {
		if err := c.cfg.preflight.Check(ctx, req); err != nil {
			result.Skipped = true
			result.Err = fmt.Errorf("%w: %w", ErrPreflight, err)
			result.Duration = time.Since(start)
			return c.finish(logger, result)
		}
	}

	logger.Debug("starting sync", "command", cmd.String())

	res, err := c.cfg.runner.Run(ctx, cmd.Program, cmd.Args, c.cfg.runOptions()...)
	result.Duration = time.Since(start)

	if res != nil {
		result.ExitCode = res.ExitCode
		result.Stdout = res.Stdout
		result.Stderr = res.Stderr
		// Per-file failures go to stderr, transfers to stdout.
		result.countOperations(res.Stdout)
		result.countOperations(res.Stderr)
	}
	if err != nil {
		result.Err = newSyncError(cmd, res, err)
	} else if res == nil {
		// A runner that reports success without a result is treated as a clean exit.
		result.ExitCode = 0
	}

	return c.finish(logger, result)
}

// finish logs the outcome and applies the failure mode.
func (c *Client) finish(logger *slog.Logger, result *Result) (*Result, error) {
	if result.Err == nil {
		logger.Info("sync completed",
			"uploaded", result.Uploaded,
			"downloaded", result.Downloaded,
			"copied", result.Copied,
			"deleted", result.Deleted,
			"dry_run", result.DryRun,
			"duration", result.Duration,
		)
		return result, nil
	}

	if c.cfg.failureMode == FailurePropagate {
		logger.Error("sync failed", "exit_code", result.ExitCode, "error", result.Err)
		return result, result.Err
	}

	logger.Warn("sync failed, ignoring", "exit_code", result.ExitCode, "error", result.Err)
	return result, nil
}
