package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/networksecurity/cloudsync/preflight"
	"github.com/networksecurity/cloudsync/s3sync"
)

func (a *app) syncCmd(dir s3sync.Direction) *cobra.Command {
	use, short := "push <local> <remote>", "Upload a local directory to an S3 location"
	if dir == s3sync.Pull {
		use, short = "pull <local> <remote>", "Download an S3 location into a local directory"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Usage errors are reported by cobra; failures past this point are not.
			cmd.SilenceUsage = true
			return a.runSync(cmd, s3sync.Request{
				Direction:      dir,
				LocalPath:      args[0],
				RemoteLocation: args[1],
			})
		},
	}
}

func (a *app) runSync(cmd *cobra.Command, req s3sync.Request) error {
	ctx := cmd.Context()

	opts := a.cfg.ClientOptions(a.logger)
	if a.runner != nil {
		opts = append(opts, s3sync.WithRunner(a.runner))
	}
	if a.cfg.Preflight {
		checkerOpts := append([]preflight.Option{
			preflight.WithLogger(a.logger),
			preflight.WithProfile(a.cfg.Profile),
		}, a.checkerOpts...)
		checker, err := preflight.New(ctx, checkerOpts...)
		if err != nil {
			a.logger.Error("preflight setup failed", "error", err)
			return err
		}
		opts = append(opts, s3sync.WithPreflight(checker))
	}

	client, err := s3sync.New(opts...)
	if err != nil {
		a.logger.Error("invalid sync options", "error", err)
		return err
	}

	result, err := client.Sync(ctx, req)
	printSummary(cmd.OutOrStdout(), result)
	return err
}

// printSummary writes one line describing the outcome.
func printSummary(w io.Writer, r *s3sync.Result) {
	if r == nil {
		return
	}

	label := color.New(color.FgGreen, color.Bold).Sprint("ok")
	switch {
	case r.Skipped:
		label = color.New(color.FgYellow, color.Bold).Sprint("skipped")
	case !r.OK():
		label = color.New(color.FgRed, color.Bold).Sprint("failed")
	}

	dry := ""
	if r.DryRun {
		dry = " (dryrun)"
	}

	fmt.Fprintf(w, "%s %s %s -> %s%s: %d uploaded, %d downloaded, %d copied, %d deleted, %d failed in %s\n",
		label,
		r.Request.Direction,
		r.Request.Source(),
		r.Request.Destination(),
		dry,
		r.Uploaded, r.Downloaded, r.Copied, r.Deleted, r.Failed,
		r.Duration.Round(time.Millisecond),
	)
}
