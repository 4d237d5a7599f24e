package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/networksecurity/cloudsync/config"
	"github.com/networksecurity/cloudsync/executor"
	"github.com/networksecurity/cloudsync/preflight"
	"github.com/networksecurity/cloudsync/s3sync"
)

var version = "dev"

const configFileName = "cloudsync"

// app carries what the commands share. Tests replace runner and the writers.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger

	runner      executor.Runner
	checkerOpts []preflight.Option
	stdout      io.Writer
	stderr      io.Writer
}

func newApp() *app {
	return &app{
		v:      viper.New(),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cloudsync",
		Short:         "Sync a local directory with S3 in region " + s3sync.Region,
		Version:       version,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.SortFlags = false
	flags.StringP("config", "c", "", "config file (default ./cloudsync.yaml or ~/.config/cloudsync/cloudsync.yaml)")
	flags.Bool("strict", false, "return a non-zero exit status when the sync fails")
	flags.Bool("dryrun", false, "show what would be transferred without transferring")
	flags.Bool("delete", false, "delete destination files that are not in the source")
	flags.StringArray("exclude", nil, "exclude files matching pattern (repeatable)")
	flags.StringArray("include", nil, "include files matching pattern (repeatable)")
	flags.Int("retries", 0, "re-run a failed sync this many times")
	flags.Duration("retry-delay", time.Second, "wait between retries")
	flags.Bool("preflight", false, "check the local directory and bucket before syncing")
	flags.BoolP("quiet", "q", false, "do not stream the sync tool's output")
	flags.String("profile", "", "AWS profile passed to the sync tool")
	flags.String("program", "aws", "sync tool to run")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(a.syncCmd(s3sync.Push), a.syncCmd(s3sync.Pull), a.versionCmd())
	return root
}

// load reads .env, the config file, flags and environment into a.cfg and sets up logging.
func (a *app) load(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		a.v.SetConfigFile(path)
	} else {
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(filepath.Join(home, ".config", "cloudsync"))
		}
		a.v.SetConfigName(configFileName)
	}

	// The search path may come up empty; a file named with --config must exist.
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("config read '%s': %w", path, err)
		}
	}

	bindings := map[string]string{
		"strict":      "strict",
		"dryrun":      "dryrun",
		"delete":      "delete",
		"exclude":     "exclude",
		"include":     "include",
		"retries":     "retries",
		"retry_delay": "retry-delay",
		"preflight":   "preflight",
		"quiet":       "quiet",
		"profile":     "profile",
		"program":     "program",
		"log_level":   "log-level",
	}
	for key, flag := range bindings {
		if err := a.v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(a.stderr, cfg.Level())
	slog.SetDefault(a.logger)

	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug("loaded config", "file", used)
	}
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Needs no configuration, so a broken config file must not stop it.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cloudsync %s\n", version)
		},
	}
}
