package s3sync

import (
	"strings"
	"time"

	"github.com/networksecurity/cloudsync/executor"
)

// Result describes one sync invocation.
type Result struct {
	// Request is the sync that was asked for
	Request Request

	// Command is the command that was (or would have been) run
	Command executor.Command

	// ExitCode is the tool's exit status; -1 if it was not started or did not finish
	ExitCode int

	// Stdout and Stderr are the captured output streams
	Stdout string
	Stderr string

	// Transfer counters parsed from the tool's output
	Uploaded   int
	Downloaded int
	Copied     int
	Deleted    int
	Failed     int

	// DryRun is set when the tool only reported planned operations
	DryRun bool

	// Skipped is set when a preflight check prevented the sync from starting
	Skipped bool

	// Err is the failure, if any. It is populated in both failure modes.
	Err error

	// Duration is how long the call took
	Duration time.Duration
}

// OK reports whether the tool ran and exited successfully.
func (r *Result) OK() bool {
	return r != nil && !r.Skipped && r.ExitCode == 0 && r.Err == nil
}

// Transferred is the number of files the tool uploaded, downloaded or copied.
func (r *Result) Transferred() int {
	return r.Uploaded + r.Downloaded + r.Copied
}

// countOperations tallies the per-file lines printed by `aws s3 sync`, e.g.
//
//	upload: ./a.txt to s3://bucket/a.txt
//	(dryrun) delete: s3://bucket/b.txt
//	download failed: s3://bucket/c.txt to ./c.txt An error occurred (403) ...
//
// Progress lines are separated by carriage returns and are ignored.
func (r *Result) countOperations(output string) {
	lines := strings.FieldsFunc(output, func(c rune) bool { return c == '\n' || c == '\r' })
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "(dryrun) "); ok {
			r.DryRun = true
			line = rest
		}

		op, _, found := strings.Cut(line, ":")
		if !found {
			continue
		}

		if verb, ok := strings.CutSuffix(op, " failed"); ok {
			if isOperation(verb) {
				r.Failed++
			}
			continue
		}

		switch op {
		case "upload":
			r.Uploaded++
		case "download":
			r.Downloaded++
		case "copy":
			r.Copied++
		case "delete":
			r.Deleted++
		}
	}
}

func isOperation(verb string) bool {
	switch verb {
	case "upload", "download", "copy", "delete":
		return true
	}
	return false
}
