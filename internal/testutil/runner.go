// Package testutil provides test doubles shared by the cloudsync packages.
// This package is internal and should only be used for testing.
package testutil

import (
	"context"
	"sync"

	"github.com/networksecurity/cloudsync/executor"
)

// Invocation is one recorded call to a RecordingRunner.
type Invocation struct {
	Program string
	Args    []string
	Options *executor.Options
}

// RecordingRunner is an executor.Runner that records invocations instead of
// starting processes. RunFunc, when set, decides the outcome of each call.
type RecordingRunner struct {
	RunFunc func(ctx context.Context, program string, args []string) (*executor.Result, error)

	mu    sync.Mutex
	calls []Invocation
}

// Run implements executor.Runner.
func (r *RecordingRunner) Run(
	ctx context.Context,
	program string,
	args []string,
	opts ...executor.Option,
) (*executor.Result, error) {
	options := executor.DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	r.mu.Lock()
	r.calls = append(r.calls, Invocation{
		Program: program,
		Args:    append([]string(nil), args...),
		Options: options,
	})
	r.mu.Unlock()

	if r.RunFunc != nil {
		return r.RunFunc(ctx, program, args)
	}
	return &executor.Result{ExitCode: 0}, nil
}

// Calls returns a copy of the recorded invocations.
func (r *RecordingRunner) Calls() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Invocation(nil), r.calls...)
}

// Last returns the most recent invocation. It panics if there were none.
func (r *RecordingRunner) Last() Invocation {
	calls := r.Calls()
	return calls[len(calls)-1]
}

// Failing returns a RunFunc that exits with code and writes stderr.
func Failing(code int, stderr string, err error) func(context.Context, string, []string) (*executor.Result, error) {
	return func(context.Context, string, []string) (*executor.Result, error) {
		return &executor.Result{ExitCode: code, Stderr: stderr, Err: err}, err
	}
}

// Succeeding returns a RunFunc that exits 0 and writes stdout.
func Succeeding(stdout string) func(context.Context, string, []string) (*executor.Result, error) {
	return func(context.Context, string, []string) (*executor.Result, error) {
		return &executor.Result{ExitCode: 0, Stdout: stdout}, nil
	}
}
