package s3sync_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cserrors "github.com/networksecurity/cloudsync/errors"
	"github.com/networksecurity/cloudsync/executor"
	"github.com/networksecurity/cloudsync/internal/testutil"
	"github.com/networksecurity/cloudsync/s3sync"
)

func newClient(t *testing.T, runner *testutil.RecordingRunner, opts ...s3sync.Option) *s3sync.Client {
	t.Helper()
	client, err := s3sync.New(append([]s3sync.Option{s3sync.WithRunner(runner)}, opts...)...)
	require.NoError(t, err)
	return client
}

func TestPushToRemoteArguments(t *testing.T) {
	runner := &testutil.RecordingRunner{}
	client := newClient(t, runner)

	_, err := client.PushToRemote(context.Background(), "/data/models", "s3://my-bucket/models")
	require.NoError(t, err)

	call := runner.Last()
	assert.Equal(t, "aws", call.Program)
	assert.Equal(t,
		[]string{"s3", "sync", "/data/models", "s3://my-bucket/models", "--region", "ap-southeast-1"},
		call.Args,
	)
}

func TestPullFromRemoteArguments(t *testing.T) {
	runner := &testutil.RecordingRunner{}
	client := newClient(t, runner)

	_, err := client.PullFromRemote(context.Background(), "/data/models", "s3://my-bucket/models")
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"s3", "sync", "s3://my-bucket/models", "/data/models", "--region", "ap-southeast-1"},
		runner.Last().Args,
	)
}

func TestArgumentOrderForArbitraryInputs(t *testing.T) {
	inputs := []struct{ local, remote string }{
		{"", ""},
		{"relative/dir", "s3://b"},
		{"/path with spaces", "s3://b/p q"},
		{"; rm -rf /", "$(whoami)"},
		{"--delete", "--dryrun"},
		{"日本語", "s3://bucket/データ"},
	}

	for _, in := range inputs {
		t.Run(fmt.Sprintf("%q->%q", in.local, in.remote), func(t *testing.T) {
			runner := &testutil.RecordingRunner{}
			client := newClient(t, runner)

			_, err := client.PushToRemote(context.Background(), in.local, in.remote)
			require.NoError(t, err)
			_, err = client.PullFromRemote(context.Background(), in.local, in.remote)
			require.NoError(t, err)

			calls := runner.Calls()
			require.Len(t, calls, 2)
			assert.Equal(t, []string{"s3", "sync", in.local, in.remote, "--region", s3sync.Region}, calls[0].Args)
			assert.Equal(t, []string{"s3", "sync", in.remote, in.local, "--region", s3sync.Region}, calls[1].Args)
		})
	}
}

func TestRepeatedCallsAreIndependent(t *testing.T) {
	runner := &testutil.RecordingRunner{}
	client := newClient(t, runner)

	for range 2 {
		_, err := client.PushToRemote(context.Background(), "/data", "s3://b/data")
		require.NoError(t, err)
	}

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, calls[0].Args, calls[1].Args)
}

func TestSilentModeSwallowsFailure(t *testing.T) {
	execErr := errors.New("exit status 1")
	runner := &testutil.RecordingRunner{
		RunFunc: testutil.Failing(1, "fatal error: Unable to locate credentials\n", execErr),
	}
	client := newClient(t, runner)

	result, err := client.PushToRemote(context.Background(), "/data", "s3://b")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.False(t, result.OK())
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stderr, "Unable to locate credentials")

	var syncErr *s3sync.SyncError
	require.ErrorAs(t, result.Err, &syncErr)
	assert.Equal(t, 1, syncErr.ExitCode)
}

func TestPropagateModeReturnsSyncError(t *testing.T) {
	execErr := errors.New("exit status 255")
	runner := &testutil.RecordingRunner{
		RunFunc: testutil.Failing(255, "upload failed: ./a to s3://b/a\nAccess Denied\n", execErr),
	}
	client := newClient(t, runner, s3sync.WithFailureMode(s3sync.FailurePropagate))

	result, err := client.PullFromRemote(context.Background(), "/data", "s3://b")
	require.Error(t, err)

	var syncErr *s3sync.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, 255, syncErr.ExitCode)
	assert.Contains(t, syncErr.Stderr, "Access Denied")
	assert.Equal(t, "aws s3 sync s3://b /data --region ap-southeast-1", syncErr.Command.String())
	assert.Equal(t, cserrors.CodeExecutionFailed, cserrors.CodeOf(err))
	assert.ErrorIs(t, err, execErr)
	assert.Contains(t, err.Error(), "status 255: Access Denied")

	assert.Same(t, syncErr, result.Err)
	assert.Equal(t, 1, result.Failed)
}

func TestRunnerOptions(t *testing.T) {
	runner := &testutil.RecordingRunner{}
	client := newClient(t, runner,
		s3sync.WithRetry(2, 5*time.Millisecond),
		s3sync.WithConsoleOutput(true),
		s3sync.WithEnv("AWS_PROFILE", "ml"),
	)

	_, err := client.PushToRemote(context.Background(), "/data", "s3://b")
	require.NoError(t, err)

	opts := runner.Last().Options
	assert.Equal(t, 2, opts.MaxRetries)
	assert.Equal(t, 5*time.Millisecond, opts.RetryDelay)
	assert.True(t, opts.RedirectToConsole)
	assert.True(t, opts.CaptureStdout)
	assert.True(t, opts.CaptureStderr)
	assert.Equal(t, "ml", opts.Env["AWS_PROFILE"])
	require.NotNil(t, opts.RetryOn)
}

func TestRetryCondition(t *testing.T) {
	runner := &testutil.RecordingRunner{}
	client := newClient(t, runner, s3sync.WithRetry(1, time.Millisecond))

	_, err := client.PushToRemote(context.Background(), "/data", "s3://b")
	require.NoError(t, err)

	retryOn := runner.Last().Options.RetryOn
	require.NotNil(t, retryOn)

	failed := errors.New("exit status")
	tests := map[int]bool{
		1:   true,
		2:   true,
		255: true,
		130: false,
		252: false,
		253: false,
	}
	for code, want := range tests {
		assert.Equal(t, want, retryOn(&executor.Result{ExitCode: code}, failed), "exit %d", code)
	}
	assert.True(t, retryOn(nil, failed))
}

func TestNoRetryByDefault(t *testing.T) {
	runner := &testutil.RecordingRunner{}
	client := newClient(t, runner)

	_, err := client.PushToRemote(context.Background(), "/data", "s3://b")
	require.NoError(t, err)

	opts := runner.Last().Options
	assert.Zero(t, opts.MaxRetries)
	assert.Nil(t, opts.RetryOn)
}

func TestResultCounters(t *testing.T) {
	stdout := strings.Join([]string{
		"Completed 1.0 KiB/2.0 KiB (1.0 KiB/s) with 1 file(s) remaining\r" +
			"upload: ./a.bin to s3://b/a.bin",
		"upload: ./b.bin to s3://b/b.bin",
		"delete: s3://b/old.bin",
	}, "\n")
	runner := &testutil.RecordingRunner{RunFunc: testutil.Succeeding(stdout)}
	client := newClient(t, runner)

	result, err := client.PushToRemote(context.Background(), ".", "s3://b")
	require.NoError(t, err)

	assert.True(t, result.OK())
	assert.Equal(t, 2, result.Uploaded)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 2, result.Transferred())
	assert.Equal(t, s3sync.Push, result.Request.Direction)
}

func TestPreflightFailure(t *testing.T) {
	checkErr := errors.New("bucket does not exist")
	checker := s3sync.CheckerFunc(func(context.Context, s3sync.Request) error { return checkErr })

	t.Run("silent skips the sync", func(t *testing.T) {
		runner := &testutil.RecordingRunner{}
		client := newClient(t, runner, s3sync.WithPreflight(checker))

		result, err := client.PushToRemote(context.Background(), "/data", "s3://missing")
		require.NoError(t, err)
		assert.True(t, result.Skipped)
		assert.Equal(t, -1, result.ExitCode)
		assert.ErrorIs(t, result.Err, s3sync.ErrPreflight)
		assert.Empty(t, runner.Calls())
	})

	t.Run("propagate returns the check error", func(t *testing.T) {
		runner := &testutil.RecordingRunner{}
		client := newClient(t, runner,
			s3sync.WithPreflight(checker),
			s3sync.WithFailureMode(s3sync.FailurePropagate),
		)

		_, err := client.PullFromRemote(context.Background(), "/data", "s3://missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, s3sync.ErrPreflight)
		assert.ErrorIs(t, err, checkErr)
		assert.Empty(t, runner.Calls())
	})
}

func TestPreflightReceivesRequest(t *testing.T) {
	var got s3sync.Request
	checker := s3sync.CheckerFunc(func(_ context.Context, req s3sync.Request) error {
		got = req
		return nil
	})
	runner := &testutil.RecordingRunner{}
	client := newClient(t, runner, s3sync.WithPreflight(checker))

	_, err := client.PullFromRemote(context.Background(), "/data", "s3://b/p")
	require.NoError(t, err)

	assert.Equal(t, s3sync.Request{Direction: s3sync.Pull, LocalPath: "/data", RemoteLocation: "s3://b/p"}, got)
	assert.Len(t, runner.Calls(), 1)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	runner := &testutil.RecordingRunner{
		RunFunc: testutil.Failing(2, "boom", errors.New("exit status 2")),
	}
	client := newClient(t, runner, s3sync.WithLogger(logger))

	_, err := client.PushToRemote(context.Background(), "/data", "s3://b")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "starting sync")
	assert.Contains(t, out, "sync failed, ignoring")
	assert.Contains(t, out, "direction=push")
	assert.Contains(t, out, "region=ap-southeast-1")
	assert.Contains(t, out, "exit_code=2")
}

// writeFakeTool installs a shell script that prints its arguments one per line
// and exits with the given status.
func writeFakeTool(t *testing.T, status int) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	path := filepath.Join(t.TempDir(), "aws")
	script := fmt.Sprintf("#!/bin/sh\nfor a in \"$@\"; do echo \"arg:$a\"; done\necho \"stderr line\" >&2\nexit %d\n", status)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestWithRealProcess(t *testing.T) {
	tool := writeFakeTool(t, 0)
	client, err := s3sync.New(s3sync.WithProgram(tool))
	require.NoError(t, err)

	result, err := client.PushToRemote(context.Background(), "/tmp/a b", "s3://bucket/x")
	require.NoError(t, err)

	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t,
		"arg:s3\narg:sync\narg:/tmp/a b\narg:s3://bucket/x\narg:--region\narg:ap-southeast-1\n",
		result.Stdout,
	)
}

func TestWithRealProcessFailure(t *testing.T) {
	tool := writeFakeTool(t, 7)

	silent, err := s3sync.New(s3sync.WithProgram(tool))
	require.NoError(t, err)
	result, err := silent.PullFromRemote(context.Background(), "/tmp/x", "s3://bucket/x")
	require.NoError(t, err)
	assert.Equal(t, 7, result.ExitCode)
	assert.Equal(t, "stderr line\n", result.Stderr)

	strict, err := s3sync.New(s3sync.WithProgram(tool), s3sync.WithFailureMode(s3sync.FailurePropagate))
	require.NoError(t, err)
	_, err = strict.PullFromRemote(context.Background(), "/tmp/x", "s3://bucket/x")

	var syncErr *s3sync.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, 7, syncErr.ExitCode)
	assert.Equal(t, "stderr line\n", syncErr.Stderr)
}

func TestMissingTool(t *testing.T) {
	tests := map[string]string{
		"bare name":     "cloudsync-no-such-aws",
		"absolute path": filepath.Join(t.TempDir(), "bin", "aws"),
	}

	for name, program := range tests {
		t.Run(name, func(t *testing.T) {
			client, err := s3sync.New(
				s3sync.WithProgram(program),
				s3sync.WithFailureMode(s3sync.FailurePropagate),
				s3sync.WithRetry(3, time.Hour),
			)
			require.NoError(t, err)

			result, err := client.PushToRemote(context.Background(), "/data", "s3://b")
			require.Error(t, err)
			assert.ErrorIs(t, err, s3sync.ErrToolNotFound)
			assert.Equal(t, cserrors.CodeToolNotFound, cserrors.CodeOf(err))
			assert.Equal(t, -1, result.ExitCode)
		})
	}
}

func TestFailedTransfersCountedFromStderr(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	tool := filepath.Join(t.TempDir(), "aws")
	script := "#!/bin/sh\n" +
		"echo 'upload: ./a to s3://b/a'\n" +
		"echo 'upload failed: ./c to s3://b/c An error occurred (AccessDenied)' >&2\n" +
		"exit 1\n"
	require.NoError(t, os.WriteFile(tool, []byte(script), 0o755))

	client, err := s3sync.New(s3sync.WithProgram(tool))
	require.NoError(t, err)

	result, err := client.PushToRemote(context.Background(), "/data", "s3://b")
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
	assert.Equal(t, 1, result.Uploaded)
	assert.Equal(t, 1, result.Failed)
	assert.False(t, result.OK())
}

func TestContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &testutil.RecordingRunner{
		RunFunc: func(ctx context.Context, _ string, _ []string) (*executor.Result, error) {
			return &executor.Result{ExitCode: -1}, ctx.Err()
		},
	}
	client := newClient(t, runner, s3sync.WithFailureMode(s3sync.FailurePropagate))

	_, err := client.PushToRemote(ctx, "/data", "s3://b")
	require.Error(t, err)
	assert.Equal(t, cserrors.CodeCancelled, cserrors.CodeOf(err))
}
