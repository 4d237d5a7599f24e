// Package s3sync synchronizes a local directory with an S3 location by running
// `aws s3 sync` in either direction.
//
// All transfer logic belongs to the external tool. The client builds an argument
// vector (never a shell string), runs it through an injected executor.Runner, waits
// for the process to exit and reports what happened.
//
// The region is fixed to ap-southeast-1. Inputs are passed through untouched: empty
// strings, relative paths and remote identifiers reach the tool exactly as given.
//
// Failure visibility is a client option. The default, FailureSilent, matches the
// historical fire-and-forget behavior: a failing sync is logged and the call returns
// a nil error, although the returned Result still carries the exit code and stderr.
// FailurePropagate returns a *SyncError instead.
//
// Example usage:
//
//	client, err := s3sync.New(
//	    s3sync.WithLogger(slog.Default()),
//	    s3sync.WithFailureMode(s3sync.FailurePropagate),
//	)
//	if err != nil {
//	    return err
//	}
//
//	result, err := client.PushToRemote(ctx, "/data/models", "s3://my-bucket/models")
//	if err != nil {
//	    return fmt.Errorf("push failed: %w", err)
//	}
//	fmt.Printf("uploaded %d files\n", result.Uploaded)
package s3sync
