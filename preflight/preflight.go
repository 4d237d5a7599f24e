// Package preflight verifies a sync request before the external tool is started.
//
// The historical utility never checked anything and left every failure to the tool.
// These checks are opt-in: they catch the common mistakes (a missing local directory,
// a misspelt or inaccessible bucket) with a clear, coded error instead of a tool exit
// status.
package preflight

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/networksecurity/cloudsync/errors"
	"github.com/networksecurity/cloudsync/s3sync"
)

// Checker runs the local and remote checks. It implements s3sync.Checker.
type Checker struct {
	fs          billy.Filesystem
	api         S3API
	logger      *slog.Logger
	checkLocal  bool
	checkBucket bool
}

var _ s3sync.Checker = (*Checker)(nil)

type options struct {
	fs          billy.Filesystem
	api         S3API
	logger      *slog.Logger
	profile     string
	checkLocal  bool
	checkBucket bool
}

// Option is a functional option for configuring the Checker.
type Option func(*options)

// WithFilesystem sets the filesystem used for local checks. Default is the OS filesystem.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithS3API sets the client used for the bucket check instead of one built from
// the default AWS credential chain.
func WithS3API(api S3API) Option {
	return func(o *options) {
		o.api = api
	}
}

// WithLogger configures the checker with a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProfile selects the shared config profile used when the S3 client is
// built from the default credential chain.
func WithProfile(profile string) Option {
	return func(o *options) {
		o.profile = profile
	}
}

// WithLocalCheck enables or disables the local directory check. Default is enabled.
func WithLocalCheck(enabled bool) Option {
	return func(o *options) {
		o.checkLocal = enabled
	}
}

// WithBucketCheck enables or disables the bucket check. Default is enabled.
func WithBucketCheck(enabled bool) Option {
	return func(o *options) {
		o.checkBucket = enabled
	}
}

// New creates a Checker. When the bucket check is enabled and no S3API is given,
// AWS configuration is loaded from the default credential chain for s3sync.Region.
func New(ctx context.Context, opts ...Option) (*Checker, error) {
	o := &options{checkLocal: true, checkBucket: true}
	for _, opt := range opts {
		opt(o)
	}

	if o.fs == nil {
		o.fs = osfs.New("/")
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if o.checkBucket && o.api == nil {
		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(s3sync.Region)}
		if o.profile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
		}
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to load AWS config")
		}
		o.api = s3.NewFromConfig(cfg)
	}

	return &Checker{
		fs:          o.fs,
		api:         o.api,
		logger:      o.logger,
		checkLocal:  o.checkLocal,
		checkBucket: o.checkBucket,
	}, nil
}

// Check implements s3sync.Checker.
func (c *Checker) Check(ctx context.Context, req s3sync.Request) error {
	if c.checkLocal {
		if err := c.checkLocalPath(req); err != nil {
			return err
		}
	}
	if c.checkBucket {
		if err := c.checkRemote(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// checkLocalPath requires the source directory of a push to exist. A pull may
// create its destination, but an existing non-directory is rejected.
func (c *Checker) checkLocalPath(req s3sync.Request) error {
	if req.LocalPath == "" {
		return errors.New(errors.CodeInvalidInput, "local path is empty")
	}

	path, err := filepath.Abs(req.LocalPath)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "failed to resolve local path")
	}

	info, err := c.fs.Stat(path)
	switch {
	case stderrors.Is(err, os.ErrNotExist):
		if req.Direction == s3sync.Pull {
			return nil
		}
		return errors.WrapWithContext(err, errors.CodeNotFound, "local directory does not exist",
			map[string]interface{}{"path": path})
	case err != nil:
		return errors.WrapWithContext(err, errors.CodeUnknown, "failed to stat local path",
			map[string]interface{}{"path": path})
	case !info.IsDir():
		return errors.New(errors.CodeInvalidInput, fmt.Sprintf("local path %s is not a directory", path))
	}

	c.logger.Debug("local path ok", "path", path)
	return nil
}
