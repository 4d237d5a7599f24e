package preflight

import (
	"context"
	stderrors "errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/networksecurity/cloudsync/errors"
	"github.com/networksecurity/cloudsync/s3sync"
	"github.com/networksecurity/cloudsync/s3uri"
)

// checkRemote confirms the bucket named by the remote location exists and is
// reachable with the current credentials.
func (c *Checker) checkRemote(ctx context.Context, req s3sync.Request) error {
	loc, err := s3uri.Parse(req.RemoteLocation)
	if err != nil {
		return err
	}

	_, err = c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(loc.Bucket)})
	if err != nil {
		return classifyBucketError(err, loc.Bucket)
	}

	c.logger.Debug("bucket ok", "bucket", loc.Bucket, "region", s3sync.Region)
	return nil
}

// classifyBucketError maps an S3 API error to an error code.
func classifyBucketError(err error, bucket string) error {
	ctx := map[string]interface{}{"bucket": bucket, "region": s3sync.Region}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.WrapWithContext(err, errors.CodeOf(err), "bucket check interrupted", ctx)
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket":
			return errors.WrapWithContext(err, errors.CodeNotFound, "bucket does not exist", ctx)
		case "Forbidden", "AccessDenied":
			return errors.WrapWithContext(err, errors.CodeForbidden, "access to bucket denied", ctx)
		case "MovedPermanently", "PermanentRedirect", "301":
			return errors.WrapWithContext(err, errors.CodeInvalidConfig, "bucket is in a different region", ctx)
		}
	}

	return errors.WrapWithContext(err, errors.CodeNetwork, "bucket check failed", ctx)
}
