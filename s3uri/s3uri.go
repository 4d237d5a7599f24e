// Package s3uri parses remote location identifiers of the form s3://bucket/prefix.
//
// The sync client passes remote identifiers to the external tool unmodified; this
// package is only used where the bucket has to be known, such as preflight checks
// and log attributes.
package s3uri

import (
	"fmt"
	"strings"

	"github.com/networksecurity/cloudsync/errors"
)

// Scheme is the URI scheme of S3 locations.
const Scheme = "s3://"

// Location is a parsed S3 location.
type Location struct {
	Bucket string
	Prefix string
}

// String renders the location back into s3://bucket/prefix form.
func (l Location) String() string {
	if l.Prefix == "" {
		return Scheme + l.Bucket
	}
	return Scheme + l.Bucket + "/" + l.Prefix
}

// IsRemote reports whether s uses the s3:// scheme.
func IsRemote(s string) bool {
	return len(s) >= len(Scheme) && strings.EqualFold(s[:len(Scheme)], Scheme)
}

// Parse splits an s3:// identifier into bucket and prefix. The prefix keeps any
// trailing slash so "s3://b/dir/" and "s3://b/dir" stay distinguishable.
func Parse(s string) (Location, error) {
	if !IsRemote(s) {
		return Location{}, errors.New(errors.CodeInvalidInput, fmt.Sprintf("%q is not an s3:// location", s))
	}

	rest := s[len(Scheme):]
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, errors.New(errors.CodeInvalidInput, fmt.Sprintf("%q has no bucket", s))
	}

	return Location{Bucket: bucket, Prefix: prefix}, nil
}
