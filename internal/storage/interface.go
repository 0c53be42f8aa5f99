package storage

import (
	"context"
	"io"
	"strings"
)

// Storage is where run artifacts end up: a local directory or an S3 bucket.
type Storage interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Upload(ctx context.Context, key string, data io.Reader) error
}

const s3Scheme = "s3://"

// IsS3URI reports whether target names S3 at all, well-formed or not.
func IsS3URI(target string) bool {
	return strings.HasPrefix(target, s3Scheme)
}

// ParseS3URI splits s3://bucket/key. ok is false for anything else.
func ParseS3URI(target string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(target, s3Scheme)
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
