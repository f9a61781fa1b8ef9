// Package archive optionally uploads completed run directories to S3 or
// GCS for off-box retention. The journal and local run directory remain
// authoritative; archival is best-effort and never blocks execution.
package archive

import "context"

// Sink uploads a run's tarball bytes under key.
type Sink interface {
	Store(ctx context.Context, key string, tarball []byte) error
}

// NoopSink is used when no archive backend is configured.
type NoopSink struct{}

func (NoopSink) Store(context.Context, string, []byte) error { return nil }
