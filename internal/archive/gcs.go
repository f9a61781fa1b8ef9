package archive

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"

	"github.com/gotn-ai/gotn/internal/gotnerr"
)

// GCSSink archives run tarballs to a Google Cloud Storage bucket.
type GCSSink struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSSink builds a GCSSink for the given bucket, using application
// default credentials.
func NewGCSSink(ctx context.Context, bucket, prefix string) (*GCSSink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, gotnerr.Wrap(gotnerr.KindInternal, "gcs client", err)
	}
	return &GCSSink{client: client, bucket: bucket, prefix: prefix}, nil
}

func (g *GCSSink) Store(ctx context.Context, key string, tarball []byte) error {
	fullKey := key
	if g.prefix != "" {
		fullKey = fmt.Sprintf("%s/%s", g.prefix, key)
	}
	w := g.client.Bucket(g.bucket).Object(fullKey).NewWriter(ctx)
	if _, err := w.Write(tarball); err != nil {
		w.Close()
		return gotnerr.Wrap(gotnerr.KindBackendUnavail, "gcs write", err)
	}
	if err := w.Close(); err != nil {
		return gotnerr.Wrap(gotnerr.KindBackendUnavail, "gcs close", err)
	}
	return nil
}
