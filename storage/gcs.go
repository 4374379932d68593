package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/mrsingh-rishi/storybook-narrator/model"
)

// GCS stores artifacts as objects in a Cloud Storage bucket. Writes use a
// does-not-exist precondition so an object is never overwritten.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCS(ctx context.Context, bucket, prefix, credentialsFile string) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (g *GCS) Save(ctx context.Context, name, contentType string, r io.Reader) (model.AudioArtifact, error) {
	object := path.Join(g.prefix, name)
	w := g.client.Bucket(g.bucket).Object(object).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType

	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return model.AudioArtifact{}, g.writeErr(object, err)
	}
	if err := w.Close(); err != nil {
		return model.AudioArtifact{}, g.writeErr(object, err)
	}
	return model.AudioArtifact{Location: gsURI(g.bucket, object), ContentType: contentType, Size: n}, nil
}

func (g *GCS) writeErr(object string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
		return fmt.Errorf("%w: %s", ErrExists, gsURI(g.bucket, object))
	}
	return fmt.Errorf("write gcs object %s: %w", object, err)
}

func (g *GCS) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, object, err := parseGSURI(location)
	if err != nil {
		return nil, err
	}
	if bucket != g.bucket {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	}
	rc, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	}
	if err != nil {
		return nil, fmt.Errorf("read gcs object %s: %w", object, err)
	}
	return rc, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

func gsURI(bucket, object string) string {
	return "gs://" + bucket + "/" + object
}

func parseGSURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	return bucket, object, nil
}
