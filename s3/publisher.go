// Package s3 provides a staticgen.Publisher for S3-compatible object stores
// (Amazon S3, MinIO, Cloudflare R2, DigitalOcean Spaces, ...).
package s3

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/fwojciec/staticgen"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Ensure Publisher implements staticgen.Publisher at compile time.
var _ staticgen.Publisher = (*Publisher)(nil)

// Publisher pushes objects to one bucket of an S3-compatible endpoint.
// Registered under the "s3" engine name.
type Publisher struct {
	client *minio.Client
	bucket string
}

// NewPublisher creates a Publisher from the target configuration. With no
// explicit credentials the standard AWS environment variables and IAM
// metadata are consulted.
func NewPublisher(target staticgen.PublishTarget) (*Publisher, error) {
	if target.Bucket == "" {
		return nil, staticgen.Errorf(staticgen.ECONFIG, "publish target %q: bucket required for s3 engine", target.Name)
	}
	endpoint := target.Endpoint
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}
	secure := true
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		secure = u.Scheme != "http"
		endpoint = u.Host
	}

	var creds *credentials.Credentials
	if target.AccessKey != "" {
		creds = credentials.NewStaticV4(target.AccessKey, target.SecretKey, "")
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.IAM{},
		})
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: secure,
	})
	if err != nil {
		return nil, staticgen.Errorf(staticgen.ECONFIG, "publish target %q: %v", target.Name, err)
	}

	return &Publisher{client: client, bucket: target.Bucket}, nil
}

// Upload stores content at path in the bucket with the given content type.
func (p *Publisher) Upload(ctx context.Context, path string, content []byte, contentType string) error {
	_, err := p.client.PutObject(ctx, p.bucket, path, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return classify("upload", path, err)
	}
	return nil
}

// Delete removes path from the bucket. S3 delete is idempotent; deleting a
// missing key succeeds.
func (p *Publisher) Delete(ctx context.Context, path string) error {
	if err := p.client.RemoveObject(ctx, p.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return classify("delete", path, err)
	}
	return nil
}

// ListRemote returns every object key in the bucket.
func (p *Publisher) ListRemote(ctx context.Context) ([]string, error) {
	var rtn []string
	for object := range p.client.ListObjects(ctx, p.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			return nil, classify("list", "", object.Err)
		}
		rtn = append(rtn, object.Key)
	}
	return rtn, nil
}

// classify sorts backend failures into transient (worth retrying: network
// errors, throttling, 5xx) and permanent (auth rejections and other 4xx).
func classify(op, path string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return staticgen.Errorf(staticgen.EPUBLISHTRANSIENT, "%s %s: %v", op, path, err)
	}

	resp := minio.ToErrorResponse(err)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.Code == "SlowDown",
		resp.Code == "RequestTimeout",
		resp.StatusCode >= 500:
		return staticgen.Errorf(staticgen.EPUBLISHTRANSIENT, "%s %s: %v", op, path, err)
	case resp.StatusCode >= 400:
		return staticgen.Errorf(staticgen.EPUBLISHPERMANENT, "%s %s: %v", op, path, err)
	}

	// Errors without an HTTP response are usually connectivity problems.
	if strings.Contains(err.Error(), "connection") || strings.Contains(err.Error(), "timeout") {
		return staticgen.Errorf(staticgen.EPUBLISHTRANSIENT, "%s %s: %v", op, path, err)
	}
	return staticgen.Errorf(staticgen.EPUBLISHPERMANENT, "%s %s: %v", op, path, err)
}
