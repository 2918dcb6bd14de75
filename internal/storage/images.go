package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/emilythestrangee/decision-board/backend/internal/logging"
)

// Object prefixes inside the bucket.
const (
	PrefixDecisions = "decisions"
	PrefixAvatars   = "avatars"
)

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStore keeps uploaded images in an S3-compatible bucket and hands out
// public URLs for them.
type ImageStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

func NewImageStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, secure bool) (*ImageStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
	}

	u := client.EndpointURL()
	logging.Logger.Info().Str("bucket", bucket).Str("endpoint", u.Host).Msg("object storage connected")
	return &ImageStore{
		client:  client,
		bucket:  bucket,
		baseURL: fmt.Sprintf("%s://%s/%s", u.Scheme, u.Host, bucket),
	}, nil
}

// Upload stores an image under prefix and returns its public URL.
func (s *ImageStore) Upload(ctx context.Context, prefix string, r io.Reader, size int64, contentType string) (string, error) {
	name, err := ObjectName(prefix, contentType)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return s.baseURL + "/" + name, nil
}

// Delete removes the object behind a URL previously returned by Upload. URLs
// that do not point into this bucket are ignored.
func (s *ImageStore) Delete(ctx context.Context, url string) error {
	name, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// ErrUnsupportedType is returned for uploads that are not web images.
var ErrUnsupportedType = errors.New("unsupported image type")

// ObjectName picks a fresh object key under prefix with an extension
// matching contentType.
func ObjectName(prefix, contentType string) (string, error) {
	ext, ok := allowedContentTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return path.Join(prefix, uuid.NewString()+ext), nil
}
