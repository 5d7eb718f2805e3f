package filestorage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/SeakMengs/CertEditor/internal/config"
	"github.com/SeakMengs/CertEditor/internal/util"
	"github.com/SeakMengs/CertEditor/pkg/certedit"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	signatureDirectory = "signatures"
	templateDirectory  = "templates"
	handlePrefix       = "s3:"
)

func NewMinioClient(cfg *config.MinioConfig) (*minio.Client, error) {
	return minio.New(cfg.ENDPOINT, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.ACCESS_KEY, cfg.SECRET_KEY, ""),
		Secure: cfg.USE_SSL,
		Region: "us-east-1",
	})
}

func createBucketIfNotExists(ctx context.Context, s3 *minio.Client, bucketName string) error {
	exists, err := s3.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}

	if !exists {
		err = s3.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return err
		}
	}

	return nil
}

// MinioBlobStore keeps uploaded signature images in a bucket. Revoking a
// handle removes the object.
type MinioBlobStore struct {
	s3     *minio.Client
	bucket string
}

func NewMinioBlobStore(ctx context.Context, s3 *minio.Client, bucket string) (*MinioBlobStore, error) {
	if err := createBucketIfNotExists(ctx, s3, bucket); err != nil {
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &MinioBlobStore{s3: s3, bucket: bucket}, nil
}

func objectKey(h certedit.BlobHandle) (string, bool) {
	key, ok := strings.CutPrefix(string(h), handlePrefix)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func (s *MinioBlobStore) Put(ctx context.Context, r io.Reader, size int64, contentType string) (certedit.BlobHandle, error) {
	key := path.Join(signatureDirectory, util.AddUniquePrefixToFileName("signature"))

	info, err := s.s3.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return certedit.BlobHandle(handlePrefix + info.Key), nil
}

func (s *MinioBlobStore) Open(ctx context.Context, h certedit.BlobHandle) (io.ReadCloser, error) {
	key, ok := objectKey(h)
	if !ok {
		return nil, fmt.Errorf("%w: %s", certedit.ErrBlobNotFound, h)
	}
	return s.open(ctx, key)
}

func (s *MinioBlobStore) open(ctx context.Context, key string) (io.ReadCloser, error) {
	object, err := s.s3.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}

	// GetObject is lazy, Stat surfaces a missing key now rather than on first read.
	if _, err := object.Stat(); err != nil {
		object.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", certedit.ErrBlobNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	return object, nil
}

func (s *MinioBlobStore) Revoke(ctx context.Context, h certedit.BlobHandle) error {
	key, ok := objectKey(h)
	if !ok {
		return fmt.Errorf("%w: %s", certedit.ErrBlobNotFound, h)
	}

	if err := s.s3.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}
	return nil
}

// TemplateSource serves template backgrounds stored under templates/ in the
// bucket. It is registered as the trusted "s3" image origin.
func (s *MinioBlobStore) TemplateSource() certedit.ImageSource {
	return certedit.ImageSourceFunc(func(ctx context.Context, key string) (io.ReadCloser, error) {
		clean := path.Clean("/" + key)
		return s.open(ctx, path.Join(templateDirectory, clean))
	})
}
