package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// MinioStore keeps transfer proofs in an S3 compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	now    func() time.Time
}

func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create minio client")
	}
	return &MinioStore{client: client, bucket: bucket, now: time.Now}, nil
}

// EnsureBucket creates the proofs bucket when it is missing.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrapf(err, "could not check bucket %s", s.bucket)
	}
	if exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	return errors.Wrapf(err, "could not create bucket %s", s.bucket)
}

// Store uploads body and returns the object name used as the proof reference.
func (s *MinioStore) Store(ctx context.Context, name string, contentType string, body io.Reader, size int64) (string, error) {
	objectName := s.objectName(name)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Wrap(err, "could not upload proof")
	}
	return objectName, nil
}

func (s *MinioStore) Exists(ctx context.Context, ref string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, ref, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, errors.Wrapf(err, "could not stat proof %s", ref)
}

func (s *MinioStore) Remove(ctx context.Context, ref string) error {
	err := s.client.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{})
	return errors.Wrapf(err, "could not remove proof %s", ref)
}

func (s *MinioStore) objectName(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("proofs/%s/%s%s", s.now().Format("2006/01/02"), uuid.NewString(), ext)
}
