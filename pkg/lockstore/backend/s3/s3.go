// Package s3 is a lock store backend for deployments that would
// rather keep running-build lock records in object storage than stand
// up bitcask or Postgres - S3 itself, or any S3-compatible store
// reachable via LOCKARBITER_S3_ENDPOINT (minio, etc).
package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/pkg/lockstore"
)

// objectPrefix namespaces every object this backend ever writes under
// its own folder, so a bucket shared with other tenants never
// collides with lock records on key alone.
const objectPrefix = "lockarbiter/"

type s3Backend struct {
	c      *s3.Client
	bucket string

	l hclog.Logger
}

func init() {
	lockstore.RegisterBackendInit(newFactory)
}

func newFactory() {
	lockstore.RegisterBackend("s3", newS3Backend)
}

func newS3Backend(l hclog.Logger) (lockstore.Backend, error) {
	x := new(s3Backend)
	x.l = l.Named("s3")

	x.bucket = os.Getenv("LOCKARBITER_S3_BUCKET")
	if x.bucket == "" {
		l.Error("LOCKARBITER_S3_BUCKET must be set")
		return nil, errors.New("required variable unset")
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		l.Error("Error loading AWS config", "error", err)
		return nil, err
	}

	opts := []func(*s3.Options){}
	if endpoint := os.Getenv("LOCKARBITER_S3_ENDPOINT"); endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}
	x.c = s3.NewFromConfig(cfg, opts...)

	return x, nil
}

func (s *s3Backend) Get(k []byte) ([]byte, error) {
	out, err := s.c.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(k)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *s3Backend) Put(k, v []byte) error {
	_, err := s.c.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey(k)),
		Body:        bytes.NewReader(v),
		ContentType: aws.String("application/octet-stream"),
	})
	return err
}

func (s *s3Backend) Del(k []byte) error {
	_, err := s.c.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(k)),
	})
	return err
}

func (s *s3Backend) Close() error {
	return nil
}

// objectKey maps a lockstore key onto this backend's own namespaced
// object key, so lock records always live under objectPrefix no
// matter what key scheme lockstore itself happens to use.
func objectKey(k []byte) string {
	return objectPrefix + string(k)
}
