package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwantia/x4vfs/backend"
	"github.com/mwantia/x4vfs/data"
	dataerrors "github.com/mwantia/x4vfs/data/errors"
)

// S3Backend reads archives stored as objects in a bucket. Data blobs are
// fetched with ranged GET requests, so only the bytes of an entry travel.
type S3Backend struct {
	mu sync.RWMutex

	client     *minio.Client
	bucketName string
	prefix     string
}

type S3BackendConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// Prefix is prepended to every key, so a bucket may hold several installs.
	Prefix string
}

func NewS3Backend(config S3BackendConfig) (*S3Backend, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &S3Backend{
		client:     client,
		bucketName: config.Bucket,
		prefix:     data.NormalizePath(config.Prefix),
	}, nil
}

// Returns the identifier name defined for this backend
func (*S3Backend) Name() string {
	return "s3"
}

// Open checks that the bucket exists.
func (sb *S3Backend) Open(ctx context.Context) error {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	exists, err := sb.client.BucketExists(ctx, sb.bucketName)
	if err != nil {
		return dataerrors.MountFailed(err, sb.bucketName)
	}

	if !exists {
		return dataerrors.MountFailed(errors.New("bucket does not exist"), sb.bucketName)
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (sb *S3Backend) Close(ctx context.Context) error {
	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (sb *S3Backend) GetCapabilities() *backend.BackendCapabilities {
	return &backend.BackendCapabilities{
		Capabilities: []backend.BackendCapability{
			backend.CapabilityListing,
			backend.CapabilityRangeRead,
			backend.CapabilitySharedRead,
			backend.CapabilityPersistence,
		},
		MaxObjectSize: 5 << 40,
	}
}

func (sb *S3Backend) ListObjects(ctx context.Context, dir string) ([]*data.ObjectStat, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	dir = data.NormalizePath(dir)
	prefix := sb.objectKey(dir)
	if prefix != "" {
		prefix += "/"
	}

	var stats []*data.ObjectStat
	for object := range sb.client.ListObjects(ctx, sb.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	}) {
		if object.Err != nil {
			return nil, object.Err
		}

		name := strings.TrimSuffix(strings.TrimPrefix(object.Key, prefix), "/")
		if name == "" {
			continue
		}

		stats = append(stats, &data.ObjectStat{
			Key:        data.JoinPath(dir, name),
			Name:       name,
			Size:       object.Size,
			IsDir:      strings.HasSuffix(object.Key, "/"),
			ModifyTime: object.LastModified,
		})
	}

	if len(stats) == 0 && dir != "" {
		return nil, data.ErrNotExist
	}

	return stats, nil
}

func (sb *S3Backend) OpenObject(ctx context.Context, key string) (io.ReadCloser, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	object, err := sb.client.GetObject(ctx, sb.bucketName, sb.objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, convertError(err)
	}

	// GetObject is lazy; Stat surfaces a missing key before the caller reads
	if _, err := object.Stat(); err != nil {
		object.Close()
		return nil, convertError(err)
	}

	return object, nil
}

func (sb *S3Backend) ReadObject(ctx context.Context, key string, offset int64, buf []byte) (int, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	if len(buf) == 0 {
		return 0, nil
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(offset, offset+int64(len(buf))-1); err != nil {
		return 0, err
	}

	object, err := sb.client.GetObject(ctx, sb.bucketName, sb.objectKey(key), opts)
	if err != nil {
		return 0, convertError(err)
	}
	defer object.Close()

	n, err := io.ReadFull(object, buf)
	if err != nil {
		return n, convertError(err)
	}

	return n, nil
}

func (sb *S3Backend) objectKey(key string) string {
	return data.JoinPath(sb.prefix, key)
}

func convertError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return errors.Join(data.ErrNotExist, err)
	}
	return err
}
