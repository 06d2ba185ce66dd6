package backend

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mwantia/x4vfs/data"
	dataerrors "github.com/mwantia/x4vfs/data/errors"
)

// ArchiveStorage exposes the files an archive source lives in: manifests,
// data blobs and the directories that hold them. Keys are slash separated
// and relative to the storage root.
type ArchiveStorage interface {
	Backend

	// ListObjects returns the immediate children of dir ("" is the root).
	// Returns data.ErrNotExist if dir does not exist.
	ListObjects(ctx context.Context, dir string) ([]*data.ObjectStat, error)

	// OpenObject opens the whole object for sequential reading.
	OpenObject(ctx context.Context, key string) (io.ReadCloser, error)

	// ReadObject reads len(buf) bytes starting at offset, with io.ReaderAt
	// semantics: n < len(buf) always comes with a non-nil error.
	ReadObject(ctx context.Context, key string, offset int64, buf []byte) (int, error)
}

// ReadRange reads exactly size bytes at offset from key.
// Any failure, including a short read, is reported as data.ErrReadFailed.
// Ranges that are negative or reach past the storage's MaxObjectSize are
// rejected before anything is allocated.
func ReadRange(ctx context.Context, storage ArchiveStorage, key string, offset, size int64) ([]byte, error) {
	if offset < 0 || size < 0 {
		return nil, dataerrors.ReadFailed(fmt.Errorf("invalid range %d+%d", offset, size), key)
	}
	if caps := storage.GetCapabilities(); caps != nil && caps.MaxObjectSize > 0 {
		if size > caps.MaxObjectSize || offset > caps.MaxObjectSize-size {
			return nil, dataerrors.ReadFailed(fmt.Errorf("range %d+%d exceeds object size limit %d", offset, size, caps.MaxObjectSize), key)
		}
	}

	buf := make([]byte, size)
	if size == 0 {
		return buf, nil
	}

	n, err := storage.ReadObject(ctx, key, offset, buf)
	if n == len(buf) {
		return buf, nil
	}

	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}

	return nil, dataerrors.ReadFailed(err, key)
}

// Exists reports whether key is listed in its parent directory.
func Exists(ctx context.Context, storage ArchiveStorage, dir, name string) (bool, error) {
	stats, err := storage.ListObjects(ctx, dir)
	if err != nil {
		if errors.Is(err, data.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	for _, stat := range stats {
		if stat.Name == name && !stat.IsDir {
			return true, nil
		}
	}

	return false, nil
}
