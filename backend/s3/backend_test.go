package s3

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/mwantia/x4vfs/backend"
	"github.com/mwantia/x4vfs/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Backend_ObjectKey(t *testing.T) {
	sb, err := NewS3Backend(S3BackendConfig{
		Endpoint: "localhost:9000",
		Bucket:   "games",
		Prefix:   "x4/",
	})
	require.NoError(t, err)

	assert.Equal(t, "s3", sb.Name())
	assert.True(t, sb.GetCapabilities().Contains(backend.CapabilityRangeRead))
	assert.Equal(t, "x4/09.cat", sb.objectKey("09.cat"))
	assert.Equal(t, "x4/extensions/ego_dlc/ext_01.dat", sb.objectKey("/extensions/ego_dlc/ext_01.dat"))
}

func TestConvertError(t *testing.T) {
	missing := minio.ErrorResponse{Code: "NoSuchKey", Message: "missing"}
	assert.ErrorIs(t, convertError(missing), data.ErrNotExist)

	denied := minio.ErrorResponse{Code: "AccessDenied"}
	assert.False(t, errors.Is(convertError(denied), data.ErrNotExist))
}
