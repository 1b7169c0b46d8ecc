package clients

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/spams12/gege/internal/cfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBucketOwned(t *testing.T) {
	assert.True(t, isBucketOwned(minio.ErrorResponse{Code: "BucketAlreadyOwnedByYou"}))
	assert.True(t, isBucketOwned(minio.ErrorResponse{Code: "BucketAlreadyExists"}))
	assert.False(t, isBucketOwned(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isBucketOwned(errors.New("dial tcp: connection refused")))
}

func TestNewMinIOClient(t *testing.T) {
	client, err := NewMinIOClient(&cfg.MinIOCfg{
		MinioEndpoint:     "minio:9000",
		MinioRootUser:     "minio",
		MinioRootPassword: "minio123",
		Region:            "us-east-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "minio:9000", client.EndpointURL().Host)
	assert.Equal(t, "http", client.EndpointURL().Scheme)
}
