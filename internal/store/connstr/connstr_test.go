package connstr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
)

func TestParse(t *testing.T) {
	v, err := Parse("Endpoint=http://localhost:9000; AccessKey=minio;SecretKey=abc==;UseSSL=false;")

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", v.Get(KeyEndpoint))
	assert.Equal(t, "minio", v.Get("accesskey"))
	assert.Equal(t, "abc==", v.Get(KeySecretKey))
	assert.False(t, v.Bool(KeyUseSSL, true))
	assert.True(t, v.Bool(KeyPathStyle, true))
	assert.Empty(t, v.Get(KeyRegion))
}

func TestParse_Empty(t *testing.T) {
	v, err := Parse("")

	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse("Endpoint=http://x;supersecretvalue")

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
	assert.NotContains(t, err.Error(), "supersecretvalue")
}

func TestValues_BoolInvalidFallsBack(t *testing.T) {
	v := Values{"usessl": "maybe"}
	assert.True(t, v.Bool(KeyUseSSL, true))
}
