package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEndpoint(t *testing.T) {
	assert.Equal(t, "minio:9000", parseEndpoint("http://minio:9000"))
	assert.Equal(t, "s3.example.com", parseEndpoint("https://s3.example.com/"))
	assert.Equal(t, "localhost:9000", parseEndpoint("localhost:9000"))
}
