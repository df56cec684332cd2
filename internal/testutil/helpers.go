package testutil

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// GenerateKeys returns count object keys under prefix.
func GenerateKeys(prefix string, count int) []string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	keys := make([]string, count)
	for i := range keys {
		keys[i] = fmt.Sprintf("%sblob-%05d.txt", prefix, i)
	}
	return keys
}

// GenerateBucketName generates a valid, unique bucket name.
// Bucket names must be DNS-compliant.
func GenerateBucketName(prefix string) string {
	name := strings.ToLower(prefix + "-" + uuid.NewString())
	name = strings.ReplaceAll(name, "_", "-")
	if len(name) > 63 {
		name = strings.TrimRight(name[:63], "-")
	}
	return name
}

// CreateObjects builds the Contents of a ListObjectsV2 page.
func CreateObjects(keys ...string) []types.Object {
	out := make([]types.Object, len(keys))
	for i, k := range keys {
		out[i] = types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(k)))}
	}
	return out
}
