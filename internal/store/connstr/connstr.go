// Package connstr parses "Key=Value;Key=Value" connection strings.
//
// Azure connection strings already use this form; the s3 and minio backends
// accept the same shape so every backend is configured through one flag.
package connstr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
)

// Recognized keys for S3-compatible backends.
const (
	KeyEndpoint     = "Endpoint"
	KeyRegion       = "Region"
	KeyAccessKey    = "AccessKey"
	KeySecretKey    = "SecretKey"
	KeySessionToken = "SessionToken"
	KeyUseSSL       = "UseSSL"
	KeyPathStyle    = "PathStyle"
)

// Values holds parsed connection string settings. Keys are case-insensitive.
type Values map[string]string

// Parse splits a connection string into its settings.
// Values may contain '=' (as base64 keys do); only the first one separates.
func Parse(s string) (Values, error) {
	values := make(Values)
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.NewError("parseConnectionString", errors.ErrInvalidCredentials).
				WithMessage(fmt.Sprintf("malformed segment %q, expected Key=Value", redact(part)))
		}
		values[strings.ToLower(key)] = strings.TrimSpace(value)
	}
	return values, nil
}

// Get returns the value for key, or "" when absent.
func (v Values) Get(key string) string {
	return v[strings.ToLower(key)]
}

// Bool returns the boolean value for key, or def when absent or unparsable.
func (v Values) Bool(key string, def bool) bool {
	raw := v.Get(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

// redact keeps only the key of a segment so secrets never reach error messages.
func redact(segment string) string {
	if key, _, ok := strings.Cut(segment, "="); ok {
		return key + "=***"
	}
	if len(segment) > 4 {
		return segment[:4] + "***"
	}
	return "***"
}
