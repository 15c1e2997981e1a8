package exiftool

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// ErrUnavailable is returned when the external metadata tool is not
// installed. Callers treat it as "no data", never as a hard failure.
var ErrUnavailable = errors.New("exiftool: tool not available")

// Fields is one file's raw field/value pairs as reported by the external
// tool. Values are whatever the JSON decoder produced (string, float64,
// bool); use the accessors for defensive coercion.
type Fields map[string]any

// Tool is the abstract external metadata capability. Batch and single-file
// reads share one parser; implementations invoke the real process once per
// batch. The fake used in tests implements the same interface.
type Tool interface {
	// ReadBatch extracts metadata fields for all paths in one invocation.
	// Files with unreadable metadata are absent from the result map; a
	// partial failure never aborts the batch.
	ReadBatch(ctx context.Context, paths []string) (map[string]Fields, error)

	// WriteBatch applies the tag assignments to all paths in one
	// invocation. Callers must only pass rewritable formats.
	WriteBatch(ctx context.Context, paths []string, tags map[string]string) error

	// ExtractPreview returns the embedded low-resolution preview bytes for
	// a RAW file, if present.
	ExtractPreview(ctx context.Context, path string) ([]byte, error)

	// Available reports whether the external tool was found.
	Available() bool
}

// String returns the string form of a field, or false if absent or empty.
func (f Fields) String(key string) (string, bool) {
	v, ok := f[key]
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		s = strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
		if s == "" {
			return "", false
		}
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	}
	return "", false
}

// Float returns the numeric form of a field, coercing numeric strings.
func (f Fields) Float(key string) (float64, bool) {
	v, ok := f[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// Int returns the integer form of a field, truncating floats and coercing
// numeric strings.
func (f Fields) Int(key string) (int, bool) {
	v, ok := f.Float(key)
	if !ok {
		return 0, false
	}
	return int(v), true
}
