package exiftool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"sync"

	"media-enricher/internal/logging"
	"media-enricher/internal/metrics"
)

// readFields is the field selection passed to every batch read. Keeping it
// fixed means batch and single-file reads produce identical shapes.
var readFields = []string{
	"Make",
	"Model",
	"LensModel",
	"FocalLength",
	"FNumber",
	"ExposureTime",
	"ISO",
	"GPSLatitude",
	"GPSLongitude",
	"DateTimeOriginal",
	"CreateDate",
	"Orientation",
	"ImageWidth",
	"ImageHeight",
	"Rating",
	"Artist",
	"Copyright",
	"ImageDescription",
}

// CLI invokes the exiftool binary. One process invocation per batch read
// and per batch write; output is parsed defensively.
type CLI struct {
	binPath     string
	available   bool
	missingOnce sync.Once
}

// NewCLI locates the exiftool binary on PATH. A missing binary is not an
// error at construction time: every operation degrades to "no data" and the
// absence is logged once.
func NewCLI() *CLI {
	binPath, err := exec.LookPath("exiftool")
	if err != nil {
		return &CLI{available: false}
	}
	logging.Debug("Using exiftool: %s", binPath)
	return &CLI{binPath: binPath, available: true}
}

// Available reports whether the exiftool binary was found.
func (c *CLI) Available() bool {
	return c.available
}

func (c *CLI) logMissing() {
	c.missingOnce.Do(func() {
		logging.Warn("exiftool not found on PATH; metadata extraction and write-back disabled")
	})
}

// ReadBatch runs one exiftool invocation over all paths. exiftool exits
// non-zero when any file fails but still emits JSON for the rest, so the
// output is parsed regardless of exit status; a file with unreadable
// metadata is simply absent from the result map.
func (c *CLI) ReadBatch(ctx context.Context, paths []string) (map[string]Fields, error) {
	if !c.available {
		c.logMissing()
		return nil, ErrUnavailable
	}
	if len(paths) == 0 {
		return map[string]Fields{}, nil
	}

	args := []string{"-json", "-n", "-fast2", "-charset", "filename=utf8"}
	for _, f := range readFields {
		args = append(args, "-"+f)
	}
	args = append(args, paths...)

	cmd := exec.CommandContext(ctx, c.binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	metrics.ExifToolInvocations.WithLabelValues("read").Inc()

	result := parseReadOutput(stdout.Bytes())
	if runErr != nil {
		if len(result) == 0 {
			metrics.ExifToolFailures.WithLabelValues("read").Inc()
			return nil, fmt.Errorf("exiftool read failed: %v, stderr: %s", runErr, stderr.String())
		}
		// Partial failure: some files were unreadable, the rest parsed fine.
		logging.Debug("exiftool partial read failure (%d of %d files returned): %v",
			len(result), len(paths), runErr)
	}

	return result, nil
}

// parseReadOutput decodes the -json output array. Entries that are not
// objects or lack a SourceFile are dropped rather than failing the batch.
func parseReadOutput(out []byte) map[string]Fields {
	result := make(map[string]Fields)
	if len(bytes.TrimSpace(out)) == 0 {
		return result
	}

	var entries []map[string]any
	if err := json.Unmarshal(out, &entries); err != nil {
		logging.Warn("Failed to parse exiftool output: %v", err)
		return result
	}

	for _, entry := range entries {
		source, ok := entry["SourceFile"].(string)
		if !ok || source == "" {
			continue
		}
		delete(entry, "SourceFile")
		result[source] = Fields(entry)
	}
	return result
}

// WriteBatch runs one exiftool invocation applying the tag assignments to
// every path. Tags are applied in sorted order so invocations are
// reproducible.
func (c *CLI) WriteBatch(ctx context.Context, paths []string, tags map[string]string) error {
	if !c.available {
		c.logMissing()
		return ErrUnavailable
	}
	if len(paths) == 0 || len(tags) == 0 {
		return nil
	}

	args := []string{"-overwrite_original", "-charset", "filename=utf8"}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, fmt.Sprintf("-%s=%s", k, tags[k]))
	}
	args = append(args, paths...)

	cmd := exec.CommandContext(ctx, c.binPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	metrics.ExifToolInvocations.WithLabelValues("write").Inc()
	if err := cmd.Run(); err != nil {
		metrics.ExifToolFailures.WithLabelValues("write").Inc()
		return fmt.Errorf("exiftool write failed: %v, stderr: %s", err, stderr.String())
	}
	return nil
}

// ExtractPreview returns the embedded preview JPEG from a RAW container.
// Falls back from PreviewImage to JpgFromRaw; returns an error when neither
// is present.
func (c *CLI) ExtractPreview(ctx context.Context, path string) ([]byte, error) {
	if !c.available {
		c.logMissing()
		return nil, ErrUnavailable
	}

	for _, tag := range []string{"-PreviewImage", "-JpgFromRaw"} {
		cmd := exec.CommandContext(ctx, c.binPath, "-b", tag, path)
		var stdout bytes.Buffer
		cmd.Stdout = &stdout

		metrics.ExifToolInvocations.WithLabelValues("preview").Inc()
		if err := cmd.Run(); err != nil {
			continue
		}
		if stdout.Len() > 0 {
			return stdout.Bytes(), nil
		}
	}
	return nil, fmt.Errorf("no embedded preview in %s", path)
}
