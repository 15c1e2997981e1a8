// Command enrich runs a one-shot enrichment pass over a media directory
// without starting the HTTP server. It scans the directory, enqueues every
// enrichable file, and waits for the scheduler to drain, showing progress
// on the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"media-enricher/internal/cache"
	"media-enricher/internal/catalog"
	"media-enricher/internal/derivative"
	"media-enricher/internal/exiftool"
	"media-enricher/internal/filesystem"
	"media-enricher/internal/logging"
	"media-enricher/internal/metadata"
	"media-enricher/internal/scheduler"
	"media-enricher/internal/startup"
)

const pollInterval = 200 * time.Millisecond

var (
	mediaDir      string
	cacheDir      string
	databaseDir   string
	thumbnailSize int
	previewSize   int
	memoryEntries int
	noProgress    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "enrich",
		Short: "Scan a media directory and generate derivatives and metadata",
		Long: `enrich runs the enrichment pipeline once against a directory tree:
it registers every enrichable media file in the catalog, extracts metadata
in batches, and fills the derivative cache with thumbnails and previews.
Files that are already enriched are skipped, so re-running is cheap.`,
		SilenceUsage: true,
		RunE:         runEnrich,
	}

	flags := rootCmd.Flags()
	flags.StringVar(&mediaDir, "media", envOr("MEDIA_DIR", "/media"), "Media directory to scan")
	flags.StringVar(&cacheDir, "cache", envOr("CACHE_DIR", "/cache"), "Derivative cache directory")
	flags.StringVar(&databaseDir, "database", envOr("DATABASE_DIR", "/database"), "Catalog database directory")
	flags.IntVar(&thumbnailSize, "thumbnail-size", 600, "Thumbnail bounding box in pixels")
	flags.IntVar(&previewSize, "preview-size", 1024, "Preview bounding box in pixels")
	flags.IntVar(&memoryEntries, "memory-entries", cache.DefaultMemoryEntries, "In-memory derivative cache entries")
	flags.BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")

	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(_ *cobra.Command, _ []string) {
			info := startup.GetBuildInfo()
			fmt.Printf("enrich %s (commit %s, built %s, %s, %s/%s)\n",
				info.Version, info.Commit, info.BuildTime, info.GoVersion, info.OS, info.Arch)
		},
	}
}

func runEnrich(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"media":    mediaDir,
		"cache":    cacheDir,
		"database": databaseDir,
	}))

	if err := os.MkdirAll(databaseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := catalog.NewStore(ctx, filepath.Join(databaseDir, "catalog.db"))
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Warn("failed to close catalog: %v", err)
		}
	}()

	tool := exiftool.NewCLI()
	if !tool.Available() {
		logging.Warn("exiftool not found in PATH, metadata extraction disabled")
	}

	if err := derivative.InitVips(); err != nil {
		logging.Warn("libvips unavailable, using pure-Go decoding: %v", err)
	}
	defer derivative.ShutdownVips()

	derivCache, err := cache.New(filepath.Join(cacheDir, "derivatives"), memoryEntries)
	if err != nil {
		return fmt.Errorf("failed to open derivative cache: %w", err)
	}

	reader := metadata.NewReader(tool)
	gen := derivative.NewGenerator(tool, thumbnailSize, previewSize)

	sched := scheduler.New(store, reader, gen, derivCache)
	sched.Start()
	defer sched.Stop()

	// A second Ctrl+C kills the process; the first cancels cleanly.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, cancelling...")
		sched.CancelAll()
		cancel()
		<-sigChan
		os.Exit(1)
	}()

	fmt.Fprintf(os.Stderr, "Scanning %s...\n", mediaDir)
	refs, err := store.ScanDirectory(ctx, mediaDir)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if len(refs) == 0 {
		fmt.Fprintln(os.Stderr, "No enrichable media files found.")
		return nil
	}
	fmt.Fprintf(os.Stderr, "Found %d media files.\n", len(refs))

	ids := make([]string, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
	}

	start := time.Now()
	sched.Enqueue(ids)

	bar := newBar(int64(len(ids)))
	done := 0
	for {
		snap := sched.Snapshot()
		processed := len(ids) - snap.Remaining
		if bar != nil && processed > done {
			_ = bar.Add(processed - done)
		}
		done = processed

		if snap.Remaining == 0 {
			break
		}
		select {
		case <-ctx.Done():
			if bar != nil {
				_ = bar.Clear()
			}
			fmt.Fprintf(os.Stderr, "Cancelled after %d of %d items.\n", done, len(ids))
			return nil
		case <-time.After(pollInterval):
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	fmt.Fprintf(os.Stderr, "Enriched %d items in %v.\n", len(ids), time.Since(start).Round(time.Millisecond))
	return nil
}

func newBar(total int64) *progressbar.ProgressBar {
	if noProgress {
		return nil
	}
	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Enriching"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("item"),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
