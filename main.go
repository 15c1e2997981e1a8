package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"media-enricher/internal/cache"
	"media-enricher/internal/catalog"
	"media-enricher/internal/derivative"
	"media-enricher/internal/exiftool"
	"media-enricher/internal/filesystem"
	"media-enricher/internal/handlers"
	"media-enricher/internal/logging"
	"media-enricher/internal/memory"
	"media-enricher/internal/metadata"
	"media-enricher/internal/metrics"
	"media-enricher/internal/middleware"
	"media-enricher/internal/monitor"
	"media-enricher/internal/scheduler"
	"media-enricher/internal/startup"
	"media-enricher/internal/writer"
)

func main() {
	startTime := time.Now()

	// Configure GOMEMLIMIT before any significant allocations
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"media":    config.MediaDir,
		"cache":    config.CacheDir,
		"database": config.DatabaseDir,
	}))

	// Initialize catalog store
	storeStart := time.Now()
	ctx := context.Background()
	store, err := catalog.NewStore(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize catalog store: %v", err)
	}
	defer store.Close()
	startup.LogStoreInit(time.Since(storeStart))

	// External tools
	tool := exiftool.NewCLI()
	startup.LogToolInit(tool.Available())

	if err := derivative.InitVips(); err != nil {
		logging.Warn("libvips unavailable, using pure-Go decoding: %v", err)
	}
	defer derivative.ShutdownVips()

	// Pipeline components
	reader := metadata.NewReader(tool)
	gen := derivative.NewGenerator(tool, config.ThumbnailSize, config.PreviewSize)

	derivCache, err := cache.New(config.DerivativeDir, config.MemoryEntries)
	if err != nil {
		startup.LogFatal("Failed to initialize derivative cache: %v", err)
	}

	// Drop the memory tier when the heap approaches its limit
	memMonitor := memory.NewMonitor(memory.DefaultConfig())
	memMonitor.OnPressure(derivCache.PurgeMemory)
	memMonitor.Start()
	defer memMonitor.Stop()

	startup.LogSchedulerInit()
	sched := scheduler.New(store, reader, gen, derivCache)
	sched.Start()
	defer sched.Stop()
	startup.LogSchedulerStarted()

	// Filesystem monitor (optional)
	startup.LogMonitorInit(config.MonitorEnabled)
	var fsMonitor *monitor.Monitor
	var suspender writer.Suspender
	if config.MonitorEnabled {
		fsMonitor, err = monitor.New(config.MediaDir)
		if err != nil {
			logging.Warn("Failed to create filesystem monitor: %v", err)
		} else if err := fsMonitor.Start(); err != nil {
			logging.Warn("Failed to start filesystem monitor: %v", err)
			fsMonitor = nil
		}
	}
	if fsMonitor != nil {
		suspender = fsMonitor
		defer fsMonitor.Stop()
		go handleMonitorEvents(ctx, fsMonitor, store, sched, derivCache, reader)
	}

	wr := writer.New(store, tool, suspender, reader, nil)

	// Periodic size gauges
	collector := metrics.NewCollector(&pipelineStats{store: store, cache: derivCache}, 30*time.Second)
	collector.Start()
	defer collector.Stop()

	// Initialize handlers
	h := handlers.New(store, sched, derivCache, reader, wr, config)

	// Setup router
	router := mux.NewRouter()
	h.RegisterRoutes(router)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)

	// Apply metrics and compression middleware
	metered := middleware.Metrics(middleware.DefaultMetricsConfig())(loggedHandler)
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(metered)

	// Metrics server on its own port
	if config.MetricsEnabled {
		go func() {
			metricsMux := http.NewServeMux()
			metricsMux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(":"+config.MetricsPort, metricsMux); err != nil {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, sched, fsMonitor)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
}

// handleMonitorEvents turns external file changes into catalog updates and
// re-enrichment. The monitor already dropped anything self-inflicted.
func handleMonitorEvents(ctx context.Context, m *monitor.Monitor, store *catalog.Store, sched *scheduler.Scheduler, derivCache *cache.Cache, reader *metadata.Reader) {
	for event := range m.Events() {
		switch event.Op {
		case "create", "write":
			ref, err := store.AddRef(ctx, catalog.NewMediaRef(event.Path))
			if err != nil {
				logging.Warn("Failed to register changed file %s: %v", event.Path, err)
				continue
			}
			reader.Invalidate(event.Path)
			derivCache.Invalidate(ref.ID)
			sched.Enqueue([]string{ref.ID})

		case "remove", "rename":
			ref, err := store.GetRefByPath(ctx, event.Path)
			if err != nil {
				continue
			}
			sched.CancelSome([]string{ref.ID})
			derivCache.Invalidate(ref.ID)
			reader.Invalidate(event.Path)
			if err := store.RemoveRef(ctx, ref.ID); err != nil {
				logging.Warn("Failed to remove %s from catalog: %v", ref.ID, err)
			}
		}
	}
}

// pipelineStats adapts the store and cache to the metrics collector.
type pipelineStats struct {
	store *catalog.Store
	cache *cache.Cache
}

func (p *pipelineStats) GetStats() metrics.Stats {
	var stats metrics.Stats
	if count, err := p.store.CountItems(context.Background()); err == nil {
		stats.CatalogItems = count
	}
	stats.DiskCacheBytes, stats.DiskCacheEntries = p.cache.DiskStats()
	return stats
}

func handleShutdown(srv *http.Server, sched *scheduler.Scheduler, fsMonitor *monitor.Monitor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping scheduler")
	sched.Stop()
	startup.LogShutdownStepComplete("Scheduler stopped")

	if fsMonitor != nil {
		startup.LogShutdownStep("Stopping filesystem monitor")
		fsMonitor.Stop()
		startup.LogShutdownStepComplete("Filesystem monitor stopped")
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
