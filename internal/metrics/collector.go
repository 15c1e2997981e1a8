package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"media-enricher/internal/logging"
)

var (
	CatalogItemsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_enricher_catalog_items_total",
			Help: "Number of items in the catalog store",
		},
	)

	DiskCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_enricher_disk_cache_bytes",
			Help: "Total size of the disk derivative cache in bytes",
		},
	)

	DiskCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_enricher_disk_cache_entries",
			Help: "Number of files in the disk derivative cache",
		},
	)
)

// StatsProvider supplies the sizes the collector publishes.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds point-in-time gauges for the catalog and derivative cache.
type Stats struct {
	CatalogItems     int
	DiskCacheBytes   int64
	DiskCacheEntries int
}

// Collector periodically publishes catalog and cache size gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop.
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection.
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	CatalogItemsTotal.Set(float64(stats.CatalogItems))
	DiskCacheBytes.Set(float64(stats.DiskCacheBytes))
	DiskCacheEntries.Set(float64(stats.DiskCacheEntries))

	logging.Debug("Metrics collected: items=%d, cache=%d bytes in %d files",
		stats.CatalogItems, stats.DiskCacheBytes, stats.DiskCacheEntries)
}
