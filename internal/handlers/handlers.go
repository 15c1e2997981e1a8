package handlers

import (
	"time"

	"media-enricher/internal/cache"
	"media-enricher/internal/catalog"
	"media-enricher/internal/metadata"
	"media-enricher/internal/scheduler"
	"media-enricher/internal/startup"
	"media-enricher/internal/writer"
)

// Handlers bundles the HTTP surface's collaborators. It is thin glue: all
// pipeline behavior lives in the packages it delegates to.
type Handlers struct {
	store     *catalog.Store
	sched     *scheduler.Scheduler
	cache     *cache.Cache
	reader    *metadata.Reader
	writer    *writer.Writer
	mediaDir  string
	startedAt time.Time
}

func New(store *catalog.Store, sched *scheduler.Scheduler, c *cache.Cache, reader *metadata.Reader, wr *writer.Writer, config *startup.Config) *Handlers {
	return &Handlers{
		store:     store,
		sched:     sched,
		cache:     c,
		reader:    reader,
		writer:    wr,
		mediaDir:  config.MediaDir,
		startedAt: time.Now(),
	}
}
