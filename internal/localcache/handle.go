package localcache

import (
	"context"
	"sync"

	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

// Handle owns the process's single Cache. The store is opened on the first Get;
// later calls return the same Cache, or the same error if opening failed.
type Handle struct {
	path   string
	logger utils.Logger

	once  sync.Once
	cache *Cache
	err   error
}

func NewHandle(path string, logger utils.Logger) *Handle {
	return &Handle{path: path, logger: logger}
}

// Get opens the store on first use. The open ignores ctx's cancellation, since
// its result is kept for every later caller.
func (h *Handle) Get(ctx context.Context) (*Cache, error) {
	h.once.Do(func() {
		h.cache, h.err = Open(context.WithoutCancel(ctx), h.path, h.logger)
		if h.err != nil {
			h.logger.Warn("Local cache unavailable, continuing without it", "path", h.path, "error", h.err)
		}
	})
	return h.cache, h.err
}

func (h *Handle) Close() error {
	if h.cache == nil {
		return nil
	}
	return h.cache.Close()
}
