package middleware

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// CachedPromHandler serves a text exposition of gatherer that is rebuilt every
// ttl instead of on each scrape.
type CachedPromHandler struct {
	gatherer prometheus.Gatherer
	ttl      time.Duration

	mu    sync.RWMutex
	cache []byte
}

// NewCachedPromHandler builds the first exposition synchronously and refreshes
// it in the background until ctx is cancelled.
func NewCachedPromHandler(ctx context.Context, gatherer prometheus.Gatherer, ttl time.Duration) *CachedPromHandler {
	c := &CachedPromHandler{gatherer: gatherer, ttl: ttl}
	c.refresh()

	go c.refreshLoop(ctx)
	return c
}

func (c *CachedPromHandler) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refresh()
		}
	}
}

// refresh keeps the previous exposition when gathering fails.
func (c *CachedPromHandler) refresh() {
	families, err := c.gatherer.Gather()
	if err != nil && len(families) == 0 {
		return
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return
		}
	}

	c.mu.Lock()
	c.cache = buf.Bytes()
	c.mu.Unlock()
}

func (c *CachedPromHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	c.mu.RLock()
	body := c.cache
	c.mu.RUnlock()

	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	_, _ = w.Write(body)
}
