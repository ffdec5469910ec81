// Package observability collects per-route request counters and exposes
// them in a plain text exposition format.
package observability

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type routeStats struct {
	Count         int64
	Errors        int64
	TotalDuration time.Duration
}

type Collector struct {
	mu     sync.Mutex
	stats  map[string]*routeStats
	db     *sql.DB
	logger *slog.Logger
}

// NewCollector builds a collector. The db handle is optional; when present
// its pool stats are exposed alongside the request counters.
func NewCollector(db *sql.DB, logger *slog.Logger) *Collector {
	return &Collector{
		stats:  make(map[string]*routeStats),
		db:     db,
		logger: logger,
	}
}

// Middleware records count, error count and total latency per method+route
// and logs one line per request.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		dur := time.Since(start)
		key := r.Method + " " + normalizePath(r.URL.Path)

		c.mu.Lock()
		s, ok := c.stats[key]
		if !ok {
			s = &routeStats{}
			c.stats[key] = s
		}
		s.Count++
		s.TotalDuration += dur
		if ww.Status() >= 500 {
			s.Errors++
		}
		c.mu.Unlock()

		c.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", dur.Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// normalizePath folds numeric path segments so /test/start/7 and
// /test/start/12 count against one series.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if isDigits(p) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Handler serves the collected counters as text, one line per series.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		keys := make([]string, 0, len(c.stats))
		for k := range c.stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var b strings.Builder
		for _, k := range keys {
			s := c.stats[k]
			avgMs := int64(0)
			if s.Count > 0 {
				avgMs = (s.TotalDuration / time.Duration(s.Count)).Milliseconds()
			}
			fmt.Fprintf(&b, "quizhub_requests_total{route=%q} %d\n", k, s.Count)
			fmt.Fprintf(&b, "quizhub_request_errors_total{route=%q} %d\n", k, s.Errors)
			fmt.Fprintf(&b, "quizhub_request_duration_avg_ms{route=%q} %d\n", k, avgMs)
		}
		c.mu.Unlock()

		if c.db != nil {
			dbs := c.db.Stats()
			fmt.Fprintf(&b, "quizhub_db_open_connections %d\n", dbs.OpenConnections)
			fmt.Fprintf(&b, "quizhub_db_in_use_connections %d\n", dbs.InUse)
			fmt.Fprintf(&b, "quizhub_db_idle_connections %d\n", dbs.Idle)
			fmt.Fprintf(&b, "quizhub_db_wait_count %d\n", dbs.WaitCount)
			fmt.Fprintf(&b, "quizhub_db_wait_duration_ms %d\n", dbs.WaitDuration.Milliseconds())
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(b.String()))
	}
}
