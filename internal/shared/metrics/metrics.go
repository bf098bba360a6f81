package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	personalizeRequestsTotal  counter
	personalizeCacheHitsTotal counter
	personalizeFallbackTotal  counter

	personalizeDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncPersonalizeRequest increments the personalization request counter.
func IncPersonalizeRequest() {
	personalizeRequestsTotal.Inc()
}

// IncPersonalizeCacheHit increments the cache hit counter.
func IncPersonalizeCacheHit() {
	personalizeCacheHitsTotal.Inc()
}

// IncPersonalizeFallback increments the fallback counter (timeout or
// generation failure answered with the canonical file).
func IncPersonalizeFallback() {
	personalizeFallbackTotal.Inc()
}

// ObservePersonalizeDurationMs records a generation duration in milliseconds.
func ObservePersonalizeDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	personalizeDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "personalize_requests_total", "Total personalized-PDF requests", personalizeRequestsTotal.Load())
	writeCounter(&buf, "personalize_cache_hits_total", "Total personalization cache hits", personalizeCacheHitsTotal.Load())
	writeCounter(&buf, "personalize_fallback_total", "Total requests answered with the unbranded canonical PDF", personalizeFallbackTotal.Load())
	writeHistogram(&buf, "personalize_duration_ms", "Personalization duration in milliseconds", personalizeDuration.Snapshot())
	return buf.String()
}

type counter struct {
	mu sync.Mutex
	v  uint64
}

func (c *counter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}

func (c *counter) Load() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
