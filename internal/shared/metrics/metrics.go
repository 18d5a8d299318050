package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
)

var (
	synthesisStarted   = newCounterVec()
	synthesisCompleted = newCounterVec()
	synthesisFailed    = newCounterVec()
	llmTokens          = newCounterVec()
	uploadsRejected    = newCounterVec()

	synthesisDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncSynthesisStarted increments the started counter for a synthesis.
func IncSynthesisStarted(name string) {
	synthesisStarted.Inc(name, 1)
}

// IncSynthesisCompleted increments the completed counter for a synthesis.
func IncSynthesisCompleted(name string) {
	synthesisCompleted.Inc(name, 1)
}

// IncSynthesisFailed increments the failed counter for a synthesis and reason.
func IncSynthesisFailed(name, reason string) {
	synthesisFailed.Inc(name+"|"+reason, 1)
}

// AddLLMTokens records token usage by kind ("prompt" or "completion").
func AddLLMTokens(kind string, n int) {
	if n <= 0 {
		return
	}
	llmTokens.Inc(kind, uint64(n))
}

// IncUploadRejected counts uploads refused before storage.
func IncUploadRejected(reason string) {
	uploadsRejected.Inc(reason, 1)
}

// ObserveSynthesisDurationMs records a synthesis duration in milliseconds.
func ObserveSynthesisDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	synthesisDuration.Observe(value)
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
	writeCounterVec(&buf, "synthesis_started_total", "Total syntheses started", synthesisStarted.Snapshot(), "synthesis")
	writeCounterVec(&buf, "synthesis_completed_total", "Total syntheses completed", synthesisCompleted.Snapshot(), "synthesis")
	writeCounterVec(&buf, "synthesis_failed_total", "Total syntheses failed", synthesisFailed.Snapshot(), "synthesis", "reason")
	writeCounterVec(&buf, "llm_tokens_total", "LLM tokens consumed", llmTokens.Snapshot(), "kind")
	writeCounterVec(&buf, "upload_rejected_total", "Uploads rejected before storage", uploadsRejected.Snapshot(), "reason")
	writeHistogram(&buf, "synthesis_duration_ms", "Synthesis duration in milliseconds", synthesisDuration.Snapshot())
	return buf.String()
}

type counterVec struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newCounterVec() *counterVec {
	return &counterVec{values: map[string]uint64{}}
}

func (v *counterVec) Inc(key string, n uint64) {
	v.mu.Lock()
	v.values[key] += n
	v.mu.Unlock()
}

func (v *counterVec) Snapshot() map[string]uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]uint64, len(v.values))
	for k, n := range v.values {
		out[k] = n
	}
	return out
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

// Observe stores the value in the first bucket it fits; cumulative counts are built at render time.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
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

func writeCounterVec(buf *bytes.Buffer, name, help string, values map[string]uint64, labels ...string) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s} %d\n", name, labelPairs(labels, k), values[k])
	}
}

func labelPairs(labels []string, key string) string {
	parts := splitKey(key, len(labels))
	var b bytes.Buffer
	for i, label := range labels {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", label, parts[i])
	}
	return b.String()
}

func splitKey(key string, n int) []string {
	out := make([]string, n)
	idx := 0
	start := 0
	for i := 0; i < len(key) && idx < n-1; i++ {
		if key[i] == '|' {
			out[idx] = key[start:i]
			idx++
			start = i + 1
		}
	}
	out[idx] = key[start:]
	return out
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
