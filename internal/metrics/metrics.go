package metrics

// Metrics collection for codec operations

import (
	"math"
	"sort"
	"sync"
	"time"
)

// OperationType represents the type of operation
type OperationType string

const (
	OperationEncode OperationType = "ENCODE"
	OperationDecode OperationType = "DECODE"
)

// Metric represents a single codec operation
type Metric struct {
	Timestamp  time.Time     `json:"timestamp"`
	Source     string        `json:"source"` // cli, batch, http
	RequestID  string        `json:"request_id,omitempty"`
	Operation  OperationType `json:"operation"`
	Command    string        `json:"command"`
	Success    bool          `json:"success"`
	DurationMs float64       `json:"duration_ms"`
	Bytes      int           `json:"bytes"`
	ErrorKind  string        `json:"error_kind,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Sink collects and aggregates metrics
type Sink struct {
	mu      sync.RWMutex
	metrics []Metric
	summary *Summary
}

func newSummary() *Summary {
	return &Summary{
		ErrorsByKind:    make(map[string]int),
		DurationBuckets: make(map[string]int),
		ByOperation:     make(map[OperationType]*OperationStats),
		ByCommand:       make(map[string]*OperationStats),
	}
}

// Summary contains aggregated statistics
type Summary struct {
	TotalOperations int
	SuccessfulOps   int
	FailedOps       int
	TotalBytes      int
	MinDurationMs   float64
	MaxDurationMs   float64
	AvgDurationMs   float64
	P50DurationMs   float64
	P90DurationMs   float64
	P95DurationMs   float64
	P99DurationMs   float64
	ErrorsByKind    map[string]int
	DurationBuckets map[string]int
	ByOperation     map[OperationType]*OperationStats
	ByCommand       map[string]*OperationStats
}

// OperationStats contains statistics for one operation type or command
type OperationStats struct {
	Count         int
	Success       int
	Failed        int
	MinDurationMs float64
	MaxDurationMs float64
	AvgDurationMs float64
	SumDurationMs float64
}

// NewSink creates a new metrics sink
func NewSink() *Sink {
	return &Sink{
		metrics: make([]Metric, 0),
		summary: newSummary(),
	}
}

// Record records a new metric
func (s *Sink) Record(m Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics = append(s.metrics, m)
	s.updateSummary(m)
}

// GetMetrics returns a copy of all recorded metrics
func (s *Sink) GetMetrics() []Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics := make([]Metric, len(s.metrics))
	copy(metrics, s.metrics)
	return metrics
}

// GetSummary returns a deep copy of the aggregated summary
func (s *Sink) GetSummary() *Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := newSummary()
	summary.TotalOperations = s.summary.TotalOperations
	summary.SuccessfulOps = s.summary.SuccessfulOps
	summary.FailedOps = s.summary.FailedOps
	summary.TotalBytes = s.summary.TotalBytes
	summary.MinDurationMs = s.summary.MinDurationMs
	summary.MaxDurationMs = s.summary.MaxDurationMs
	summary.AvgDurationMs = s.summary.AvgDurationMs

	for k, v := range s.summary.ErrorsByKind {
		summary.ErrorsByKind[k] = v
	}
	for op, stats := range s.summary.ByOperation {
		copied := *stats
		summary.ByOperation[op] = &copied
	}
	for cmd, stats := range s.summary.ByCommand {
		copied := *stats
		summary.ByCommand[cmd] = &copied
	}

	percentiles, buckets := summarizeDurations(s.metrics)
	summary.P50DurationMs = percentiles[0]
	summary.P90DurationMs = percentiles[1]
	summary.P95DurationMs = percentiles[2]
	summary.P99DurationMs = percentiles[3]
	for k, v := range buckets {
		summary.DurationBuckets[k] = v
	}

	return summary
}

// updateSummary updates the summary statistics with a new metric
func (s *Sink) updateSummary(m Metric) {
	s.summary.TotalOperations++

	if m.Success {
		s.summary.SuccessfulOps++
		s.summary.TotalBytes += m.Bytes
	} else {
		s.summary.FailedOps++
		kind := m.ErrorKind
		if kind == "" {
			kind = "other"
		}
		s.summary.ErrorsByKind[kind]++
	}

	if m.Success && m.DurationMs > 0 {
		if s.summary.MinDurationMs == 0 || m.DurationMs < s.summary.MinDurationMs {
			s.summary.MinDurationMs = m.DurationMs
		}
		if m.DurationMs > s.summary.MaxDurationMs {
			s.summary.MaxDurationMs = m.DurationMs
		}
		total := s.summary.AvgDurationMs * float64(s.summary.SuccessfulOps-1)
		total += m.DurationMs
		s.summary.AvgDurationMs = total / float64(s.summary.SuccessfulOps)
	}

	opStats, exists := s.summary.ByOperation[m.Operation]
	if !exists {
		opStats = &OperationStats{}
		s.summary.ByOperation[m.Operation] = opStats
	}
	opStats.add(m)

	cmdStats, exists := s.summary.ByCommand[m.Command]
	if !exists {
		cmdStats = &OperationStats{}
		s.summary.ByCommand[m.Command] = cmdStats
	}
	cmdStats.add(m)
}

func (o *OperationStats) add(m Metric) {
	o.Count++
	if !m.Success {
		o.Failed++
		return
	}
	o.Success++
	if m.DurationMs > 0 {
		if o.MinDurationMs == 0 || m.DurationMs < o.MinDurationMs {
			o.MinDurationMs = m.DurationMs
		}
		if m.DurationMs > o.MaxDurationMs {
			o.MaxDurationMs = m.DurationMs
		}
		o.SumDurationMs += m.DurationMs
		o.AvgDurationMs = o.SumDurationMs / float64(o.Success)
	}
}

func summarizeDurations(metrics []Metric) ([4]float64, map[string]int) {
	durations := make([]float64, 0, len(metrics))
	buckets := make(map[string]int)

	for _, m := range metrics {
		if m.Success && m.DurationMs > 0 {
			durations = append(durations, m.DurationMs)
			incrementBucket(buckets, m.DurationMs)
		}
	}

	return computePercentiles(durations), buckets
}

// Codec calls are sub-millisecond; buckets start at 10µs.
func incrementBucket(buckets map[string]int, ms float64) {
	switch {
	case ms < 0.01:
		buckets["lt_10us"]++
	case ms < 0.1:
		buckets["10_100us"]++
	case ms < 1:
		buckets["100us_1ms"]++
	case ms < 10:
		buckets["1_10ms"]++
	default:
		buckets["gt_10ms"]++
	}
}

func computePercentiles(values []float64) [4]float64 {
	var result [4]float64
	if len(values) == 0 {
		return result
	}
	sort.Float64s(values)
	result[0] = percentile(values, 0.50)
	result[1] = percentile(values, 0.90)
	result[2] = percentile(values, 0.95)
	result[3] = percentile(values, 0.99)
	return result
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

// Since returns the elapsed time since start in milliseconds.
func Since(start time.Time) float64 {
	return float64(time.Since(start).Nanoseconds()) / 1e6
}
