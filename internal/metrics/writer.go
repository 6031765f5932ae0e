package metrics

// Metrics output (CSV/JSON) and summary formatting

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

var csvHeader = []string{
	"timestamp",
	"source",
	"request_id",
	"operation",
	"command",
	"success",
	"duration_ms",
	"bytes",
	"error_kind",
	"error",
}

// Writer handles writing metrics to files
type Writer struct {
	csvFile   *os.File
	csvWriter *csv.Writer
	jsonFile  *os.File
	jsonCount int
}

// NewWriter creates a new metrics writer. Either path may be empty.
func NewWriter(csvPath, jsonPath string) (*Writer, error) {
	w := &Writer{}

	if csvPath != "" {
		file, err := os.Create(csvPath)
		if err != nil {
			return nil, fmt.Errorf("create CSV file: %w", err)
		}
		w.csvFile = file
		w.csvWriter = csv.NewWriter(file)

		if err := w.csvWriter.Write(csvHeader); err != nil {
			file.Close()
			return nil, fmt.Errorf("write CSV header: %w", err)
		}
		w.csvWriter.Flush()
	}

	if jsonPath != "" {
		file, err := os.Create(jsonPath)
		if err != nil {
			if w.csvFile != nil {
				w.csvFile.Close()
			}
			return nil, fmt.Errorf("create JSON file: %w", err)
		}
		w.jsonFile = file

		if _, err := file.WriteString("[\n"); err != nil {
			file.Close()
			if w.csvFile != nil {
				w.csvFile.Close()
			}
			return nil, fmt.Errorf("write JSON start: %w", err)
		}
	}

	return w, nil
}

// WriteMetric writes a single metric
func (w *Writer) WriteMetric(m Metric) error {
	if w.csvWriter != nil {
		record := []string{
			m.Timestamp.Format(time.RFC3339Nano),
			m.Source,
			m.RequestID,
			string(m.Operation),
			m.Command,
			fmt.Sprintf("%t", m.Success),
			formatDuration(m.DurationMs),
			fmt.Sprintf("%d", m.Bytes),
			m.ErrorKind,
			m.Error,
		}
		if err := w.csvWriter.Write(record); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
		w.csvWriter.Flush()
	}

	if w.jsonFile != nil {
		jsonData, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		if w.jsonCount > 0 {
			if _, err := w.jsonFile.WriteString(",\n"); err != nil {
				return fmt.Errorf("write JSON comma: %w", err)
			}
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, jsonData, "", "  "); err != nil {
			return fmt.Errorf("indent JSON: %w", err)
		}
		if _, err := w.jsonFile.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
		w.jsonCount++
	}

	return nil
}

// WriteAll writes every metric recorded by sink
func (w *Writer) WriteAll(sink *Sink) error {
	for _, m := range sink.GetMetrics() {
		if err := w.WriteMetric(m); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the writer and flushes all data
func (w *Writer) Close() error {
	var errs []error

	if w.csvWriter != nil {
		w.csvWriter.Flush()
		if err := w.csvWriter.Error(); err != nil {
			errs = append(errs, err)
		}
	}
	if w.csvFile != nil {
		if err := w.csvFile.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if w.jsonFile != nil {
		if _, err := w.jsonFile.WriteString("\n]\n"); err != nil {
			errs = append(errs, err)
		}
		if err := w.jsonFile.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close writer: %v", errs)
	}

	return nil
}

// formatDuration formats a duration for CSV (empty string if 0)
func formatDuration(ms float64) string {
	if ms == 0 {
		return ""
	}
	return fmt.Sprintf("%.4f", ms)
}

// FormatSummary formats a summary for human-readable output
func FormatSummary(summary *Summary) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Total Operations: %d\n", summary.TotalOperations)
	if summary.TotalOperations == 0 {
		return buf.String()
	}
	fmt.Fprintf(&buf, "Successful: %d (%.1f%%)\n",
		summary.SuccessfulOps,
		float64(summary.SuccessfulOps)/float64(summary.TotalOperations)*100)
	fmt.Fprintf(&buf, "Failed: %d (%.1f%%)\n",
		summary.FailedOps,
		float64(summary.FailedOps)/float64(summary.TotalOperations)*100)
	if summary.TotalBytes > 0 {
		fmt.Fprintf(&buf, "Bytes: %d\n", summary.TotalBytes)
	}

	if len(summary.ErrorsByKind) > 0 {
		buf.WriteString("\nErrors by kind:\n")
		for _, kind := range sortedKeys(summary.ErrorsByKind) {
			fmt.Fprintf(&buf, "  %s: %d\n", kind, summary.ErrorsByKind[kind])
		}
	}

	if summary.SuccessfulOps > 0 && summary.MaxDurationMs > 0 {
		buf.WriteString("\nDuration (successful operations):\n")
		fmt.Fprintf(&buf, "  Min: %.4f ms\n", summary.MinDurationMs)
		fmt.Fprintf(&buf, "  Max: %.4f ms\n", summary.MaxDurationMs)
		fmt.Fprintf(&buf, "  Avg: %.4f ms\n", summary.AvgDurationMs)
		fmt.Fprintf(&buf, "  P50: %.4f ms\n", summary.P50DurationMs)
		fmt.Fprintf(&buf, "  P90: %.4f ms\n", summary.P90DurationMs)
		fmt.Fprintf(&buf, "  P95: %.4f ms\n", summary.P95DurationMs)
		fmt.Fprintf(&buf, "  P99: %.4f ms\n", summary.P99DurationMs)
		if len(summary.DurationBuckets) > 0 {
			fmt.Fprintf(&buf, "  Buckets: <10us=%d 10-100us=%d 100us-1ms=%d 1-10ms=%d >10ms=%d\n",
				summary.DurationBuckets["lt_10us"],
				summary.DurationBuckets["10_100us"],
				summary.DurationBuckets["100us_1ms"],
				summary.DurationBuckets["1_10ms"],
				summary.DurationBuckets["gt_10ms"],
			)
		}
	}

	if len(summary.ByOperation) > 0 {
		buf.WriteString("\nPer-Operation Statistics:\n")
		ops := make([]string, 0, len(summary.ByOperation))
		for op := range summary.ByOperation {
			ops = append(ops, string(op))
		}
		sort.Strings(ops)
		for _, op := range ops {
			writeStats(&buf, op, summary.ByOperation[OperationType(op)])
		}
	}

	if len(summary.ByCommand) > 0 {
		buf.WriteString("\nPer-Command Statistics:\n")
		cmds := make([]string, 0, len(summary.ByCommand))
		for cmd := range summary.ByCommand {
			cmds = append(cmds, cmd)
		}
		sort.Strings(cmds)
		for _, cmd := range cmds {
			writeStats(&buf, cmd, summary.ByCommand[cmd])
		}
	}

	return buf.String()
}

func writeStats(buf *strings.Builder, label string, stats *OperationStats) {
	if label == "" {
		label = "(none)"
	}
	fmt.Fprintf(buf, "  %s: %d ops (%d success, %d failed)", label, stats.Count, stats.Success, stats.Failed)
	if stats.Success > 0 && stats.MaxDurationMs > 0 {
		fmt.Fprintf(buf, " - min=%.4fms, max=%.4fms, avg=%.4fms",
			stats.MinDurationMs, stats.MaxDurationMs, stats.AvgDurationMs)
	}
	buf.WriteString("\n")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
