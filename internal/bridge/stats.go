package bridge

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"

	"github.com/lumabot/wabridge/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const agentLatencyFamily = "wabridge_agent_llm_latency_seconds"

// AgentLatencySnapshot summarizes the agent latency histogram for
// successful completions.
type AgentLatencySnapshot struct {
	Total   int64                `json:"total"`
	P90Ms   float64              `json:"p90_ms"`
	P95Ms   float64              `json:"p95_ms"`
	Buckets []AgentLatencyBucket `json:"buckets"`
}

type AgentLatencyBucket struct {
	LeSeconds float64 `json:"le_seconds"`
	Label     string  `json:"label,omitempty"`
	Count     int64   `json:"count"`
}

// StatsResponse is the operational snapshot served on GET /stats.
type StatsResponse struct {
	InboundEvents map[string]int64     `json:"inbound_events"`
	OutboundSends map[string]int64     `json:"outbound_sends"`
	AgentLatency  AgentLatencySnapshot `json:"agent_latency"`
}

// StatsHandler serves operational counters and latency quantiles as JSON.
type StatsHandler struct {
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

func NewStatsHandler(gatherer prometheus.Gatherer, logger *logging.Logger) *StatsHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsHandler{
		gatherer: gatherer,
		logger:   logger,
	}
}

// GetStats returns bridge operational metrics.
// GET /stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	mfs, err := h.gatherer.Gather()
	if err != nil {
		h.logger.Error("failed to gather metrics for stats", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		InboundEvents: counterTotalsByLabel(mfs, "wabridge_webhook_inbound_events_total", "result"),
		OutboundSends: counterTotalsByLabel(mfs, "wabridge_webhook_outbound_sends_total", "status"),
		AgentLatency:  snapshotAgentLatency(mfs),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func counterTotalsByLabel(mfs []*dto.MetricFamily, familyName, labelName string) map[string]int64 {
	totals := map[string]int64{}
	for _, mf := range mfs {
		if mf == nil || mf.GetName() != familyName {
			continue
		}
		for _, metric := range mf.Metric {
			if metric == nil || metric.GetCounter() == nil {
				continue
			}
			label := labelValue(metric, labelName)
			if label == "" {
				continue
			}
			totals[label] += int64(metric.GetCounter().GetValue())
		}
	}
	return totals
}

func snapshotAgentLatency(mfs []*dto.MetricFamily) AgentLatencySnapshot {
	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == agentLatencyFamily {
			family = mf
			break
		}
	}
	if family == nil {
		return AgentLatencySnapshot{}
	}

	// Aggregate histograms across models, keeping only status="ok".
	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64

	for _, metric := range family.Metric {
		if metric == nil {
			continue
		}
		if labelValue(metric, "status") != "ok" {
			continue
		}
		h := metric.GetHistogram()
		if h == nil {
			continue
		}
		sampleCount += h.GetSampleCount()
		for _, b := range h.Bucket {
			if b == nil {
				continue
			}
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}

	if sampleCount == 0 || len(cumulativeByUpper) == 0 {
		return AgentLatencySnapshot{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	buckets := make([]AgentLatencyBucket, 0, len(uppers))
	var prev uint64
	var lastFiniteUpper float64
	for _, upper := range uppers {
		cum := cumulativeByUpper[upper]
		if math.IsInf(upper, 1) {
			overflow := int64(0)
			if cum >= prev {
				overflow = int64(cum - prev)
			} else {
				overflow = int64(cum)
			}
			if overflow > 0 {
				buckets = append(buckets, AgentLatencyBucket{
					LeSeconds: lastFiniteUpper,
					Label:     fmt.Sprintf(">%s", formatSeconds(lastFiniteUpper)),
					Count:     overflow,
				})
			}
			prev = cum
			continue
		}

		lastFiniteUpper = upper
		count := int64(0)
		if cum >= prev {
			count = int64(cum - prev)
		} else {
			count = int64(cum)
		}
		buckets = append(buckets, AgentLatencyBucket{
			LeSeconds: upper,
			Count:     count,
		})
		prev = cum
	}

	p90 := histogramQuantile(0.90, sampleCount, uppers, cumulativeByUpper)
	p95 := histogramQuantile(0.95, sampleCount, uppers, cumulativeByUpper)

	return AgentLatencySnapshot{
		Total:   int64(sampleCount),
		P90Ms:   p90 * 1000.0,
		P95Ms:   p95 * 1000.0,
		Buckets: buckets,
	}
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.Label {
		if lp == nil {
			continue
		}
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func histogramQuantile(q float64, total uint64, uppers []float64, cumulativeByUpper map[float64]uint64) float64 {
	if total == 0 || q <= 0 {
		return 0
	}
	if q >= 1 {
		for i := len(uppers) - 1; i >= 0; i-- {
			if !math.IsInf(uppers[i], 1) {
				return uppers[i]
			}
		}
		return 0
	}

	target := q * float64(total)
	var prevUpper float64
	var prevCum float64

	for _, upper := range uppers {
		cum := float64(cumulativeByUpper[upper])
		if cum < target {
			prevUpper = upper
			prevCum = cum
			continue
		}

		// If we can't interpolate, return the bucket upper bound.
		bucketCount := cum - prevCum
		if bucketCount <= 0 || upper == prevUpper {
			return upper
		}
		if math.IsInf(upper, 1) {
			return prevUpper
		}

		fraction := (target - prevCum) / bucketCount
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}

		lower := prevUpper
		return lower + fraction*(upper-lower)
	}

	return uppers[len(uppers)-1]
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	if seconds < 1 {
		return fmt.Sprintf("%.2fs", seconds)
	}
	if seconds < 10 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	return fmt.Sprintf("%.0fs", seconds)
}
