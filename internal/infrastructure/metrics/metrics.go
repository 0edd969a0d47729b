// Package metrics counts and times the requests the client sends to the
// backend. Metrics live in a private registry; the CLI reads them back to
// print per-endpoint statistics.
package metrics

import (
	"sort"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Outcome labels
const (
	OutcomeOK          = "ok"
	OutcomeRejected    = "rejected"
	OutcomeUnreachable = "unreachable"
)

// Config holds configuration for the recorder
type Config struct {
	// Namespace is the prefix for all metrics.
	// Default: "mapmate"
	Namespace string

	// HistogramBuckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	HistogramBuckets []float64
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Namespace:        "mapmate",
		HistogramBuckets: prometheus.DefBuckets,
	}
}

// Recorder records API requests into a Prometheus registry.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Recorder struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewRecorder creates a recorder with its own registry
func NewRecorder(config Config) *Recorder {
	if config.Namespace == "" {
		config.Namespace = "mapmate"
	}
	if len(config.HistogramBuckets) == 0 {
		config.HistogramBuckets = prometheus.DefBuckets
	}

	r := &Recorder{registry: prometheus.NewRegistry()}

	r.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of requests sent to the backend.",
		},
		[]string{"method", "endpoint", "status", "outcome"},
	)
	r.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend requests in seconds.",
			Buckets:   config.HistogramBuckets,
		},
		[]string{"method", "endpoint"},
	)

	r.registry.MustRegister(r.requestsTotal, r.requestDuration)
	return r
}

// ObserveRequest records one finished request. status is 0 when the server
// was never reached.
func (r *Recorder) ObserveRequest(method, endpoint string, status int, outcome string, latency time.Duration) {
	r.requestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status), outcome).Inc()
	r.requestDuration.WithLabelValues(method, endpoint).Observe(latency.Seconds())
}

// Registry returns the Prometheus registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Gather collects all metrics from the registry
func (r *Recorder) Gather() ([]*dto.MetricFamily, error) {
	return r.registry.Gather()
}

// EndpointStat is the aggregated view of one method+endpoint pair
type EndpointStat struct {
	Method       string        `json:"method" yaml:"method"`
	Endpoint     string        `json:"endpoint" yaml:"endpoint"`
	Requests     uint64        `json:"requests" yaml:"requests"`
	Rejected     uint64        `json:"rejected" yaml:"rejected"`
	Unreachable  uint64        `json:"unreachable" yaml:"unreachable"`
	TotalLatency time.Duration `json:"totalLatency" yaml:"totalLatency"`
}

// AvgLatency returns the mean request latency
func (s EndpointStat) AvgLatency() time.Duration {
	if s.Requests == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.Requests)
}

// Summary folds the gathered metric families into per-endpoint statistics,
// sorted by endpoint then method.
func (r *Recorder) Summary() ([]EndpointStat, error) {
	families, err := r.Gather()
	if err != nil {
		return nil, err
	}

	stats := make(map[[2]string]*EndpointStat)
	get := func(labels []*dto.LabelPair) *EndpointStat {
		var method, endpoint string
		for _, lp := range labels {
			switch lp.GetName() {
			case "method":
				method = lp.GetValue()
			case "endpoint":
				endpoint = lp.GetValue()
			}
		}
		key := [2]string{method, endpoint}
		s, ok := stats[key]
		if !ok {
			s = &EndpointStat{Method: method, Endpoint: endpoint}
			stats[key] = s
		}
		return s
	}

	for _, mf := range families {
		switch {
		case mf.GetType() == dto.MetricType_COUNTER:
			for _, m := range mf.GetMetric() {
				s := get(m.GetLabel())
				n := uint64(m.GetCounter().GetValue())
				s.Requests += n
				for _, lp := range m.GetLabel() {
					if lp.GetName() != "outcome" {
						continue
					}
					switch lp.GetValue() {
					case OutcomeRejected:
						s.Rejected += n
					case OutcomeUnreachable:
						s.Unreachable += n
					}
				}
			}
		case mf.GetType() == dto.MetricType_HISTOGRAM:
			for _, m := range mf.GetMetric() {
				s := get(m.GetLabel())
				s.TotalLatency += time.Duration(m.GetHistogram().GetSampleSum() * float64(time.Second))
			}
		}
	}

	out := make([]EndpointStat, 0, len(stats))
	for _, s := range stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Endpoint != out[j].Endpoint {
			return out[i].Endpoint < out[j].Endpoint
		}
		return out[i].Method < out[j].Method
	})
	return out, nil
}
