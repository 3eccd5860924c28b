package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxSamples = 1000

type Metrics struct {
	mutex             sync.RWMutex
	requests          map[string]int64
	completed         map[string]int64
	durations         map[string][]time.Duration
	statusCodes       map[string]map[int]int64
	upstreamReachable bool
	upstreamChanges   int64
	startTime         time.Time
}

type Snapshot struct {
	TotalRequests int64                        `json:"total_requests"`
	Uptime        time.Duration                `json:"uptime"`
	Requests      map[string]int64             `json:"requests"`
	Conversions   map[string]ConversionMetrics `json:"conversions"`
	Upstream      UpstreamMetrics              `json:"upstream"`
}

type ConversionMetrics struct {
	Completed   int64         `json:"completed"`
	AvgDuration time.Duration `json:"avg_duration"`
	P50Duration time.Duration `json:"p50_duration"`
	P95Duration time.Duration `json:"p95_duration"`
	P99Duration time.Duration `json:"p99_duration"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

type UpstreamMetrics struct {
	URL           string `json:"url"`
	Reachable     bool   `json:"reachable"`
	HealthChanges int64  `json:"health_changes"`
}

func (m *Metrics) IncrementRequests(kind string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.requests[kind]++
}

func (m *Metrics) RecordConversion(label string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.completed[label]++
	m.durations[label] = append(m.durations[label], duration)

	if len(m.durations[label]) > maxSamples {
		m.durations[label] = m.durations[label][1:]
	}

	if m.statusCodes[label] == nil {
		m.statusCodes[label] = make(map[int]int64)
	}
	m.statusCodes[label][statusCode]++
}

func (m *Metrics) UpdateUpstreamHealth(reachable bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.upstreamReachable = reachable
	m.upstreamChanges++
}

func (m *Metrics) Snapshot(upstreamURL string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:      time.Since(m.startTime),
		Requests:    make(map[string]int64, len(m.requests)),
		Conversions: make(map[string]ConversionMetrics, len(m.completed)),
		Upstream: UpstreamMetrics{
			URL:           upstreamURL,
			Reachable:     m.upstreamReachable,
			HealthChanges: m.upstreamChanges,
		},
	}

	for kind, n := range m.requests {
		snap.Requests[kind] = n
		snap.TotalRequests += n
	}

	for label, n := range m.completed {
		cm := ConversionMetrics{
			Completed:   n,
			StatusCodes: make(map[int]int64, len(m.statusCodes[label])),
		}
		for code, count := range m.statusCodes[label] {
			cm.StatusCodes[code] = count
		}

		durations := m.durations[label]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			cm.AvgDuration = average(sorted)
			cm.P50Duration = percentile(sorted, 0.50)
			cm.P95Duration = percentile(sorted, 0.95)
			cm.P99Duration = percentile(sorted, 0.99)
		}

		snap.Conversions[label] = cm
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		requests:    make(map[string]int64),
		completed:   make(map[string]int64),
		durations:   make(map[string][]time.Duration),
		statusCodes: make(map[string]map[int]int64),
		startTime:   time.Now(),
	}
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
