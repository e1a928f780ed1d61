package metrics

import (
	"sync/atomic"
	"time"
)

type MetricID uint16

const (
	SignUpSuccess MetricID = iota
	SignUpDuplicate
	SignUpInvalid
	LoginSuccess
	LoginFailure
	LoginRateLimited
	RefreshSuccess
	RefreshFailure
	RefreshReuseDetected
	RefreshRaceLost
	EmailConfirmed
	EmailConfirmFailure
	EmailVerificationRequest
	NotifyFailure
	ResolveSuccess
	ResolveFailure
	CacheHit
	CacheMiss
	CacheCorrupt
	AvatarUpdated
	InfraFailure
	LoginLatency
	ResolveLatency
	MetricIDCount
)

// BucketCount is the number of histogram buckets, the last one being +Inf.
const BucketCount = 8

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

type histogram struct {
	buckets [BucketCount]uint64
}

type Config struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

type Metrics struct {
	enabled    bool
	latency    bool
	counters   [MetricIDCount]paddedCounter
	histograms [MetricIDCount]histogram
}

type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func New(cfg Config) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
		latency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// IsHistogram reports whether id records latencies rather than counts.
func IsHistogram(id MetricID) bool {
	return id == LoginLatency || id == ResolveLatency
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount || IsHistogram(id) {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.latency || !IsHistogram(id) {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies the current values. Histograms are present only when
// latency recording is on.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if m == nil || !m.enabled {
		return s
	}

	for id := MetricID(0); id < MetricIDCount; id++ {
		if IsHistogram(id) {
			if m.latency {
				buckets := make([]uint64, BucketCount)
				for i := range buckets {
					buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
				}
				s.Histograms[id] = buckets
			}
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()
	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
