// Package monitoring tracks cache hit ratios, latencies and evictions per
// cache layer and derives a health status for the health endpoint.
package monitoring

import (
	"sort"
	"sync"
	"time"
)

// Cache layers recorded by the cache manager.
const (
	LayerPages     = "pages"
	LayerHTMLChunk = "html_chunk"
)

// Eviction reasons.
const (
	EvictionTTL    = "ttl"
	EvictionManual = "manual"
)

// CacheHealthStatus represents the health of the cache layers
type CacheHealthStatus string

const (
	CacheHealthy   CacheHealthStatus = "healthy"
	CacheDegraded  CacheHealthStatus = "degraded"
	CacheUnhealthy CacheHealthStatus = "unhealthy"
	CacheUnknown   CacheHealthStatus = "unknown"
)

// CacheLayerMetrics represents performance metrics for a single cache layer
type CacheLayerMetrics struct {
	LayerName   string    `json:"layerName"`
	LastUpdated time.Time `json:"lastUpdated"`

	TotalRequests int64   `json:"totalRequests"`
	CacheHits     int64   `json:"cacheHits"`
	CacheMisses   int64   `json:"cacheMisses"`
	HitRatio      float64 `json:"hitRatio"`

	AvgHitLatency  time.Duration `json:"avgHitLatency"`
	AvgMissLatency time.Duration `json:"avgMissLatency"`

	TTLEvictions    int64 `json:"ttlEvictions"`
	ManualEvictions int64 `json:"manualEvictions"`
}

// CacheMonitorConfig holds the health thresholds.
type CacheMonitorConfig struct {
	MinHealthyHitRatio  float64       `json:"minHealthyHitRatio"`
	MinDegradedHitRatio float64       `json:"minDegradedHitRatio"`
	MaxHealthyLatency   time.Duration `json:"maxHealthyLatency"`
	// MinRequests is the sample size below which a layer is not judged.
	MinRequests int64 `json:"minRequests"`
}

// DefaultCacheMonitorConfig returns sensible defaults
func DefaultCacheMonitorConfig() *CacheMonitorConfig {
	return &CacheMonitorConfig{
		MinHealthyHitRatio:  0.60,
		MinDegradedHitRatio: 0.30,
		MaxHealthyLatency:   5 * time.Millisecond,
		MinRequests:         50,
	}
}

// CacheMonitor tracks performance metrics across the cache layers.
type CacheMonitor struct {
	layers  map[string]*CacheLayerMetrics
	config  *CacheMonitorConfig
	mu      sync.RWMutex
	started time.Time
}

// NewCacheMonitor creates a monitor. A nil config selects the defaults.
func NewCacheMonitor(config *CacheMonitorConfig) *CacheMonitor {
	if config == nil {
		config = DefaultCacheMonitorConfig()
	}
	return &CacheMonitor{
		layers:  make(map[string]*CacheLayerMetrics),
		config:  config,
		started: time.Now(),
	}
}

func (cm *CacheMonitor) layer(name string) *CacheLayerMetrics {
	m, ok := cm.layers[name]
	if !ok {
		m = &CacheLayerMetrics{LayerName: name}
		cm.layers[name] = m
	}
	return m
}

// RecordCacheOperation records one lookup.
func (cm *CacheMonitor) RecordCacheOperation(layerName string, hit bool, latency time.Duration) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	m := cm.layer(layerName)
	m.TotalRequests++
	if hit {
		m.CacheHits++
		m.AvgHitLatency = movingAverage(m.AvgHitLatency, latency)
	} else {
		m.CacheMisses++
		m.AvgMissLatency = movingAverage(m.AvgMissLatency, latency)
	}
	m.HitRatio = float64(m.CacheHits) / float64(m.TotalRequests)
	m.LastUpdated = time.Now()
}

// RecordEviction records count entries removed from a layer.
func (cm *CacheMonitor) RecordEviction(layerName, reason string, count int) {
	if count <= 0 {
		return
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()

	m := cm.layer(layerName)
	switch reason {
	case EvictionTTL:
		m.TTLEvictions += int64(count)
	default:
		m.ManualEvictions += int64(count)
	}
	m.LastUpdated = time.Now()
}

// GetLayerMetrics returns a copy of one layer's metrics.
func (cm *CacheMonitor) GetLayerMetrics(layerName string) (CacheLayerMetrics, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	m, ok := cm.layers[layerName]
	if !ok {
		return CacheLayerMetrics{LayerName: layerName}, false
	}
	return *m, true
}

// Health derives the overall status from hit ratio and hit latency.
func (cm *CacheMonitor) Health() CacheHealthStatus {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	status, _, _ := cm.health()
	return status
}

func (cm *CacheMonitor) health() (CacheHealthStatus, []string, []string) {
	critical := make([]string, 0)
	warning := make([]string, 0)
	judged := 0

	for name, m := range cm.layers {
		if m.TotalRequests < cm.config.MinRequests {
			continue
		}
		judged++
		switch {
		case m.HitRatio < cm.config.MinDegradedHitRatio:
			critical = append(critical, name)
		case m.HitRatio < cm.config.MinHealthyHitRatio || m.AvgHitLatency > cm.config.MaxHealthyLatency:
			warning = append(warning, name)
		}
	}
	sort.Strings(critical)
	sort.Strings(warning)

	switch {
	case judged == 0:
		return CacheUnknown, critical, warning
	case len(critical) > 0:
		return CacheUnhealthy, critical, warning
	case len(warning) > 0:
		return CacheDegraded, critical, warning
	default:
		return CacheHealthy, critical, warning
	}
}

// GetCacheHealth returns the health summary for the health endpoint.
func (cm *CacheMonitor) GetCacheHealth() map[string]any {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	status, critical, warning := cm.health()
	var hits, total int64
	layers := make([]CacheLayerMetrics, 0, len(cm.layers))
	for _, m := range cm.layers {
		hits += m.CacheHits
		total += m.TotalRequests
		layers = append(layers, *m)
	}
	sort.Slice(layers, func(i, j int) bool { return layers[i].LayerName < layers[j].LayerName })

	hitRatio := 0.0
	if total > 0 {
		hitRatio = float64(hits) / float64(total)
	}
	return map[string]any{
		"overallHealth":   status,
		"overallHitRatio": hitRatio,
		"criticalLayers":  critical,
		"warningLayers":   warning,
		"layers":          layers,
		"monitorUptime":   time.Since(cm.started).String(),
	}
}

func movingAverage(current, sample time.Duration) time.Duration {
	if current == 0 {
		return sample
	}
	return time.Duration(float64(current)*0.9 + float64(sample)*0.1)
}
