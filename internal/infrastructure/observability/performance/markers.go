// Package performance tracks request and background operation timings for
// checkout pages and payments.
package performance

import (
	"sync"
	"time"
)

// Marker represents a single performance measurement for an operation
type Marker struct {
	mu sync.Mutex

	Operation string         `json:"operation"` // e.g. "render:checkout", "payment:create"
	Scope     string         `json:"scope"`     // page or payment id the operation ran for
	StartTime time.Time      `json:"startTime"`
	EndTime   time.Time      `json:"endTime"`
	Duration  time.Duration  `json:"duration"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata"`
	CacheHits int            `json:"cacheHits"`
	Misses    int            `json:"cacheMisses"`
	Completed bool           `json:"completed"`

	onComplete func(*Marker)
}

// Complete marks the operation as finished. Repeated calls are no-ops.
func (m *Marker) Complete() {
	m.mu.Lock()
	if m.Completed {
		m.mu.Unlock()
		return
	}
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Completed = true
	hook := m.onComplete
	m.mu.Unlock()

	if hook != nil {
		hook(m)
	}
}

// SetSuccess marks the operation as successful or failed
func (m *Marker) SetSuccess(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Success = success
}

// SetError records an error and marks the operation as failed
func (m *Marker) SetError(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Error = err.Error()
	m.Success = false
}

// AddMetadata adds key-value metadata to the marker
func (m *Marker) AddMetadata(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// AddCacheHit increments the cache hit counter
func (m *Marker) AddCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

// AddCacheMiss increments the cache miss counter
func (m *Marker) AddCacheMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Misses++
}

// Elapsed returns the final duration, or the running time when not completed.
func (m *Marker) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Completed {
		return m.Duration
	}
	return time.Since(m.StartTime)
}

// snapshot copies the exported fields under the lock.
func (m *Marker) snapshot() MarkerSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	meta := make(map[string]any, len(m.Metadata))
	for k, v := range m.Metadata {
		meta[k] = v
	}
	duration := m.Duration
	if !m.Completed {
		duration = time.Since(m.StartTime)
	}
	return MarkerSnapshot{
		Operation: m.Operation,
		Scope:     m.Scope,
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		Duration:  duration,
		Success:   m.Success,
		Error:     m.Error,
		Metadata:  meta,
		Completed: m.Completed,
	}
}

// MarkerSnapshot is an immutable copy of a marker.
type MarkerSnapshot struct {
	Operation string         `json:"operation"`
	Scope     string         `json:"scope"`
	StartTime time.Time      `json:"startTime"`
	EndTime   time.Time      `json:"endTime"`
	Duration  time.Duration  `json:"duration"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Completed bool           `json:"completed"`
}

// HealthStatus represents the overall health of the tracked operations
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
	HealthUnknown   HealthStatus = "unknown"
)

// AlertSeverity represents the severity level of a performance alert
type AlertSeverity string

const (
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

// PerformanceAlert represents a threshold violation
type PerformanceAlert struct {
	Timestamp time.Time     `json:"timestamp"`
	Severity  AlertSeverity `json:"severity"`
	Operation string        `json:"operation"`
	Scope     string        `json:"scope"`
	Actual    time.Duration `json:"actual"`
	Message   string        `json:"message"`
}
