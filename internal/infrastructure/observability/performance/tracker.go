package performance

import (
	"runtime"
	"strings"
	"sync"
	"time"
)

// Tracker keeps recent markers and raises alerts for slow operations
type Tracker struct {
	mu         sync.RWMutex
	markers    []*Marker
	alerts     []*PerformanceAlert
	thresholds *AlertThresholds
	config     *TrackerConfig
	started    time.Time
	onAlert    func(PerformanceAlert)
}

// TrackerConfig contains configuration options for the tracker
type TrackerConfig struct {
	MaxMarkers   int
	MaxAlerts    int
	Retention    time.Duration
	EnableAlerts bool
}

// DefaultTrackerConfig returns the default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MaxMarkers:   5000,
		MaxAlerts:    200,
		Retention:    time.Hour,
		EnableAlerts: true,
	}
}

// AlertThresholds defines duration thresholds that raise alerts
type AlertThresholds struct {
	VerySlowResponse time.Duration
	CriticalResponse time.Duration

	// Operation-specific thresholds, matched by operation prefix
	Render  time.Duration
	Gateway time.Duration
	AI      time.Duration
}

// DefaultAlertThresholds returns the default alert thresholds
func DefaultAlertThresholds() *AlertThresholds {
	return &AlertThresholds{
		VerySlowResponse: 2 * time.Second,
		CriticalResponse: 5 * time.Second,
		Render:           100 * time.Millisecond,
		Gateway:          3 * time.Second,
		AI:               30 * time.Second,
	}
}

// NewTracker creates a new performance tracker
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}
	return &Tracker{
		thresholds: DefaultAlertThresholds(),
		config:     config,
		started:    time.Now(),
	}
}

// OnAlert registers a callback invoked for every raised alert.
func (t *Tracker) OnAlert(fn func(PerformanceAlert)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onAlert = fn
}

// StartOperation creates and tracks a new marker. The marker is assumed
// successful until told otherwise.
func (t *Tracker) StartOperation(operation, scope string) *Marker {
	marker := &Marker{
		Operation: operation,
		Scope:     scope,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
		Success:   true,
	}
	if t.config.EnableAlerts {
		marker.onComplete = t.checkForAlerts
	}

	t.mu.Lock()
	t.markers = append(t.markers, marker)
	if len(t.markers) > t.config.MaxMarkers {
		t.markers = t.markers[len(t.markers)-t.config.MaxMarkers:]
	}
	t.mu.Unlock()

	return marker
}

func (t *Tracker) checkForAlerts(marker *Marker) {
	snap := marker.snapshot()

	var raised []*PerformanceAlert
	switch {
	case snap.Duration > t.thresholds.CriticalResponse:
		raised = append(raised, newAlert(snap, AlertCritical, "Operation exceeded critical response time"))
	case snap.Duration > t.thresholds.VerySlowResponse:
		raised = append(raised, newAlert(snap, AlertWarning, "Operation exceeded slow response time"))
	}

	if limit, ok := t.operationThreshold(snap.Operation); ok && snap.Duration > limit {
		raised = append(raised, newAlert(snap, AlertWarning, "Operation exceeded its threshold"))
	}

	if len(raised) == 0 {
		return
	}

	t.mu.Lock()
	t.alerts = append(t.alerts, raised...)
	if len(t.alerts) > t.config.MaxAlerts {
		t.alerts = t.alerts[len(t.alerts)-t.config.MaxAlerts:]
	}
	hook := t.onAlert
	t.mu.Unlock()

	if hook != nil {
		for _, a := range raised {
			hook(*a)
		}
	}
}

func (t *Tracker) operationThreshold(operation string) (time.Duration, bool) {
	switch {
	case strings.HasPrefix(operation, "render"):
		return t.thresholds.Render, true
	case strings.HasPrefix(operation, "gateway"):
		return t.thresholds.Gateway, true
	case strings.HasPrefix(operation, "ai"):
		return t.thresholds.AI, true
	default:
		return 0, false
	}
}

func newAlert(snap MarkerSnapshot, severity AlertSeverity, message string) *PerformanceAlert {
	return &PerformanceAlert{
		Timestamp: time.Now(),
		Severity:  severity,
		Operation: snap.Operation,
		Scope:     snap.Scope,
		Actual:    snap.Duration,
		Message:   message,
	}
}

// RecentMetrics returns completed markers that finished within the window.
func (t *Tracker) RecentMetrics(within time.Duration) []MarkerSnapshot {
	t.mu.RLock()
	markers := make([]*Marker, len(t.markers))
	copy(markers, t.markers)
	t.mu.RUnlock()

	cutoff := time.Now().Add(-within)
	var out []MarkerSnapshot
	for _, m := range markers {
		snap := m.snapshot()
		if snap.Completed && snap.EndTime.After(cutoff) {
			out = append(out, snap)
		}
	}
	return out
}

// Alerts returns a copy of the retained alerts.
func (t *Tracker) Alerts() []PerformanceAlert {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]PerformanceAlert, 0, len(t.alerts))
	for _, a := range t.alerts {
		out = append(out, *a)
	}
	return out
}

// Health derives an overall status from the last five minutes of operations.
func (t *Tracker) Health() HealthStatus {
	metrics := t.RecentMetrics(5 * time.Minute)
	if len(metrics) == 0 {
		return HealthUnknown
	}

	critical, warning := 0, 0
	for _, m := range metrics {
		switch {
		case m.Duration > t.thresholds.CriticalResponse || !m.Success:
			critical++
		case m.Duration > t.thresholds.VerySlowResponse:
			warning++
		}
	}

	total := float64(len(metrics))
	switch {
	case float64(critical)/total > 0.1:
		return HealthUnhealthy
	case float64(critical)/total > 0.05 || float64(warning)/total > 0.2:
		return HealthDegraded
	default:
		return HealthHealthy
	}
}

// Cleanup drops completed markers older than the retention window.
func (t *Tracker) Cleanup() int {
	cutoff := time.Now().Add(-t.config.Retention)

	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.markers[:0]
	removed := 0
	for _, m := range t.markers {
		snap := m.snapshot()
		if snap.Completed && snap.EndTime.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	for i := len(kept); i < len(t.markers); i++ {
		t.markers[i] = nil
	}
	t.markers = kept
	return removed
}

// GetOverallStats returns tracker statistics for the health endpoint
func (t *Tracker) GetOverallStats() map[string]any {
	t.mu.RLock()
	markers := make([]*Marker, len(t.markers))
	copy(markers, t.markers)
	alerts := len(t.alerts)
	t.mu.RUnlock()

	active, completed := 0, 0
	for _, m := range markers {
		if m.snapshot().Completed {
			completed++
		} else {
			active++
		}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return map[string]any{
		"uptime":              time.Since(t.started).String(),
		"activeOperations":    active,
		"completedOperations": completed,
		"totalAlerts":         alerts,
		"health":              string(t.Health()),
		"memoryUsageMB":       memStats.Alloc / (1024 * 1024),
	}
}
