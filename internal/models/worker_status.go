package models

import "time"

// WorkerType identifies a background worker. There is one WorkerStatus row
// per type.
type WorkerType string

const (
	WorkerTypeURLDiscovery WorkerType = "url_discovery"
)

// HeartbeatMaxAge is how stale a heartbeat may be before the worker is
// considered dead.
const HeartbeatMaxAge = 60 * time.Second

// WorkerStatus tracks the state of a background worker process.
type WorkerStatus struct {
	WorkerType WorkerType `json:"worker_type" badgerhold:"key"`
	Hostname   string     `json:"hostname,omitempty"`
	PID        int        `json:"pid,omitempty"`

	IsRunning     bool       `json:"is_running"`
	LastHeartbeat *time.Time `json:"last_heartbeat,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`

	// Current work
	CurrentPOIID   string `json:"current_poi_id,omitempty"`
	CurrentPOIName string `json:"current_poi_name,omitempty"`
	CurrentPhase   string `json:"current_phase,omitempty"` // "website" or "events"

	// Stats since worker start
	POIsProcessed     int `json:"pois_processed"`
	DiscoveriesFound  int `json:"discoveries_found"`
	DiscoveriesReused int `json:"discoveries_reused"`
	Errors            int `json:"errors"`
	WebsitesFound     int `json:"websites_found"`
	WebsitesNotFound  int `json:"websites_not_found"`

	// Current AIMD inter-POI delay, surfaced for the dashboard
	SleepSeconds float64 `json:"sleep_seconds"`
}

// IsAlive reports whether the worker heartbeat is recent enough to consider
// the process alive.
func (w *WorkerStatus) IsAlive() bool {
	if w.LastHeartbeat == nil {
		return false
	}
	return time.Since(*w.LastHeartbeat) < HeartbeatMaxAge
}

// StatusDisplay returns a human-readable worker state.
func (w *WorkerStatus) StatusDisplay() string {
	if !w.IsRunning {
		return "Stopped"
	}
	if w.IsAlive() {
		return "Running"
	}
	return "Stale (no heartbeat)"
}
