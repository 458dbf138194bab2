package models

// SearchResult is a single result returned by the web search provider.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
}

// WebsiteDiscovery is the outcome of a website discovery attempt for a POI.
type WebsiteDiscovery struct {
	Website     string  `json:"website,omitempty"`
	Confidence  float64 `json:"confidence"`
	Notes       string  `json:"notes,omitempty"`
	Reused      bool    `json:"reused,omitempty"`
	RateLimited bool    `json:"rate_limited,omitempty"`
}

// EventsDiscovery is the outcome of an events-URL discovery attempt for a POI.
type EventsDiscovery struct {
	EventsURL      string  `json:"events_url,omitempty"`
	Method         string  `json:"method,omitempty"` // reused | direct_path | link_crawl
	Confidence     float64 `json:"confidence"`
	HasEvents      *bool   `json:"has_events,omitempty"`
	EventCount     *int    `json:"event_count,omitempty"`
	VisionVerified bool    `json:"vision_verified"`
	Notes          string  `json:"notes,omitempty"`
}

// Found reports whether the discovery produced an accepted events URL.
func (d *EventsDiscovery) Found() bool {
	return d.EventsURL != "" && (d.HasEvents == nil || *d.HasEvents)
}
