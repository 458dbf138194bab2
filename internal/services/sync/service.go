package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/common"
	"github.com/ternarybob/navigator/internal/httpclient"
	"github.com/ternarybob/navigator/internal/interfaces"
	"github.com/ternarybob/navigator/internal/models"
)

// Service implements SyncService against the backend venue API. Venues are
// upserted by OSM identity, so repeated syncs of the same POI are idempotent.
type Service struct {
	client   *http.Client
	apiURL   string
	apiToken string
	logger   arbor.ILogger
}

// venuePayload is the venue upsert request body.
type venuePayload struct {
	OSMType       string   `json:"osm_type"`
	OSMID         int64    `json:"osm_id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	StreetAddress string   `json:"street_address,omitempty"`
	City          string   `json:"city,omitempty"`
	State         string   `json:"state,omitempty"`
	PostalCode    string   `json:"postal_code,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	Website       string   `json:"website,omitempty"`
	EventsURL     string   `json:"events_url,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	OpeningHours  string   `json:"opening_hours,omitempty"`
	Operator      string   `json:"operator,omitempty"`
}

// venueResponse is the venue upsert response body.
type venueResponse struct {
	VenueID int64  `json:"venue_id"`
	Status  string `json:"status"` // created | updated | unchanged
}

// NewService creates the venue sync service from the sync configuration.
func NewService(config *common.SyncConfig, logger arbor.ILogger) interfaces.SyncService {
	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Service{
		client:   httpclient.NewDefaultHTTPClient(timeout),
		apiURL:   strings.TrimRight(config.APIURL, "/"),
		apiToken: config.APIToken,
		logger:   logger,
	}
}

func (s *Service) Enabled() bool {
	return s.apiURL != "" && s.apiToken != ""
}

func (s *Service) SyncVenue(ctx context.Context, poi *models.POI) (int64, error) {
	if !s.Enabled() {
		return 0, fmt.Errorf("venue sync is not configured")
	}

	payload := buildPayload(poi)
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal venue payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/api/v1/venues/from-osm/", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build sync request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("venue sync request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return 0, fmt.Errorf("venue sync returned HTTP %d: %s", resp.StatusCode, string(detail))
	}

	var result venueResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode venue sync response: %w", err)
	}

	s.logger.Debug().
		Str("poi", poi.ID).
		Int64("venue_id", result.VenueID).
		Str("status", result.Status).
		Msg("Venue synced")

	return result.VenueID, nil
}

// buildPayload maps a POI to the venue upsert body. Only validated URLs are
// forwarded: an OSM-provided website is trusted, a discovered one must have
// passed validation, and an events URL must have been accepted.
func buildPayload(poi *models.POI) *venuePayload {
	payload := &venuePayload{
		OSMType:       poi.OSMType,
		OSMID:         poi.OSMID,
		Name:          poi.Name,
		Category:      string(poi.Category),
		StreetAddress: poi.StreetAddress,
		City:          poi.City,
		State:         poi.State,
		PostalCode:    poi.PostalCode,
		Latitude:      poi.Latitude,
		Longitude:     poi.Longitude,
		Phone:         poi.Phone,
		OpeningHours:  poi.OpeningHours,
		Operator:      poi.Operator,
	}

	if poi.SourceWebsite != "" {
		payload.Website = poi.SourceWebsite
	} else if poi.WebsiteStatus == models.WebsiteValidated {
		payload.Website = poi.DiscoveredWebsite
	}

	if poi.SourceStatus == models.SourceValidated {
		payload.EventsURL = poi.EventsURL
	}

	return payload
}
