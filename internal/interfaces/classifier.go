package interfaces

import "context"

// Verdict is the normalized answer from the content classifier.
type Verdict string

const (
	VerdictYes Verdict = "yes"
	VerdictNo  Verdict = "no"

	// VerdictUncertain is returned when the classifier call failed or its
	// output could not be parsed. It must never be treated as an implicit
	// acceptance or rejection.
	VerdictUncertain Verdict = "uncertain"
)

// ConfidenceTier is the coarse confidence band reported by the classifier.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// ClassifyTask selects the task framing for a classification call.
type ClassifyTask string

const (
	// TaskOfficialWebsite asks whether a page is the official website for
	// the subject (or its parent organization).
	TaskOfficialWebsite ClassifyTask = "official_website"

	// TaskGovernmentSite asks whether a page is the municipal/parks
	// department site covering the subject. Used for park-like categories.
	TaskGovernmentSite ClassifyTask = "government_site"

	// TaskEventsPage asks whether a page is the organization's own events
	// page rather than a third-party aggregator.
	TaskEventsPage ClassifyTask = "events_page"

	// TaskVisibleEvents asks, from a screenshot, whether the page visibly
	// lists attendable events.
	TaskVisibleEvents ClassifyTask = "visible_events"
)

// ClassifyRequest describes a single classification call. Exactly one of
// PageText or Screenshot should be set; both empty is allowed for the
// trusted-TLD 403 path, where the classifier must judge from metadata alone.
type ClassifyRequest struct {
	Task     ClassifyTask
	Name     string
	City     string
	Category string
	PageURL  string

	PageText   string
	Screenshot []byte
}

// Classification is the normalized classifier verdict.
type Classification struct {
	Verdict    Verdict
	Confidence ConfidenceTier
	Reason     string

	// EventCount is the approximate number of events visible, reported only
	// for TaskVisibleEvents.
	EventCount *int
}

// ClassifierService wraps the external text/vision classifier. Implementations
// must tolerate partial or garbled model output and degrade to
// VerdictUncertain rather than fail the caller.
type ClassifierService interface {
	Classify(ctx context.Context, req *ClassifyRequest) (*Classification, error)
	HealthCheck(ctx context.Context) error
	Close() error
}
