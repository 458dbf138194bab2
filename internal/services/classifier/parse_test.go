package classifier

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/navigator/internal/interfaces"
)

func TestParseStructuredVisionResponse(t *testing.T) {
	text := `HAS_EVENTS: yes
EVENT_COUNT: 12
CONFIDENCE: high
REASON: Calendar showing multiple upcoming programs with dates and registration links.`

	result := parseResponse(interfaces.TaskVisibleEvents, text)

	assert.Equal(t, interfaces.VerdictYes, result.Verdict)
	assert.Equal(t, interfaces.ConfidenceHigh, result.Confidence)
	require.NotNil(t, result.EventCount)
	assert.Equal(t, 12, *result.EventCount)
	assert.Contains(t, result.Reason, "Calendar showing")
}

func TestParseStructuredOfficialResponse(t *testing.T) {
	text := `IS_OFFICIAL: no
CONFIDENCE: medium
REASON: This is a Yelp review page, not the organization's own site.`

	result := parseResponse(interfaces.TaskOfficialWebsite, text)

	assert.Equal(t, interfaces.VerdictNo, result.Verdict)
	assert.Equal(t, interfaces.ConfidenceMedium, result.Confidence)
	assert.Nil(t, result.EventCount)
}

func TestParseStructuredEventCountWithNoise(t *testing.T) {
	text := `HAS_EVENTS: yes
EVENT_COUNT: approximately 8 events
CONFIDENCE: medium
REASON: Several listings visible.`

	result := parseResponse(interfaces.TaskVisibleEvents, text)

	require.NotNil(t, result.EventCount)
	assert.Equal(t, 8, *result.EventCount)
}

func TestParseYesNoResponse(t *testing.T) {
	result := parseResponse(interfaces.TaskOfficialWebsite, "YES\nThis is the library's own website with hours and programs.")

	assert.Equal(t, interfaces.VerdictYes, result.Verdict)
	assert.Equal(t, interfaces.ConfidenceMedium, result.Confidence)
	assert.Contains(t, result.Reason, "library's own website")
}

func TestParseYesNoLeadingNo(t *testing.T) {
	result := parseResponse(interfaces.TaskEventsPage, "NO. This is an event aggregator listing events from many towns.")

	assert.Equal(t, interfaces.VerdictNo, result.Verdict)
}

func TestParseGarbledOutputDegradesToUncertain(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"rambling", "I think this page might be related to the organization but I cannot tell."},
		{"format ignored", "The answer depends on context."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseResponse(interfaces.TaskOfficialWebsite, tt.text)
			assert.Equal(t, interfaces.VerdictUncertain, result.Verdict)
			assert.Equal(t, interfaces.ConfidenceLow, result.Confidence)
		})
	}
}

func TestParseVisionFallbackInference(t *testing.T) {
	// Model mangled the answer line but the prose is clear enough
	text := "HAS_EVENTS: maybe\nThe page shows a calendar with upcoming events and a schedule of programs."
	result := parseResponse(interfaces.TaskVisibleEvents, text)
	assert.Equal(t, interfaces.VerdictYes, result.Verdict)
	assert.Equal(t, interfaces.ConfidenceMedium, result.Confidence)

	text = "HAS_EVENTS: unclear\nThis page does not show any attendable listings."
	result = parseResponse(interfaces.TaskVisibleEvents, text)
	assert.Equal(t, interfaces.VerdictNo, result.Verdict)
}

func TestParseReasonTruncatesOnRuneBoundary(t *testing.T) {
	// 149 ASCII bytes put the two-byte "é" astride the 150-byte reason cap
	reason := strings.Repeat("a", 149) + "également des concerts"
	text := "IS_OFFICIAL: yes\nCONFIDENCE: high\nREASON: " + reason

	result := parseResponse(interfaces.TaskOfficialWebsite, text)

	assert.True(t, utf8.ValidString(result.Reason))
	assert.LessOrEqual(t, len(result.Reason), maxReasonLen)
	assert.Equal(t, strings.Repeat("a", 149), result.Reason)
}

func TestPageTextFromHTML(t *testing.T) {
	html := `<html><head><script>var x = 1;</script><style>body{}</style></head>
<body><nav><a href="/">Home</a></nav>
<h1>Upcoming Events</h1>
<p>Join us for <a href="/storytime">Story Time</a> every Tuesday.</p>
</body></html>`

	text := PageTextFromHTML(html)

	assert.Contains(t, text, "Upcoming Events")
	assert.Contains(t, text, "Story Time")
	assert.NotContains(t, text, "var x = 1")
}
