package classifier

import (
	"fmt"
	"strings"

	"github.com/ternarybob/navigator/internal/interfaces"
)

// maxPageText caps how much page text goes into a prompt.
const maxPageText = 4000

// buildPrompt constructs the task-specific prompt. Screenshot tasks ask for
// the structured line format; text tasks ask for a first-line YES/NO.
func buildPrompt(req *interfaces.ClassifyRequest) string {
	if len(req.Screenshot) > 0 {
		return buildVisionPrompt(req)
	}
	return buildTextPrompt(req)
}

func buildVisionPrompt(req *interfaces.ClassifyRequest) string {
	if req.Task == interfaces.TaskVisibleEvents {
		return fmt.Sprintf(`Analyze this webpage screenshot.

I'm looking for an EVENTS page for: %s (%s) in %s.
URL: %s

Does this page show EVENTS that people can attend?

Events have:
- Specific dates (like "Dec 14", "January 5, 2025", or a calendar view)
- Event titles/names (like "Story Time", "Concert in the Park", "Yoga Class")
- Something you GO TO (not news articles, not meeting minutes, not blog posts)

Answer in this exact format:
HAS_EVENTS: yes/no
EVENT_COUNT: (approximate number of events visible, or 0)
CONFIDENCE: high/medium/low
REASON: (brief explanation)

Example:
HAS_EVENTS: yes
EVENT_COUNT: 12
CONFIDENCE: high
REASON: Calendar showing multiple upcoming programs with dates and registration links.`,
			req.Name, req.Category, req.City, req.PageURL)
	}

	return fmt.Sprintf(`Look at this webpage screenshot.

I'm trying to find the official website for: %s
Location: %s
Category: %s

Is this webpage the official website for this place, or a closely related organization (like a Parks & Recreation department for a park)?

Answer in this exact format:
IS_OFFICIAL: yes/no
CONFIDENCE: high/medium/low
REASON: (brief explanation)

Examples of YES:
- The park's page on the city Parks & Recreation site
- The library's own website
- The museum's official site

Examples of NO:
- A dictionary defining a word
- A news article about the place
- A review site like Yelp
- An unrelated business
- A Wikipedia article`,
		req.Name, req.City, req.Category)
}

func buildTextPrompt(req *interfaces.ClassifyRequest) string {
	var b strings.Builder

	switch req.Task {
	case interfaces.TaskGovernmentSite:
		fmt.Fprintf(&b, `TASK: Is this the official government website for %s, or its Parks & Recreation department?

URL: %s
`, req.City, req.PageURL)
		writePageText(&b, req)
		fmt.Fprintf(&b, `
ANSWER YES if this is:
- The official .gov website for %s
- A Parks & Recreation department website
- A town/city government site that includes parks info

ANSWER NO if this is:
- Wikipedia, a dictionary, or encyclopedia
- A news article or directory listing
- A third-party site not run by the government
`, req.City)

	case interfaces.TaskEventsPage:
		fmt.Fprintf(&b, `TASK: Is this an official events/calendar page for "%s" in %s?

URL: %s
`, req.Name, req.City, req.PageURL)
		writePageText(&b, req)
		b.WriteString(`
ANSWER YES if:
- This is the official events page run BY this organization or its parent department
- A .gov website calendar (Parks & Rec, library, town events, etc.)
- The organization's own website (museum.org, library.org, school district site, etc.)
- Events listed are specifically for this place or its parent organization

ANSWER NO if:
- This is an EVENT AGGREGATOR that lists events from many different places
- This is a NEWS site with event listings (not run by the organization)
- Events are for a DIFFERENT location or organization (wrong town, wrong place)
- This is a general community calendar not specifically for this place

IMPORTANT: The key question is - does this organization RUN this events page, or is it a third-party site?
`)

	default: // TaskOfficialWebsite
		fmt.Fprintf(&b, `TASK: Is this a usable official website for "%s" (%s) in %s?

NOTE: The page should be run BY or be about "%s" specifically.

URL: %s
`, req.Name, req.Category, req.City, req.Name, req.PageURL)
		writePageText(&b, req)
		b.WriteString(`
ANSWER YES only if this is:
- The official website run BY this place or organization
- A city/town government page (.gov) for this type of place
- The parent organization's official site (school district, library network, etc.)

ANSWER NO if this is:
- Wikipedia or any encyclopedia
- A dictionary defining words
- A news article, blog post, or press release
- A review/listing site (Yelp, TripAdvisor, Google Maps, etc.)
- A school/business directory
- A social media page (Facebook, Twitter, Reddit, etc.)
- An event aggregator (Eventbrite, Meetup, etc.)
- A third-party site that lists info ABOUT many places (not run BY the specific place)

IMPORTANT: If the page has navigation to browse OTHER schools/places, it's a directory - answer NO.

The key question: Is this site run BY the organization/government, or just ABOUT it?
`)
	}

	b.WriteString("\nFirst line must be YES or NO. Then explain briefly.")
	return b.String()
}

// writePageText appends the page text section. Institutional sites sometimes
// block bots entirely, so the page body may be missing; the model then has
// to judge from the URL and metadata alone.
func writePageText(b *strings.Builder, req *interfaces.ClassifyRequest) {
	text := req.PageText
	if len(text) > maxPageText {
		text = text[:maxPageText]
	}
	if strings.TrimSpace(text) == "" {
		b.WriteString("\nWEBPAGE TEXT: (not available; the site blocked automated access. Judge from the URL and domain.)\n")
		return
	}
	fmt.Fprintf(b, "\nWEBPAGE TEXT:\n%s\n", text)
}
