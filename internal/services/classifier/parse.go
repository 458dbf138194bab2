package classifier

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/navigator/internal/interfaces"
)

const maxReasonLen = 150

var digitsRe = regexp.MustCompile(`\d+`)

// parseResponse normalizes a model response into a Classification. It never
// fails: unparseable output degrades to VerdictUncertain.
func parseResponse(task interfaces.ClassifyTask, text string) *interfaces.Classification {
	text = strings.TrimSpace(text)

	if strings.Contains(text, "IS_OFFICIAL:") || strings.Contains(text, "HAS_EVENTS:") {
		return parseStructured(task, text)
	}
	return parseYesNo(text)
}

// parseStructured handles the line-oriented vision format
// (IS_OFFICIAL/HAS_EVENTS, EVENT_COUNT, CONFIDENCE, REASON).
func parseStructured(task interfaces.ClassifyTask, text string) *interfaces.Classification {
	result := &interfaces.Classification{
		Verdict:    interfaces.VerdictUncertain,
		Confidence: interfaces.ConfidenceLow,
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "IS_OFFICIAL:"), strings.HasPrefix(line, "HAS_EVENTS:"):
			value := strings.ToLower(valueAfterColon(line))
			if value == "yes" || value == "true" || value == "1" {
				result.Verdict = interfaces.VerdictYes
			} else if value == "no" || value == "false" || value == "0" {
				result.Verdict = interfaces.VerdictNo
			}
		case strings.HasPrefix(line, "EVENT_COUNT:"):
			if match := digitsRe.FindString(valueAfterColon(line)); match != "" {
				if n, err := strconv.Atoi(match); err == nil {
					result.EventCount = &n
				}
			}
		case strings.HasPrefix(line, "CONFIDENCE:"):
			switch strings.ToLower(valueAfterColon(line)) {
			case "high":
				result.Confidence = interfaces.ConfidenceHigh
			case "medium":
				result.Confidence = interfaces.ConfidenceMedium
			case "low":
				result.Confidence = interfaces.ConfidenceLow
			}
		case strings.HasPrefix(line, "REASON:"):
			result.Reason = truncate(valueAfterColon(line), maxReasonLen)
		}
	}

	// Fallback inference when the model ignored the format
	if result.Verdict == interfaces.VerdictUncertain && task == interfaces.TaskVisibleEvents {
		lower := strings.ToLower(text)
		if strings.Contains(lower, "no events") || strings.Contains(lower, "does not show") || strings.Contains(lower, "not an events") {
			result.Verdict = interfaces.VerdictNo
		} else if strings.Contains(lower, "events") &&
			(strings.Contains(lower, "calendar") || strings.Contains(lower, "upcoming") || strings.Contains(lower, "schedule")) {
			result.Verdict = interfaces.VerdictYes
			result.Confidence = interfaces.ConfidenceMedium
		}
	}

	return result
}

// parseYesNo handles the first-line YES/NO text format.
func parseYesNo(text string) *interfaces.Classification {
	result := &interfaces.Classification{
		Verdict:    interfaces.VerdictUncertain,
		Confidence: interfaces.ConfidenceLow,
	}
	if text == "" {
		return result
	}

	firstLine := text
	rest := ""
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		firstLine = text[:idx]
		rest = strings.TrimSpace(text[idx+1:])
	}
	firstLine = strings.ToUpper(strings.TrimSpace(firstLine))

	switch {
	case strings.HasPrefix(firstLine, "YES"):
		result.Verdict = interfaces.VerdictYes
		result.Confidence = interfaces.ConfidenceMedium
	case strings.HasPrefix(firstLine, "NO"):
		result.Verdict = interfaces.VerdictNo
		result.Confidence = interfaces.ConfidenceMedium
	}

	if rest != "" {
		result.Reason = truncate(rest, maxReasonLen)
	} else if result.Verdict != interfaces.VerdictUncertain {
		result.Reason = truncate(text, maxReasonLen)
	}

	return result
}

func valueAfterColon(line string) string {
	_, after, found := strings.Cut(line, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(after)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
