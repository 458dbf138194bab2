package common

import (
	"net/url"
	"strings"
)

// ExtractDomain returns the lowercased host of a URL, without any port.
func ExtractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return host
}

// DomainMatches reports whether domain equals target or is a subdomain of it.
func DomainMatches(domain, target string) bool {
	domain = strings.ToLower(domain)
	target = strings.ToLower(target)
	return domain == target || strings.HasSuffix(domain, "."+target)
}

// HasTrustedTLD reports whether the domain carries a TLD that is never
// auto-blocklisted (.gov, .edu, .org, .us).
func HasTrustedTLD(domain string) bool {
	domain = strings.ToLower(domain)
	for _, tld := range []string{".gov", ".edu", ".org", ".us"} {
		if strings.HasSuffix(domain, tld) {
			return true
		}
	}
	return false
}

// ResolveURL resolves href against base and returns the absolute URL, or ""
// when it cannot be resolved.
func ResolveURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		if parsed, err := url.Parse(href); err == nil && parsed.IsAbs() {
			return parsed.String()
		}
		return ""
	}
	resolved, err := baseURL.Parse(href)
	if err != nil {
		return ""
	}
	return resolved.String()
}

// CitySlug collapses a city name into the form it takes inside domains
// (e.g. "West Newton" -> "westnewton").
func CitySlug(city string) string {
	return strings.ReplaceAll(strings.ToLower(city), " ", "")
}
