// Package leads defines the lead entity and the interfaces the
// ingestion pipeline consumes.
package leads

import (
	"net/url"
	"strings"
	"time"
)

// Source tags every record this agent produces.
const Source = "low-voltage-agent"

// Lead is one discovered contractor opportunity.
type Lead struct {
	// ID is the hex SHA-256 digest of URL followed by Query, with no
	// separator. Identical (URL, Query) pairs always hash to the same
	// id, which is what makes store writes idempotent. The same URL
	// surfaced by two different queries is two leads on purpose: the
	// originating query is part of the record's identity.
	ID      string `json:"id"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
	Query   string `json:"query"`

	// Domain is the normalized host of URL (lowercase, www. stripped).
	Domain string `json:"domain"`
	// Emails holds addresses scraped from the title and snippet text.
	Emails []string `json:"emails,omitempty"`

	HasLocation     bool `json:"has_location"`
	HasOpportunity  bool `json:"has_opportunity"`
	ImportantDomain bool `json:"important_domain"`

	CreatedAt time.Time `json:"created_at"`
}

// ComputeID derives the lead id from the url and query using the
// provided hasher. The digest input is the raw url bytes immediately
// followed by the raw query bytes.
func ComputeID(h Hasher, rawURL, query string) (string, error) {
	return h.Hash(append([]byte(rawURL), []byte(query)...))
}

// NormalizeDomain extracts the lowercase host from a URL and strips a
// leading "www.". It returns "" when the URL has no usable host.
func NormalizeDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}
