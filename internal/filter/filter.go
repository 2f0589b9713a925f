// Package filter decides which raw search results are worth keeping as
// leads. The rules mirror the procurement-focused heuristics the agent
// has always used: drop social/job-board domains outright, always keep
// official (gov/edu) domains with any relevant signal, and require both
// a location and an opportunity signal from everything else.
package filter

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hdcnetworks/leadscan/internal/leads"
)

// Reject reasons reported in the verdict and on metrics.
const (
	ReasonNoURL         = "no_url"
	ReasonInvalidDomain = "invalid_domain"
	ReasonJunkDomain    = "junk_domain"
	ReasonNoSignal      = "no_signal"
)

var defaultJunkDomains = []string{
	"facebook.com",
	"m.facebook.com",
	"twitter.com",
	"x.com",
	"instagram.com",
	"tiktok.com",
	"pinterest.com",
	"youtube.com",
	"linkedin.com",
	"indeed.com",
	"glassdoor.com",
}

var defaultImportantSuffixes = []string{
	".nyc.gov",
	".ny.gov",
	".gov",
	".k12.ny.us",
	".edu",
	"schools.nyc.gov",
}

var defaultLocationKeywords = []string{
	"new york",
	"nyc",
	"new york city",
	"manhattan",
	"brooklyn",
	"queens",
	"bronx",
	"staten island",
}

var defaultOpportunityKeywords = []string{
	"rfp",
	"request for proposals",
	"request for proposal",
	"invitation to bid",
	"invitation for bid",
	"ifb",
	"bid",
	"bids",
	"bidding",
	"solicitation",
	"tender",
	"scope of work",
	"statement of work",
	"sow",
	"proposal due",
	"proposals due",
	"vendor",
	"contractor",
	"procurement",
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// Config overrides the built-in term lists. Empty slices keep the
// defaults.
type Config struct {
	JunkDomains         []string
	ImportantSuffixes   []string
	LocationKeywords    []string
	OpportunityKeywords []string
}

// Verdict is the filter's decision for one search result.
type Verdict struct {
	Keep   bool
	Reason string

	Domain          string
	HasLocation     bool
	HasOpportunity  bool
	ImportantDomain bool
	Emails          []string
}

// Filter applies the relevance rules to raw search results.
type Filter struct {
	junk        map[string]struct{}
	suffixes    []string
	location    []string
	opportunity []string
}

// New builds a Filter from the config, falling back to defaults for
// any empty list.
func New(cfg Config) *Filter {
	junkList := cfg.JunkDomains
	if len(junkList) == 0 {
		junkList = defaultJunkDomains
	}
	junk := make(map[string]struct{}, len(junkList))
	for _, d := range junkList {
		d = strings.TrimSpace(strings.ToLower(d))
		if d == "" {
			continue
		}
		// The www. form is covered by domain normalization upstream.
		junk[strings.TrimPrefix(d, "www.")] = struct{}{}
	}

	f := &Filter{
		junk:        junk,
		suffixes:    lowerAll(cfg.ImportantSuffixes, defaultImportantSuffixes),
		location:    lowerAll(cfg.LocationKeywords, defaultLocationKeywords),
		opportunity: lowerAll(cfg.OpportunityKeywords, defaultOpportunityKeywords),
	}
	return f
}

func lowerAll(values, fallback []string) []string {
	if len(values) == 0 {
		values = fallback
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(strings.ToLower(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Judge evaluates a single raw result.
func (f *Filter) Judge(result leads.SearchResult) Verdict {
	if result.URL == "" {
		return Verdict{Reason: ReasonNoURL}
	}
	domain := leads.NormalizeDomain(result.URL)
	if domain == "" {
		return Verdict{Reason: ReasonInvalidDomain}
	}
	if _, junk := f.junk[domain]; junk {
		return Verdict{Reason: ReasonJunkDomain, Domain: domain}
	}

	text := strings.ToLower(result.Title + "\n" + result.Snippet)
	v := Verdict{
		Domain:          domain,
		HasLocation:     containsAny(text, f.location),
		HasOpportunity:  containsAny(text, f.opportunity),
		ImportantDomain: f.importantDomain(domain),
	}

	if v.ImportantDomain {
		v.Keep = v.HasLocation || v.HasOpportunity
	} else {
		v.Keep = v.HasLocation && v.HasOpportunity
	}
	if !v.Keep {
		v.Reason = ReasonNoSignal
		return v
	}

	v.Emails = ExtractEmails(result.Title + " " + result.Snippet)
	return v
}

func (f *Filter) importantDomain(domain string) bool {
	for _, suffix := range f.suffixes {
		if strings.HasSuffix(domain, suffix) {
			return true
		}
	}
	return false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// ExtractEmails returns the deduplicated, sorted addresses found in
// the text.
func ExtractEmails(text string) []string {
	if text == "" {
		return nil
	}
	matches := emailPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
