package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hdcnetworks/leadscan/internal/leads"
)

// ReportSubject builds the email subject for a run summary.
func ReportSubject(summary leads.Summary) string {
	return fmt.Sprintf("Low Voltage Agent Report - %d new leads", summary.Stored)
}

// ReportBody renders the plain-text run report. The lead sample is
// capped so the email stays readable even after a large run.
func ReportBody(summary leads.Summary, sampleSize int) string {
	var b strings.Builder

	b.WriteString("Low Voltage Agent just completed a run.\n")
	fmt.Fprintf(&b, "Run ID: %s\n", summary.RunID)
	fmt.Fprintf(&b, "Queries attempted: %d (failed: %d)\n", summary.QueriesAttempted, summary.QueriesFailed)
	fmt.Fprintf(&b, "Results returned: %d\n", summary.Results)
	fmt.Fprintf(&b, "New leads stored: %d\n", summary.Stored)
	fmt.Fprintf(&b, "Already known: %d\n", summary.Duplicates)
	fmt.Fprintf(&b, "Filtered out: %d\n", summary.Filtered)
	if summary.PersistErrors > 0 {
		fmt.Fprintf(&b, "Persist errors: %d\n", summary.PersistErrors)
	}

	if summary.QueriesFailed > 0 {
		b.WriteString("\nFailed queries:\n")
		for _, q := range summary.Queries {
			if q.Failed() {
				fmt.Fprintf(&b, "- %s: %s\n", q.Query, q.Error)
			}
		}
	}

	if len(summary.StoredLeads) > 0 {
		b.WriteString("\nSample leads from this run:\n")
		b.WriteString("(Flags: [location] [opportunity] [official domain])\n\n")

		sample := summary.StoredLeads
		if sampleSize > 0 && len(sample) > sampleSize {
			sample = sample[:sampleSize]
		}
		for _, lead := range sample {
			flags := []string{
				flag(lead.HasLocation, "NY", "no-NY"),
				flag(lead.HasOpportunity, "RFP", "no-RFP"),
				flag(lead.ImportantDomain, "official", "regular"),
			}
			title := truncate(strings.TrimSpace(lead.Title), 80)
			fmt.Fprintf(&b, "- [%s] %s (%s)\n", strings.Join(flags, ", "), title, lead.URL)
		}
		if len(summary.StoredLeads) > len(sample) {
			fmt.Fprintf(&b, "... and %d more\n", len(summary.StoredLeads)-len(sample))
		}
	}

	return b.String()
}

// truncate caps s at n runes. Cutting on bytes could split a
// multibyte rune and leak invalid UTF-8 into the email body.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func flag(set bool, yes, no string) string {
	if set {
		return yes
	}
	return no
}
