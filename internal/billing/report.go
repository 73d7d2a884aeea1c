package billing

import (
	"fmt"
	"strings"

	"burstbill/internal/domain"
)

// Subject returns the notification subject line for a period's report.
func Subject(period domain.Period) string {
	return "95th Percentile Billing Report for " + period.Label
}

// BuildReport renders the per-customer figures as the report text: a header
// naming the period, a blank line, then one line per customer in the order
// given. Callers must not pass empty results; a run with nothing to bill is
// an error upstream, not an empty report.
func BuildReport(period domain.Period, results []domain.BillingResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("%s: %.2f Mbps", r.Customer, r.Mbps))
	}
	return Subject(period) + "\n\n" + strings.Join(lines, "\n")
}
