// Package report renders an analytics pass as terminal-friendly text.
package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/polisee/polisee-cli/internal/model"
)

const barWidth = 24

var printer = message.NewPrinter(language.English)

// Render writes the full analysis to w: stat line, ranked cost breakdowns,
// then findings in severity order.
func Render(w io.Writer, res model.AnalysisResult) {
	s := res.Stats

	fmt.Fprintf(w, "Policies: %d    Companies: %d\n", s.TotalPolicies, s.CompanyCount)
	fmt.Fprintf(w, "Monthly: %s    Annual: %s\n", formatNIS(s.MonthlyNIS), formatNIS(s.AnnualNIS))

	renderBuckets(w, "By category", s.ByCategory)
	renderBuckets(w, "By company", s.ByCompany)
	renderRecommendations(w, res.Recommendations)
}

func renderBuckets(w io.Writer, title string, buckets []model.CostBucket) {
	if len(buckets) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)

	max := buckets[0].AnnualNIS
	if max <= 0 {
		max = 1
	}
	width := 0
	for _, b := range buckets {
		if n := len([]rune(b.Name)); n > width {
			width = n
		}
	}
	for _, b := range buckets {
		bar := int(b.AnnualNIS / max * barWidth)
		if bar < 1 {
			bar = 1
		}
		fmt.Fprintf(w, "  %-*s  %8s  %s\n",
			width, b.Name, abbrevNIS(b.AnnualNIS), strings.Repeat("█", bar))
	}
}

func renderRecommendations(w io.Writer, recs []model.Recommendation) {
	if len(recs) == 0 {
		return
	}

	var savings float64
	for _, r := range recs {
		savings += r.SavingsPerYear
	}

	fmt.Fprintf(w, "\nRecommendations (%d)", len(recs))
	if savings > 0 {
		fmt.Fprintf(w, "  potential savings ~%s/yr", formatNIS(savings))
	}
	fmt.Fprintln(w)

	for _, r := range recs {
		fmt.Fprintf(w, "  [%s] %s\n", r.Severity, r.Title)
		fmt.Fprintf(w, "      %s\n", r.Description)
		if len(r.Policies) > 0 {
			refs := make([]string, 0, len(r.Policies))
			for _, p := range r.Policies {
				refs = append(refs, fmt.Sprintf("%s · %s", p.Number, p.Company))
			}
			fmt.Fprintf(w, "      policies: %s\n", strings.Join(refs, ", "))
		}
	}
}

// formatNIS renders a full amount with thousands separators, e.g. ₪14,808.
func formatNIS(amount float64) string {
	return printer.Sprintf("₪%v", number.Decimal(amount, number.MaxFractionDigits(0)))
}

// abbrevNIS renders a compact amount for bar labels, e.g. ₪6.1K.
func abbrevNIS(amount float64) string {
	if amount >= 1000 {
		k := amount / 1000
		if k == float64(int64(k)) {
			return fmt.Sprintf("₪%.0fK", k)
		}
		return fmt.Sprintf("₪%.1fK", k)
	}
	return fmt.Sprintf("₪%.0f", amount)
}
