package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/polisee/polisee-cli/internal/config"
	"github.com/polisee/polisee-cli/internal/model"
)

// Config holds the advisory-rule thresholds. All of them are heuristics with
// no principled derivation; tune via configuration, do not treat as
// guarantees.
type Config struct {
	// ExpiryWindowDays is how far ahead the expiring-soon rule looks.
	ExpiryWindowDays int
	// HighPremiumAnnualNIS flags any single policy whose annualized premium
	// exceeds it.
	HighPremiumAnnualNIS float64
	// ConcentrationShare flags a provider holding strictly more than this
	// share of total annualized premium.
	ConcentrationShare float64
	// ShopSavingsRate is the assumed shoppable discount on high premiums.
	ShopSavingsRate float64
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		ExpiryWindowDays:     60,
		HighPremiumAnnualNIS: 2000,
		ConcentrationShare:   0.70,
		ShopSavingsRate:      0.20,
	}
}

// FromConfig builds rule thresholds from application config, falling back to
// the stock value for any unset field.
func FromConfig(c config.AnalyticsConfig) Config {
	cfg := DefaultConfig()
	if c.ExpiryWindowDays > 0 {
		cfg.ExpiryWindowDays = c.ExpiryWindowDays
	}
	if c.HighPremiumAnnualNIS > 0 {
		cfg.HighPremiumAnnualNIS = c.HighPremiumAnnualNIS
	}
	if c.ConcentrationShare > 0 {
		cfg.ConcentrationShare = c.ConcentrationShare
	}
	if c.ShopSavingsRate > 0 {
		cfg.ShopSavingsRate = c.ShopSavingsRate
	}
	return cfg
}

// expectedCoverages are coverage types most households are assumed to need;
// their absence across the whole snapshot is flagged as a gap. Needles match
// against main and sub branch text, with common spelling variants.
var expectedCoverages = []struct {
	label   string
	needles []string
}{
	{"disability (loss of work capacity)", []string{"אבדן כושר", "אובדן כושר"}},
	{"travel insurance", []string{"נסיעות לחו"}},
	{"third-party liability", []string{"צד ג"}},
}

// Recommend runs every advisory rule over the snapshot and concatenates their
// findings, sorted by severity rank (stable within a rank). The rules are
// independent and order-insensitive: dropping one never changes what the
// others emit. Findings are advisory only and never block persistence.
func Recommend(policies []model.Policy, cfg Config, now time.Time) []model.Recommendation {
	var recs []model.Recommendation
	recs = append(recs, expiringSoon(policies, cfg, now)...)
	recs = append(recs, duplicateCoverage(policies)...)
	recs = append(recs, highPremium(policies, cfg)...)
	recs = append(recs, coverageGaps(policies)...)
	recs = append(recs, providerConcentration(policies, cfg)...)

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Severity.Rank() < recs[j].Severity.Rank()
	})
	return recs
}

// Analyze bundles one full analytics pass over a snapshot.
func Analyze(policies []model.Policy, cfg Config, now time.Time) model.AnalysisResult {
	return model.AnalysisResult{
		Stats:           ComputeStats(policies),
		Recommendations: Recommend(policies, cfg, now),
	}
}

// expiringSoon flags policies whose coverage ends within the window. This
// rule is best-effort only: unparseable coverage periods are skipped without
// comment.
func expiringSoon(policies []model.Policy, cfg Config, now time.Time) []model.Recommendation {
	window := time.Duration(cfg.ExpiryWindowDays) * 24 * time.Hour

	var recs []model.Recommendation
	for _, p := range policies {
		end, ok := parseEndDate(p.CoveragePeriod)
		if !ok {
			continue
		}
		diff := end.Sub(now)
		if diff <= 0 || diff > window {
			continue
		}
		daysLeft := int(math.Ceil(diff.Hours() / 24))
		recs = append(recs, model.Recommendation{
			Severity: model.SeverityUrgent,
			Rule:     model.RuleExpiringSoon,
			Title:    fmt.Sprintf("%s expires in %d days", p.SubBranch, daysLeft),
			Description: fmt.Sprintf("Policy %s at %s ends soon. Consider renewing.",
				p.PolicyNumber, p.Company),
			Policies: []model.PolicyRef{{Number: p.PolicyNumber, Company: p.Company}},
		})
	}
	return recs
}

// duplicateCoverage groups by sub branch after de-duplicating by policy
// number, so the same physical policy appearing on multiple rows is counted
// once. Potential savings assume keeping only the cheapest policy in the
// group.
func duplicateCoverage(policies []model.Policy) []model.Recommendation {
	groupKeys := []string{}
	groups := make(map[string][]model.Policy)
	for _, p := range policies {
		if _, ok := groups[p.SubBranch]; !ok {
			groupKeys = append(groupKeys, p.SubBranch)
		}
		groups[p.SubBranch] = append(groups[p.SubBranch], p)
	}

	var recs []model.Recommendation
	for _, key := range groupKeys {
		seen := make(map[string]bool)
		var unique []model.Policy
		for _, p := range groups[key] {
			if seen[p.PolicyNumber] {
				continue
			}
			seen[p.PolicyNumber] = true
			unique = append(unique, p)
		}
		if len(unique) < 2 {
			continue
		}

		annuals := make([]float64, 0, len(unique))
		refs := make([]model.PolicyRef, 0, len(unique))
		for _, p := range unique {
			annuals = append(annuals, Annualize(p.PremiumNIS, p.PremiumType))
			refs = append(refs, model.PolicyRef{Number: p.PolicyNumber, Company: p.Company})
		}
		sort.Float64s(annuals)
		var savings float64
		for _, a := range annuals[1:] {
			savings += a
		}

		recs = append(recs, model.Recommendation{
			Severity: model.SeverityWarning,
			Rule:     model.RuleDuplicateCoverage,
			Title:    fmt.Sprintf("Possible duplicate: %s (%d policies)", key, len(unique)),
			Description: fmt.Sprintf("Found %d distinct policies with the same coverage type. Check if this is redundant.",
				len(unique)),
			Policies:       refs,
			SavingsPerYear: savings,
		})
	}
	return recs
}

// highPremium flags each policy whose annualized premium exceeds the cutoff,
// with savings estimated at the assumed shop-around rate.
func highPremium(policies []model.Policy, cfg Config) []model.Recommendation {
	var recs []model.Recommendation
	for _, p := range policies {
		annual := Annualize(p.PremiumNIS, p.PremiumType)
		if annual <= cfg.HighPremiumAnnualNIS {
			continue
		}
		recs = append(recs, model.Recommendation{
			Severity:       model.SeverityAdvisory,
			Rule:           model.RuleHighPremium,
			Title:          fmt.Sprintf("High premium: %s — ₪%.0f/yr", p.SubBranch, annual),
			Description:    "Consider comparing quotes from other insurers.",
			Policies:       []model.PolicyRef{{Number: p.PolicyNumber, Company: p.Company}},
			SavingsPerYear: math.Round(annual * cfg.ShopSavingsRate),
		})
	}
	return recs
}

// coverageGaps reports expected coverage types that appear nowhere in the
// snapshot's branch fields.
func coverageGaps(policies []model.Policy) []model.Recommendation {
	var recs []model.Recommendation
	for _, want := range expectedCoverages {
		found := false
		for _, p := range policies {
			for _, needle := range want.needles {
				if strings.Contains(p.MainBranch, needle) || strings.Contains(p.SubBranch, needle) {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if found {
			continue
		}
		recs = append(recs, model.Recommendation{
			Severity:    model.SeverityInfo,
			Rule:        model.RuleCoverageGap,
			Title:       fmt.Sprintf("No %s coverage found", want.label),
			Description: "None of your policies appear to cover this. Check whether you need it.",
		})
	}
	return recs
}

// providerConcentration flags a single company holding strictly more than the
// configured share of total annualized premium.
func providerConcentration(policies []model.Policy, cfg Config) []model.Recommendation {
	keys := []string{}
	totals := make(map[string]float64)
	var total float64
	for _, p := range policies {
		annual := Annualize(p.PremiumNIS, p.PremiumType)
		if _, ok := totals[p.Company]; !ok {
			keys = append(keys, p.Company)
		}
		totals[p.Company] += annual
		total += annual
	}
	if total <= 0 {
		return nil
	}

	var recs []model.Recommendation
	for _, company := range keys {
		share := totals[company] / total
		if share <= cfg.ConcentrationShare {
			continue
		}
		recs = append(recs, model.Recommendation{
			Severity: model.SeverityInfo,
			Rule:     model.RuleConcentration,
			Title:    fmt.Sprintf("%.1f%% of premiums go to %s", share*100, company),
			Description: "Most of your insurance spend sits with a single provider. " +
				"Spreading policies can reduce pricing and service risk.",
		})
	}
	return recs
}

// parseEndDate extracts the second date of a "dd/mm/yyyy - dd/mm/yyyy"
// coverage period.
func parseEndDate(coveragePeriod string) (time.Time, bool) {
	parts := strings.Split(coveragePeriod, " - ")
	if len(parts) < 2 {
		return time.Time{}, false
	}
	end, err := time.Parse("02/01/2006", strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, false
	}
	return end, true
}
