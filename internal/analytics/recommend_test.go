package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisee/polisee-cli/internal/config"
	"github.com/polisee/polisee-cli/internal/model"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func findByRule(recs []model.Recommendation, rule string) []model.Recommendation {
	var out []model.Recommendation
	for _, r := range recs {
		if r.Rule == rule {
			out = append(out, r)
		}
	}
	return out
}

func TestExpiringSoon(t *testing.T) {
	policies := []model.Policy{
		func() model.Policy {
			p := policy("רכב", "כלל", "מקיף", "SOON", 100, model.PremiumAnnual)
			p.CoveragePeriod = "01/07/2023 - 30/06/2024" // 29 days out
			return p
		}(),
		func() model.Policy {
			p := policy("רכב", "כלל", "חובה", "FAR", 100, model.PremiumAnnual)
			p.CoveragePeriod = "01/01/2024 - 31/12/2024" // beyond the window
			return p
		}(),
		func() model.Policy {
			p := policy("רכב", "כלל", "צמה", "PAST", 100, model.PremiumAnnual)
			p.CoveragePeriod = "01/01/2023 - 31/12/2023" // already lapsed
			return p
		}(),
		func() model.Policy {
			p := policy("רכב", "כלל", "הרחבה", "NODATE", 100, model.PremiumAnnual)
			p.CoveragePeriod = "בתוקף"
			return p
		}(),
	}

	recs := findByRule(Recommend(policies, DefaultConfig(), fixedNow), model.RuleExpiringSoon)

	require.Len(t, recs, 1)
	assert.Equal(t, model.SeverityUrgent, recs[0].Severity)
	assert.Contains(t, recs[0].Title, "29 days")
	require.Len(t, recs[0].Policies, 1)
	assert.Equal(t, "SOON", recs[0].Policies[0].Number)
}

func TestDuplicateCoverage(t *testing.T) {
	policies := []model.Policy{
		policy("בריאות", "הראל", "ביטוח שיניים", "P1", 100, model.PremiumMonthly), // 1200
		policy("בריאות", "כלל", "ביטוח שיניים", "P2", 60, model.PremiumMonthly),  // 720
		policy("רכב", "מגדל", "מקיף", "P3", 3000, model.PremiumAnnual),
	}

	recs := findByRule(Recommend(policies, DefaultConfig(), fixedNow), model.RuleDuplicateCoverage)

	require.Len(t, recs, 1)
	assert.Equal(t, model.SeverityWarning, recs[0].Severity)
	assert.Contains(t, recs[0].Title, "ביטוח שיניים")
	require.Len(t, recs[0].Policies, 2)
	// keep the cheapest, savings is what the rest cost
	assert.InDelta(t, 1200, recs[0].SavingsPerYear, 0.001)
}

func TestDuplicateCoverage_SamePolicyNumberIsNotADuplicate(t *testing.T) {
	policies := []model.Policy{
		policy("בריאות", "הראל", "ביטוח שיניים", "P1", 100, model.PremiumMonthly),
		policy("בריאות", "הראל", "ביטוח שיניים", "P1", 100, model.PremiumMonthly),
	}

	recs := findByRule(Recommend(policies, DefaultConfig(), fixedNow), model.RuleDuplicateCoverage)
	assert.Empty(t, recs)
}

func TestHighPremium(t *testing.T) {
	policies := []model.Policy{
		policy("רכב", "כלל", "מקיף", "HIGH", 250, model.PremiumMonthly),   // 3000
		policy("דירה", "מגדל", "מבנה", "EDGE", 2000, model.PremiumAnnual), // exactly at cutoff
	}

	recs := findByRule(Recommend(policies, DefaultConfig(), fixedNow), model.RuleHighPremium)

	require.Len(t, recs, 1)
	assert.Equal(t, model.SeverityAdvisory, recs[0].Severity)
	assert.Equal(t, "HIGH", recs[0].Policies[0].Number)
	assert.InDelta(t, 600, recs[0].SavingsPerYear, 0.001)
}

func TestCoverageGaps(t *testing.T) {
	policies := []model.Policy{
		func() model.Policy {
			p := policy("בריאות", "הראל", "אבדן כושר עבודה", "P1", 100, model.PremiumMonthly)
			return p
		}(),
	}

	recs := findByRule(Recommend(policies, DefaultConfig(), fixedNow), model.RuleCoverageGap)

	// disability covered, travel and third-party liability missing
	require.Len(t, recs, 2)
	labels := []string{recs[0].Title, recs[1].Title}
	assert.Contains(t, labels[0]+labels[1], "travel insurance")
	assert.Contains(t, labels[0]+labels[1], "third-party liability")
	for _, r := range recs {
		assert.Equal(t, model.SeverityInfo, r.Severity)
	}
}

func TestProviderConcentration(t *testing.T) {
	t.Run("above threshold", func(t *testing.T) {
		policies := []model.Policy{
			policy("רכב", "כלל", "מקיף", "P1", 7100, model.PremiumAnnual),
			policy("דירה", "מגדל", "מבנה", "P2", 2900, model.PremiumAnnual),
		}
		recs := findByRule(Recommend(policies, DefaultConfig(), fixedNow), model.RuleConcentration)
		require.Len(t, recs, 1)
		assert.Contains(t, recs[0].Title, "כלל")
		assert.Contains(t, recs[0].Title, "71.0%")
	})

	t.Run("exactly at threshold is not flagged", func(t *testing.T) {
		policies := []model.Policy{
			policy("רכב", "כלל", "מקיף", "P1", 7000, model.PremiumAnnual),
			policy("דירה", "מגדל", "מבנה", "P2", 3000, model.PremiumAnnual),
		}
		recs := findByRule(Recommend(policies, DefaultConfig(), fixedNow), model.RuleConcentration)
		assert.Empty(t, recs)
	})

	t.Run("no premiums", func(t *testing.T) {
		p := model.Policy{Company: "כלל", SubBranch: "מקיף"}
		recs := findByRule(Recommend([]model.Policy{p}, DefaultConfig(), fixedNow), model.RuleConcentration)
		assert.Empty(t, recs)
	})
}

func TestRecommend_SeverityOrdering(t *testing.T) {
	policies := []model.Policy{
		func() model.Policy {
			p := policy("רכב", "כלל", "מקיף", "P1", 5000, model.PremiumAnnual)
			p.CoveragePeriod = "01/07/2023 - 15/06/2024"
			return p
		}(),
		policy("בריאות", "כלל", "ביטוח שיניים", "P2", 100, model.PremiumMonthly),
		policy("בריאות", "כלל", "ביטוח שיניים", "P3", 60, model.PremiumMonthly),
	}

	recs := Recommend(policies, DefaultConfig(), fixedNow)
	require.NotEmpty(t, recs)

	for i := 1; i < len(recs); i++ {
		assert.LessOrEqual(t, recs[i-1].Severity.Rank(), recs[i].Severity.Rank())
	}
	assert.Equal(t, model.SeverityUrgent, recs[0].Severity)
}

func TestFromConfig(t *testing.T) {
	got := FromConfig(config.AnalyticsConfig{
		ExpiryWindowDays:     30,
		HighPremiumAnnualNIS: 5000,
	})

	assert.Equal(t, 30, got.ExpiryWindowDays)
	assert.InDelta(t, 5000, got.HighPremiumAnnualNIS, 0.001)
	// unset fields fall back to stock values
	assert.InDelta(t, 0.70, got.ConcentrationShare, 0.001)
	assert.InDelta(t, 0.20, got.ShopSavingsRate, 0.001)
}

func TestAnalyze(t *testing.T) {
	policies := []model.Policy{
		policy("רכב", "כלל", "מקיף", "P1", 3000, model.PremiumAnnual),
	}

	res := Analyze(policies, DefaultConfig(), fixedNow)

	assert.Equal(t, 1, res.Stats.TotalPolicies)
	assert.NotEmpty(t, res.Recommendations)
}
