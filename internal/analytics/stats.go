package analytics

import (
	"sort"

	"github.com/polisee/polisee-cli/internal/model"
)

// ComputeStats aggregates annualized premium cost over a snapshot: totals,
// distinct provider count, and ranked per-category / per-company breakdowns.
// Breakdowns are sorted descending by cost; ties keep insertion order.
func ComputeStats(policies []model.Policy) model.Stats {
	companies := make(map[string]bool)
	byCategory := newRankedSums()
	byCompany := newRankedSums()

	var annualTotal float64
	for _, p := range policies {
		companies[p.Company] = true

		annual := Annualize(p.PremiumNIS, p.PremiumType)
		annualTotal += annual

		cat := p.Category
		if cat == "" {
			cat = "Other"
		}
		byCategory.add(cat, annual)
		byCompany.add(p.Company, annual)
	}

	return model.Stats{
		TotalPolicies: len(policies),
		CompanyCount:  len(companies),
		MonthlyNIS:    annualTotal / 12,
		AnnualNIS:     annualTotal,
		ByCategory:    byCategory.sorted(),
		ByCompany:     byCompany.sorted(),
	}
}

// rankedSums accumulates keyed sums while remembering first-seen order, so
// equal costs rank stably.
type rankedSums struct {
	keys []string
	sums map[string]float64
}

func newRankedSums() *rankedSums {
	return &rankedSums{sums: make(map[string]float64)}
}

func (r *rankedSums) add(key string, v float64) {
	if _, ok := r.sums[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.sums[key] += v
}

func (r *rankedSums) sorted() []model.CostBucket {
	buckets := make([]model.CostBucket, 0, len(r.keys))
	for _, k := range r.keys {
		buckets = append(buckets, model.CostBucket{Name: k, AnnualNIS: r.sums[k]})
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].AnnualNIS > buckets[j].AnnualNIS
	})
	return buckets
}
