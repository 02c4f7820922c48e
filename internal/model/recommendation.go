package model

// Severity orders advisory findings for display. It carries no meaning beyond
// relative priority.
type Severity string

const (
	SeverityUrgent   Severity = "urgent"   // expiring coverage
	SeverityWarning  Severity = "warning"  // probable duplicate coverage
	SeverityAdvisory Severity = "advisory" // high premium outlier
	SeverityInfo     Severity = "info"     // coverage gaps, concentration risk
)

// Rank returns the display order for a severity, lowest first.
func (s Severity) Rank() int {
	switch s {
	case SeverityUrgent:
		return 0
	case SeverityWarning:
		return 1
	case SeverityAdvisory:
		return 2
	case SeverityInfo:
		return 3
	default:
		return 4
	}
}

// Rule identifiers for the advisory heuristics.
const (
	RuleExpiringSoon      = "expiring_soon"
	RuleDuplicateCoverage = "duplicate_coverage"
	RuleHighPremium       = "high_premium"
	RuleCoverageGap       = "coverage_gap"
	RuleConcentration     = "provider_concentration"
)

// PolicyRef points a finding at a specific policy for cross-highlighting.
type PolicyRef struct {
	Number  string `json:"number"`
	Company string `json:"company"`
}

// Recommendation is a non-persisted advisory finding derived from the current
// policy snapshot. Findings are recomputed from scratch on every pass and have
// no identity beyond the current result.
type Recommendation struct {
	Severity       Severity    `json:"severity"`
	Rule           string      `json:"rule"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Policies       []PolicyRef `json:"policies,omitempty"`
	SavingsPerYear float64     `json:"savings_per_year,omitempty"`
}

// CostBucket is one entry of a ranked cost breakdown.
type CostBucket struct {
	Name      string  `json:"name"`
	AnnualNIS float64 `json:"annual_nis"`
}

// Stats holds aggregate cost statistics over a policy snapshot.
type Stats struct {
	TotalPolicies int          `json:"total_policies"`
	CompanyCount  int          `json:"company_count"`
	MonthlyNIS    float64      `json:"monthly_nis"`
	AnnualNIS     float64      `json:"annual_nis"`
	ByCategory    []CostBucket `json:"by_category"`
	ByCompany     []CostBucket `json:"by_company"`
}

// AnalysisResult bundles one full analytics pass.
type AnalysisResult struct {
	Stats           Stats            `json:"stats"`
	Recommendations []Recommendation `json:"recommendations"`
}
