// Package model defines the core data types shared across ingestion,
// analytics, persistence, and the HTTP API.
package model

import "time"

// Premium billing-frequency labels as they appear in Har HaBituach exports.
// The portal exports Hebrew cell values; these are vendor contract, not UI text.
const (
	PremiumMonthly   = "חודשית"
	PremiumAnnual    = "שנתית"
	PremiumQuarterly = "רבעונית"
	PremiumOneTime   = "חד פעמית"
)

// Plan classification labels from the same export.
const (
	PlanPersonal = "אישי"
	PlanFamily   = "משפחתי"
	PlanGroup    = "קבוצתי"
)

// Policy is one normalized row from a Har HaBituach export.
//
// CoveragePeriod keeps the vendor's "dd/mm/yyyy - dd/mm/yyyy" string as-is;
// the analytics engine parses it lazily when a rule needs the end date.
// PremiumNIS is nil when the premium cell was absent or unparseable.
type Policy struct {
	ID                 string    `json:"id,omitempty"`
	UserID             string    `json:"user_id,omitempty"`
	BatchID            string    `json:"upload_batch_id"`
	Category           string    `json:"category"`
	IdentityNumber     string    `json:"identity_number"`
	MainBranch         string    `json:"main_branch"`
	SubBranch          string    `json:"sub_branch"`
	ProductType        string    `json:"product_type"`
	Company            string    `json:"company"`
	CoveragePeriod     string    `json:"coverage_period"`
	AdditionalDetails  string    `json:"additional_details"`
	PremiumNIS         *float64  `json:"premium_nis"`
	PremiumType        string    `json:"premium_type"`
	PolicyNumber       string    `json:"policy_number"`
	PlanClassification string    `json:"plan_classification"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
}

// ParseResult is the outcome of ingesting one uploaded export.
//
// A non-empty Errors list means the upload must not be persisted; the list is
// meant to be rendered to the user line by line.
type ParseResult struct {
	Policies []Policy `json:"policies"`
	Errors   []string `json:"errors"`
}
