// Package analytics computes aggregate cost statistics and advisory findings
// over a policy snapshot. Every function here is a pure, synchronous
// transform: no I/O, no mutation of input, no state between calls.
package analytics

import (
	"strings"

	"github.com/polisee/polisee-cli/internal/model"
)

// Annualize converts a premium of any billing frequency to its yearly cost.
// Unrecognized billing labels (including one-time) are treated as already
// annual; that is the fallback policy, not an error. A nil premium
// contributes zero.
func Annualize(premium *float64, premiumType string) float64 {
	if premium == nil {
		return 0
	}
	switch strings.TrimSpace(premiumType) {
	case model.PremiumMonthly:
		return *premium * 12
	case model.PremiumQuarterly:
		return *premium * 4
	case model.PremiumAnnual:
		return *premium
	default:
		return *premium
	}
}
