package ingest

import "regexp"

// Har HaBituach exports use a fixed positional column layout. All index
// literals live here so a format change upstream is a one-place fix.
const (
	colIdentityNumber = iota
	colMainBranch
	colSubBranch
	colProductType
	colCompany
	colCoveragePeriod
	colAdditionalDetails
	colPremiumNIS
	colPremiumType
	colPolicyNumber
	colPlanClassification

	columnCount
)

// headerMarker is the exact first-cell text of the column-header row; it marks
// the start of the tabular data region.
const headerMarker = "תעודת זהות"

// totalMarkers flag summary rows ("total"/"subtotal") that must never be
// ingested as data. The portal is inconsistent about the gershayim.
var totalMarkers = []string{`סה"כ`, "סהכ"}

// sectionRe matches section-header rows of the form "תחום - <name>"; the
// captured name becomes the category carried onto subsequent data rows.
var sectionRe = regexp.MustCompile(`תחום\s*[-–—]\s*(.+)`)

var digitsRe = regexp.MustCompile(`^\d+$`)
