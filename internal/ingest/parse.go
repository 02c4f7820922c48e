// Package ingest parses Har HaBituach insurance exports into normalized
// policy records.
//
// The parser is a pure function of the uploaded bytes and the caller-supplied
// batch id: malformed-but-readable content never fails the call, it is
// reported through ParseResult.Errors so the upload UI can render a precise
// multi-line report. Only bytes that are not a readable workbook at all
// produce a returned error.
package ingest

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/polisee/polisee-cli/internal/model"
)

// errNoData is the business-rule failure for an export that opened fine but
// yielded zero policy rows. An empty-but-successful upload is almost always
// the wrong file, and the UI must surface it distinctly from "zero policies".
const errNoData = "no insurance data found; make sure this is the Har HaBituach export"

// Parse reads an XLSX export and extracts its policy rows.
func Parse(data []byte, batchID string) (*model.ParseResult, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open workbook")
	}
	if len(f.Sheets) == 0 {
		return &model.ParseResult{Errors: []string{errNoData}}, nil
	}
	return classify(buildGrid(f.Sheets[0]), batchID), nil
}

// scanState is the single piece of carried state in the row scan: the section
// category only changes going forward, never retroactively.
type scanState struct {
	category   string
	headerSeen bool
}

// classify walks the grid top to bottom once, folding scanState through
// every row.
func classify(rows [][]string, batchID string) *model.ParseResult {
	res := &model.ParseResult{}
	var st scanState
	for _, row := range rows {
		st = classifyRow(res, st, row, batchID)
	}
	if len(res.Policies) == 0 {
		res.Errors = append(res.Errors, errNoData)
	}
	return res
}

func classifyRow(res *model.ParseResult, st scanState, row []string, batchID string) scanState {
	if isBlank(row) {
		return st
	}

	first := strings.TrimSpace(cellAt(row, 0))

	if first == headerMarker {
		st.headerSeen = true
		return st
	}

	// Section markers may appear before or after the header row and recur to
	// delimit a new category block.
	if m := sectionRe.FindStringSubmatch(joinRow(row)); m != nil {
		st.category = strings.TrimSpace(m[1])
		return st
	}

	// Everything above the header row is titles and boilerplate.
	if !st.headerSeen {
		return st
	}

	for _, marker := range totalMarkers {
		if strings.Contains(first, marker) {
			return st
		}
	}

	// A purely numeric identity number is the cheapest reliable signal that
	// this is a real data row and not a stray sub-heading.
	if !digitsRe.MatchString(stripSpace(first)) {
		return st
	}

	res.Policies = append(res.Policies, model.Policy{
		BatchID:            batchID,
		Category:           st.category,
		IdentityNumber:     strings.TrimSpace(cellAt(row, colIdentityNumber)),
		MainBranch:         strings.TrimSpace(cellAt(row, colMainBranch)),
		SubBranch:          strings.TrimSpace(cellAt(row, colSubBranch)),
		ProductType:        strings.TrimSpace(cellAt(row, colProductType)),
		Company:            strings.TrimSpace(cellAt(row, colCompany)),
		CoveragePeriod:     strings.TrimSpace(cellAt(row, colCoveragePeriod)),
		AdditionalDetails:  strings.TrimSpace(cellAt(row, colAdditionalDetails)),
		PremiumNIS:         parsePremium(cellAt(row, colPremiumNIS)),
		PremiumType:        strings.TrimSpace(cellAt(row, colPremiumType)),
		PolicyNumber:       strings.TrimSpace(cellAt(row, colPolicyNumber)),
		PlanClassification: strings.TrimSpace(cellAt(row, colPlanClassification)),
	})
	return st
}

// parsePremium normalizes a raw premium cell. Currency symbol, thousands
// separators, and whitespace are stripped before float parsing; anything that
// still fails to parse yields nil rather than an error, so one bad cell
// cannot abort an otherwise-good row.
func parsePremium(raw string) *float64 {
	cleaned := strings.NewReplacer("₪", "", ",", "").Replace(stripSpace(raw))
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// joinRow concatenates the non-empty cells of a row with single spaces, for
// matching markers that span merged or shifted cells.
func joinRow(row []string) string {
	var parts []string
	for _, c := range row {
		if t := strings.TrimSpace(c); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
