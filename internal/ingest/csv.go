package ingest

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/polisee/polisee-cli/internal/model"
)

// ParseCSV reads the portal's CSV export variant. The grid goes through the
// same row classification as the XLSX path, so both formats produce identical
// records for the same content.
func ParseCSV(r io.Reader, batchID string) (*model.ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows in the export have ragged widths
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: read csv")
		}
		rows = append(rows, record)
	}

	return classify(rows, batchID), nil
}
