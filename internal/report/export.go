// internal/report/export.go
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteCSV renders inventory rows as plain tabular CSV. Any spreadsheet
// tooling downstream can pick this up; no format beyond rows is assumed.
func WriteCSV(w io.Writer, rows []InventoryRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"name", "kind", "total_quantity", "entry_count", "contributors"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Name,
			string(row.Kind),
			strconv.FormatFloat(row.TotalQuantity, 'f', -1, 64),
			strconv.Itoa(row.EntryCount),
			strings.Join(row.Contributors, "; "),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row for %s: %w", row.Name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
