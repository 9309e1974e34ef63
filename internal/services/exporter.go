package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"bollette/internal/core"
)

// exportDateLayout is the localized date form used in exported rows.
const exportDateLayout = "02/01/2006"

func localizedBool(v bool) string {
	if v {
		return "Sì"
	}
	return "No"
}

// ExportCSV serializes the collection to the flat semicolon-delimited format
// offered as a download: name, amount, localized date, category, localized
// paid flag, localized recurring flag.
func ExportCSV(bills core.Collection) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write([]string{"Nome", "Importo", "Scadenza", "Categoria", "Pagata", "Ricorrente"}); err != nil {
		return nil, fmt.Errorf("write export header: %w", err)
	}
	for _, b := range bills {
		record := []string{
			b.Name,
			core.FormatAmount(b.Amount),
			b.DueDate.Format(exportDateLayout),
			b.Category.String(),
			localizedBool(b.Paid),
			localizedBool(b.Recurring),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write export row for %q: %w", b.Name, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush export: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFilename names the download after the day it was generated.
func ExportFilename(now time.Time) string {
	return "bollette-" + now.Format("2006-01-02") + ".csv"
}
