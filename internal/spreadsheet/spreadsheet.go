// Package spreadsheet renders an extraction as an xlsx workbook.
package spreadsheet

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/zombor/invoice-extractor/internal/normalize"
)

const (
	// SheetName is the name of the only sheet of the workbook
	SheetName = "Invoice_Data"

	// Filename is the suggested download name
	Filename = "extracted_invoice_data.xlsx"

	// ContentType is the MIME type of the workbook
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	FieldsHeading = "=== INVOICE FIELDS ==="
	TablesHeading = "=== INVOICE TABLES ==="

	maxColumnWidth = 50
)

// sheetWriter writes rows to the sheet and tracks the widest value per column
type sheetWriter struct {
	f      *excelize.File
	widths map[int]int
}

func (w *sheetWriter) writeRow(row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := w.f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	for i, v := range values {
		if n := utf8.RuneCountInString(fmt.Sprint(v)); n > w.widths[i+1] {
			w.widths[i+1] = n
		}
	}
	return nil
}

// fitColumns sizes each used column to its widest value plus padding, capped
func (w *sheetWriter) fitColumns() error {
	for col, width := range w.widths {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(SheetName, name, name, float64(min(width+2, maxColumnWidth))); err != nil {
			return fmt.Errorf("sizing column %s: %w", name, err)
		}
	}
	return nil
}

// newWorkbook builds the workbook for a projection
func newWorkbook(p *normalize.Projection) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	w := &sheetWriter{f: f, widths: make(map[int]int)}
	if err := writeProjection(w, p); err != nil {
		f.Close()
		return nil, err
	}
	if err := w.fitColumns(); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeProjection(w *sheetWriter, p *normalize.Projection) error {
	if p.Empty() {
		return w.writeRow(1, []interface{}{normalize.NoDataMessage})
	}

	// current is the number of rows used so far
	current := 0

	if len(p.Fields) > 0 {
		if err := w.writeRow(current+1, []interface{}{FieldsHeading}); err != nil {
			return err
		}
		current += 2
		if err := w.writeRow(current+1, []interface{}{"Key", "Value", "Confidence"}); err != nil {
			return err
		}
		for i, record := range p.Fields {
			if err := w.writeRow(current+2+i, fieldRow(record)); err != nil {
				return err
			}
		}
		// Leave two blank rows before the tables
		current += len(p.Fields) + 3
	}

	if !p.Tables.Empty() {
		if err := w.writeRow(current+1, []interface{}{TablesHeading}); err != nil {
			return err
		}
		current += 2
		header := make([]interface{}, len(p.Tables.Columns))
		for i, label := range p.Tables.Columns {
			header[i] = label
		}
		if err := w.writeRow(current+1, header); err != nil {
			return err
		}
		for i, row := range p.Tables.Rows {
			values := make([]interface{}, len(p.Tables.Columns))
			for j, label := range p.Tables.Columns {
				values[j] = row[label]
			}
			if err := w.writeRow(current+2+i, values); err != nil {
				return err
			}
		}
	}
	return nil
}

func fieldRow(record normalize.FieldRecord) []interface{} {
	var confidence interface{} = normalize.NotAvailable
	if record.Confidence.Valid {
		confidence = record.Confidence.Value
	}
	return []interface{}{record.Key, record.Value, confidence}
}

// Write renders the projection as an xlsx workbook into out
func Write(out io.Writer, p *normalize.Projection) error {
	f, err := newWorkbook(p)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Bytes renders the projection as an xlsx workbook in memory
func Bytes(p *normalize.Projection) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
