package normalize

import "github.com/zombor/invoice-extractor/internal/analysis"

// NoDataMessage is shown in place of the tables when nothing was extracted
const NoDataMessage = "No data extracted from the invoice."

// Projection holds the two tables built from the analysis passes of one upload
type Projection struct {
	Fields FieldsTable `json:"fields"`
	Tables Grid        `json:"tables"`
}

// Empty reports whether neither fields nor table rows were extracted
func (p *Projection) Empty() bool {
	return p == nil || (len(p.Fields) == 0 && p.Tables.Empty())
}

// MergeTables stacks the tables of every given result, in result order.
// Nil results are skipped.
func MergeTables(results ...*analysis.Result) Grid {
	grids := make([]Grid, 0, len(results))
	for _, result := range results {
		if result == nil {
			continue
		}
		grids = append(grids, ExtractTables(result.AllTables()))
	}
	return Concat(grids...)
}

// Build projects the analysis passes of one upload into the fields table and
// the tables grid. Any of the results may be nil when its pass was not run or
// failed. Fields come from the invoice result with the custom result merged
// in by first-wins precedence. Tables come from the layout result, or from
// the invoice result when there is no layout result. Fields that cannot be
// flattened are skipped and reported in the returned error alongside the
// projection of everything else.
func Build(invoice, custom, layout *analysis.Result) (*Projection, error) {
	fields, err := Merge(invoice, custom)

	tableSource := layout
	if tableSource == nil {
		tableSource = invoice
	}

	projection := &Projection{
		Fields: fields,
		Tables: MergeTables(tableSource),
	}
	return projection, err
}
