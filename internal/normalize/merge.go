package normalize

import (
	"errors"
	"fmt"

	"github.com/zombor/invoice-extractor/internal/analysis"
)

// FieldRecord is one row of the fields table
type FieldRecord struct {
	Key        string     `json:"key"`
	Value      string     `json:"value"`
	Confidence Confidence `json:"confidence"`
}

// FieldsTable is the ordered, editable list of extracted fields
type FieldsTable []FieldRecord

// Keys returns the set of keys recorded in the table
func (t FieldsTable) Keys() map[string]bool {
	keys := make(map[string]bool, len(t))
	for _, record := range t {
		keys[record.Key] = true
	}
	return keys
}

// Fields lists the fields of every document of a result, in order. Composite
// fields are flattened, leaf fields keep their name. Fields that cannot be
// flattened are skipped and reported in the returned error.
func Fields(result *analysis.Result) (FieldsTable, error) {
	table := FieldsTable{}
	if result == nil {
		return table, nil
	}

	var errs []error
	for _, doc := range result.Documents {
		for _, entry := range analysis.Entries(doc.Fields) {
			flat, err := FlattenNamed(entry.Name, entry.Field)
			if err != nil {
				errs = append(errs, fmt.Errorf("field %q: %w", entry.Name, err))
				continue
			}
			for _, f := range flat {
				table = append(table, FieldRecord{Key: f.Path, Value: f.Value, Confidence: f.Confidence})
			}
		}
	}
	return table, errors.Join(errs...)
}

// Merge combines the fields of a primary and a secondary result. Every primary
// field is kept. A secondary field is appended only when its key has not been
// recorded yet and its value is not N/A, so a secondary value never replaces
// or contradicts one already present: conflicting secondary values are lost.
// Either result may be nil.
func Merge(primary, secondary *analysis.Result) (FieldsTable, error) {
	fields, primaryErr := Fields(primary)
	extra, secondaryErr := Fields(secondary)
	return MergeFields(fields, extra), errors.Join(primaryErr, secondaryErr)
}

// MergeFields appends the secondary records to the primary ones following the
// precedence rule of Merge
func MergeFields(primary, secondary FieldsTable) FieldsTable {
	merged := make(FieldsTable, 0, len(primary)+len(secondary))
	merged = append(merged, primary...)

	seen := merged.Keys()
	for _, record := range secondary {
		if record.Value == NotAvailable || seen[record.Key] {
			continue
		}
		seen[record.Key] = true
		merged = append(merged, record)
	}
	return merged
}
