// Package normalize turns analysis results into the two editable tables of an
// extraction: the fields table and the grid of detected table rows.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zombor/invoice-extractor/internal/analysis"
)

const (
	// NotAvailable is the placeholder used for absent values and confidences
	NotAvailable = "N/A"

	// Separator joins ancestor names in a flattened path
	Separator = "_"

	// MaxFieldDepth bounds the nesting of composite fields
	MaxFieldDepth = 64
)

// ErrFieldTooDeep is returned for composite fields nested beyond MaxFieldDepth
var ErrFieldTooDeep = errors.New("field nesting too deep")

// ErrInvalidConfidence is returned when decoding a confidence that is not a finite number
var ErrInvalidConfidence = errors.New("confidence must be a finite number")

// Confidence is an optional confidence score
type Confidence struct {
	Value float64
	Valid bool
}

// ConfidenceOf copies an optional score from the service
func ConfidenceOf(score *float64) Confidence {
	if score == nil {
		return Confidence{}
	}
	return Confidence{Value: *score, Valid: true}
}

// String renders the score, or N/A when absent
func (c Confidence) String() string {
	if !c.Valid {
		return NotAvailable
	}
	return strconv.FormatFloat(c.Value, 'f', -1, 64)
}

// MarshalJSON encodes the score as a number, or "N/A" when absent
func (c Confidence) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return json.Marshal(NotAvailable)
	}
	return json.Marshal(c.Value)
}

// UnmarshalJSON accepts a finite number, a numeric string, "N/A", "" or null
func (c *Confidence) UnmarshalJSON(data []byte) error {
	*c = Confidence{}
	if string(data) == "null" {
		return nil
	}
	var number float64
	if err := json.Unmarshal(data, &number); err == nil {
		*c = Confidence{Value: number, Valid: true}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("confidence must be a number or string: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" || text == NotAvailable {
		return nil
	}
	number, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("parsing confidence %q: %w", text, err)
	}
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidConfidence, text)
	}
	*c = Confidence{Value: number, Valid: true}
	return nil
}

// FlatField is one leaf of a field tree
type FlatField struct {
	Path       string
	Value      string
	Confidence Confidence
}

// Flatten reduces a field tree to one FlatField per leaf. Paths join ancestor
// names with Separator, starting from prefix. Leaves without content get N/A.
func Flatten(field *analysis.Field, prefix string) ([]FlatField, error) {
	var out []FlatField
	if err := flatten(field, prefix, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(field *analysis.Field, prefix string, depth int, out *[]FlatField) error {
	if depth > MaxFieldDepth {
		return fmt.Errorf("%w: %q exceeds %d levels", ErrFieldTooDeep, strings.TrimSuffix(prefix, Separator), MaxFieldDepth)
	}

	children := field.Children()
	if len(children) == 0 {
		*out = append(*out, leaf(strings.TrimSuffix(prefix, Separator), field))
		return nil
	}

	for _, child := range children {
		if err := flatten(child.Field, prefix+child.Name+Separator, depth+1, out); err != nil {
			return err
		}
	}
	return nil
}

// leaf builds the entry for a field without children
func leaf(path string, field *analysis.Field) FlatField {
	flat := FlatField{Path: path, Value: NotAvailable}
	if field == nil {
		return flat
	}
	if field.Content != nil && *field.Content != "" {
		flat.Value = *field.Content
	}
	flat.Confidence = ConfidenceOf(field.Confidence)
	return flat
}

// FlattenNamed flattens a top-level field. Leaf fields keep their own name,
// composite fields produce name_child paths.
func FlattenNamed(name string, field *analysis.Field) ([]FlatField, error) {
	if !field.IsComposite() {
		return []FlatField{leaf(name, field)}, nil
	}
	return Flatten(field, name+Separator)
}
