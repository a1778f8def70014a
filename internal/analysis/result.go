package analysis

import (
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FieldMap is an ordered mapping of field name to field, in the order the
// service returned them.
type FieldMap = orderedmap.OrderedMap[string, *Field]

// Result is the outcome of one analysis call
type Result struct {
	ModelID   string     `json:"modelId,omitempty"`
	Content   string     `json:"content,omitempty"`
	Documents []Document `json:"documents,omitempty"`
	Tables    []Table    `json:"tables,omitempty"`
}

// Document is one analyzed document inside a result
type Document struct {
	DocType    string                                 `json:"docType,omitempty"`
	Confidence *float64                               `json:"confidence,omitempty"`
	Fields     *orderedmap.OrderedMap[string, *Field] `json:"fields,omitempty"`
	Tables     []Table                                `json:"tables,omitempty"`
}

// Field is a named value extracted by the service. Leaf fields carry Content,
// composite fields carry ValueObject or ValueArray.
type Field struct {
	Type        string                                 `json:"type,omitempty"`
	Content     *string                                `json:"content,omitempty"`
	Confidence  *float64                               `json:"confidence,omitempty"`
	ValueObject *orderedmap.OrderedMap[string, *Field] `json:"valueObject,omitempty"`
	ValueArray  []*Field                               `json:"valueArray,omitempty"`
}

// NamedField pairs a field with the name it has in its parent
type NamedField struct {
	Name  string
	Field *Field
}

// Table is a detected table made of cells addressed by row and column index
type Table struct {
	RowCount    int    `json:"rowCount,omitempty"`
	ColumnCount int    `json:"columnCount,omitempty"`
	Cells       []Cell `json:"cells"`
}

// Cell is one table cell
type Cell struct {
	Kind        string `json:"kind,omitempty"`
	RowIndex    int    `json:"rowIndex"`
	ColumnIndex int    `json:"columnIndex"`
	Content     string `json:"content"`
}

// NewFieldMap builds an ordered field mapping from the given entries
func NewFieldMap(fields ...NamedField) *FieldMap {
	m := orderedmap.New[string, *Field]()
	for _, f := range fields {
		m.Set(f.Name, f.Field)
	}
	return m
}

// Text returns a leaf field with the given content and confidence
func Text(content string, confidence float64) *Field {
	return &Field{Type: "string", Content: &content, Confidence: &confidence}
}

// Object returns a composite field with the given children
func Object(children ...NamedField) *Field {
	return &Field{Type: "object", ValueObject: NewFieldMap(children...)}
}

// Named is shorthand for building a NamedField
func Named(name string, field *Field) NamedField {
	return NamedField{Name: name, Field: field}
}

// Entries returns the mapping's fields in order. A nil mapping has no entries.
func Entries(m *FieldMap) []NamedField {
	if m == nil {
		return nil
	}
	entries := make([]NamedField, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, NamedField{Name: pair.Key, Field: pair.Value})
	}
	return entries
}

// Children returns the sub-fields of a composite field. Array items are named
// by their 1-based position.
func (f *Field) Children() []NamedField {
	if f == nil {
		return nil
	}
	if f.ValueObject != nil && f.ValueObject.Len() > 0 {
		return Entries(f.ValueObject)
	}
	if len(f.ValueArray) > 0 {
		children := make([]NamedField, 0, len(f.ValueArray))
		for i, item := range f.ValueArray {
			children = append(children, NamedField{Name: strconv.Itoa(i + 1), Field: item})
		}
		return children
	}
	return nil
}

// IsComposite reports whether the field has sub-fields
func (f *Field) IsComposite() bool {
	return len(f.Children()) > 0
}

// AllTables returns the tables attached to the result followed by the tables
// attached to each document.
func (r *Result) AllTables() []Table {
	if r == nil {
		return nil
	}
	tables := make([]Table, 0, len(r.Tables))
	tables = append(tables, r.Tables...)
	for _, doc := range r.Documents {
		tables = append(tables, doc.Tables...)
	}
	return tables
}
