package invoice

import (
	"time"

	"github.com/zombor/invoice-extractor/internal/normalize"
)

// Names of the analysis passes run for an upload
const (
	PassInvoice   = "invoice"
	PassCustom    = "custom"
	PassLayout    = "layout"
	PassNormalize = "normalize"
)

// PassError is a user-visible failure of one analysis pass
type PassError struct {
	Pass    string `json:"pass"`
	Model   string `json:"model,omitempty"`
	Message string `json:"message"`
}

// Session is the extraction state of one uploaded invoice: the stored
// document, the editable tables built from its analysis and whether the user
// approved them for export
type Session struct {
	ID            string                `json:"id"`
	OriginalName  string                `json:"original_name"`
	Filename      string                `json:"filename"`
	ContentType   string                `json:"content_type"`
	Extracted     bool                  `json:"extracted"`
	ReadyToExport bool                  `json:"ready_to_export"`
	Fields        normalize.FieldsTable `json:"fields"`
	Tables        normalize.Grid        `json:"tables"`
	Errors        []PassError           `json:"errors,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// Projection returns the session's tables
func (s *Session) Projection() *normalize.Projection {
	return &normalize.Projection{Fields: s.Fields, Tables: s.Tables}
}

// Reset clears the extracted tables, the pass errors and the export approval
func (s *Session) Reset() {
	s.Extracted = false
	s.ReadyToExport = false
	s.Fields = normalize.FieldsTable{}
	s.Tables = normalize.Concat()
	s.Errors = nil
}

// apply stores a freshly built projection in the session
func (s *Session) apply(p *normalize.Projection) {
	s.Fields = p.Fields
	s.Tables = p.Tables
	s.Extracted = true
}
