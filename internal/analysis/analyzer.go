package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Default model identifiers of the remote service
const (
	InvoiceModel = "prebuilt-invoice"
	LayoutModel  = "prebuilt-layout"
)

// ErrUnsupportedFileType is returned for uploads whose extension is not PDF, JPEG or PNG
var ErrUnsupportedFileType = errors.New("unsupported file type")

// Analyzer defines the interface of the remote document-analysis service
type Analyzer interface {
	// Analyze runs the given model over a document and returns its analysis result
	Analyze(ctx context.Context, data []byte, modelID string, contentType string) (*Result, error)
	// Close releases the analyzer's resources
	Close() error
}

// Error is a failed analysis call for one model
type Error struct {
	Model string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("analysis with model %q failed: %v", e.Model, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err as an analysis failure of the given model
func NewError(model string, err error) *Error {
	return &Error{Model: model, Err: err}
}

// ContentTypeForFilename derives the content type sent to the service from
// the file extension
func ContentTypeForFilename(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf", nil
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	case ".png":
		return "image/png", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, filepath.Ext(filename))
	}
}
