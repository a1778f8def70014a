package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zombor/invoice-extractor/internal/analysis"
	"github.com/zombor/invoice-extractor/internal/normalize"
	"github.com/zombor/invoice-extractor/internal/spreadsheet"
)

// ErrNotFinalized is returned when exporting a session whose edits were not finalized
var ErrNotFinalized = errors.New("edits have not been finalized")

// IDGenerator generates unique IDs for sessions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Models names the model used by each analysis pass. An empty model skips its pass.
type Models struct {
	Invoice string
	Custom  string
	Layout  string
}

// DefaultModels runs the prebuilt invoice and layout models without a custom model
func DefaultModels() Models {
	return Models{
		Invoice: analysis.InvoiceModel,
		Layout:  analysis.LayoutModel,
	}
}

// Service handles upload sessions
type Service struct {
	db          DB
	analyzer    analysis.Analyzer
	storage     Storage
	models      Models
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, analyzer analysis.Analyzer, storage Storage, models Models) *Service {
	return NewServiceWithDeps(db, analyzer, storage, models, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, analyzer analysis.Analyzer, storage Storage, models Models, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		analyzer:    analyzer,
		storage:     storage,
		models:      models,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename keeps letters, digits, spaces, hyphens and underscores of
// the base name and truncates it to 50 characters
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "invoice"
	}
	return base + ext
}

// Upload validates and stores a document, analyzes it and saves the resulting session.
// Unsupported file types are rejected before anything is stored or analyzed.
func (s *Service) Upload(ctx context.Context, filename string, data []byte) (*Session, error) {
	contentType, err := analysis.ContentTypeForFilename(filename)
	if err != nil {
		return nil, err
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedName, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	session := &Session{
		ID:           id,
		OriginalName: filename,
		Filename:     savedName,
		ContentType:  contentType,
		CreatedAt:    now,
	}
	session.Reset()
	s.extract(ctx, session, data)
	session.UpdatedAt = now

	if err := s.db.SaveSession(session); err != nil {
		// Clean up file if database save fails
		s.storage.Delete(savedName)
		return nil, fmt.Errorf("saving session to database: %w", err)
	}
	return session, nil
}

// passRun is one analysis call and its outcome
type passRun struct {
	pass   string
	model  string
	result *analysis.Result
	err    error
}

// runPasses calls the analyzer once per configured model, concurrently. Each
// call gets its own copy of the document and a failed call never cancels the
// others.
func (s *Service) runPasses(ctx context.Context, data []byte, contentType string) []*passRun {
	var runs []*passRun
	for _, p := range []struct{ pass, model string }{
		{PassInvoice, s.models.Invoice},
		{PassCustom, s.models.Custom},
		{PassLayout, s.models.Layout},
	} {
		if p.model != "" {
			runs = append(runs, &passRun{pass: p.pass, model: p.model})
		}
	}

	// Failures are kept on each run, so every task returns nil and Wait has
	// no error to report
	var g errgroup.Group
	for _, run := range runs {
		document := bytes.Clone(data)
		g.Go(func() error {
			run.result, run.err = s.analyzer.Analyze(ctx, document, run.model, contentType)
			return nil
		})
	}
	_ = g.Wait()
	return runs
}

// extract analyzes the document and stores the projection in the session.
// Failed passes count as passes without data and are recorded as session errors.
func (s *Service) extract(ctx context.Context, session *Session, data []byte) {
	results := make(map[string]*analysis.Result)
	for _, run := range s.runPasses(ctx, data, session.ContentType) {
		if run.err != nil {
			slog.Error("Analysis pass failed",
				"session", session.ID,
				"pass", run.pass,
				"model", run.model,
				"content_type", session.ContentType,
				"file_size", len(data),
				"error", run.err,
			)
			session.Errors = append(session.Errors, PassError{
				Pass:    run.pass,
				Model:   run.model,
				Message: fmt.Sprintf("Error processing %s analysis: %v", run.pass, run.err),
			})
			continue
		}
		results[run.pass] = run.result
	}

	projection, err := normalize.Build(results[PassInvoice], results[PassCustom], results[PassLayout])
	if err != nil {
		slog.Warn("Skipped malformed fields", "session", session.ID, "error", err)
		session.Errors = append(session.Errors, PassError{
			Pass:    PassNormalize,
			Message: err.Error(),
		})
	}
	session.apply(projection)

	slog.Info("Extracted invoice data",
		"session", session.ID,
		"fields", len(session.Fields),
		"table_rows", len(session.Tables.Rows),
		"failed_passes", len(session.Errors),
	)
}

// GetSession retrieves a session by ID
func (s *Service) GetSession(id string) (*Session, error) {
	session, err := s.db.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return session, nil
}

// ListSessions returns all sessions, newest first
func (s *Service) ListSessions() ([]*Session, error) {
	sessions, err := s.db.ListSessions()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// update loads a session, applies change and saves it
func (s *Service) update(id string, change func(*Session) error) (*Session, error) {
	session, err := s.db.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	if err := change(session); err != nil {
		return nil, err
	}
	session.UpdatedAt = s.timeSource.Now()
	if err := s.db.SaveSession(session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return session, nil
}

// UpdateFields replaces the fields table with the user's edits
func (s *Service) UpdateFields(id string, fields normalize.FieldsTable) (*Session, error) {
	if fields == nil {
		fields = normalize.FieldsTable{}
	}
	return s.update(id, func(session *Session) error {
		session.Fields = fields
		return nil
	})
}

// UpdateTables replaces the tables grid with the user's edits
func (s *Service) UpdateTables(id string, tables normalize.Grid) (*Session, error) {
	return s.update(id, func(session *Session) error {
		// Concat re-derives the column list from the edited rows
		session.Tables = normalize.Concat(tables)
		return nil
	})
}

// Finalize approves the session's tables for export
func (s *Service) Finalize(id string) (*Session, error) {
	return s.update(id, func(session *Session) error {
		session.ReadyToExport = true
		return nil
	})
}

// Reanalyze discards the session's tables and edits and analyzes the stored document again
func (s *Service) Reanalyze(ctx context.Context, id string) (*Session, error) {
	session, err := s.db.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	data, err := s.storage.Get(session.Filename)
	if err != nil {
		return nil, fmt.Errorf("getting session document: %w", err)
	}

	session.Reset()
	s.extract(ctx, session, data)
	session.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveSession(session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return session, nil
}

// Export renders the session's tables as an xlsx workbook
func (s *Service) Export(id string) ([]byte, error) {
	session, err := s.db.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	if !session.ReadyToExport {
		return nil, ErrNotFinalized
	}

	data, err := spreadsheet.Bytes(session.Projection())
	if err != nil {
		return nil, fmt.Errorf("exporting session: %w", err)
	}
	return data, nil
}

// GetDocument retrieves the uploaded document of a session
func (s *Service) GetDocument(id string) ([]byte, string, error) {
	session, err := s.db.GetSession(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting session: %w", err)
	}

	data, err := s.storage.Get(session.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting session document: %w", err)
	}
	return data, session.ContentType, nil
}

// DeleteSession removes a session and its document
func (s *Service) DeleteSession(id string) error {
	session, err := s.db.GetSession(id)
	if err != nil {
		return fmt.Errorf("getting session for deletion: %w", err)
	}

	if err := s.storage.Delete(session.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", session.Filename, "error", err)
	}

	if err := s.db.DeleteSession(id); err != nil {
		return fmt.Errorf("deleting session from database: %w", err)
	}
	return nil
}
