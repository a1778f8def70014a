package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/zombor/invoice-extractor/internal/analysis"
	"github.com/zombor/invoice-extractor/internal/normalize"
	"github.com/zombor/invoice-extractor/internal/spreadsheet"
)

// maxUploadSize bounds multipart uploads
const maxUploadSize = int64(50 << 20) // 50MB

const unsupportedFileTypeMessage = "Unsupported file type. Please upload a PDF, JPG, JPEG, or PNG file."

// sessionResponse is a session as returned by the API. Message carries the
// placeholder shown when nothing was extracted.
type sessionResponse struct {
	*Session
	Message string `json:"message,omitempty"`
}

func newSessionResponse(session *Session) sessionResponse {
	resp := sessionResponse{Session: session}
	if session.Extracted && session.Projection().Empty() {
		resp.Message = normalize.NoDataMessage
	}
	return resp
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes v as a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes a JSON error response with CORS headers set
func writeError(w http.ResponseWriter, status int, message string) {
	setCORSHeaders(w)
	writeJSON(w, status, map[string]string{"error": message})
}

// writeSessionError maps service errors on an existing session to a response
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, ErrNotFinalized):
		writeError(w, http.StatusConflict, "Finalize your edits before downloading the Excel file")
	default:
		slog.Error("Error handling session request", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// handleHealth reports that the server is up
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload stores an uploaded invoice and returns its analyzed session
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			errorMsg = "File is too large. Maximum size is 50MB."
		}
		writeError(w, http.StatusBadRequest, errorMsg)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		writeError(w, http.StatusBadRequest, errorMsg)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	session, err := s.service.Upload(r.Context(), header.Filename, data)
	if err != nil {
		if errors.Is(err, analysis.ErrUnsupportedFileType) {
			slog.Warn("Rejected upload", "filename", header.Filename, "error", err)
			writeError(w, http.StatusBadRequest, unsupportedFileTypeMessage)
			return
		}
		slog.Error("Error processing upload", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Error processing invoice. Please try again.")
		return
	}

	writeJSON(w, http.StatusCreated, newSessionResponse(session))
}

// handleListSessions returns all sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions()
	if err != nil {
		slog.Error("Error listing sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		resp = append(resp, newSessionResponse(session))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetSession returns a single session
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.GetSession(r.PathValue("id"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

// handleUpdateFields stores the user's edits to the fields table
func (s *Server) handleUpdateFields(w http.ResponseWriter, r *http.Request) {
	var fields normalize.FieldsTable
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.service.UpdateFields(r.PathValue("id"), fields)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

// handleUpdateTables stores the user's edits to the tables grid
func (s *Server) handleUpdateTables(w http.ResponseWriter, r *http.Request) {
	var tables normalize.Grid
	if err := json.NewDecoder(r.Body).Decode(&tables); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.service.UpdateTables(r.PathValue("id"), tables)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

// handleFinalize approves a session for export
func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.Finalize(r.PathValue("id"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

// handleReanalyze runs the analysis passes again on the stored document
func (s *Server) handleReanalyze(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.Reanalyze(r.Context(), r.PathValue("id"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

// handleGetDocument returns the uploaded document of a session
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetDocument(r.PathValue("id"))
	if err != nil {
		writeSessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleExport downloads the finalized tables as an Excel file
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.Export(r.PathValue("id"))
	if err != nil {
		writeSessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", spreadsheet.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", spreadsheet.Filename))
	w.Write(data)
}

// handleDeleteSession removes a session and its document
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteSession(r.PathValue("id")); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
