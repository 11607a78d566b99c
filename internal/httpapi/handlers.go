package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/a3tai/mcp-shiplabel/internal/label"
	"github.com/a3tai/mcp-shiplabel/internal/pdf"
	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
	"github.com/a3tai/mcp-shiplabel/internal/session"
)

// multipart overhead allowed on top of the file size limit
const formOverhead = 1 << 20

type errorBody struct {
	Error  string          `json:"error"`
	Status *session.Status `json:"status,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error, st *session.Status) {
	writeJSON(w, code, errorBody{Error: err.Error(), Status: st})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, lerrors.ErrInvalidInputType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, session.ErrNoLabel),
		errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, lerrors.ErrExtractionFailure):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := s.app.Sessions.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("session %q not found", id), nil)
	}
	return sess, ok
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := s.app.Monitor.Health()
	status, code := "ok", http.StatusOK
	if !health.Healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"name":      s.app.Config.ServerName,
		"version":   s.app.Config.Version,
		"sessions":  len(s.app.Sessions.IDs()),
		"cache":     s.app.Service.CacheStats(),
		"stability": health,
	})
}

func (s *Server) handleInputs(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" {
		s.app.Service.InvalidateInputs()
	}
	res, err := s.app.Service.ListInputs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreate(w http.ResponseWriter, _ *http.Request) {
	sess := s.app.Sessions.Create()
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.app.Service.GetMaxFileSize()+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to parse form: %w", err), nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing form file %q: %w", "file", err), nil)
		return
	}
	defer file.Close()

	req := pdf.UploadRequest{
		Name:     fh.Filename,
		MIMEType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
	}
	// a declared non-PDF is never read
	if err := s.app.Service.ValidateUpload(req); err == nil {
		if req.Data, err = io.ReadAll(file); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err), nil)
			return
		}
	}

	if err := sess.Upload(r.Context(), req); err != nil {
		st := sess.Status()
		writeError(w, statusCode(err), err, &st)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	res, err := sess.Export(r.Context(), label.ParseFormat(r.URL.Query().Get("format")))
	if err != nil {
		st := sess.Status()
		writeError(w, statusCode(err), err, &st)
		return
	}

	w.Header().Set("Content-Type", pdf.MIMETypePDF)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))
	w.Header().Set("X-Label-Status", sess.Status().Message)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		s.log.Warn("failed to write export", "filename", res.Filename, "error", err)
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	png, err := sess.Preview()
	if err != nil {
		writeError(w, statusCode(err), err, nil)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Reset()
	s.app.Sessions.Delete(sess.ID())
	w.WriteHeader(http.StatusNoContent)
}
