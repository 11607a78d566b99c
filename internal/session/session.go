// Package session holds the per-user pipeline state: the current parse
// result, its rendered label and the status line shown to the user.
//
// A session moves Idle → Parsing → Parsed (or back to Idle on error) and
// Parsed → Exporting → Parsed. Uploads are accepted in any state; a later
// upload supersedes an earlier one that is still parsing, whose result is
// discarded when it completes.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/a3tai/mcp-shiplabel/internal/export"
	"github.com/a3tai/mcp-shiplabel/internal/label"
	"github.com/a3tai/mcp-shiplabel/internal/pdf"
	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
	"github.com/a3tai/mcp-shiplabel/internal/render"
)

var (
	// ErrBusy is returned when an export is requested while one is running.
	ErrBusy = errors.New("an export is already in progress")
	// ErrNoLabel is returned by actions that need a parsed label.
	ErrNoLabel = errors.New("no label has been parsed")
	// ErrSuperseded is returned by an upload whose result was discarded
	// because a later upload or a reset happened while it was parsing.
	ErrSuperseded = errors.New("upload superseded")
)

// State is a pipeline state.
type State int

const (
	Idle State = iota
	Parsing
	Parsed
	Exporting
)

func (s State) String() string {
	switch s {
	case Parsing:
		return "parsing"
	case Parsed:
		return "parsed"
	case Exporting:
		return "exporting"
	default:
		return "idle"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Severity classifies a status message.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityLoading Severity = "loading"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Status is the single current status line of a session.
type Status struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Notification is emitted once per successful export.
type Notification struct {
	SessionID string `json:"session_id"`
	Filename  string `json:"filename"`
}

// Parser is the read side of the pipeline.
type Parser interface {
	ValidateUpload(req pdf.UploadRequest) error
	Parse(ctx context.Context, data []byte) (*pdf.ParseResult, error)
}

// Renderer lays out a parsed label.
type Renderer interface {
	Render(d *label.LabelData) (*render.Visual, error)
}

// Exporter produces output documents.
type Exporter interface {
	Export(ctx context.Context, v *render.Visual, d *label.LabelData, f label.Format) (*export.Result, error)
	Preview(v *render.Visual) ([]byte, error)
	Filename(d *label.LabelData, f label.Format) string
}

// Option configures a Session.
type Option func(*Session)

// WithNotifier registers the callback for successful exports.
func WithNotifier(fn func(Notification)) Option {
	return func(s *Session) { s.notify = fn }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// Session owns one user's parse result exclusively.
type Session struct {
	id       string
	parser   Parser
	renderer Renderer
	exporter Exporter
	notify   func(Notification)
	log      *slog.Logger

	mu     sync.Mutex
	state  State
	status Status
	gen    uint64
	busy   bool
	result *pdf.ParseResult
	visual *render.Visual
	last   *export.Result
}

// New creates an idle session.
func New(id string, p Parser, r Renderer, e Exporter, opts ...Option) *Session {
	s := &Session{
		id:       id,
		parser:   p,
		renderer: r,
		exporter: e,
		log:      slog.Default(),
		status:   Status{Severity: SeverityInfo},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("session", id)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Upload validates, extracts, parses and renders req. A non-PDF upload is
// rejected before extraction and leaves the current label untouched.
func (s *Session) Upload(ctx context.Context, req pdf.UploadRequest) error {
	if err := s.parser.ValidateUpload(req); err != nil {
		s.mu.Lock()
		s.status = Status{Message: msgSelectPDF, Severity: SeverityError}
		s.mu.Unlock()
		s.log.Warn("upload rejected", "name", req.Name, "mime", req.MIMEType, "error", err)
		return err
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = Parsing
	s.status = Status{Message: msgReading, Severity: SeverityLoading}
	s.mu.Unlock()

	s.log.Debug("parsing upload", "name", req.Name, "size", len(req.Data), "generation", gen)

	res, err := s.parser.Parse(ctx, req.Data)
	var v *render.Visual
	if err == nil {
		v, err = s.renderer.Render(res.Label)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		s.log.Debug("discarding superseded parse", "generation", gen, "current", s.gen)
		return ErrSuperseded
	}

	if err != nil {
		s.state = Idle
		s.result, s.visual, s.last = nil, nil, nil
		s.status = Status{Message: msgReadError + err.Error(), Severity: SeverityError}
		s.log.Error("upload failed", "name", req.Name, "error", err)
		return err
	}

	s.state = Parsed
	s.result, s.visual, s.last = res, v, nil
	s.status = Status{Message: parsedMessage(res.Label), Severity: SeveritySuccess}
	if res.Issues != nil {
		if _, warnings := res.Issues.Count(); warnings > 0 {
			s.log.Info("parsed with defaults", "fields", res.Issues.Fields(), "summary", res.Issues.Summary())
		}
	}
	return nil
}

// Sink persists an export. It runs inside the export stage, so the session
// reports success only once the sink has returned.
type Sink func(res *export.Result) error

// Export renders the current label to a document in format f without
// persisting it.
func (s *Session) Export(ctx context.Context, f label.Format) (*export.Result, error) {
	return s.ExportTo(ctx, f, nil)
}

// ExportTo renders the current label in format f and hands the document to
// sink. A sink error fails the export: the status turns to error, no
// notification is sent and the parsed label stays available for a retry.
func (s *Session) ExportTo(ctx context.Context, f label.Format, sink Sink) (*export.Result, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if s.state != Parsed || s.result == nil {
		s.mu.Unlock()
		return nil, ErrNoLabel
	}
	s.busy = true
	s.state = Exporting
	s.status = Status{Message: msgExporting, Severity: SeverityLoading}
	gen, d, v := s.gen, s.result.Label, s.visual
	s.mu.Unlock()

	res, err := s.exporter.Export(ctx, v, d, f)
	msg := ""
	if err == nil && sink != nil {
		if serr := sink(res); serr != nil {
			res, msg = nil, serr.Error()
			err = lerrors.Wrap(lerrors.ErrorTypeExportFailure, serr)
		}
	}
	if err != nil && msg == "" {
		msg = err.Error()
	}

	s.mu.Lock()
	s.busy = false
	current := gen == s.gen
	if current {
		s.state = Parsed
		if err != nil {
			s.status = Status{Message: msgErrorPrefix + msg, Severity: SeverityError}
		} else {
			s.last = res
			s.status = Status{Message: exportedMessage(res.Filename), Severity: SeveritySuccess}
		}
	}
	notify := s.notify
	s.mu.Unlock()

	if err != nil {
		s.log.Error("export failed", "format", string(f), "error", err)
		return nil, err
	}
	if current && notify != nil {
		notify(Notification{SessionID: s.id, Filename: res.Filename})
	}
	return res, nil
}

// Preview returns the current label as PNG bytes.
func (s *Session) Preview() ([]byte, error) {
	s.mu.Lock()
	v := s.visual
	s.mu.Unlock()

	if v == nil {
		return nil, ErrNoLabel
	}
	return s.exporter.Preview(v)
}

// Filename returns the export name for the current label.
func (s *Session) Filename(f label.Format) (string, error) {
	s.mu.Lock()
	res := s.result
	s.mu.Unlock()

	if res == nil {
		return "", ErrNoLabel
	}
	return s.exporter.Filename(res.Label, f), nil
}

// Reset discards the current label and any in-flight parse.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.state = Idle
	s.result, s.visual, s.last = nil, nil, nil
	s.status = Status{Severity: SeverityInfo}
}

// Status returns the current status line.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// State returns the current pipeline state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Label returns the current parse result, or nil.
func (s *Session) Label() *label.LabelData {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	return s.result.Label
}

// Snapshot is a serializable view of a session.
type Snapshot struct {
	ID       string           `json:"id"`
	State    State            `json:"state"`
	Status   Status           `json:"status"`
	Label    *label.LabelData `json:"label,omitempty"`
	Pages    int              `json:"pages,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
	Export   *export.Result   `json:"last_export,omitempty"`
}

// Snapshot captures the session under its lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{ID: s.id, State: s.state, Status: s.status, Export: s.last}
	if s.result != nil {
		snap.Label = s.result.Label
		snap.Pages = s.result.Pages
		if s.result.Issues != nil {
			snap.Warnings = s.result.Issues.Fields()
		}
	}
	return snap
}
