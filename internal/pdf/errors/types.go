package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// LabelError describes a failure somewhere in the label pipeline, with enough
// context to report it through the status channel.
type LabelError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	Field       string    `json:"field,omitempty"`
	FilePath    string    `json:"file_path,omitempty"`
	PageNumber  int       `json:"page_number,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`

	cause error
}

// ErrorType categorizes pipeline failures
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInvalidInputType: the upload did not declare application/pdf.
	ErrorTypeInvalidInputType
	// ErrorTypeExtractionFailure: the document could not be decoded.
	ErrorTypeExtractionFailure
	// ErrorTypeFieldNotFound: one heuristic missed; the field took its default.
	ErrorTypeFieldNotFound
	// ErrorTypeRenderGlyphFailure: a single barcode or QR code failed to encode.
	ErrorTypeRenderGlyphFailure
	// ErrorTypeExportFailure: rasterization or document assembly failed.
	ErrorTypeExportFailure
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
)

// Sentinels usable with errors.Is. A *LabelError matches the sentinel of its type.
var (
	ErrInvalidInputType   = &LabelError{Type: ErrorTypeInvalidInputType}
	ErrExtractionFailure  = &LabelError{Type: ErrorTypeExtractionFailure}
	ErrFieldNotFound      = &LabelError{Type: ErrorTypeFieldNotFound}
	ErrRenderGlyphFailure = &LabelError{Type: ErrorTypeRenderGlyphFailure}
	ErrExportFailure      = &LabelError{Type: ErrorTypeExportFailure}
)

// Error implements the error interface
func (e *LabelError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type.String(), e.Message, e.Context)
	}
	return fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *LabelError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a LabelError of the same type.
func (e *LabelError) Is(target error) bool {
	t, ok := target.(*LabelError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInvalidInputType:
		return "INVALID_INPUT_TYPE"
	case ErrorTypeExtractionFailure:
		return "EXTRACTION_FAILURE"
	case ErrorTypeFieldNotFound:
		return "FIELD_NOT_FOUND"
	case ErrorTypeRenderGlyphFailure:
		return "RENDER_GLYPH_FAILURE"
	case ErrorTypeExportFailure:
		return "EXPORT_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeFieldNotFound:
		return SeverityInfo
	case ErrorTypeRenderGlyphFailure:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// IsRecoverable reports whether the pipeline carries on after this error type.
// Field and glyph failures are absorbed; export failures are recoverable by
// retrying without a new upload.
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeFieldNotFound, ErrorTypeRenderGlyphFailure, ErrorTypeExportFailure:
		return true
	default:
		return false
	}
}

// New creates a LabelError of the given type
func New(errorType ErrorType, message string) *LabelError {
	return &LabelError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
		Timestamp:   time.Now(),
	}
}

// Wrap wraps err as a LabelError of the given type. A nil err yields nil.
func Wrap(errorType ErrorType, err error) *LabelError {
	if err == nil {
		return nil
	}
	le := New(errorType, err.Error())
	le.cause = err
	return le
}

// WithContext adds context to an existing LabelError
func (e *LabelError) WithContext(context string) *LabelError {
	e.Context = context
	return e
}

// WithField names the field a FieldNotFound error refers to
func (e *LabelError) WithField(field string) *LabelError {
	e.Field = field
	return e
}

// WithFile adds file path information to an existing LabelError
func (e *LabelError) WithFile(filePath string) *LabelError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing LabelError
func (e *LabelError) WithPage(pageNumber int) *LabelError {
	e.PageNumber = pageNumber
	return e
}

// GetSeverity returns the severity of this specific error
func (e *LabelError) GetSeverity() ErrorSeverity {
	return e.Type.GetSeverity()
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var le *LabelError
	if stderrors.As(err, &le) {
		return le.Type
	}
	return ErrorTypeUnknown
}

// Collection gathers the non-fatal errors produced while handling one document.
type Collection struct {
	Errors   []*LabelError `json:"errors"`
	Warnings []*LabelError `json:"warnings"`
	FilePath string        `json:"file_path,omitempty"`
}

// NewCollection creates a new error collection
func NewCollection(filePath string) *Collection {
	return &Collection{
		Errors:   make([]*LabelError, 0),
		Warnings: make([]*LabelError, 0),
		FilePath: filePath,
	}
}

// Add adds an error to the appropriate list based on severity
func (c *Collection) Add(err *LabelError) {
	if err == nil {
		return
	}
	if err.FilePath == "" && c.FilePath != "" {
		err.FilePath = c.FilePath
	}

	if err.GetSeverity() == SeverityError {
		c.Errors = append(c.Errors, err)
	} else {
		c.Warnings = append(c.Warnings, err)
	}
}

// Count returns the total number of errors and warnings
func (c *Collection) Count() (errors, warnings int) {
	return len(c.Errors), len(c.Warnings)
}

// Fields returns the names of the fields that fell back to defaults, in order.
func (c *Collection) Fields() []string {
	var fields []string
	for _, w := range c.Warnings {
		if w.Type == ErrorTypeFieldNotFound && w.Field != "" {
			fields = append(fields, w.Field)
		}
	}
	return fields
}

// Summary returns a text summary of all errors and warnings
func (c *Collection) Summary() string {
	errorCount, warningCount := c.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}
	return fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)
}
