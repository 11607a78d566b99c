package pdf

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
)

// MIMETypePDF is the only accepted upload type.
const MIMETypePDF = "application/pdf"

// Validator checks uploads before any decoding happens
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new upload validator with the specified size limit
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// DetectMIMEType returns the MIME type implied by name's extension, without
// parameters. Unknown extensions yield "application/octet-stream".
func DetectMIMEType(name string) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if t == "" {
		return "application/octet-stream"
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}

// ValidateUpload checks the declared MIME type and the size of an upload.
// Anything but application/pdf is an InvalidInputType error.
func (v *Validator) ValidateUpload(req UploadRequest) error {
	mt := req.MIMEType
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}
	if !strings.EqualFold(mt, MIMETypePDF) {
		return lerrors.New(lerrors.ErrorTypeInvalidInputType,
			fmt.Sprintf("unsupported type %q, expected %s", req.MIMEType, MIMETypePDF)).WithFile(req.Name)
	}

	size := req.Size
	if size == 0 {
		size = int64(len(req.Data))
	}
	if size == 0 {
		return lerrors.New(lerrors.ErrorTypeInvalidInputType, "file is empty").WithFile(req.Name)
	}
	if v.maxFileSize > 0 && size > v.maxFileSize {
		return lerrors.New(lerrors.ErrorTypeInvalidInputType,
			fmt.Sprintf("file too large: %d bytes (max: %d bytes)", size, v.maxFileSize)).WithFile(req.Name)
	}
	return nil
}

// ValidateFile checks that path names a regular file within the size limit.
func (v *Validator) ValidateFile(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return fileInfo, nil
}

// MaxFileSize returns the configured limit
func (v *Validator) MaxFileSize() int64 {
	return v.maxFileSize
}
