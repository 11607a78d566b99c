package pdf

import (
	"context"
	"fmt"
	"os"

	"github.com/a3tai/mcp-shiplabel/internal/label"
	"github.com/a3tai/mcp-shiplabel/internal/pdf/security"
)

// ServiceConfig carries everything the read side of the pipeline needs.
type ServiceConfig struct {
	MaxFileSize    int64
	InputDirectory string
	MaxPages       int
	CacheSize      int
	Vocabulary     label.Vocabulary
	Template       label.Template
}

// Service turns shipment PDFs into label records by orchestrating the reader,
// the noise filter and the parser.
type Service struct {
	reader    *Reader
	filter    *NoiseFilter
	parser    *label.Parser
	validator *Validator
	sandbox   *security.Sandbox
	cache     *ResultCache
	inputs    *InputScanner
}

// NewService creates a new PDF service with all components
func NewService(cfg ServiceConfig) (*Service, error) {
	sandbox, err := security.NewSandbox(cfg.InputDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create input sandbox: %w", err)
	}

	parser := label.NewParser(cfg.Vocabulary, cfg.Template)

	return &Service{
		reader: NewReader(ReaderOptions{
			GeometryPage: parser.Template().GeometryPage,
			MaxPages:     cfg.MaxPages,
		}),
		filter:    NewNoiseFilter(parser.Vocabulary().Noise),
		parser:    parser,
		validator: NewValidator(cfg.MaxFileSize),
		sandbox:   sandbox,
		cache:     NewResultCache(cfg.CacheSize),
		inputs:    NewInputScanner(sandbox.Root()),
	}, nil
}

// ValidateUpload rejects anything that is not a PDF before extraction.
func (s *Service) ValidateUpload(req UploadRequest) error {
	return s.validator.ValidateUpload(req)
}

// Parse decodes data and parses the shipment record. Decoding failures are
// returned as ExtractionFailure; field misses are reported in the result.
// Results are cached by document digest and must not be modified.
func (s *Service) Parse(ctx context.Context, data []byte) (*ParseResult, error) {
	key := Digest(data)
	if res, ok := s.cache.Get(key); ok {
		return res, nil
	}

	doc, err := s.reader.Extract(ctx, data)
	if err != nil {
		return nil, err
	}

	pd := doc.PageData(s.filter)
	d, issues := s.parser.Parse(pd)

	res := &ParseResult{
		Label:        d,
		Pages:        doc.Pages,
		LinesRead:    len(doc.Lines),
		LinesDropped: len(doc.Lines) - len(pd.AllLines),
		Issues:       issues,
	}
	s.cache.Put(key, res)
	return res, nil
}

// ListInputs returns the PDFs available in the input directory.
func (s *Service) ListInputs(ctx context.Context) (*ScanResult, error) {
	return s.inputs.Scan(ctx)
}

// InvalidateInputs drops the cached input listing.
func (s *Service) InvalidateInputs() {
	s.inputs.Invalidate()
}

// CacheStats reports parse cache usage.
func (s *Service) CacheStats() CacheStats {
	return s.cache.Stats()
}

// ReadUpload loads a file from the input directory as an upload. mimeType
// may be empty, in which case it is derived from the file extension.
func (s *Service) ReadUpload(path, mimeType string) (UploadRequest, error) {
	if err := s.sandbox.Check(path); err != nil {
		return UploadRequest{}, fmt.Errorf("security validation failed: %w", err)
	}

	info, err := s.validator.ValidateFile(path)
	if err != nil {
		return UploadRequest{}, err
	}

	if mimeType == "" {
		mimeType = DetectMIMEType(path)
	}
	req := UploadRequest{Name: info.Name(), MIMEType: mimeType, Size: info.Size()}

	// a declared non-PDF is never read
	if err := s.validator.ValidateUpload(req); err != nil {
		return req, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read file: %w", err)
	}
	req.Data = data
	return req, nil
}

// Parser returns the parser in use.
func (s *Service) Parser() *label.Parser {
	return s.parser
}

// InputDirectory returns the directory uploads are read from.
func (s *Service) InputDirectory() string {
	return s.sandbox.Root()
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.validator.MaxFileSize()
}
