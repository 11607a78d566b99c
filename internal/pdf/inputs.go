package pdf

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Scan limits for the input directory listing.
const (
	DefaultScanDepth = 3
	DefaultScanFiles = 500
	DefaultScanTime  = 2 * time.Second
	DefaultScanTTL   = 5 * time.Second
)

// InputFile is a shipment PDF found in the input directory.
type InputFile struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// ScanResult is one listing of the input directory.
type ScanResult struct {
	Files        []InputFile   `json:"files"`
	FromCache    bool          `json:"from_cache"`
	CacheAge     time.Duration `json:"cache_age"`
	ScanTime     time.Duration `json:"scan_time"`
	FilesScanned int           `json:"files_scanned"`
	Truncated    bool          `json:"truncated"`
}

// InputScanner lists PDFs below a root directory with depth, count and time
// limits. Hidden entries and symlinks are skipped. Listings are cached for
// a short TTL so repeated status calls do not walk the tree again.
type InputScanner struct {
	root      string
	maxDepth  int
	fileLimit int
	timeLimit time.Duration
	ttl       time.Duration

	mu      sync.Mutex
	cached  *ScanResult
	updated time.Time
}

// NewInputScanner creates a scanner for root with the default limits.
func NewInputScanner(root string) *InputScanner {
	return &InputScanner{
		root:      root,
		maxDepth:  DefaultScanDepth,
		fileLimit: DefaultScanFiles,
		timeLimit: DefaultScanTime,
		ttl:       DefaultScanTTL,
	}
}

// Scan returns the PDFs under the root, from cache when fresh.
func (s *InputScanner) Scan(ctx context.Context) (*ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && time.Since(s.updated) <= s.ttl {
		res := *s.cached
		res.FromCache = true
		res.CacheAge = time.Since(s.updated)
		return &res, nil
	}

	res, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	s.cached, s.updated = res, time.Now()
	return res, nil
}

// Invalidate drops the cached listing.
func (s *InputScanner) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func (s *InputScanner) scan(ctx context.Context) (*ScanResult, error) {
	start := time.Now()
	res := &ScanResult{Files: []InputFile{}}

	err := s.walk(ctx, s.root, 0, start, res)
	res.ScanTime = time.Since(start)

	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].Path < res.Files[j].Path })
	return res, err
}

func (s *InputScanner) walk(ctx context.Context, dir string, depth int, start time.Time, res *ScanResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.maxDepth > 0 && depth >= s.maxDepth {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil // unreadable directories are skipped
	}

	for _, entry := range entries {
		if s.limited(start, res) {
			res.Truncated = true
			return nil
		}
		res.FilesScanned++

		name := entry.Name()
		if strings.HasPrefix(name, ".") || entry.Type()&os.ModeSymlink != 0 {
			continue
		}

		path := filepath.Join(dir, name)
		if entry.IsDir() {
			if err := s.walk(ctx, path, depth+1, start, res); err != nil {
				return err
			}
			continue
		}

		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		res.Files = append(res.Files, InputFile{
			Name:         name,
			Path:         path,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
	}
	return nil
}

func (s *InputScanner) limited(start time.Time, res *ScanResult) bool {
	if s.fileLimit > 0 && len(res.Files) >= s.fileLimit {
		return true
	}
	return s.timeLimit > 0 && time.Since(start) > s.timeLimit
}
