// Package security confines file access by the tool surfaces to configured
// directories.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sandbox confines paths to one root directory. Symlinks are resolved before
// the containment check.
type Sandbox struct {
	root string
}

// NewSandbox creates a sandbox rooted at dir. The directory need not exist yet.
func NewSandbox(dir string) (*Sandbox, error) {
	if dir == "" {
		return nil, fmt.Errorf("sandbox directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sandbox directory: %w", err)
	}
	return &Sandbox{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute sandbox directory.
func (s *Sandbox) Root() string {
	return s.root
}

// Check returns an error unless path lies inside the sandbox.
func (s *Sandbox) Check(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	ok, err := s.Contains(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("path is outside %s: %s", s.root, path)
	}
	return nil
}

// Contains reports whether path, and the file it links to if it is a
// symlink, both lie inside the sandbox.
func (s *Sandbox) Contains(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	clean := filepath.Clean(abs)

	target := clean
	if info, err := os.Lstat(clean); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(clean); err == nil {
			target = resolved
		}
	}

	roots := []string{s.root}
	if resolved, err := filepath.EvalSymlinks(s.root); err == nil && resolved != s.root {
		roots = append(roots, resolved)
	}

	within := func(p string) bool {
		for _, r := range roots {
			if p == r || strings.HasPrefix(p, r+string(filepath.Separator)) {
				return true
			}
		}
		return false
	}
	return within(clean) && within(target), nil
}

// Resolve maps name to an absolute path inside the sandbox. Relative names are
// joined to the root; NUL bytes are dropped.
func (s *Sandbox) Resolve(name string) (string, error) {
	name = strings.ReplaceAll(name, "\x00", "")
	if name == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(s.root, name)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := s.Check(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// EnsureDir creates the sandbox directory if it is missing.
func (s *Sandbox) EnsureDir() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.root, err)
	}
	return nil
}
