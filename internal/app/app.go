// Package app wires the label pipeline from a configuration. The MCP server,
// the HTTP API and the CLI all run on the same App.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/a3tai/mcp-shiplabel/internal/config"
	"github.com/a3tai/mcp-shiplabel/internal/export"
	"github.com/a3tai/mcp-shiplabel/internal/pdf"
	"github.com/a3tai/mcp-shiplabel/internal/pdf/security"
	"github.com/a3tai/mcp-shiplabel/internal/pdf/stability"
	"github.com/a3tai/mcp-shiplabel/internal/render"
	"github.com/a3tai/mcp-shiplabel/internal/session"
)

// App holds the long-lived pipeline components.
type App struct {
	Config   *config.Config
	Service  *pdf.Service
	Renderer *render.Renderer
	Exporter *export.Exporter
	Sessions *session.Registry
	Output   *security.Sandbox
	Monitor  *stability.Manager
}

// New builds the pipeline described by cfg. Extra session options, such as
// a notifier, apply to every session.
func New(cfg *config.Config, log *slog.Logger, opts ...session.Option) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	svc, err := pdf.NewService(pdf.ServiceConfig{
		MaxFileSize:    cfg.MaxFileSize,
		CacheSize:      cfg.CacheSize,
		InputDirectory: cfg.InputDirectory,
		Vocabulary:     cfg.Vocabulary,
		Template:       cfg.Template,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF service: %w", err)
	}

	outDir := cfg.OutputDirectory
	if outDir == "" {
		outDir = cfg.InputDirectory
	}
	out, err := security.NewSandbox(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create output sandbox: %w", err)
	}

	renderer := render.NewRenderer(svc.Parser().Template(), render.WithLogger(log))
	exporter := export.NewExporter(cfg.Scale, svc.Parser().Vocabulary().Stopwords)

	monitor := stability.NewManager(stability.DefaultConfig(), log)

	opts = append([]session.Option{session.WithLogger(log)}, opts...)
	factory := session.NewFactory(
		guardedParser{svc, monitor},
		guardedRenderer{renderer, monitor},
		guardedExporter{exporter, monitor},
		opts...,
	)
	return &App{
		Config:   cfg,
		Service:  svc,
		Renderer: renderer,
		Exporter: exporter,
		Sessions: session.NewRegistry(factory),
		Output:   out,
		Monitor:  monitor,
	}, nil
}

// Sink returns a session sink that writes each export under dir and records
// the written path on the result.
func (a *App) Sink(dir string) session.Sink {
	return func(res *export.Result) error {
		path, err := a.WriteExport(res, dir)
		if err != nil {
			return err
		}
		res.Path = path
		return nil
	}
}

// WriteExport stores res under dir, or under the output directory when dir
// is empty. dir must lie inside the output directory.
func (a *App) WriteExport(res *export.Result, dir string) (string, error) {
	name := res.Filename
	if dir != "" {
		sub, err := a.Output.Resolve(dir)
		if err != nil {
			return "", fmt.Errorf("security validation failed: %w", err)
		}
		if err := os.MkdirAll(sub, config.DefaultDirPerm); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", sub, err)
		}
		name = filepath.Join(sub, res.Filename)
	} else if err := a.Output.EnsureDir(); err != nil {
		return "", err
	}

	path, err := a.Output.Resolve(name)
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
