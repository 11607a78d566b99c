package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/a3tai/mcp-shiplabel/internal/app"
	"github.com/a3tai/mcp-shiplabel/internal/config"
	"github.com/a3tai/mcp-shiplabel/internal/label"
	"github.com/a3tai/mcp-shiplabel/internal/logger"
	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
	"github.com/a3tai/mcp-shiplabel/internal/session"
	"github.com/a3tai/mcp-shiplabel/internal/testpdf"
)

type options struct {
	format  string
	output  string
	outdir  string
	config  string
	scale   int
	preview bool
	dryRun  bool
	verbose bool
	help    bool
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := pflag.NewFlagSet("shiplabel", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.format, "format", string(label.FormatThermal), "Label format: thermal, a4")
	fs.StringVar(&opts.output, "output", "text", "Report format: text, json")
	fs.StringVar(&opts.outdir, "outdir", "", "Directory for the exported label (default: next to the input)")
	fs.StringVar(&opts.config, "config", "", "Config file with vocabulary and template overrides")
	fs.IntVar(&opts.scale, "scale", config.DefaultScale, "Raster scale factor")
	fs.BoolVar(&opts.preview, "preview", false, "Also write a PNG preview")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Parse only, do not export")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose output")
	fs.BoolVarP(&opts.help, "help", "h", false, "Show help message")
	fs.Usage = func() { printHelp(stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.help {
		printHelp(stdout)
		return 0
	}

	if fs.NArg() == 0 {
		fmt.Fprintf(stderr, "Error: PDF file path required\n\n")
		printUsage(stderr)
		return 1
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger.Init(logger.Options{Level: level, Output: stderr})

	if fs.Arg(0) == "sample" {
		return writeSample(fs.Args()[1:], stdout, stderr)
	}
	if fs.NArg() > 1 {
		fmt.Fprintf(stderr, "Error: expected one PDF file, got %d: %s\n\n", fs.NArg(), strings.Join(fs.Args(), " "))
		printUsage(stderr)
		return 1
	}

	result, err := convert(ctx, opts, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if err := outputResults(stdout, result, opts.output); err != nil {
		fmt.Fprintf(stderr, "Error outputting results: %v\n", err)
		return 1
	}
	if !result.Success {
		return 1
	}
	return 0
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Shiplabel - Regenerate printable shipping labels from carrier shipment PDFs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Reads the label page and the declaration of content, recovers tracking code,")
	fmt.Fprintln(w, "addresses and products, and writes a clean label with barcodes and QR codes.")
	fmt.Fprintln(w)
	printUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "  --format       Label format: thermal (default, 100mm wide), a4")
	fmt.Fprintln(w, "  --output       Report format: text (default), json")
	fmt.Fprintln(w, "  --outdir       Directory for the exported label")
	fmt.Fprintln(w, "  --config       YAML/TOML/JSON file overriding vocabulary and template")
	fmt.Fprintln(w, "  --scale        Raster scale factor (default 3)")
	fmt.Fprintln(w, "  --preview      Also write a PNG preview next to the PDF")
	fmt.Fprintln(w, "  --dry-run      Parse only, do not export")
	fmt.Fprintln(w, "  --verbose      Enable verbose output")
	fmt.Fprintln(w, "  --help         Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  shiplabel order.pdf")
	fmt.Fprintln(w, "  shiplabel --format a4 --outdir /tmp/labels order.pdf")
	fmt.Fprintln(w, "  shiplabel --output json --dry-run order.pdf")
	fmt.Fprintln(w, "  shiplabel sample sample.pdf")
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  shiplabel [OPTIONS] <pdf_file>")
	fmt.Fprintln(w, "  shiplabel sample <output.pdf>")
}

// ConversionResult is the report of one PDF to label conversion.
type ConversionResult struct {
	FilePath       string           `json:"file_path"`
	Success        bool             `json:"success"`
	Status         session.Status   `json:"status"`
	Label          *label.LabelData `json:"label,omitempty"`
	Pages          int              `json:"pages,omitempty"`
	Warnings       []string         `json:"warnings,omitempty"`
	Output         string           `json:"output,omitempty"`
	Preview        string           `json:"preview,omitempty"`
	Format         string           `json:"format,omitempty"`
	PageWidthMM    float64          `json:"page_width_mm,omitempty"`
	PageHeightMM   float64          `json:"page_height_mm,omitempty"`
	LabelHeightMM  float64          `json:"label_height_mm,omitempty"`
	Error          string           `json:"error,omitempty"`
	ConversionTime string           `json:"conversion_time,omitempty"`
}

func newApp(opts options, input string) (*app.App, error) {
	vocab, tmpl, err := config.LoadTables(opts.config)
	if err != nil {
		return nil, err
	}

	cfg := config.DefaultConfig()
	cfg.InputDirectory = filepath.Dir(input)
	cfg.OutputDirectory = cfg.InputDirectory
	if opts.outdir != "" {
		if cfg.OutputDirectory, err = filepath.Abs(opts.outdir); err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
	}
	cfg.Scale = opts.scale
	cfg.Vocabulary, cfg.Template = vocab, tmpl

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return app.New(cfg, logger.L())
}

func convert(ctx context.Context, opts options, pdfPath string) (*ConversionResult, error) {
	absPath, err := filepath.Abs(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	a, err := newApp(opts, absPath)
	if err != nil {
		return nil, err
	}

	result := &ConversionResult{FilePath: absPath}
	start := time.Now()
	defer func() { result.ConversionTime = time.Since(start).Round(time.Millisecond).String() }()

	req, err := a.Service.ReadUpload(absPath, "")
	if err != nil && !errors.Is(err, lerrors.ErrInvalidInputType) {
		return nil, err
	}

	sess := a.Sessions.Get("")
	if err := sess.Upload(ctx, req); err != nil {
		result.Status = sess.Status()
		result.Error = err.Error()
		return result, nil // Don't fail, return error in result
	}

	snap := sess.Snapshot()
	result.Label = snap.Label
	result.Pages = snap.Pages
	result.Warnings = snap.Warnings
	result.Status = snap.Status

	if opts.dryRun {
		result.Success = true
		return result, nil
	}

	res, err := sess.ExportTo(ctx, label.ParseFormat(opts.format), a.Sink(""))
	result.Status = sess.Status()
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}
	result.Output = res.Path
	result.Format = res.Format
	result.PageWidthMM, result.PageHeightMM, result.LabelHeightMM = res.PageW, res.PageH, res.LabelH

	if opts.preview {
		if result.Preview, err = writePreview(a, sess, res.Filename); err != nil {
			result.Error = err.Error()
			return result, nil
		}
	}

	result.Success = true
	return result, nil
}

func writePreview(a *app.App, sess *session.Session, pdfName string) (string, error) {
	png, err := sess.Preview()
	if err != nil {
		return "", err
	}
	path, err := a.Output.Resolve(strings.TrimSuffix(pdfName, filepath.Ext(pdfName)) + ".png")
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("failed to write preview: %w", err)
	}
	return path, nil
}

func writeSample(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintf(stderr, "Error: output path required\n\n")
		printUsage(stderr)
		return 1
	}
	if err := os.WriteFile(args[0], testpdf.ShippingLabel(), 0o644); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "✅ Sample shipment PDF written to %s\n", args[0])
	return 0
}

func outputResults(w io.Writer, result *ConversionResult, format string) error {
	switch format {
	case "json":
		return outputJSON(w, result)
	case "text":
		return outputText(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func outputJSON(w io.Writer, result *ConversionResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputText(w io.Writer, result *ConversionResult) error {
	if !result.Success {
		fmt.Fprintf(w, "❌ %s\n", result.Status.Message)
		if result.Error != "" {
			fmt.Fprintf(w, "   %s\n", result.Error)
		}
		return nil
	}

	fmt.Fprintf(w, "✅ %s\n", result.Status.Message)
	fmt.Fprintln(w)

	d := result.Label
	if d != nil {
		fmt.Fprintf(w, "Tracking:  %s\n", d.Tracking)
		fmt.Fprintf(w, "Modality:  %s\n", d.Modality)
		fmt.Fprintf(w, "Order ID:  %s\n", d.OrderID)
		fmt.Fprintf(w, "Recipient: %s, %s - %s %s\n", d.Recipient.Name, d.Recipient.City, d.Recipient.State, d.Recipient.PostalCode)
		fmt.Fprintf(w, "Sender:    %s, %s - %s\n", d.Sender.Name, d.Sender.City, d.Sender.State)
		for _, p := range d.Products {
			fmt.Fprintf(w, "  [%s] %s (%s) x%s %s\n", p.N, p.Desc, p.Var, p.Qtd, p.Val)
		}
		fmt.Fprintf(w, "Total (%d itens): %s\n", d.TotalQtd, d.TotalVal)
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "⚠️  Defaults used for: %s\n", strings.Join(result.Warnings, ", "))
	}

	if result.Output != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "📄 %s (%s, %.1f x %.1f mm)\n", result.Output, result.Format, result.PageWidthMM, result.PageHeightMM)
	}
	if result.Preview != "" {
		fmt.Fprintf(w, "🖼️  %s\n", result.Preview)
	}
	return nil
}
