package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-shiplabel/internal/app"
	"github.com/a3tai/mcp-shiplabel/internal/config"
	"github.com/a3tai/mcp-shiplabel/internal/descriptions"
	"github.com/a3tai/mcp-shiplabel/internal/label"
	lerrors "github.com/a3tai/mcp-shiplabel/internal/pdf/errors"
	"github.com/a3tai/mcp-shiplabel/internal/session"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	app       *app.App
	mcpServer *server.MCPServer
	log       *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, a *app.App) (*Server, error) {
	if a == nil {
		return nil, fmt.Errorf("app cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
		server.WithLogging(),
	)

	s := &Server{
		config:    cfg,
		app:       a,
		mcpServer: mcpServer,
		log:       slog.Default().With("component", "mcp"),
	}

	s.registerTools()

	return s, nil
}

// Notify forwards a successful export to connected clients.
func (s *Server) Notify(n session.Notification) {
	s.mcpServer.SendNotificationToAllClients("notifications/message", map[string]any{
		"level":  "info",
		"logger": "shiplabel",
		"data": map[string]any{
			"session":  n.SessionID,
			"filename": n.Filename,
		},
	})
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session",
		mcp.Description("Session id; each session holds one label (default: \"default\")"),
	)
}

func formatParam() mcp.ToolOption {
	return mcp.WithString("format",
		mcp.Description("Output format"),
		mcp.Enum(string(label.FormatThermal), string(label.FormatA4)),
	)
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"label_upload",
		mcp.WithDescription(descriptions.LabelUploadDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the shipment PDF inside the input directory"),
		),
		mcp.WithString("mime_type",
			mcp.Description("Declared MIME type; derived from the file extension when empty"),
		),
		sessionParam(),
	), s.handleUpload)

	s.mcpServer.AddTool(mcp.NewTool(
		"label_list_inputs",
		mcp.WithDescription(descriptions.LabelListInputsDescription),
		mcp.WithBoolean("refresh",
			mcp.Description("Rescan the input directory instead of using the cached listing"),
		),
	), s.handleListInputs)

	s.mcpServer.AddTool(mcp.NewTool(
		"label_status",
		mcp.WithDescription(descriptions.LabelStatusDescription),
		sessionParam(),
	), s.handleStatus)

	s.mcpServer.AddTool(mcp.NewTool(
		"label_export",
		mcp.WithDescription(descriptions.LabelExportDescription),
		formatParam(),
		mcp.WithString("output_dir",
			mcp.Description("Subdirectory of the output directory to write to"),
		),
		sessionParam(),
	), s.handleExport)

	s.mcpServer.AddTool(mcp.NewTool(
		"label_preview",
		mcp.WithDescription(descriptions.LabelPreviewDescription),
		sessionParam(),
	), s.handlePreview)

	s.mcpServer.AddTool(mcp.NewTool(
		"label_reset",
		mcp.WithDescription(descriptions.LabelResetDescription),
		sessionParam(),
	), s.handleReset)

	s.mcpServer.AddTool(mcp.NewTool(
		"label_filename",
		mcp.WithDescription(descriptions.LabelFilenameDescription),
		formatParam(),
		sessionParam(),
	), s.handleFilename)

	s.mcpServer.AddTool(mcp.NewTool(
		"label_server_info",
		mcp.WithDescription(descriptions.LabelServerInfoDescription),
	), s.handleServerInfo)
}

// Handler functions
func (s *Server) handleUpload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess := s.app.Sessions.Get(request.GetString("session", ""))

	req, err := s.app.Service.ReadUpload(path, request.GetString("mime_type", ""))
	if err != nil {
		if !errors.Is(err, lerrors.ErrInvalidInputType) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		// rejected by type or size before reading: the session records the status
		_ = sess.Upload(ctx, req)
		return mcp.NewToolResultError(fmt.Sprintf("%s (%v)", sess.Status().Message, err)), nil
	}

	if err := sess.Upload(ctx, req); err != nil {
		if errors.Is(err, session.ErrSuperseded) {
			return mcp.NewToolResultError("upload superseded by a newer upload or reset"), nil
		}
		return mcp.NewToolResultError(sess.Status().Message), nil
	}

	return mcp.NewToolResultText(formatSnapshot(sess.Snapshot())), nil
}

func (s *Server) handleListInputs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetBool("refresh", false) {
		s.app.Service.InvalidateInputs()
	}

	res, err := s.app.Service.ListInputs(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(res.Files) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No PDF files found in %s\n", s.app.Service.InputDirectory())), nil
	}

	text := fmt.Sprintf("Found %d PDF file(s) in %s:\n\n", len(res.Files), s.app.Service.InputDirectory())
	for i, f := range res.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, f.Name)
		text += fmt.Sprintf("   Path: %s\n", f.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", f.Size)
		text += fmt.Sprintf("   Modified: %s\n\n", f.ModifiedTime)
	}
	if res.Truncated {
		text += "⚠️  Listing truncated; narrow the input directory to see every file\n"
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleStatus(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.app.Sessions.Get(request.GetString("session", ""))
	return jsonResult(sess.Snapshot())
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.app.Sessions.Get(request.GetString("session", ""))
	format := label.ParseFormat(request.GetString("format", ""))

	res, err := sess.ExportTo(ctx, format, s.app.Sink(request.GetString("output_dir", "")))
	if err != nil {
		return mcp.NewToolResultError(exportError(sess, err)), nil
	}

	text := fmt.Sprintf("%s\n", sess.Status().Message)
	text += fmt.Sprintf("File: %s\n", res.Path)
	text += fmt.Sprintf("Format: %s\n", res.Format)
	text += fmt.Sprintf("Page: %.1f x %.1f mm\n", res.PageW, res.PageH)
	text += fmt.Sprintf("Label height: %.1f mm\n", res.LabelH)
	text += fmt.Sprintf("Size: %d bytes\n", len(res.Data))
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handlePreview(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.app.Sessions.Get(request.GetString("session", ""))

	png, err := sess.Preview()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	caption := "Label preview"
	if d := sess.Label(); d != nil && d.Tracking != "" {
		caption += ": " + d.Tracking
	}
	return mcp.NewToolResultImage(caption, base64.StdEncoding.EncodeToString(png), "image/png"), nil
}

func (s *Server) handleReset(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.app.Sessions.Get(request.GetString("session", ""))
	sess.Reset()
	return mcp.NewToolResultText(fmt.Sprintf("Session %s reset", sess.ID())), nil
}

func (s *Server) handleFilename(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.app.Sessions.Get(request.GetString("session", ""))

	name, err := sess.Filename(label.ParseFormat(request.GetString("format", "")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(name), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("📁 Input Directory: %s\n", s.app.Service.InputDirectory())
	text += fmt.Sprintf("📤 Output Directory: %s\n", s.app.Output.Root())
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", s.app.Service.GetMaxFileSize()/(1024*1024))
	text += fmt.Sprintf("🖨️  Raster Scale: %dx\n", s.app.Exporter.Scale())
	text += fmt.Sprintf("🏷️  Template: %s\n", s.app.Service.Parser().Template().Brand)

	cache := s.app.Service.CacheStats()
	text += fmt.Sprintf("🗃️  Parse Cache: %d/%d (hits %d, misses %d)\n", cache.Size, cache.Capacity, cache.Hits, cache.Misses)

	health := s.app.Monitor.Health()
	text += fmt.Sprintf("🩺 Healthy: %t (panics recovered: %d, uptime %s)\n\n", health.Healthy, health.PanicCount, health.Uptime)

	ids := s.app.Sessions.IDs()
	if len(ids) == 0 {
		text += "📂 Sessions: none\n"
	} else {
		text += fmt.Sprintf("📂 Sessions (%d):\n", len(ids))
		for _, id := range ids {
			sess, ok := s.app.Sessions.Lookup(id)
			if !ok {
				continue
			}
			st := sess.Status()
			text += fmt.Sprintf("   • %s: %s", id, sess.State())
			if st.Message != "" {
				text += fmt.Sprintf(" (%s)", st.Message)
			}
			text += "\n"
		}
	}

	text += "\n🛠️  Workflow: label_list_inputs → label_upload → label_preview → label_export\n"
	return mcp.NewToolResultText(text), nil
}

// Formatting methods
func formatSnapshot(snap session.Snapshot) string {
	text := snap.Status.Message + "\n"
	d := snap.Label
	if d == nil {
		return text
	}

	text += fmt.Sprintf("\nTracking: %s\n", d.Tracking)
	text += fmt.Sprintf("Modality: %s\n", d.Modality)
	text += fmt.Sprintf("Order ID: %s\n", d.OrderID)
	text += fmt.Sprintf("Contract: %s\n", d.Contract)
	text += fmt.Sprintf("\nRecipient: %s\n", d.Recipient.Name)
	text += fmt.Sprintf("  %s\n", d.Recipient.Street)
	if d.Recipient.Neighborhood != "" {
		text += fmt.Sprintf("  %s\n", d.Recipient.Neighborhood)
	}
	text += fmt.Sprintf("  %s - %s %s\n", d.Recipient.City, d.Recipient.State, d.Recipient.PostalCode)
	text += fmt.Sprintf("\nSender: %s\n", d.Sender.Name)
	text += fmt.Sprintf("  %s\n", d.Sender.Address)
	text += fmt.Sprintf("  CEP: %s\n", d.Sender.PostalCode)

	text += fmt.Sprintf("\nProducts (%d):\n", len(d.Products))
	for _, p := range d.Products {
		text += fmt.Sprintf("  %s. %s [%s] x%s %s\n", p.N, p.Desc, p.Var, p.Qtd, p.Val)
	}
	text += fmt.Sprintf("Total (%d itens): %s\n", d.TotalQtd, d.TotalVal)

	if len(snap.Warnings) > 0 {
		text += fmt.Sprintf("\n⚠️  Defaults used for: %v\n", snap.Warnings)
	}
	return text
}

func exportError(sess *session.Session, err error) string {
	switch {
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrNoLabel):
		return err.Error()
	default:
		return sess.Status().Message
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// Run serves MCP over stdio until the client disconnects.
func (s *Server) Run(_ context.Context) error {
	s.log.Debug("starting MCP server in stdio mode", "input", s.app.Service.InputDirectory())

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// HTTPHandler serves MCP over streamable HTTP for server mode.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer)
}
