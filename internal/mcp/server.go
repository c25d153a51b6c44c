// Package mcp provides an MCP (Model Context Protocol) server for i18nsync.
// Agents editing string modules can look up keys, lint the project and
// preview an extraction without running the CLI or touching any file.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hargabyte/i18nsync/internal/engine"
	"github.com/hargabyte/i18nsync/internal/output"
)

// Server wraps the MCP server with i18nsync-specific functionality
type Server struct {
	mcpServer    *server.MCPServer
	engine       *engine.Engine
	tools        map[string]bool
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	Tools   []string      // Which tools to expose (empty = all)
	Timeout time.Duration // Inactivity timeout (0 = no timeout)
	Version string
}

// AllTools lists all available tools
var AllTools = []string{"i18n_lookup", "i18n_check", "i18n_preview", "i18n_status"}

// New creates a new MCP server backed by eng.
func New(eng *engine.Engine, cfg Config) (*Server, error) {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	mcpServer := server.NewMCPServer(
		"i18nsync",
		version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:    mcpServer,
		engine:       eng,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = AllTools
	}

	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		s.tools[toolName] = true
	}

	return s, nil
}

// registerTool registers a single tool with the MCP server
func (s *Server) registerTool(name string) error {
	switch name {
	case "i18n_lookup":
		s.mcpServer.AddTool(mcp.NewTool("i18n_lookup",
			mcp.WithDescription(toolSchemaRegistry[name].Description),
			mcp.WithString("key",
				mcp.Required(),
				mcp.Description("Dotted translation key, e.g. home.title"),
			),
		), s.handleLookup)
	case "i18n_check":
		s.mcpServer.AddTool(mcp.NewTool("i18n_check",
			mcp.WithDescription(toolSchemaRegistry[name].Description),
			mcp.WithString("density",
				mcp.Description("Detail level: sparse, medium, dense (default: medium)"),
			),
		), s.handleCheck)
	case "i18n_preview":
		s.mcpServer.AddTool(mcp.NewTool("i18n_preview",
			mcp.WithDescription(toolSchemaRegistry[name].Description),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("Module path relative to the source root, e.g. features/home/script_lines.js"),
			),
			mcp.WithString("content",
				mcp.Description("Source to preview instead of the file on disk"),
			),
		), s.handlePreview)
	case "i18n_status":
		s.mcpServer.AddTool(mcp.NewTool("i18n_status",
			mcp.WithDescription(toolSchemaRegistry[name].Description),
			mcp.WithString("density",
				mcp.Description("Detail level: sparse, medium, dense (default: medium)"),
			),
		), s.handleStatus)
	default:
		return fmt.Errorf("unknown tool: %s", name)
	}
	return nil
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}

	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "i18nsync serve: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// ListTools returns the registered tool names in order.
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return tools
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// toolSchemaRegistry mirrors the mcp.NewTool definitions in registerTool.
var toolSchemaRegistry = map[string]ToolSchema{
	"i18n_lookup": {
		Name:        "i18n_lookup",
		Description: "Show the text stored under a translation key in every configured language.",
		Parameters: []ParameterSchema{
			{Name: "key", Type: "string", Description: "Dotted translation key, e.g. home.title", Required: true},
		},
	},
	"i18n_check": {
		Name:        "i18n_check",
		Description: "Lint the project: out-of-sync modules, orphaned and missing keys, untranslated keys and invalid locale files.",
		Parameters: []ParameterSchema{
			{Name: "density", Type: "string", Description: "Detail level: sparse, medium, dense (default: medium)"},
		},
	},
	"i18n_preview": {
		Name:        "i18n_preview",
		Description: "Preview extracting a string module: new entries, reused keys and the rewritten source. Writes nothing.",
		Parameters: []ParameterSchema{
			{Name: "path", Type: "string", Description: "Module path relative to the source root, e.g. features/home/script_lines.js", Required: true},
			{Name: "content", Type: "string", Description: "Source to preview instead of the file on disk"},
		},
	},
	"i18n_status": {
		Name:        "i18n_status",
		Description: "List tracked string modules as synced, changed, new or removed since the last sync.",
		Parameters: []ParameterSchema{
			{Name: "density", Type: "string", Description: "Detail level: sparse, medium, dense (default: medium)"},
		},
	},
}

// GetToolSchemas returns schemas for all registered tools.
func (s *Server) GetToolSchemas() []ToolSchema {
	schemas := make([]ToolSchema, 0, len(s.tools))
	for _, name := range s.ListTools() {
		if schema, ok := toolSchemaRegistry[name]; ok {
			schemas = append(schemas, schema)
		}
	}
	return schemas
}

// CallTool dispatches a tool call by name with the given arguments and
// returns the JSON result.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()

	if !registered {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	switch name {
	case "i18n_lookup":
		key, _ := args["key"].(string)
		if key == "" {
			return "", fmt.Errorf("key parameter is required")
		}
		return s.executeLookup(key)

	case "i18n_check":
		density, _ := args["density"].(string)
		return s.executeCheck(ctx, density)

	case "i18n_preview":
		p, _ := args["path"].(string)
		if p == "" {
			return "", fmt.Errorf("path parameter is required")
		}
		content, hasContent := args["content"].(string)
		return s.executePreview(ctx, p, content, hasContent)

	case "i18n_status":
		density, _ := args["density"].(string)
		return s.executeStatus(ctx, density)

	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

func (s *Server) handleLookup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handle(ctx, "i18n_lookup", req)
}

func (s *Server) handleCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handle(ctx, "i18n_check", req)
}

func (s *Server) handlePreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handle(ctx, "i18n_preview", req)
}

func (s *Server) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handle(ctx, "i18n_status", req)
}

func (s *Server) handle(ctx context.Context, name string, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	result, err := s.CallTool(ctx, name, req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result), nil
}

func (s *Server) executeLookup(key string) (string, error) {
	forms, err := s.engine.Lookup(key)
	if err != nil {
		return "", err
	}
	return toJSON(map[string]interface{}{"key": key, "translations": forms})
}

func (s *Server) executeCheck(ctx context.Context, density string) (string, error) {
	d, err := output.ParseDensity(density)
	if err != nil {
		return "", err
	}
	report, err := s.engine.Check(ctx)
	if err != nil {
		return "", err
	}
	return output.NewJSONFormatter().Format(report, d)
}

func (s *Server) executeStatus(ctx context.Context, density string) (string, error) {
	d, err := output.ParseDensity(density)
	if err != nil {
		return "", err
	}
	report, err := s.engine.Status(ctx)
	if err != nil {
		return "", err
	}
	return output.NewJSONFormatter().Format(report, d)
}

func (s *Server) executePreview(ctx context.Context, rel, content string, hasContent bool) (string, error) {
	rel, err := cleanRelPath(rel)
	if err != nil {
		return "", err
	}

	src := []byte(content)
	if !hasContent {
		if src, err = os.ReadFile(filepath.Join(s.engine.Project().SrcDir(), filepath.FromSlash(rel))); err != nil {
			return "", fmt.Errorf("read %s: %w", rel, err)
		}
	}

	preview, err := s.engine.Preview(ctx, rel, src)
	if err != nil {
		return "", err
	}
	return toJSON(preview)
}

// cleanRelPath rejects paths that leave the source root.
func cleanRelPath(p string) (string, error) {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if path.IsAbs(p) || p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("path must be relative to the source root: %s", p)
	}
	return p, nil
}

func toJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data), nil
}
