package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/localrivet/gomcp/server"

	"github.com/localrivet/redminemcp/internal/dispatch"
	"github.com/localrivet/redminemcp/internal/errortypes"
	"github.com/localrivet/redminemcp/internal/tools"
)

// DefaultName is the server name announced to MCP clients.
const DefaultName = "redmine-mcp"

// Common server error types
var (
	ErrServerNotInitialized = errors.New("server not initialized")
	ErrMissingDispatcher    = errors.New("dispatcher is nil")
)

// ToolHandler is the gomcp handler registered for every tool. The arguments
// arrive as decoded JSON and the envelope is returned as the tool result.
type ToolHandler func(ctx *server.Context, args map[string]interface{}) (dispatch.Envelope, error)

// MCPToolServer implements ToolServer on top of a dispatcher.
type MCPToolServer struct {
	name       string
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
	mcpServer  server.Server

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewToolServer creates a new MCPToolServer instance.
func NewToolServer(name string, d *dispatch.Dispatcher, logger *slog.Logger) *MCPToolServer {
	if name == "" {
		name = DefaultName
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &MCPToolServer{
		name:       name,
		dispatcher: d,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Initialize registers one MCP tool per catalog entry.
func (s *MCPToolServer) Initialize() error {
	s.logger.Info("Initializing MCP tool server", "name", s.name)

	if s.dispatcher == nil {
		return errortypes.ConfigError(ErrMissingDispatcher, "server initialization failed")
	}

	srv := server.NewServer(s.name)
	descriptors := s.dispatcher.Registry().Descriptors()
	for _, d := range descriptors {
		srv = srv.Tool(d.Name, d.Summary(), s.Handler(d.Name))
		// gomcp derives {"type":"object"} from a map handler; advertise the descriptor's schema instead.
		// Map arguments reach the handler unconverted, so validation stays in the dispatcher.
		if tool, ok := srv.GetServer().GetTools()[d.Name]; ok {
			tool.Schema = d.JSONSchema()
		}
		srv = srv.WithAnnotations(d.Name, annotations(d))
	}

	s.mcpServer = srv
	s.logger.Info("MCP tool server initialized", "tool_count", len(descriptors))
	return nil
}

// annotations maps descriptor flags onto MCP tool hints.
func annotations(d tools.Descriptor) map[string]interface{} {
	return map[string]interface{}{
		"title":           d.Name,
		"readOnlyHint":    d.ReadOnly,
		"destructiveHint": d.Destructive,
		"openWorldHint":   true,
	}
}

// Start serves MCP over stdio. Logs must not go to stdout while this runs.
func (s *MCPToolServer) Start() error {
	if s.mcpServer == nil {
		return errortypes.ConfigError(ErrServerNotInitialized, "cannot start server")
	}

	s.logger.Info("Starting MCP tool server on stdio")
	return s.mcpServer.AsStdio().Run()
}

// Stop cancels in-flight invocations. The stdio transport exits when stdin closes.
func (s *MCPToolServer) Stop() error {
	s.logger.Info("Stopping MCP tool server")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	return nil
}

// Handler returns the MCP handler for the named tool. Failures are reported
// inside the envelope, so the handler error is always nil.
func (s *MCPToolServer) Handler(name string) ToolHandler {
	return func(_ *server.Context, args map[string]interface{}) (dispatch.Envelope, error) {
		return s.dispatcher.Dispatch(s.baseContext(), name, args), nil
	}
}

func (s *MCPToolServer) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}
