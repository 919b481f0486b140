// Package runtime assembles the MCP server from the registered tools and runs
// it over the configured transport.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/genmcp/browser-mcp/pkg/browser"
	serverconfig "github.com/genmcp/browser-mcp/pkg/config/server"
	"github.com/genmcp/browser-mcp/pkg/health"
	"github.com/genmcp/browser-mcp/pkg/observability/logging"
	"github.com/genmcp/browser-mcp/pkg/observability/metrics"
	"github.com/genmcp/browser-mcp/pkg/tools"

	_ "github.com/genmcp/browser-mcp/pkg/tools/code"
	_ "github.com/genmcp/browser-mcp/pkg/tools/core"
)

const ServerName = "browser-mcp"

// Version is reported to clients during initialization. The CLI sets it at startup.
var Version = "development"

const shutdownTimeout = 10 * time.Second

// RunServer launches (or attaches to) the browser described by config and serves
// the tools until ctx is cancelled. The browser is closed on return.
func RunServer(ctx context.Context, config *serverconfig.BrowserServerConfig) error {
	logger := config.Runtime.GetBaseLogger()

	tabs, err := NewBrowserContext(config, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tabs.Close(closeCtx); err != nil {
			logger.Warn("Failed to close browser cleanly", zap.Error(err))
		} else {
			logger.Info("Browser closed")
		}
	}()

	return DoRunServer(ctx, config, tabs)
}

// NewBrowserContext builds the browser context for config, with a trace file when saveTrace is set.
func NewBrowserContext(config *serverconfig.BrowserServerConfig, logger *zap.Logger) (*browser.Context, error) {
	opts := []browser.ContextOption{browser.WithLogger(logger.Named("browser"))}

	if config.Browser != nil && config.Browser.SaveTrace {
		tracer, path, err := browser.NewFileTracer(config.Browser.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace file: %w", err)
		}
		logger.Info("Recording page actions", zap.String("trace_file", path))
		opts = append(opts, browser.WithTracer(tracer))
	}

	return browser.NewContext(browser.NewRodOpener(config.Browser), opts...), nil
}

// DoRunServer serves the tools against tabs over the configured transport.
func DoRunServer(ctx context.Context, config *serverconfig.BrowserServerConfig, tabs browser.TabProvider) error {
	logger := config.Runtime.GetBaseLogger()
	logger.Info("Starting MCP server",
		zap.String("server_name", ServerName),
		zap.String("server_version", Version),
		zap.String("transport_protocol", config.Runtime.TransportProtocol))

	if err := config.Validate(); err != nil {
		logger.Error("Server configuration validation failed before running", zap.Error(err))
		return fmt.Errorf("invalid server configuration: %w", err)
	}

	switch strings.ToLower(config.Runtime.TransportProtocol) {
	case serverconfig.TransportProtocolStreamableHttp:
		logger.Info("Running server with streamable HTTP transport")
		return runStreamableHttpServer(ctx, config, tabs)
	case serverconfig.TransportProtocolStdio:
		logger.Info("Running server with stdio transport")
		return runStdioServer(ctx, config, tabs)
	default:
		logger.Error("Invalid transport protocol specified",
			zap.String("transport_protocol", config.Runtime.TransportProtocol))
		return fmt.Errorf("tried running invalid transport protocol")
	}
}

// NewServer builds an MCP server exposing the tools of registry enabled by config.
func NewServer(config *serverconfig.BrowserServerConfig, tabs browser.TabProvider, registry *tools.Registry) *mcp.Server {
	logger := config.Runtime.GetBaseLogger()
	enabled := registry.Filter(config)

	logger.Debug("Building MCP server with tools",
		zap.String("server_name", ServerName),
		zap.String("server_version", Version),
		zap.Int("num_tools", len(enabled)))

	opts := &mcp.ServerOptions{
		HasTools:     len(enabled) > 0,
		Instructions: config.Instructions,
	}

	s := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: Version,
	}, opts)

	mcpLogs := config.Runtime.LoggingConfig.MCPLogsEnabled()
	logger.Debug("Adding logging middleware", zap.Bool("mcp_logs", mcpLogs))
	s.AddReceivingMiddleware(logging.WithLoggingMiddleware(logger, mcpLogs))

	for _, t := range enabled {
		s.AddTool(t.MCPTool(), createToolHandler(t, tabs))
		logger.Debug("Registered tool", zap.String("tool_name", t.Name()))
	}

	logger.Info("Server created successfully", zap.Int("num_tools", len(enabled)))
	return s
}

// createToolHandler adapts a tool to the MCP handler signature. Failures are always
// reported as error results, never as protocol errors.
func createToolHandler(tool *tools.Tool, tabs browser.TabProvider) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		clientLogger := logging.FromContext(ctx) // Sent to MCP client
		clientLogger.Info("Tool invocation started", zap.String("tool_name", tool.Name()))

		result := callTool(ctx, tool, tabs, req)

		status := metrics.StatusSuccess
		if result.IsError {
			status = metrics.StatusError
		}
		metrics.RecordToolCall(tool.Name(), status, time.Since(start))

		clientLogger.Info("Tool invocation completed",
			zap.String("tool_name", tool.Name()),
			zap.String("status", status),
			zap.Duration("duration", time.Since(start)))
		return result, nil
	}
}

func callTool(ctx context.Context, tool *tools.Tool, tabs browser.TabProvider, req *mcp.CallToolRequest) *mcp.CallToolResult {
	baseLogger := logging.BaseFromContext(ctx)

	params, err := tool.ParseParams(req.Params.Arguments)
	if err != nil {
		return tools.TextError("failed to validate tool call request: %s", err.Error())
	}

	tab, err := tabs.CurrentTab(ctx)
	if err != nil {
		// Log detailed error server-side only
		baseLogger.Error("Failed to acquire browser tab",
			zap.String("tool_name", tool.Name()),
			zap.Error(err))
		return tools.TextError("browser is not available")
	}

	response := tools.NewResponse()
	if err := tool.Handle(ctx, tab, params, response); err != nil {
		baseLogger.Warn("Tool invocation failed",
			zap.String("tool_name", tool.Name()),
			zap.String("tab_id", tab.ID),
			zap.Error(err))
		response.AddError("Error: " + err.Error())
	}

	if err := response.Finish(ctx, tab); err != nil {
		baseLogger.Warn("Failed to capture page state",
			zap.String("tool_name", tool.Name()),
			zap.String("tab_id", tab.ID),
			zap.Error(err))
	}

	return response.Serialize()
}

// newHTTPHandler routes the MCP endpoint, and the health and metrics endpoints when enabled.
func newHTTPHandler(config *serverconfig.BrowserServerConfig, s *mcp.Server, checker health.Checker) http.Handler {
	logger := config.Runtime.GetBaseLogger()
	httpConfig := config.Runtime.StreamableHTTPConfig
	stateless := httpConfig.Stateless == nil || *httpConfig.Stateless

	mux := http.NewServeMux()

	logger.Debug("Creating MCP handler")
	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s
	}, &mcp.StreamableHTTPOptions{
		Stateless: stateless,
	})
	mux.Handle(httpConfig.BasePath, handler)
	logger.Debug("Registered MCP handler", zap.String("path", httpConfig.BasePath))

	if h := httpConfig.Health; h != nil && h.Enabled != nil && *h.Enabled {
		checker.Register(mux, h.LivenessPath, h.ReadinessPath)
		logger.Debug("Registered health handlers",
			zap.String("liveness_path", h.LivenessPath),
			zap.String("readiness_path", h.ReadinessPath))
	}

	if m := httpConfig.Metrics; m != nil && m.Enabled != nil && *m.Enabled {
		mux.Handle(m.Path, metrics.Handler())
		logger.Debug("Registered metrics handler", zap.String("path", m.Path))
	}

	return mux
}

func runStreamableHttpServer(ctx context.Context, config *serverconfig.BrowserServerConfig, tabs browser.TabProvider) error {
	logger := config.Runtime.GetBaseLogger()
	httpConfig := config.Runtime.StreamableHTTPConfig

	logger.Info("Setting up streamable HTTP server",
		zap.Int("port", httpConfig.Port),
		zap.String("base_path", httpConfig.BasePath))

	checker := health.NewChecker()
	checker.AddReadinessCheck("browser", tabs.Ready)

	srv := &http.Server{
		Handler: newHTTPHandler(config, NewServer(config, tabs, tools.Default()), checker),
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", httpConfig.Port))
	if err != nil {
		logger.Error("Failed to listen", zap.Int("port", httpConfig.Port), zap.Error(err))
		return fmt.Errorf("failed to listen on port %d: %w", httpConfig.Port, err)
	}
	logger.Info(fmt.Sprintf("Starting MCP server on %s", ln.Addr()))

	return serveHTTP(ctx, srv, ln, checker, logger)
}

// serveHTTP serves on ln until ctx is cancelled or the server fails. Readiness is
// reported once the listener is accepting connections.
func serveHTTP(ctx context.Context, srv *http.Server, ln net.Listener, checker health.Checker, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
			errCh <- err
		}
	}()
	checker.SetReady(true)

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal, shutting down HTTP server gracefully")
		checker.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during server shutdown", zap.Error(err))
			return err
		}
		logger.Info("HTTP server shutdown completed")
		return nil
	case err := <-errCh:
		checker.SetReady(false)
		logger.Error("HTTP server failed", zap.Error(err))
		return err
	}
}

func runStdioServer(ctx context.Context, config *serverconfig.BrowserServerConfig, tabs browser.TabProvider) error {
	logger := config.Runtime.GetBaseLogger()
	logger.Info("Setting up stdio server",
		zap.String("server_name", ServerName),
		zap.String("server_version", Version))

	s := NewServer(config, tabs, tools.Default())

	logger.Info("Starting stdio server")
	if err := s.Run(ctx, &mcp.StdioTransport{}); err != nil {
		logger.Error("Stdio server failed", zap.Error(err))
		return err
	}

	logger.Info("Stdio server completed")
	return nil
}
