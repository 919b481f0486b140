// Package logging wires zap loggers into the MCP server.
//
// A base logger is built once at startup from LoggingConfig and writes to the
// configured outputs (stderr by default, since stdout carries the stdio transport).
// Each MCP request gets a request logger that tees every entry to the base logger
// and to the client through the request's ServerSession:
//
//	base, err := cfg.BuildBase()
//	if err != nil {
//		return err
//	}
//	server.AddReceivingMiddleware(logging.WithLoggingMiddleware(base, cfg.MCPLogsEnabled()))
//
//	// inside a tool handler
//	logging.FromContext(ctx).Info("navigated", zap.String("url", url))
//
// Zap levels map onto MCP logging levels as follows:
//   - zap.DebugLevel → "debug"
//   - zap.InfoLevel → "info"
//   - zap.WarnLevel → "warning"
//   - zap.ErrorLevel → "error"
//   - zap.DPanicLevel → "critical"
//   - zap.PanicLevel → "alert"
//   - zap.FatalLevel → "emergency"
//
// Every entry is handed to the session; the session drops those below the level
// the client asked for with logging/setLevel.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig provides a JSON-schema friendly configuration for logging
// that can be converted to a zap.Config when needed.
type LoggingConfig struct {
	// Level is the minimum enabled logging level (debug, info, warn, error, dpanic, panic, fatal)
	Level string `json:"level,omitempty" jsonschema:"optional"`
	// Development puts the logger in development mode
	Development bool `json:"development,omitempty" jsonschema:"optional"`
	// DisableCaller stops annotating logs with the calling function's file name and line number
	DisableCaller bool `json:"disableCaller,omitempty" jsonschema:"optional"`
	// DisableStacktrace completely disables automatic stacktrace capturing
	DisableStacktrace bool `json:"disableStacktrace,omitempty" jsonschema:"optional"`
	// Encoding sets the logger's encoding ("json" or "console")
	Encoding string `json:"encoding,omitempty" jsonschema:"optional"`
	// OutputPaths is a list of URLs or file paths to write logging output to
	OutputPaths []string `json:"outputPaths,omitempty" jsonschema:"optional"`
	// ErrorOutputPaths is a list of URLs to write internal logger errors to
	ErrorOutputPaths []string `json:"errorOutputPaths,omitempty" jsonschema:"optional"`
	// InitialFields is a collection of fields to add to the root logger
	InitialFields map[string]interface{} `json:"initialFields,omitempty" jsonschema:"optional"`
	// EnableMcpLogs controls whether logs are sent to MCP clients
	EnableMcpLogs *bool `json:"enableMcpLogs,omitempty" jsonschema:"optional"`
}

// MCPLogsEnabled returns whether the mcp logs are enabled, defaulting to true if unset
func (lc *LoggingConfig) MCPLogsEnabled() bool {
	if lc == nil || lc.EnableMcpLogs == nil {
		return true
	}

	return *lc.EnableMcpLogs
}

// toZapConfig converts the schema-friendly LoggingConfig to a zap.Config
func (lc *LoggingConfig) toZapConfig() (zap.Config, error) {
	var config zap.Config

	// Set defaults if not specified
	switch lc.Encoding {
	case "console":
		config = zap.NewDevelopmentConfig()
	default:
		config = zap.NewProductionConfig()
	}

	// Override with specified values
	if lc.Level != "" {
		level, err := zapcore.ParseLevel(lc.Level)
		if err != nil {
			return config, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
		}
		config.Level = zap.NewAtomicLevelAt(level)
	}

	if lc.Encoding != "" {
		config.Encoding = lc.Encoding
	}

	config.Development = lc.Development
	config.DisableCaller = lc.DisableCaller
	config.DisableStacktrace = lc.DisableStacktrace

	if len(lc.OutputPaths) > 0 {
		config.OutputPaths = lc.OutputPaths
	}

	if len(lc.ErrorOutputPaths) > 0 {
		config.ErrorOutputPaths = lc.ErrorOutputPaths
	}

	if lc.InitialFields != nil {
		config.InitialFields = lc.InitialFields
	}

	return config, nil
}

// BuildBase creates the process-wide base logger from the configuration.
// Request loggers created by NewRequestLogger wrap it.
func (lc *LoggingConfig) BuildBase() (*zap.Logger, error) {
	config, err := lc.toZapConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to convert to zap config: %w", err)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build base zap logger: %w", err)
	}
	return logger, nil
}
