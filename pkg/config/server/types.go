package server

import (
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/ptr"

	"github.com/genmcp/browser-mcp/pkg/observability/logging"
)

const (
	TransportProtocolStreamableHttp = "streamablehttp"
	TransportProtocolStdio          = "stdio"
	KindBrowserServerConfig         = "BrowserServerConfig"

	// CapabilityCore is always enabled, regardless of the configured capabilities.
	CapabilityCore = "core"
)

// StreamableHTTPConfig defines configuration for the HTTP-based runtime.
type StreamableHTTPConfig struct {
	// Port number to listen on (default: 8080).
	Port int `json:"port,omitempty" jsonschema:"optional"`

	// Base path for the MCP server (default: /mcp).
	BasePath string `json:"basePath,omitempty" jsonschema:"optional"`

	// Indicates whether the server is stateless (default: true).
	Stateless *bool `json:"stateless,omitempty" jsonschema:"optional"`

	// Health check configuration for k8s probes.
	Health *HealthConfig `json:"health,omitempty" jsonschema:"optional"`

	// Prometheus metrics endpoint configuration.
	Metrics *MetricsConfig `json:"metrics,omitempty" jsonschema:"optional"`
}

type HealthConfig struct {
	// Enable health endpoints (default: true).
	Enabled *bool `json:"enabled,omitempty" jsonschema:"optional"`

	// Path for liveness probe (default: /healthz)
	LivenessPath string `json:"livenessPath,omitempty" jsonschema:"optional"`

	// Path for readiness probe (default: /readyz)
	ReadinessPath string `json:"readinessPath,omitempty" jsonschema:"optional"`
}

type MetricsConfig struct {
	// Enable the metrics endpoint (default: true).
	Enabled *bool `json:"enabled,omitempty" jsonschema:"optional"`

	// Path the metrics are served on (default: /metrics).
	Path string `json:"path,omitempty" jsonschema:"optional"`
}

// ServerRuntime defines transport protocol and associated configuration.
type ServerRuntime struct {
	// Transport protocol to use (streamablehttp or stdio).
	TransportProtocol string `json:"transportProtocol,omitempty" jsonschema:"optional"`

	// Configuration for streamable HTTP transport protocol.
	StreamableHTTPConfig *StreamableHTTPConfig `json:"streamableHttpConfig,omitempty" jsonschema:"optional"`

	// Configuration for the server logging
	LoggingConfig *logging.LoggingConfig `json:"loggingConfig,omitempty" jsonschema:"optional"`

	baseLogger     *zap.Logger
	initLoggerOnce sync.Once
}

// GetBaseLogger returns the base logger for the server.
// Without a LoggingConfig, or when the configured one fails to build, it is a console
// logger at info level. A nil runtime gets a no-op logger.
func (sr *ServerRuntime) GetBaseLogger() *zap.Logger {
	if sr == nil {
		return zap.NewNop()
	}

	sr.initLoggerOnce.Do(func() {
		if sr.LoggingConfig != nil {
			logger, err := sr.LoggingConfig.BuildBase()
			if err == nil {
				sr.baseLogger = logger
				return
			}
			fmt.Fprintf(os.Stderr, "ERROR: Failed to build base logger, using default console logger: %v\n", err)
		}
		sr.baseLogger = defaultConsoleLogger()
	})

	return sr.baseLogger
}

// SetBaseLogger replaces the base logger. It must be called before the first GetBaseLogger call
// to take effect.
func (sr *ServerRuntime) SetBaseLogger(logger *zap.Logger) {
	sr.initLoggerOnce.Do(func() {
		sr.baseLogger = logger
	})
}

func defaultConsoleLogger() *zap.Logger {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	config.Encoding = "console"
	// stdout belongs to the stdio transport
	config.OutputPaths = []string{"stderr"}
	logger, err := config.Build()
	if err != nil || logger == nil {
		return zap.NewNop()
	}
	return logger
}

// ViewportConfig is the size of the browser viewport in CSS pixels.
type ViewportConfig struct {
	Width  int `json:"width" jsonschema:"required"`
	Height int `json:"height" jsonschema:"required"`
}

// BrowserConfig controls how the browser is launched or attached to.
type BrowserConfig struct {
	// Run the browser without a visible window (default: true).
	Headless *bool `json:"headless,omitempty" jsonschema:"optional"`

	// Path to the Chrome/Chromium binary. Downloaded or auto-detected if empty.
	BrowserPath string `json:"browserPath,omitempty" jsonschema:"optional"`

	// DevTools websocket URL of an already running browser. When set, no browser is launched.
	ControlURL string `json:"controlUrl,omitempty" jsonschema:"optional"`

	// Profile directory for a launched browser. A temporary one is used if empty.
	UserDataDir string `json:"userDataDir,omitempty" jsonschema:"optional"`

	// Extra command-line flags for a launched browser, as a shell-style string,
	// e.g. "--disable-gpu --lang=en-US".
	LaunchArgs string `json:"launchArgs,omitempty" jsonschema:"optional"`

	// Viewport size (default: 1280x720).
	Viewport *ViewportConfig `json:"viewport,omitempty" jsonschema:"optional"`

	// Timeout applied to each page action, as a Go duration string (default: 30s).
	ActionTimeout string `json:"actionTimeout,omitempty" jsonschema:"optional"`

	// Directory for traces and other artifacts (default: the system temp dir).
	OutputDir string `json:"outputDir,omitempty" jsonschema:"optional"`

	// Record page actions to a JSON lines trace file in OutputDir.
	SaveTrace bool `json:"saveTrace,omitempty" jsonschema:"optional"`
}

// IsHeadless reports whether the browser runs headless, defaulting to true.
func (bc *BrowserConfig) IsHeadless() bool {
	if bc == nil {
		return true
	}
	return ptr.Deref(bc.Headless, true)
}

// GetActionTimeout parses ActionTimeout, falling back to DefaultActionTimeout when it is unset or
// invalid. Validate reports invalid values.
func (bc *BrowserConfig) GetActionTimeout() time.Duration {
	if bc == nil || bc.ActionTimeout == "" {
		return DefaultActionTimeout
	}
	d, err := time.ParseDuration(bc.ActionTimeout)
	if err != nil || d <= 0 {
		return DefaultActionTimeout
	}
	return d
}

// BrowserServerConfig defines the runtime configuration of the browser MCP server.
type BrowserServerConfig struct {
	// Instructions sent to clients on initialization.
	Instructions string `json:"instructions,omitempty" jsonschema:"optional"`

	// Runtime configuration for the MCP server.
	Runtime *ServerRuntime `json:"runtime,omitempty" jsonschema:"optional"`

	// Browser launch and page settings.
	Browser *BrowserConfig `json:"browser,omitempty" jsonschema:"optional"`

	// Additional tool capabilities to expose. The core capability is always exposed.
	Capabilities []string `json:"capabilities,omitempty" jsonschema:"optional"`
}

// HasCapability reports whether tools of the given capability should be exposed.
func (c *BrowserServerConfig) HasCapability(capability string) bool {
	if capability == CapabilityCore {
		return true
	}
	return slices.Contains(c.Capabilities, capability)
}

// BrowserServerConfigFile is the root structure of a server config file.
type BrowserServerConfigFile struct {
	// Kind identifies the type of config file.
	Kind string `json:"kind" jsonschema:"required"`

	// Version of the config file format.
	SchemaVersion string `json:"schemaVersion" jsonschema:"required"`

	BrowserServerConfig `json:",inline"`
}
