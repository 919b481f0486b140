package server

import (
	"time"

	"k8s.io/utils/ptr"
)

// Default values for server configuration.
const (
	// DefaultBasePath is the default base path for the MCP server.
	DefaultBasePath = "/mcp"

	// DefaultPort is the default port for the streamable HTTP server.
	DefaultPort = 8080

	// DefaultLivenessPath is the default path for the liveness probe endpoint.
	DefaultLivenessPath = "/healthz"

	// DefaultReadinessPath is the default path for the readiness probe endpoint.
	DefaultReadinessPath = "/readyz"

	// DefaultMetricsPath is the default path for the Prometheus metrics endpoint.
	DefaultMetricsPath = "/metrics"

	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720

	DefaultActionTimeout = 30 * time.Second
)

// ApplyDefaults applies default values to the BrowserServerConfigFile after parsing.
func (f *BrowserServerConfigFile) ApplyDefaults() {
	f.BrowserServerConfig.ApplyDefaults()
}

// ApplyDefaults applies default values to the BrowserServerConfig after parsing.
func (c *BrowserServerConfig) ApplyDefaults() {
	if c.Runtime == nil {
		c.Runtime = &ServerRuntime{}
	}
	c.Runtime.ApplyDefaults()

	if c.Browser == nil {
		c.Browser = &BrowserConfig{}
	}
	c.Browser.ApplyDefaults()
}

// ApplyDefaults applies default values to ServerRuntime.
func (r *ServerRuntime) ApplyDefaults() {
	if r.TransportProtocol == "" {
		r.TransportProtocol = TransportProtocolStreamableHttp
	}

	if r.TransportProtocol == TransportProtocolStreamableHttp {
		if r.StreamableHTTPConfig == nil {
			r.StreamableHTTPConfig = &StreamableHTTPConfig{}
		}
		r.StreamableHTTPConfig.ApplyDefaults()
	}
}

// ApplyDefaults applies default values to StreamableHTTPConfig.
func (s *StreamableHTTPConfig) ApplyDefaults() {
	if s.Port <= 0 {
		s.Port = DefaultPort
	}
	if s.BasePath == "" {
		s.BasePath = DefaultBasePath
	}
	if s.Stateless == nil {
		s.Stateless = ptr.To(true)
	}

	if s.Health == nil {
		s.Health = &HealthConfig{}
	}
	s.Health.ApplyDefaults()

	if s.Metrics == nil {
		s.Metrics = &MetricsConfig{}
	}
	s.Metrics.ApplyDefaults()
}

// ApplyDefaults applies default values to HealthConfig.
func (h *HealthConfig) ApplyDefaults() {
	if h.Enabled == nil {
		h.Enabled = ptr.To(true)
	}
	if h.LivenessPath == "" {
		h.LivenessPath = DefaultLivenessPath
	}
	if h.ReadinessPath == "" {
		h.ReadinessPath = DefaultReadinessPath
	}
}

// ApplyDefaults applies default values to MetricsConfig.
func (m *MetricsConfig) ApplyDefaults() {
	if m.Enabled == nil {
		m.Enabled = ptr.To(true)
	}
	if m.Path == "" {
		m.Path = DefaultMetricsPath
	}
}

// ApplyDefaults applies default values to BrowserConfig.
func (bc *BrowserConfig) ApplyDefaults() {
	if bc.Headless == nil {
		bc.Headless = ptr.To(true)
	}
	if bc.Viewport == nil {
		bc.Viewport = &ViewportConfig{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	if bc.ActionTimeout == "" {
		bc.ActionTimeout = DefaultActionTimeout.String()
	}
}
