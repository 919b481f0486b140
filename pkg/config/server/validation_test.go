package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/utils/ptr"

	"github.com/genmcp/browser-mcp/pkg/observability/logging"
)

func validConfig() *BrowserServerConfig {
	c := &BrowserServerConfig{}
	c.ApplyDefaults()
	return c
}

func TestValidate(t *testing.T) {
	tt := []struct {
		name          string
		mutate        func(c *BrowserServerConfig)
		errorContains []string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *BrowserServerConfig) {},
		},
		{
			name: "stdio needs no http config",
			mutate: func(c *BrowserServerConfig) {
				c.Runtime.TransportProtocol = TransportProtocolStdio
				c.Runtime.StreamableHTTPConfig = nil
			},
		},
		{
			name:          "missing runtime",
			mutate:        func(c *BrowserServerConfig) { c.Runtime = nil },
			errorContains: []string{"runtime is required"},
		},
		{
			name:          "unknown transport",
			mutate:        func(c *BrowserServerConfig) { c.Runtime.TransportProtocol = "websocket" },
			errorContains: []string{"transport protocol must be one of"},
		},
		{
			name: "http transport without http config",
			mutate: func(c *BrowserServerConfig) {
				c.Runtime.StreamableHTTPConfig = nil
			},
			errorContains: []string{"streamableHttpConfig is not set"},
		},
		{
			name: "bad port and base path are both reported",
			mutate: func(c *BrowserServerConfig) {
				c.Runtime.StreamableHTTPConfig.Port = 70000
				c.Runtime.StreamableHTTPConfig.BasePath = "mcp"
			},
			errorContains: []string{"port must be between 1 and 65535", "basePath must start with '/'"},
		},
		{
			name: "metrics path clashes with mcp path",
			mutate: func(c *BrowserServerConfig) {
				c.Runtime.StreamableHTTPConfig.Metrics.Path = DefaultBasePath
			},
			errorContains: []string{"metrics.path conflicts with basePath"},
		},
		{
			name: "disabled health endpoints are not checked",
			mutate: func(c *BrowserServerConfig) {
				c.Runtime.StreamableHTTPConfig.Health.Enabled = ptr.To(false)
				c.Runtime.StreamableHTTPConfig.Health.LivenessPath = DefaultBasePath
			},
		},
		{
			name: "invalid log level",
			mutate: func(c *BrowserServerConfig) {
				c.Runtime.LoggingConfig = &logging.LoggingConfig{Level: "loud"}
			},
			errorContains: []string{"loggingConfig.level is invalid"},
		},
		{
			name: "invalid action timeout",
			mutate: func(c *BrowserServerConfig) {
				c.Browser.ActionTimeout = "soon"
			},
			errorContains: []string{"actionTimeout is not a valid duration"},
		},
		{
			name: "negative action timeout",
			mutate: func(c *BrowserServerConfig) {
				c.Browser.ActionTimeout = "-1s"
			},
			errorContains: []string{"actionTimeout must be positive"},
		},
		{
			name: "unbalanced quotes in launch args",
			mutate: func(c *BrowserServerConfig) {
				c.Browser.LaunchArgs = `--user-agent="broken`
			},
			errorContains: []string{"launchArgs could not be parsed"},
		},
		{
			name: "empty viewport",
			mutate: func(c *BrowserServerConfig) {
				c.Browser.Viewport = &ViewportConfig{}
			},
			errorContains: []string{"viewport must have a positive width and height"},
		},
		{
			name: "browser path with control url",
			mutate: func(c *BrowserServerConfig) {
				c.Browser.BrowserPath = "/usr/bin/chromium"
				c.Browser.ControlURL = "ws://127.0.0.1:9222/devtools/browser/abc"
			},
			errorContains: []string{"mutually exclusive"},
		},
		{
			name: "blank capability",
			mutate: func(c *BrowserServerConfig) {
				c.Capabilities = []string{"vision", " "}
			},
			errorContains: []string{"capabilities[1] is empty"},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := validConfig()
			tc.mutate(c)
			err := c.Validate()
			if len(tc.errorContains) == 0 {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			for _, msg := range tc.errorContains {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestParseLaunchArgs(t *testing.T) {
	bc := &BrowserConfig{LaunchArgs: `--disable-gpu --user-agent="Mozilla/5.0 (X11)" --lang=en-US`}
	args, err := bc.ParseLaunchArgs()
	assert.NoError(t, err)
	assert.Equal(t, []string{"--disable-gpu", "--user-agent=Mozilla/5.0 (X11)", "--lang=en-US"}, args)

	empty := &BrowserConfig{}
	args, err = empty.ParseLaunchArgs()
	assert.NoError(t, err)
	assert.Nil(t, args)
}

func TestGetActionTimeout(t *testing.T) {
	var nilConfig *BrowserConfig
	assert.Equal(t, DefaultActionTimeout, nilConfig.GetActionTimeout())
	assert.Equal(t, DefaultActionTimeout, (&BrowserConfig{ActionTimeout: "bogus"}).GetActionTimeout())
	assert.Equal(t, "2m0s", (&BrowserConfig{ActionTimeout: "2m"}).GetActionTimeout().String())
}
