package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/shlex"
	"go.uber.org/zap/zapcore"
)

func (f *BrowserServerConfigFile) Validate() error {
	return f.BrowserServerConfig.Validate()
}

func (c *BrowserServerConfig) Validate() error {
	var err error

	if c.Runtime == nil {
		err = errors.Join(err, fmt.Errorf("invalid config: runtime is required"))
	} else if runtimeErr := c.Runtime.Validate(); runtimeErr != nil {
		err = errors.Join(err, fmt.Errorf("invalid config, runtime is invalid: %w", runtimeErr))
	}

	if c.Browser != nil {
		if browserErr := c.Browser.Validate(); browserErr != nil {
			err = errors.Join(err, fmt.Errorf("invalid config, browser is invalid: %w", browserErr))
		}
	}

	for i, capability := range c.Capabilities {
		if strings.TrimSpace(capability) == "" {
			err = errors.Join(err, fmt.Errorf("invalid config: capabilities[%d] is empty", i))
		}
	}

	return err
}

func (r *ServerRuntime) Validate() error {
	var err error
	if r.TransportProtocol != TransportProtocolStdio && r.TransportProtocol != TransportProtocolStreamableHttp {
		err = errors.Join(
			err,
			fmt.Errorf(
				"invalid runtime: transport protocol must be one of (%s, %s), received %s",
				TransportProtocolStdio,
				TransportProtocolStreamableHttp,
				r.TransportProtocol,
			),
		)
	}

	if r.TransportProtocol == TransportProtocolStreamableHttp {
		if r.StreamableHTTPConfig == nil {
			err = errors.Join(
				err,
				fmt.Errorf(
					"transportProtocol is %s, but streamableHttpConfig is not set",
					TransportProtocolStreamableHttp,
				),
			)
		} else {
			err = errors.Join(err, r.StreamableHTTPConfig.Validate())
		}
	}

	if r.LoggingConfig != nil && r.LoggingConfig.Level != "" {
		if _, levelErr := zapcore.ParseLevel(r.LoggingConfig.Level); levelErr != nil {
			err = errors.Join(err, fmt.Errorf("loggingConfig.level is invalid: %w", levelErr))
		}
	}

	return err
}

func (s *StreamableHTTPConfig) Validate() error {
	var err error
	if s.Port <= 0 || s.Port > 65535 {
		err = errors.Join(err, fmt.Errorf("streamableHttpConfig.port must be between 1 and 65535, received %d", s.Port))
	}

	if !strings.HasPrefix(s.BasePath, "/") {
		err = errors.Join(err, fmt.Errorf("streamableHttpConfig.basePath must start with '/', received %q", s.BasePath))
	}

	paths := map[string]string{s.BasePath: "basePath"}
	if s.Health != nil && s.Health.Enabled != nil && *s.Health.Enabled {
		err = errors.Join(err, checkPathConflict(paths, s.Health.LivenessPath, "health.livenessPath"))
		err = errors.Join(err, checkPathConflict(paths, s.Health.ReadinessPath, "health.readinessPath"))
	}
	if s.Metrics != nil && s.Metrics.Enabled != nil && *s.Metrics.Enabled {
		err = errors.Join(err, checkPathConflict(paths, s.Metrics.Path, "metrics.path"))
	}

	return err
}

func checkPathConflict(seen map[string]string, path, field string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("streamableHttpConfig.%s must start with '/', received %q", field, path)
	}
	if other, ok := seen[path]; ok {
		return fmt.Errorf("streamableHttpConfig.%s conflicts with %s: both use %s", field, other, path)
	}
	seen[path] = field
	return nil
}

func (bc *BrowserConfig) Validate() error {
	var err error

	if bc.Viewport != nil && (bc.Viewport.Width <= 0 || bc.Viewport.Height <= 0) {
		err = errors.Join(err, fmt.Errorf("viewport must have a positive width and height, received %dx%d", bc.Viewport.Width, bc.Viewport.Height))
	}

	if bc.ActionTimeout != "" {
		d, parseErr := time.ParseDuration(bc.ActionTimeout)
		if parseErr != nil {
			err = errors.Join(err, fmt.Errorf("actionTimeout is not a valid duration: %w", parseErr))
		} else if d <= 0 {
			err = errors.Join(err, fmt.Errorf("actionTimeout must be positive, received %s", bc.ActionTimeout))
		}
	}

	if _, splitErr := bc.ParseLaunchArgs(); splitErr != nil {
		err = errors.Join(err, splitErr)
	}

	if bc.ControlURL != "" && bc.BrowserPath != "" {
		err = errors.Join(err, fmt.Errorf("browserPath and controlUrl are mutually exclusive"))
	}

	return err
}

// ParseLaunchArgs splits LaunchArgs into individual command-line flags.
func (bc *BrowserConfig) ParseLaunchArgs() ([]string, error) {
	if strings.TrimSpace(bc.LaunchArgs) == "" {
		return nil, nil
	}
	args, err := shlex.Split(bc.LaunchArgs)
	if err != nil {
		return nil, fmt.Errorf("launchArgs could not be parsed: %w", err)
	}
	return args, nil
}
