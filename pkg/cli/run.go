package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"k8s.io/utils/ptr"

	serverconfig "github.com/genmcp/browser-mcp/pkg/config/server"
	"github.com/genmcp/browser-mcp/pkg/runtime"
)

const defaultConfigPath = "browser-mcp.yaml"

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", defaultConfigPath, "the path to the server config file")
	runCmd.Flags().StringVar(&runEnvFile, "env-file", "", "a dotenv file to load before applying environment overrides")
	runCmd.Flags().BoolVar(&runHeaded, "headed", false, "show the browser window, overriding browser.headless")
}

var (
	runConfigPath string
	runEnvFile    string
	runHeaded     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the browser MCP server",
	Run:   executeRunCmd,
}

func executeRunCmd(cobraCmd *cobra.Command, args []string) {
	config, err := loadConfig(runConfigPath, cobraCmd.Flags().Changed("config"), runEnvFile, runHeaded)
	if err != nil {
		fmt.Printf("invalid server config: %s\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runtime.RunServer(ctx, config); err != nil {
		fmt.Printf("browser-mcp failed with %s\n", err.Error())
		os.Exit(1)
	}
}

// loadConfig builds the server config from the config file, the environment and the
// command-line flags, in increasing order of precedence. A missing config file is only
// an error when its path was given explicitly.
func loadConfig(configPath string, explicit bool, envFile string, headed bool) (*serverconfig.BrowserServerConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	config, err := readConfigFile(configPath, explicit)
	if err != nil {
		return nil, err
	}

	// the base logger can only be built once the logging config is final,
	// so override failures are reported after the fact
	overrideErr := serverconfig.NewEnvOverrider().ApplyOverrides(config)
	config.ApplyDefaults()

	if headed {
		config.Browser.Headless = ptr.To(false)
	}

	if overrideErr != nil {
		config.Runtime.GetBaseLogger().Warn("Failed to apply overrides from env vars to the server config",
			zap.Error(overrideErr))
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func readConfigFile(configPath string, explicit bool) (*serverconfig.BrowserServerConfig, error) {
	path, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve server config file path: %w", err)
	}

	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			config := &serverconfig.BrowserServerConfig{}
			config.ApplyDefaults()
			return config, nil
		}
		return nil, fmt.Errorf("no file found at server config path: %s", path)
	}

	configFile, err := serverconfig.ParseConfigFile(path)
	if err != nil {
		return nil, err
	}
	return &configFile.BrowserServerConfig, nil
}
