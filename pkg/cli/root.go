package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/genmcp/browser-mcp/pkg/runtime"
)

var cliVersion string

var rootCmd = &cobra.Command{
	Use:   "browser-mcp",
	Short: "browser-mcp serves browser automation tools over MCP",
}

// Execute runs the CLI. version is empty for builds without -ldflags, in which
// case it is derived from the VCS stamp of the binary.
func Execute(version string) {
	info, _ := debug.ReadBuildInfo()
	cliVersion = resolveVersion(version, info)
	runtime.Version = cliVersion

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// resolveVersion returns version, or development@<commit>[+dirty] from info.
func resolveVersion(version string, info *debug.BuildInfo) string {
	if version != "" {
		return version
	}

	var commit string
	var dirty bool
	if info != nil {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				commit = setting.Value[:min(len(setting.Value), 7)]
			case "vcs.modified":
				dirty = setting.Value == "true"
			}
		}
	}

	if commit == "" {
		return "development"
	}
	if dirty {
		return "development@" + commit + "+dirty"
	}
	return "development@" + commit
}
