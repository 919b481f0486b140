package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	goruntime "runtime"

	"github.com/spf13/cobra"

	"github.com/genmcp/browser-mcp/pkg/config"
	"github.com/genmcp/browser-mcp/pkg/runtime"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print the version information as JSON")
}

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the server version and the config schema it understands",
	Args:  cobra.NoArgs,
	Run:   executeVersionCmd,
}

type versionInfo struct {
	Server        string `json:"server"`
	Version       string `json:"version"`
	SchemaVersion string `json:"schemaVersion"`
	GoVersion     string `json:"goVersion"`
	Platform      string `json:"platform"`
}

func currentVersionInfo() versionInfo {
	return versionInfo{
		Server:        runtime.ServerName,
		Version:       cliVersion,
		SchemaVersion: config.SchemaVersion,
		GoVersion:     goruntime.Version(),
		Platform:      goruntime.GOOS + "/" + goruntime.GOARCH,
	}
}

func executeVersionCmd(cobraCmd *cobra.Command, args []string) {
	if err := printVersion(cobraCmd.OutOrStdout(), currentVersionInfo(), versionJSON); err != nil {
		fmt.Printf("failed to print version: %s\n", err)
		os.Exit(1)
	}
}

func printVersion(w io.Writer, info versionInfo, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	_, err := fmt.Fprintf(w, "%s %s (config schema %s, %s %s)\n",
		info.Server, info.Version, info.SchemaVersion, info.GoVersion, info.Platform)
	return err
}
