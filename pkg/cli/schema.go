package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	serverconfig "github.com/genmcp/browser-mcp/pkg/config/server"
)

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringVar(&schemaSourceDir, "source-dir", "", "path to pkg/config/server, to include field documentation from the Go sources")
	schemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "write the schema to this file instead of stdout")
}

var (
	schemaSourceDir string
	schemaOutput    string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the server config file",
	Run:   executeSchemaCmd,
}

func executeSchemaCmd(cobraCmd *cobra.Command, args []string) {
	data, err := generateSchema(schemaSourceDir)
	if err != nil {
		fmt.Printf("failed to generate schema: %s\n", err)
		os.Exit(1)
	}

	if schemaOutput == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(schemaOutput, data, 0644); err != nil {
		fmt.Printf("failed to write schema: %s\n", err)
		os.Exit(1)
	}
}

func generateSchema(sourceDir string) ([]byte, error) {
	reflector := serverconfig.NewSchemaReflector()
	if sourceDir != "" {
		if err := reflector.AddGoComments(serverconfig.ModulePath, sourceDir); err != nil {
			return nil, fmt.Errorf("failed to add Go comments: %w", err)
		}
	}

	schema := reflector.Reflect(&serverconfig.BrowserServerConfigFile{})
	return json.MarshalIndent(schema, "", "  ")
}
