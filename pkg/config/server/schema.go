package server

import (
	"github.com/invopop/jsonschema"
)

// ModulePath is the import path of this package, used to look up Go comments
// when generating the schema from source.
const ModulePath = "github.com/genmcp/browser-mcp/pkg/config/server"

// NewSchemaReflector returns the reflector used to describe server config files.
func NewSchemaReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}
}

// JSONSchema describes the server config file format.
func JSONSchema() *jsonschema.Schema {
	return NewSchemaReflector().Reflect(&BrowserServerConfigFile{})
}
