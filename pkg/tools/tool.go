// Package tools defines the browser tools exposed over MCP and the response
// they build.
//
// Tool packages register themselves from init(), the same way invocation types
// do, so the binary only has to import them:
//
//	import _ "github.com/genmcp/browser-mcp/pkg/tools/code"
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"k8s.io/utils/ptr"

	"github.com/genmcp/browser-mcp/pkg/browser"
)

const (
	JsonSchemaTypeObject  = "object"
	JsonSchemaTypeString  = "string"
	JsonSchemaTypeBoolean = "boolean"
)

// Type classifies the effect a tool has on the page.
type Type string

const (
	TypeReadOnly    Type = "readOnly"
	TypeDestructive Type = "destructive"
)

type Schema struct {
	Name        string
	Title       string
	Description string
	InputSchema *jsonschema.Schema
	Type        Type
}

// HandleFunc runs a tool against the current tab, writing its output to response.
// A returned error is reported to the caller as a failed tool call.
type HandleFunc func(ctx context.Context, tab *browser.Tab, params map[string]any, response *Response) error

type Tool struct {
	// Capability gates exposure of the tool, see server.BrowserServerConfig.HasCapability.
	Capability string
	Schema     Schema
	Handle     HandleFunc

	resolved *jsonschema.Resolved
}

func (t *Tool) Name() string {
	return t.Schema.Name
}

// resolve prepares the input schema for validation.
func (t *Tool) resolve() error {
	if t.Schema.InputSchema == nil {
		t.Schema.InputSchema = &jsonschema.Schema{Type: JsonSchemaTypeObject}
	}
	resolved, err := t.Schema.InputSchema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("invalid input schema for tool %s: %w", t.Schema.Name, err)
	}
	t.resolved = resolved
	return nil
}

// ParseParams decodes the raw call arguments and validates them against the input schema.
func (t *Tool) ParseParams(raw json.RawMessage) (map[string]any, error) {
	params := map[string]any{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, fmt.Errorf("invalid json object format: %w", err)
		}
	}

	if t.resolved == nil {
		if err := t.resolve(); err != nil {
			return nil, err
		}
	}
	if err := t.resolved.Validate(params); err != nil {
		return nil, err
	}
	return params, nil
}

// MCPTool describes the tool to MCP clients.
func (t *Tool) MCPTool() *mcp.Tool {
	readOnly := t.Schema.Type == TypeReadOnly
	return &mcp.Tool{
		Name:        t.Schema.Name,
		Title:       t.Schema.Title,
		Description: t.Schema.Description,
		InputSchema: t.Schema.InputSchema,
		Annotations: &mcp.ToolAnnotations{
			Title:           t.Schema.Title, // some clients use the annotation instead of the title field
			ReadOnlyHint:    readOnly,
			DestructiveHint: ptr.To(!readOnly),
			OpenWorldHint:   ptr.To(true),
		},
	}
}

// StringParam returns params[name] when it is a string.
func StringParam(params map[string]any, name string) (string, bool) {
	s, ok := params[name].(string)
	return s, ok
}

// BoolParam returns params[name], or false when it is absent or not a boolean.
func BoolParam(params map[string]any, name string) bool {
	b, _ := params[name].(bool)
	return b
}
