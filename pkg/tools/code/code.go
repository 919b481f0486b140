// Package code provides browser_playwright_code, which runs caller-supplied
// JavaScript against the current page.
package code

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"github.com/genmcp/browser-mcp/pkg/browser"
	serverconfig "github.com/genmcp/browser-mcp/pkg/config/server"
	"github.com/genmcp/browser-mcp/pkg/observability/logging"
	"github.com/genmcp/browser-mcp/pkg/observability/metrics"
	"github.com/genmcp/browser-mcp/pkg/script"
	"github.com/genmcp/browser-mcp/pkg/tools"
)

const (
	ToolName = "browser_playwright_code"

	executingComment = "// Executing custom Playwright code"
)

const description = `Execute arbitrary Playwright code directly. This allows for advanced automation tasks that are not covered by other tools. The code should be wrapped in an async function. Example: (async () => { await page.goto("https://example.com"); await page.fill("input[name="search"]", "test"); await page.click("button[type="submit"]"); })()`

func init() {
	tools.Register(New(script.Execute))
}

// ExecuteFunc runs code against a page. script.Execute is the production one.
type ExecuteFunc func(ctx context.Context, page browser.Page, code string) script.Outcome

// New builds the tool around execute.
func New(execute ExecuteFunc) *tools.Tool {
	return &tools.Tool{
		Capability: serverconfig.CapabilityCore,
		Schema: tools.Schema{
			Name:        ToolName,
			Title:       "Execute Playwright Code",
			Description: description,
			InputSchema: &jsonschema.Schema{
				Type: tools.JsonSchemaTypeObject,
				Properties: map[string]*jsonschema.Schema{
					"code": {
						Type:        tools.JsonSchemaTypeString,
						Description: "Playwright code to execute. The code should be a valid JavaScript function that takes a page object as parameter.",
					},
				},
				Required: []string{"code"},
			},
			Type: tools.TypeDestructive,
		},
		Handle: handler(execute),
	}
}

func handler(execute ExecuteFunc) tools.HandleFunc {
	return func(ctx context.Context, tab *browser.Tab, params map[string]any, response *tools.Response) error {
		code, ok := tools.StringParam(params, "code")
		if !ok {
			return fmt.Errorf("code must be a string")
		}

		response.SetIncludeSnapshot()
		response.AddCode(executingComment)
		response.AddCode(code)

		out := execute(ctx, tab.Page, code)
		metrics.RecordScriptExecution(outcomeLabel(out))

		if out.Failed() {
			logging.BaseFromContext(ctx).Debug("Code execution failed",
				zap.String("tab_id", tab.ID),
				zap.String("phase", string(out.Err.Phase)),
				zap.String("error", out.Err.Message))
			response.AddError(out.Message())
			return nil
		}

		response.AddResult(out.Result)
		return nil
	}
}

func outcomeLabel(out script.Outcome) string {
	switch {
	case !out.Failed():
		return metrics.OutcomeSuccess
	case out.Err.Phase == script.PhaseCompile:
		return metrics.OutcomeCompileError
	default:
		return metrics.OutcomeExecuteError
	}
}
