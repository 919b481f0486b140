package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/genmcp/browser-mcp/pkg/browser"
	serverconfig "github.com/genmcp/browser-mcp/pkg/config/server"
	"github.com/genmcp/browser-mcp/pkg/tools"
)

const (
	SnapshotToolName   = "browser_snapshot"
	ScreenshotToolName = "browser_take_screenshot"
	CloseToolName      = "browser_close"

	pngMimeType = "image/png"
)

func init() {
	tools.Register(snapshot)
	tools.Register(screenshot)
	tools.Register(closeTab)
}

var snapshot = &tools.Tool{
	Capability: serverconfig.CapabilityCore,
	Schema: tools.Schema{
		Name:        SnapshotToolName,
		Title:       "Page snapshot",
		Description: "Capture accessibility snapshot of the current page, this is better than screenshot",
		Type:        tools.TypeReadOnly,
	},
	Handle: func(ctx context.Context, tab *browser.Tab, params map[string]any, response *tools.Response) error {
		response.SetIncludeSnapshot()
		return nil
	},
}

var screenshot = &tools.Tool{
	Capability: serverconfig.CapabilityCore,
	Schema: tools.Schema{
		Name:        ScreenshotToolName,
		Title:       "Take a screenshot",
		Description: "Take a screenshot of the current page. You can't perform actions based on the screenshot, use browser_snapshot for actions.",
		InputSchema: &jsonschema.Schema{
			Type: tools.JsonSchemaTypeObject,
			Properties: map[string]*jsonschema.Schema{
				"fullPage": {
					Type:        tools.JsonSchemaTypeBoolean,
					Description: "When true, takes a screenshot of the full scrollable page, instead of the currently visible viewport.",
				},
			},
		},
		Type: tools.TypeReadOnly,
	},
	Handle: func(ctx context.Context, tab *browser.Tab, params map[string]any, response *tools.Response) error {
		fullPage := tools.BoolParam(params, "fullPage")

		if fullPage {
			response.AddCode("await page.screenshot({ fullPage: true });")
		} else {
			response.AddCode("await page.screenshot();")
		}

		data, err := tab.Page.Screenshot(ctx, fullPage)
		if err != nil {
			return fmt.Errorf("failed to take screenshot: %w", err)
		}

		if fullPage {
			response.AddResult("Took a screenshot of the full page")
		} else {
			response.AddResult("Took a screenshot of the current viewport")
		}
		response.AddImage(pngMimeType, data)
		return nil
	},
}

var closeTab = &tools.Tool{
	Capability: serverconfig.CapabilityCore,
	Schema: tools.Schema{
		Name:        CloseToolName,
		Title:       "Close browser",
		Description: "Close the page",
		Type:        tools.TypeDestructive,
	},
	Handle: func(ctx context.Context, tab *browser.Tab, params map[string]any, response *tools.Response) error {
		response.AddCode("await page.close();")
		if err := tab.Close(ctx); err != nil {
			return fmt.Errorf("failed to close page: %w", err)
		}
		response.AddResult("No open pages available. Use the \"browser_navigate\" tool to navigate to a page first.")
		return nil
	},
}

// quote renders s as a single-quoted JavaScript string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}
