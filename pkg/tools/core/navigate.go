// Package core provides the basic page tools: navigation, snapshots,
// screenshots and closing the tab.
package core

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/genmcp/browser-mcp/pkg/browser"
	serverconfig "github.com/genmcp/browser-mcp/pkg/config/server"
	"github.com/genmcp/browser-mcp/pkg/tools"
)

const (
	NavigateToolName     = "browser_navigate"
	NavigateBackToolName = "browser_navigate_back"
)

func init() {
	tools.Register(navigate)
	tools.Register(navigateBack)
}

var navigate = &tools.Tool{
	Capability: serverconfig.CapabilityCore,
	Schema: tools.Schema{
		Name:        NavigateToolName,
		Title:       "Navigate to a URL",
		Description: "Navigate to a URL",
		InputSchema: &jsonschema.Schema{
			Type: tools.JsonSchemaTypeObject,
			Properties: map[string]*jsonschema.Schema{
				"url": {
					Type:        tools.JsonSchemaTypeString,
					Description: "The URL to navigate to",
				},
			},
			Required: []string{"url"},
		},
		Type: tools.TypeDestructive,
	},
	Handle: func(ctx context.Context, tab *browser.Tab, params map[string]any, response *tools.Response) error {
		url, _ := tools.StringParam(params, "url")

		response.SetIncludeSnapshot()
		response.AddCode(fmt.Sprintf("await page.goto(%s);", quote(url)))

		if err := tab.Page.Navigate(ctx, url); err != nil {
			return fmt.Errorf("failed to navigate to %s: %w", url, err)
		}
		return nil
	},
}

var navigateBack = &tools.Tool{
	Capability: serverconfig.CapabilityCore,
	Schema: tools.Schema{
		Name:        NavigateBackToolName,
		Title:       "Go back",
		Description: "Go back to the previous page",
		Type:        tools.TypeReadOnly,
	},
	Handle: func(ctx context.Context, tab *browser.Tab, params map[string]any, response *tools.Response) error {
		response.SetIncludeSnapshot()
		response.AddCode("await page.goBack();")

		if err := tab.Page.GoBack(ctx); err != nil {
			return fmt.Errorf("failed to go back: %w", err)
		}
		return nil
	},
}
