// Package browser owns the browser process and the page handle the tools act on.
//
// Tools receive a Tab whose Page records every action to the configured Tracer,
// except inside CallOnPageNoTrace.
package browser

import (
	"context"
	"time"
)

// Page is a live browser page. Every method blocks until the action completes,
// ctx is cancelled, or the configured action timeout elapses.
type Page interface {
	Navigate(ctx context.Context, url string) error
	GoBack(ctx context.Context) error
	GoForward(ctx context.Context) error
	Reload(ctx context.Context) error

	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Content(ctx context.Context) (string, error)

	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	Type(ctx context.Context, selector, text string) error
	Hover(ctx context.Context, selector string) error
	SelectOption(ctx context.Context, selector string, values []string) error
	TextContent(ctx context.Context, selector string) (string, error)
	InputValue(ctx context.Context, selector string) (string, error)
	IsVisible(ctx context.Context, selector string) (bool, error)
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error

	// Press presses a key or a chord such as "Control+A" on the focused element.
	Press(ctx context.Context, key string) error
	// InsertText types text into the focused element.
	InsertText(ctx context.Context, text string) error

	// Evaluate runs a JavaScript expression or function source in the page and
	// returns its JSON-compatible result. arg is passed to functions when non-nil.
	Evaluate(ctx context.Context, expression string, arg any) (any, error)

	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)
	SetViewportSize(ctx context.Context, width, height int) error

	// AriaSnapshot renders the accessibility tree of the page as YAML.
	AriaSnapshot(ctx context.Context) (string, error)

	Close(ctx context.Context) error
}

// PageSnapshot is the page state reported after a tool runs.
type PageSnapshot struct {
	URL   string
	Title string
	Aria  string
}
