package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/genmcp/browser-mcp/pkg/browser"
)

type image struct {
	mimeType string
	data     []byte
}

// Response collects the output of one tool call and renders it as markdown
// sections for the client.
type Response struct {
	results         []string
	code            []string
	images          []image
	isError         bool
	includeSnapshot bool

	snapshot    *browser.PageSnapshot
	snapshotErr error
}

func NewResponse() *Response {
	return &Response{}
}

// SetIncludeSnapshot asks Finish to capture the page state.
func (r *Response) SetIncludeSnapshot() {
	r.includeSnapshot = true
}

func (r *Response) IncludeSnapshot() bool {
	return r.includeSnapshot
}

// AddCode appends a line to the code echoed back to the caller.
func (r *Response) AddCode(code string) {
	r.code = append(r.code, code)
}

func (r *Response) Code() []string {
	return r.code
}

func (r *Response) AddResult(text string) {
	r.results = append(r.results, text)
}

func (r *Response) Results() []string {
	return r.results
}

// AddError records text as a result and marks the call as failed.
func (r *Response) AddError(text string) {
	r.results = append(r.results, text)
	r.isError = true
}

func (r *Response) IsError() bool {
	return r.isError
}

func (r *Response) AddImage(mimeType string, data []byte) {
	r.images = append(r.images, image{mimeType: mimeType, data: data})
}

// Finish captures the page snapshot when one was requested. A failed capture is
// reported in the page state section and returned.
func (r *Response) Finish(ctx context.Context, tab *browser.Tab) error {
	if !r.includeSnapshot || tab == nil {
		return nil
	}

	snapshot, err := tab.CaptureSnapshot(ctx)
	if err != nil {
		r.snapshotErr = err
		return fmt.Errorf("failed to capture page snapshot: %w", err)
	}
	r.snapshot = snapshot
	return nil
}

// Serialize renders the response:
//
//	### Result
//	<results>
//
//	### Ran Playwright code
//	```js
//	<code>
//	```
//
//	### Page state
//	- Page URL: <url>
//	- Page Title: <title>
//	- Page Snapshot:
//	```yaml
//	<aria snapshot>
//	```
func (r *Response) Serialize() *mcp.CallToolResult {
	var sections []string

	if len(r.results) > 0 {
		sections = append(sections, "### Result\n"+strings.Join(r.results, "\n"))
	}

	if len(r.code) > 0 {
		sections = append(sections, "### Ran Playwright code\n```js\n"+strings.Join(r.code, "\n")+"\n```")
	}

	switch {
	case r.snapshot != nil:
		var b strings.Builder
		b.WriteString("### Page state\n")
		fmt.Fprintf(&b, "- Page URL: %s\n", r.snapshot.URL)
		fmt.Fprintf(&b, "- Page Title: %s\n", r.snapshot.Title)
		b.WriteString("- Page Snapshot:\n```yaml\n")
		b.WriteString(r.snapshot.Aria)
		b.WriteString("\n```")
		sections = append(sections, b.String())
	case r.snapshotErr != nil:
		sections = append(sections, "### Page state\n- Page state unavailable: "+r.snapshotErr.Error())
	}

	content := []mcp.Content{
		&mcp.TextContent{Text: strings.Join(sections, "\n\n")},
	}
	for _, img := range r.images {
		content = append(content, &mcp.ImageContent{MIMEType: img.mimeType, Data: img.data})
	}

	return &mcp.CallToolResult{
		Content: content,
		IsError: r.isError,
	}
}

// TextError is a failed tool result carrying a single message.
func TextError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
		IsError: true,
	}
}
