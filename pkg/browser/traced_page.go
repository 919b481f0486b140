package browser

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// tracedPage records every action of the wrapped page unless the call's context
// has tracing suppressed.
type tracedPage struct {
	page   Page
	tabID  string
	tracer Tracer
}

var _ Page = &tracedPage{}

// NewTracedPage wraps page so its actions are recorded to tracer.
func NewTracedPage(page Page, tabID string, tracer Tracer) Page {
	if tracer == nil {
		tracer = NopTracer()
	}
	return &tracedPage{page: page, tabID: tabID, tracer: tracer}
}

func (t *tracedPage) record(ctx context.Context, action string, params map[string]any, fn func() error) error {
	if TracingSuppressed(ctx) {
		return fn()
	}

	start := time.Now()
	err := fn()

	event := TraceEvent{
		ID:        uuid.NewString(),
		TabID:     t.tabID,
		Action:    action,
		Params:    params,
		StartedAt: start,
		Duration:  time.Since(start),
	}
	if err != nil {
		event.Error = err.Error()
	}
	t.tracer.Record(event)

	return err
}

func (t *tracedPage) Navigate(ctx context.Context, url string) error {
	return t.record(ctx, "navigate", map[string]any{"url": url}, func() error {
		return t.page.Navigate(ctx, url)
	})
}

func (t *tracedPage) GoBack(ctx context.Context) error {
	return t.record(ctx, "goBack", nil, func() error { return t.page.GoBack(ctx) })
}

func (t *tracedPage) GoForward(ctx context.Context) error {
	return t.record(ctx, "goForward", nil, func() error { return t.page.GoForward(ctx) })
}

func (t *tracedPage) Reload(ctx context.Context) error {
	return t.record(ctx, "reload", nil, func() error { return t.page.Reload(ctx) })
}

func (t *tracedPage) URL(ctx context.Context) (url string, err error) {
	err = t.record(ctx, "url", nil, func() error {
		url, err = t.page.URL(ctx)
		return err
	})
	return url, err
}

func (t *tracedPage) Title(ctx context.Context) (title string, err error) {
	err = t.record(ctx, "title", nil, func() error {
		title, err = t.page.Title(ctx)
		return err
	})
	return title, err
}

func (t *tracedPage) Content(ctx context.Context) (html string, err error) {
	err = t.record(ctx, "content", nil, func() error {
		html, err = t.page.Content(ctx)
		return err
	})
	return html, err
}

func (t *tracedPage) Click(ctx context.Context, selector string) error {
	return t.record(ctx, "click", map[string]any{"selector": selector}, func() error {
		return t.page.Click(ctx, selector)
	})
}

func (t *tracedPage) Fill(ctx context.Context, selector, value string) error {
	return t.record(ctx, "fill", map[string]any{"selector": selector, "value": value}, func() error {
		return t.page.Fill(ctx, selector, value)
	})
}

func (t *tracedPage) Type(ctx context.Context, selector, text string) error {
	return t.record(ctx, "type", map[string]any{"selector": selector, "text": text}, func() error {
		return t.page.Type(ctx, selector, text)
	})
}

func (t *tracedPage) Hover(ctx context.Context, selector string) error {
	return t.record(ctx, "hover", map[string]any{"selector": selector}, func() error {
		return t.page.Hover(ctx, selector)
	})
}

func (t *tracedPage) SelectOption(ctx context.Context, selector string, values []string) error {
	return t.record(ctx, "selectOption", map[string]any{"selector": selector, "values": values}, func() error {
		return t.page.SelectOption(ctx, selector, values)
	})
}

func (t *tracedPage) TextContent(ctx context.Context, selector string) (text string, err error) {
	err = t.record(ctx, "textContent", map[string]any{"selector": selector}, func() error {
		text, err = t.page.TextContent(ctx, selector)
		return err
	})
	return text, err
}

func (t *tracedPage) InputValue(ctx context.Context, selector string) (value string, err error) {
	err = t.record(ctx, "inputValue", map[string]any{"selector": selector}, func() error {
		value, err = t.page.InputValue(ctx, selector)
		return err
	})
	return value, err
}

func (t *tracedPage) IsVisible(ctx context.Context, selector string) (visible bool, err error) {
	err = t.record(ctx, "isVisible", map[string]any{"selector": selector}, func() error {
		visible, err = t.page.IsVisible(ctx, selector)
		return err
	})
	return visible, err
}

func (t *tracedPage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	params := map[string]any{"selector": selector, "timeout": timeout.String()}
	return t.record(ctx, "waitForSelector", params, func() error {
		return t.page.WaitForSelector(ctx, selector, timeout)
	})
}

func (t *tracedPage) Press(ctx context.Context, key string) error {
	return t.record(ctx, "press", map[string]any{"key": key}, func() error {
		return t.page.Press(ctx, key)
	})
}

func (t *tracedPage) InsertText(ctx context.Context, text string) error {
	return t.record(ctx, "insertText", map[string]any{"text": text}, func() error {
		return t.page.InsertText(ctx, text)
	})
}

func (t *tracedPage) Evaluate(ctx context.Context, expression string, arg any) (result any, err error) {
	err = t.record(ctx, "evaluate", map[string]any{"expression": expression}, func() error {
		result, err = t.page.Evaluate(ctx, expression, arg)
		return err
	})
	return result, err
}

func (t *tracedPage) Screenshot(ctx context.Context, fullPage bool) (data []byte, err error) {
	err = t.record(ctx, "screenshot", map[string]any{"fullPage": fullPage}, func() error {
		data, err = t.page.Screenshot(ctx, fullPage)
		return err
	})
	return data, err
}

func (t *tracedPage) SetViewportSize(ctx context.Context, width, height int) error {
	return t.record(ctx, "setViewportSize", map[string]any{"width": width, "height": height}, func() error {
		return t.page.SetViewportSize(ctx, width, height)
	})
}

func (t *tracedPage) AriaSnapshot(ctx context.Context) (snapshot string, err error) {
	err = t.record(ctx, "ariaSnapshot", nil, func() error {
		snapshot, err = t.page.AriaSnapshot(ctx)
		return err
	})
	return snapshot, err
}

func (t *tracedPage) Close(ctx context.Context) error {
	return t.record(ctx, "close", nil, func() error { return t.page.Close(ctx) })
}
