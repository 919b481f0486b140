// Package browsertest provides an in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/genmcp/browser-mcp/pkg/browser"
)

// Element is a node on a fake page.
type Element struct {
	Text    string
	Value   string
	Hidden  bool
	Options []string
}

// Document is what a fake URL serves.
type Document struct {
	Title    string
	HTML     string
	Aria     string
	Elements map[string]*Element
}

// Call is one recorded page method call.
type Call struct {
	Method string
	Args   []any
}

// Page is a browser.Page that serves Documents from memory and records every call.
// Unknown URLs load an empty document titled after the URL.
type Page struct {
	mu sync.Mutex

	Documents map[string]*Document
	// Evaluator answers Evaluate calls; Evaluate fails when it is nil.
	Evaluator func(expression string, arg any) (any, error)
	// Screenshot bytes returned by Screenshot.
	PNG []byte

	history  []string
	position int
	current  *Document
	focused  string
	width    int
	height   int
	closed   bool
	calls    []Call
}

var _ browser.Page = &Page{}

// NewPage returns a fake page on about:blank.
func NewPage(docs map[string]*Document) *Page {
	if docs == nil {
		docs = map[string]*Document{}
	}
	p := &Page{
		Documents: docs,
		PNG:       []byte{0x89, 'P', 'N', 'G'},
		history:   []string{"about:blank"},
	}
	p.load("about:blank")
	return p
}

// Calls returns the recorded calls in order.
func (p *Page) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// Methods returns the names of the recorded calls in order.
func (p *Page) Methods() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	methods := make([]string, len(p.calls))
	for i, c := range p.calls {
		methods[i] = c.Method
	}
	return methods
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Viewport returns the last size set with SetViewportSize.
func (p *Page) Viewport() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

// begin records the call and fails if the page is closed or ctx is done.
// It must be called with p.mu held.
func (p *Page) begin(ctx context.Context, method string, args ...any) error {
	p.calls = append(p.calls, Call{Method: method, Args: args})
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.closed {
		return errors.New("target page has been closed")
	}
	return nil
}

func (p *Page) load(url string) {
	doc, ok := p.Documents[url]
	if !ok {
		doc = &Document{Title: url, Elements: map[string]*Element{}}
		p.Documents[url] = doc
	}
	if doc.Elements == nil {
		doc.Elements = map[string]*Element{}
	}
	p.current = doc
	p.focused = ""
}

func (p *Page) element(selector string) (*Element, error) {
	el, ok := p.current.Elements[selector]
	if !ok {
		return nil, fmt.Errorf("failed to find element %q", selector)
	}
	return el, nil
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "Navigate", url); err != nil {
		return err
	}
	p.history = append(p.history[:p.position+1], url)
	p.position = len(p.history) - 1
	p.load(url)
	return nil
}

func (p *Page) GoBack(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "GoBack"); err != nil {
		return err
	}
	if p.position > 0 {
		p.position--
		p.load(p.history[p.position])
	}
	return nil
}

func (p *Page) GoForward(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "GoForward"); err != nil {
		return err
	}
	if p.position < len(p.history)-1 {
		p.position++
		p.load(p.history[p.position])
	}
	return nil
}

func (p *Page) Reload(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "Reload"); err != nil {
		return err
	}
	p.load(p.history[p.position])
	return nil
}

func (p *Page) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "URL"); err != nil {
		return "", err
	}
	return p.history[p.position], nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "Title"); err != nil {
		return "", err
	}
	return p.current.Title, nil
}

func (p *Page) Content(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "Content"); err != nil {
		return "", err
	}
	return p.current.HTML, nil
}

func (p *Page) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "Click", selector); err != nil {
		return err
	}
	if _, err := p.element(selector); err != nil {
		return err
	}
	p.focused = selector
	return nil
}

func (p *Page) Fill(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "Fill", selector, value); err != nil {
		return err
	}
	el, err := p.element(selector)
	if err != nil {
		return err
	}
	el.Value = value
	p.focused = selector
	return nil
}

func (p *Page) Type(ctx context.Context, selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "Type", selector, text); err != nil {
		return err
	}
	el, err := p.element(selector)
	if err != nil {
		return err
	}
	el.Value += text
	p.focused = selector
	return nil
}

func (p *Page) Hover(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "Hover", selector); err != nil {
		return err
	}
	_, err := p.element(selector)
	return err
}

func (p *Page) SelectOption(ctx context.Context, selector string, values []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "SelectOption", selector, values); err != nil {
		return err
	}
	el, err := p.element(selector)
	if err != nil {
		return err
	}
	for _, v := range values {
		found := false
		for _, o := range el.Options {
			if o == v {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("no option matching %q in %q", v, selector)
		}
	}
	el.Value = strings.Join(values, ",")
	return nil
}

func (p *Page) TextContent(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "TextContent", selector); err != nil {
		return "", err
	}
	el, err := p.element(selector)
	if err != nil {
		return "", err
	}
	return el.Text, nil
}

func (p *Page) InputValue(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "InputValue", selector); err != nil {
		return "", err
	}
	el, err := p.element(selector)
	if err != nil {
		return "", err
	}
	return el.Value, nil
}

func (p *Page) IsVisible(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "IsVisible", selector); err != nil {
		return false, err
	}
	el, ok := p.current.Elements[selector]
	return ok && !el.Hidden, nil
}

func (p *Page) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "WaitForSelector", selector, timeout); err != nil {
		return err
	}
	el, err := p.element(selector)
	if err != nil {
		return fmt.Errorf("timeout waiting for %q: %w", selector, err)
	}
	if el.Hidden {
		return fmt.Errorf("element %q never became visible", selector)
	}
	return nil
}

func (p *Page) Press(ctx context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.begin(ctx, "Press", key)
}

func (p *Page) InsertText(ctx context.Context, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "InsertText", text); err != nil {
		return err
	}
	if el, ok := p.current.Elements[p.focused]; ok {
		el.Value += text
	}
	return nil
}

func (p *Page) Evaluate(ctx context.Context, expression string, arg any) (any, error) {
	p.mu.Lock()
	if err := p.begin(ctx, "Evaluate", expression, arg); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	eval := p.Evaluator
	p.mu.Unlock()

	if eval == nil {
		return nil, errors.New("evaluation failed: no evaluator")
	}
	return eval(expression, arg)
}

func (p *Page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "Screenshot", fullPage); err != nil {
		return nil, err
	}
	return p.PNG, nil
}

func (p *Page) SetViewportSize(ctx context.Context, width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "SetViewportSize", width, height); err != nil {
		return err
	}
	p.width, p.height = width, height
	return nil
}

func (p *Page) AriaSnapshot(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(ctx, "AriaSnapshot"); err != nil {
		return "", err
	}
	return p.current.Aria, nil
}

func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Method: "Close"})
	p.closed = true
	return nil
}
