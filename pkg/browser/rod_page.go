package browser

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// rodPage drives a Chrome tab over the DevTools protocol.
type rodPage struct {
	page    *rod.Page
	timeout time.Duration
}

var _ Page = &rodPage{}

func newRodPage(page *rod.Page, timeout time.Duration) *rodPage {
	return &rodPage{page: page, timeout: timeout}
}

// bind returns a page clone bound to ctx and the action timeout, and the func releasing it.
func (p *rodPage) bind(ctx context.Context) (*rod.Page, func()) {
	pg := p.page.Context(ctx).Timeout(p.timeout)
	return pg, func() { pg.CancelTimeout() }
}

func (p *rodPage) element(ctx context.Context, selector string) (*rod.Element, func(), error) {
	pg, release := p.bind(ctx)
	el, err := pg.Element(selector)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to find element %q: %w", selector, err)
	}
	return el, release, nil
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pg, release := p.bind(ctx)
	defer release()

	if err := pg.Navigate(url); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return waitLoad(pg)
}

func (p *rodPage) GoBack(ctx context.Context) error {
	pg, release := p.bind(ctx)
	defer release()

	if err := pg.NavigateBack(); err != nil {
		return fmt.Errorf("failed to navigate back: %w", err)
	}
	return waitLoad(pg)
}

func (p *rodPage) GoForward(ctx context.Context) error {
	pg, release := p.bind(ctx)
	defer release()

	if err := pg.NavigateForward(); err != nil {
		return fmt.Errorf("failed to navigate forward: %w", err)
	}
	return waitLoad(pg)
}

func (p *rodPage) Reload(ctx context.Context) error {
	pg, release := p.bind(ctx)
	defer release()

	if err := pg.Reload(); err != nil {
		return fmt.Errorf("failed to reload: %w", err)
	}
	return waitLoad(pg)
}

func waitLoad(pg *rod.Page) error {
	if err := pg.WaitLoad(); err != nil {
		return fmt.Errorf("page did not finish loading: %w", err)
	}
	return nil
}

func (p *rodPage) URL(ctx context.Context) (string, error) {
	pg, release := p.bind(ctx)
	defer release()

	info, err := pg.Info()
	if err != nil {
		return "", fmt.Errorf("failed to get page info: %w", err)
	}
	return info.URL, nil
}

func (p *rodPage) Title(ctx context.Context) (string, error) {
	pg, release := p.bind(ctx)
	defer release()

	info, err := pg.Info()
	if err != nil {
		return "", fmt.Errorf("failed to get page info: %w", err)
	}
	return info.Title, nil
}

func (p *rodPage) Content(ctx context.Context) (string, error) {
	pg, release := p.bind(ctx)
	defer release()

	return pg.HTML()
}

func (p *rodPage) Click(ctx context.Context, selector string) error {
	el, release, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	defer release()

	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *rodPage) Fill(ctx context.Context, selector, value string) error {
	el, release, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	defer release()

	if value == "" {
		_, err := el.Eval(`() => { this.value = ''; this.dispatchEvent(new Event('input', { bubbles: true })) }`)
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("failed to clear %q: %w", selector, err)
	}
	return el.Input(value)
}

func (p *rodPage) Type(ctx context.Context, selector, text string) error {
	el, release, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	defer release()

	return el.Input(text)
}

func (p *rodPage) Hover(ctx context.Context, selector string) error {
	el, release, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	defer release()

	return el.Hover()
}

func (p *rodPage) SelectOption(ctx context.Context, selector string, values []string) error {
	el, release, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	defer release()

	// options match by label first, then by value
	if err := el.Select(values, true, rod.SelectorTypeText); err == nil {
		return nil
	}
	byValue := make([]string, len(values))
	for i, v := range values {
		byValue[i] = fmt.Sprintf(`[value=%q]`, v)
	}
	if err := el.Select(byValue, true, rod.SelectorTypeCSSSector); err != nil {
		return fmt.Errorf("no option matching %v in %q: %w", values, selector, err)
	}
	return nil
}

func (p *rodPage) TextContent(ctx context.Context, selector string) (string, error) {
	el, release, err := p.element(ctx, selector)
	if err != nil {
		return "", err
	}
	defer release()

	return el.Text()
}

func (p *rodPage) InputValue(ctx context.Context, selector string) (string, error) {
	el, release, err := p.element(ctx, selector)
	if err != nil {
		return "", err
	}
	defer release()

	value, err := el.Property("value")
	if err != nil {
		return "", fmt.Errorf("failed to read value of %q: %w", selector, err)
	}
	if value.Nil() {
		return "", fmt.Errorf("element %q has no value", selector)
	}
	return value.String(), nil
}

func (p *rodPage) IsVisible(ctx context.Context, selector string) (bool, error) {
	pg, release := p.bind(ctx)
	defer release()

	has, el, err := pg.Has(selector)
	if err != nil || !has {
		return false, err
	}
	return el.Visible()
}

func (p *rodPage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.timeout
	}
	pg := p.page.Context(ctx).Timeout(timeout)
	defer pg.CancelTimeout()

	el, err := pg.Element(selector)
	if err != nil {
		return fmt.Errorf("timeout waiting for %q: %w", selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("element %q never became visible: %w", selector, err)
	}
	return nil
}

var namedKeys = map[string]input.Key{
	"Enter":      input.Enter,
	"Tab":        input.Tab,
	"Escape":     input.Escape,
	"Backspace":  input.Backspace,
	"Delete":     input.Delete,
	"ArrowUp":    input.ArrowUp,
	"ArrowDown":  input.ArrowDown,
	"ArrowLeft":  input.ArrowLeft,
	"ArrowRight": input.ArrowRight,
	"Home":       input.Home,
	"End":        input.End,
	"PageUp":     input.PageUp,
	"PageDown":   input.PageDown,
	"Space":      input.Space,
	"Shift":      input.ShiftLeft,
	"Control":    input.ControlLeft,
	"Alt":        input.AltLeft,
	"Meta":       input.MetaLeft,
}

// parseKey maps a key name ("Enter", "a", "Control") to a rod key.
func parseKey(name string) (input.Key, error) {
	if k, ok := namedKeys[name]; ok {
		return k, nil
	}
	if len(name) == 1 && name[0] >= ' ' && name[0] <= '~' {
		return input.Key(rune(name[0])), nil
	}
	return 0, fmt.Errorf("unknown key %q", name)
}

func (p *rodPage) Press(ctx context.Context, key string) error {
	parts := strings.Split(key, "+")
	keys := make([]input.Key, 0, len(parts))
	for _, part := range parts {
		k, err := parseKey(part)
		if err != nil {
			return err
		}
		keys = append(keys, k)
	}

	pg, release := p.bind(ctx)
	defer release()

	if len(keys) == 1 {
		return pg.Keyboard.Press(keys[0])
	}
	modifiers, last := keys[:len(keys)-1], keys[len(keys)-1]
	return pg.KeyActions().Press(modifiers...).Type(last).Do()
}

func (p *rodPage) InsertText(ctx context.Context, text string) error {
	pg, release := p.bind(ctx)
	defer release()

	return pg.InsertText(text)
}

func (p *rodPage) Evaluate(ctx context.Context, expression string, arg any) (any, error) {
	pg, release := p.bind(ctx)
	defer release()

	var args []any
	if arg != nil {
		args = append(args, arg)
	}
	res, err := pg.Eval(pageFunction(expression), args...)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}
	if res == nil || res.Value.Nil() {
		return nil, nil
	}
	return res.Value.Val(), nil
}

// pageFunction returns source rod can apply in the page: function sources are
// kept, anything else is treated as an expression and wrapped in an arrow function.
func pageFunction(source string) string {
	source = strings.TrimRight(strings.TrimSpace(source), "; \t\n")
	if isFunctionSource(source) {
		return source
	}
	return "() => (" + source + "\n)"
}

var arrowPrefix = regexp.MustCompile(`^(async\s+)?(\w+|\([^()]*\))\s*=>`)

func isFunctionSource(source string) bool {
	prg, err := goja.Parse("", "("+source+"\n)")
	if err != nil {
		// newer syntax than the parser knows, fall back to the shape of the source
		return strings.HasPrefix(source, "function") ||
			strings.HasPrefix(source, "async function") ||
			arrowPrefix.MatchString(source)
	}
	if len(prg.Body) != 1 {
		return false
	}
	stmt, ok := prg.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return false
	}
	switch stmt.Expression.(type) {
	case *ast.FunctionLiteral, *ast.ArrowFunctionLiteral:
		return true
	default:
		return false
	}
}

func (p *rodPage) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	pg, release := p.bind(ctx)
	defer release()

	return pg.Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (p *rodPage) SetViewportSize(ctx context.Context, width, height int) error {
	pg, release := p.bind(ctx)
	defer release()

	return pg.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
}

func (p *rodPage) AriaSnapshot(ctx context.Context) (string, error) {
	pg, release := p.bind(ctx)
	defer release()

	tree, err := proto.AccessibilityGetFullAXTree{}.Call(pg)
	if err != nil {
		return "", fmt.Errorf("failed to get accessibility tree: %w", err)
	}

	nodes := make([]axNode, 0, len(tree.Nodes))
	for _, n := range tree.Nodes {
		node := axNode{
			ID:       string(n.NodeID),
			ParentID: string(n.ParentID),
			Ignored:  n.Ignored,
		}
		if n.Role != nil {
			node.Role = n.Role.Value.String()
		}
		if n.Name != nil {
			node.Name = n.Name.Value.String()
		}
		for _, id := range n.ChildIDs {
			node.Children = append(node.Children, string(id))
		}
		nodes = append(nodes, node)
	}

	return formatAXTree(nodes), nil
}

func (p *rodPage) Close(ctx context.Context) error {
	return p.page.Context(ctx).Close()
}
