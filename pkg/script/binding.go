package script

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/genmcp/browser-mcp/pkg/browser"
)

// pageBinding exposes a browser.Page to scripts with a Playwright-like surface.
// Every method returns a promise; page errors reject it with a catchable Error.
type pageBinding struct {
	ctx  context.Context
	vm   *goja.Runtime
	page browser.Page
}

func newPageBinding(ctx context.Context, vm *goja.Runtime, page browser.Page) (*goja.Object, error) {
	b := &pageBinding{ctx: ctx, vm: vm, page: page}

	obj := vm.NewObject()
	methods := map[string]func(goja.FunctionCall) goja.Value{
		"goto":            b.gotoURL,
		"goBack":          b.noArgs(b.page.GoBack),
		"goForward":       b.noArgs(b.page.GoForward),
		"reload":          b.noArgs(b.page.Reload),
		"url":             b.stringResult(b.page.URL),
		"title":           b.stringResult(b.page.Title),
		"content":         b.stringResult(b.page.Content),
		"click":           b.selectorAction(b.page.Click),
		"hover":           b.selectorAction(b.page.Hover),
		"fill":            b.fill,
		"type":            b.typeText,
		"press":           b.press,
		"selectOption":    b.selectOption,
		"textContent":     b.textContent,
		"inputValue":      b.inputValue,
		"isVisible":       b.isVisible,
		"waitForSelector": b.waitForSelector,
		"waitForTimeout":  b.waitForTimeout,
		"evaluate":        b.evaluate,
		"screenshot":      b.screenshot,
		"setViewportSize": b.setViewportSize,
	}
	for name, fn := range methods {
		if err := obj.Set(name, fn); err != nil {
			return nil, fmt.Errorf("failed to bind page.%s: %w", name, err)
		}
	}

	keyboard := vm.NewObject()
	if err := keyboard.Set("press", b.press); err != nil {
		return nil, err
	}
	if err := keyboard.Set("type", b.keyboardType); err != nil {
		return nil, err
	}
	if err := obj.Set("keyboard", keyboard); err != nil {
		return nil, err
	}

	return obj, nil
}

// settled runs fn now and returns a promise already resolved with its result
// or rejected with its error.
func (b *pageBinding) settled(fn func() (any, error)) goja.Value {
	promise, resolve, reject := b.vm.NewPromise()
	v, err := fn()
	if err != nil {
		reject(b.vm.NewGoError(err))
	} else if value, err := b.toJS(v); err != nil {
		reject(b.vm.NewGoError(err))
	} else {
		resolve(value)
	}
	return b.vm.ToValue(promise)
}

// toJS converts a Go result to a native script value. Composite values go
// through JSON so scripts see plain arrays and objects.
func (b *pageBinding) toJS(v any) (goja.Value, error) {
	switch v.(type) {
	case nil:
		return goja.Undefined(), nil
	case map[string]any, []any, []string:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("result is not serializable: %w", err)
		}
		parse, ok := goja.AssertFunction(b.vm.Get("JSON").ToObject(b.vm).Get("parse"))
		if !ok {
			return nil, fmt.Errorf("JSON.parse is not available")
		}
		return parse(goja.Undefined(), b.vm.ToValue(string(data)))
	default:
		return b.vm.ToValue(v), nil
	}
}

// stringArg returns argument i as a string, throwing a TypeError when it is missing.
func (b *pageBinding) stringArg(call goja.FunctionCall, i int, name string) string {
	arg := call.Argument(i)
	if goja.IsUndefined(arg) || goja.IsNull(arg) {
		panic(b.vm.NewTypeError("%s is required", name))
	}
	return arg.String()
}

// optionsArg returns argument i as a plain object map, or nil.
func optionsArg(call goja.FunctionCall, i int) map[string]any {
	arg := call.Argument(i)
	if goja.IsUndefined(arg) || goja.IsNull(arg) {
		return nil
	}
	opts, _ := arg.Export().(map[string]any)
	return opts
}

func numberOption(opts map[string]any, key string) (float64, bool) {
	switch n := opts[key].(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func (b *pageBinding) noArgs(action func(context.Context) error) func(goja.FunctionCall) goja.Value {
	return func(goja.FunctionCall) goja.Value {
		return b.settled(func() (any, error) {
			return nil, action(b.ctx)
		})
	}
}

func (b *pageBinding) stringResult(getter func(context.Context) (string, error)) func(goja.FunctionCall) goja.Value {
	return func(goja.FunctionCall) goja.Value {
		return b.settled(func() (any, error) {
			return getter(b.ctx)
		})
	}
}

func (b *pageBinding) selectorAction(action func(context.Context, string) error) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		selector := b.stringArg(call, 0, "selector")
		return b.settled(func() (any, error) {
			return nil, action(b.ctx, selector)
		})
	}
}

func (b *pageBinding) gotoURL(call goja.FunctionCall) goja.Value {
	url := b.stringArg(call, 0, "url")
	return b.settled(func() (any, error) {
		return nil, b.page.Navigate(b.ctx, url)
	})
}

func (b *pageBinding) fill(call goja.FunctionCall) goja.Value {
	selector := b.stringArg(call, 0, "selector")
	value := b.stringArg(call, 1, "value")
	return b.settled(func() (any, error) {
		return nil, b.page.Fill(b.ctx, selector, value)
	})
}

func (b *pageBinding) typeText(call goja.FunctionCall) goja.Value {
	selector := b.stringArg(call, 0, "selector")
	text := b.stringArg(call, 1, "text")
	return b.settled(func() (any, error) {
		return nil, b.page.Type(b.ctx, selector, text)
	})
}

func (b *pageBinding) press(call goja.FunctionCall) goja.Value {
	// page.press(selector, key) focuses the element first; keyboard.press(key) does not
	if len(call.Arguments) >= 2 {
		selector := b.stringArg(call, 0, "selector")
		key := b.stringArg(call, 1, "key")
		return b.settled(func() (any, error) {
			if err := b.page.Click(b.ctx, selector); err != nil {
				return nil, err
			}
			return nil, b.page.Press(b.ctx, key)
		})
	}

	key := b.stringArg(call, 0, "key")
	return b.settled(func() (any, error) {
		return nil, b.page.Press(b.ctx, key)
	})
}

func (b *pageBinding) keyboardType(call goja.FunctionCall) goja.Value {
	text := b.stringArg(call, 0, "text")
	return b.settled(func() (any, error) {
		return nil, b.page.InsertText(b.ctx, text)
	})
}

func (b *pageBinding) selectOption(call goja.FunctionCall) goja.Value {
	selector := b.stringArg(call, 0, "selector")
	values, err := optionValues(call.Argument(1).Export())
	if err != nil {
		panic(b.vm.NewTypeError("%s", err.Error()))
	}
	return b.settled(func() (any, error) {
		if err := b.page.SelectOption(b.ctx, selector, values); err != nil {
			return nil, err
		}
		return values, nil
	})
}

// optionValues accepts a string, {value} or {label}, or an array of those.
func optionValues(v any) ([]string, error) {
	switch val := v.(type) {
	case string:
		return []string{val}, nil
	case map[string]any:
		for _, key := range []string{"value", "label"} {
			if s, ok := val[key].(string); ok {
				return []string{s}, nil
			}
		}
		return nil, fmt.Errorf("option must have a value or label")
	case []any:
		var values []string
		for _, item := range val {
			vs, err := optionValues(item)
			if err != nil {
				return nil, err
			}
			values = append(values, vs...)
		}
		return values, nil
	default:
		return nil, fmt.Errorf("values must be a string or an array of strings")
	}
}

func (b *pageBinding) textContent(call goja.FunctionCall) goja.Value {
	selector := b.stringArg(call, 0, "selector")
	return b.settled(func() (any, error) {
		return b.page.TextContent(b.ctx, selector)
	})
}

func (b *pageBinding) inputValue(call goja.FunctionCall) goja.Value {
	selector := b.stringArg(call, 0, "selector")
	return b.settled(func() (any, error) {
		return b.page.InputValue(b.ctx, selector)
	})
}

func (b *pageBinding) isVisible(call goja.FunctionCall) goja.Value {
	selector := b.stringArg(call, 0, "selector")
	return b.settled(func() (any, error) {
		return b.page.IsVisible(b.ctx, selector)
	})
}

func (b *pageBinding) waitForSelector(call goja.FunctionCall) goja.Value {
	selector := b.stringArg(call, 0, "selector")
	var timeout time.Duration
	if ms, ok := numberOption(optionsArg(call, 1), "timeout"); ok {
		timeout = time.Duration(ms * float64(time.Millisecond))
	}
	return b.settled(func() (any, error) {
		return nil, b.page.WaitForSelector(b.ctx, selector, timeout)
	})
}

func (b *pageBinding) waitForTimeout(call goja.FunctionCall) goja.Value {
	ms := call.Argument(0).ToFloat()
	return b.settled(func() (any, error) {
		timer := time.NewTimer(time.Duration(ms * float64(time.Millisecond)))
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil, nil
		case <-b.ctx.Done():
			return nil, b.ctx.Err()
		}
	})
}

// evaluate accepts a function, whose source runs in the page, or an expression string.
func (b *pageBinding) evaluate(call goja.FunctionCall) goja.Value {
	expression := b.stringArg(call, 0, "pageFunction")
	var arg any
	if a := call.Argument(1); !goja.IsUndefined(a) {
		arg = a.Export()
	}
	return b.settled(func() (any, error) {
		return b.page.Evaluate(b.ctx, expression, arg)
	})
}

func (b *pageBinding) screenshot(call goja.FunctionCall) goja.Value {
	fullPage, _ := optionsArg(call, 0)["fullPage"].(bool)
	return b.settled(func() (any, error) {
		data, err := b.page.Screenshot(b.ctx, fullPage)
		if err != nil {
			return nil, err
		}
		return base64.StdEncoding.EncodeToString(data), nil
	})
}

func (b *pageBinding) setViewportSize(call goja.FunctionCall) goja.Value {
	opts := optionsArg(call, 0)
	width, okW := numberOption(opts, "width")
	height, okH := numberOption(opts, "height")
	if !okW || !okH {
		panic(b.vm.NewTypeError("setViewportSize requires {width, height}"))
	}
	return b.settled(func() (any, error) {
		return nil, b.page.SetViewportSize(b.ctx, int(width), int(height))
	})
}
