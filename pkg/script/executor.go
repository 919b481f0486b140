// Package script runs caller-supplied JavaScript against a browser page.
//
// The code is the body of an async function taking a single page parameter:
//
//	await page.goto('https://example.com');
//	return await page.title();
//
// It runs in an embedded interpreter with no access to the host beyond the page
// binding and console. The returned value is reported as pretty-printed JSON.
package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"
	"go.uber.org/zap"

	"github.com/genmcp/browser-mcp/pkg/browser"
	"github.com/genmcp/browser-mcp/pkg/observability/logging"
)

const (
	undefinedResult = "undefined"

	functionPrefix = "(async function (page) {\n"
	functionSuffix = "\n})"
)

// Execute runs code with tracing suppressed and returns exactly one Outcome.
// Every call uses a fresh runtime, so executions never share script state.
// Cancelling ctx interrupts the script.
func Execute(ctx context.Context, page browser.Page, code string) (out Outcome) {
	logger := logging.BaseFromContext(ctx).Named("script")

	defer func() {
		if r := recover(); r != nil {
			logger.Error("script execution panicked", zap.Any("panic", r))
			out = failure(PhaseExecute, fmt.Sprint(r))
		}
	}()

	program, err := compile(code)
	if err != nil {
		return failure(PhaseCompile, err.Error())
	}

	vm := goja.New()
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	fnValue, err := vm.RunProgram(program)
	if err != nil {
		return failure(PhaseCompile, errorMessage(err))
	}
	fn, ok := goja.AssertFunction(fnValue)
	if !ok {
		return failure(PhaseCompile, "code did not compile to a function")
	}

	out, _ = browser.CallOnPageNoTrace(ctx, page, func(ctx context.Context, page browser.Page) (Outcome, error) {
		return call(ctx, vm, fn, page), nil
	})
	return out
}

// compile wraps code in the async function and rejects bodies that close the
// function early, which would otherwise still parse as some other program.
func compile(code string) (*goja.Program, error) {
	src := functionPrefix + code + functionSuffix

	prg, err := goja.Parse("", src)
	if err != nil {
		return nil, err
	}
	if !isWholeBody(prg, len(code)) {
		return nil, errBodyEscapes
	}
	return goja.CompileAST(prg, false)
}

var errBodyEscapes = errors.New("SyntaxError: Unexpected token '}' closes the function body")

// isWholeBody reports whether prg is exactly the wrapper function, with its
// braces enclosing all codeLen bytes of code.
func isWholeBody(prg *ast.Program, codeLen int) bool {
	if len(prg.Body) != 1 {
		return false
	}
	stmt, ok := prg.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return false
	}
	fn, ok := stmt.Expression.(*ast.FunctionLiteral)
	if !ok || fn.Body == nil {
		return false
	}
	// "{\n" + code + "\n}"
	return int(fn.Body.RightBrace-fn.Body.LeftBrace) == codeLen+3
}

func call(ctx context.Context, vm *goja.Runtime, fn goja.Callable, page browser.Page) Outcome {
	if err := installConsole(vm, logging.FromContext(ctx).Named("console")); err != nil {
		return failure(PhaseExecute, err.Error())
	}
	binding, err := newPageBinding(ctx, vm, page)
	if err != nil {
		return failure(PhaseExecute, err.Error())
	}

	ret, err := fn(goja.Undefined(), binding)
	if err != nil {
		return failure(PhaseExecute, errorMessage(err))
	}

	ret, err = settle(ret)
	if err != nil {
		return failure(PhaseExecute, errorMessage(err))
	}

	text, err := stringify(vm, ret)
	if err != nil {
		return failure(PhaseExecute, errorMessage(err))
	}
	return success(text)
}

// rejection carries the reason of a rejected promise.
type rejection struct {
	reason goja.Value
}

func (r *rejection) Error() string {
	return valueMessage(r.reason)
}

// settle unwraps a promise. The job queue has already been drained when the
// function call returned, so a promise that is still pending never settles.
func settle(v goja.Value) (goja.Value, error) {
	if v == nil {
		return goja.Undefined(), nil
	}
	promise, ok := v.Export().(*goja.Promise)
	if !ok {
		return v, nil
	}

	switch promise.State() {
	case goja.PromiseStateFulfilled:
		return promise.Result(), nil
	case goja.PromiseStateRejected:
		return nil, &rejection{reason: promise.Result()}
	default:
		return nil, fmt.Errorf("returned promise never settled")
	}
}

// stringify is JSON.stringify(v, null, 2) with undefined rendered as "undefined".
func stringify(vm *goja.Runtime, v goja.Value) (string, error) {
	jsonStringify, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("stringify"))
	if !ok {
		return "", fmt.Errorf("JSON.stringify is not available")
	}

	out, err := jsonStringify(goja.Undefined(), v, goja.Null(), vm.ToValue(2))
	if err != nil {
		return "", err
	}
	if out == nil || goja.IsUndefined(out) || out.String() == "" {
		return undefinedResult, nil
	}
	return out.String(), nil
}

// errorMessage extracts the message a caller should see from an interpreter error.
func errorMessage(err error) string {
	switch e := err.(type) {
	case *goja.Exception:
		return valueMessage(e.Value())
	case *goja.InterruptedError:
		return fmt.Sprintf("execution interrupted: %v", e.Value())
	default:
		return err.Error()
	}
}

// valueMessage prefers the message property of a thrown object, falling back
// to the string form of the value.
func valueMessage(v goja.Value) string {
	if v == nil {
		return undefinedResult
	}
	if obj, ok := v.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) && !goja.IsNull(msg) {
			return msg.String()
		}
	}
	return v.String()
}
