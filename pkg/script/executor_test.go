package script

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/genmcp/browser-mcp/pkg/browser"
	"github.com/genmcp/browser-mcp/pkg/browser/browsertest"
	"github.com/genmcp/browser-mcp/pkg/observability/logging"
)

func newFakePage() *browsertest.Page {
	return browsertest.NewPage(map[string]*browsertest.Document{
		"https://example.com": {
			Title: "Example Domain",
			HTML:  "<html><body><h1>Example Domain</h1></body></html>",
			Elements: map[string]*browsertest.Element{
				"h1":       {Text: "Example Domain"},
				"#search":  {},
				"#country": {Options: []string{"Chile", "Peru"}},
				"#hidden":  {Hidden: true},
			},
		},
	})
}

func TestExecute(t *testing.T) {
	tt := []struct {
		name        string
		code        string
		wantResult  string
		wantPhase   Phase
		wantMessage string
	}{
		{
			name:       "number",
			code:       "return 1;",
			wantResult: "1",
		},
		{
			name:       "no return value",
			code:       "const a = 1;",
			wantResult: "undefined",
		},
		{
			name:       "explicit undefined",
			code:       "return undefined;",
			wantResult: "undefined",
		},
		{
			name:       "null",
			code:       "return null;",
			wantResult: "null",
		},
		{
			name:       "object is pretty printed",
			code:       "return {a: 1, b: [true, 'x']};",
			wantResult: "{\n  \"a\": 1,\n  \"b\": [\n    true,\n    \"x\"\n  ]\n}",
		},
		{
			name:       "function result is not serializable",
			code:       "return () => 1;",
			wantResult: "undefined",
		},
		{
			name:       "awaited promise",
			code:       "return await Promise.resolve('done');",
			wantResult: `"done"`,
		},
		{
			name:       "returned promise",
			code:       "return Promise.resolve(42);",
			wantResult: "42",
		},
		{
			name:        "thrown error",
			code:        `throw new Error("x");`,
			wantPhase:   PhaseExecute,
			wantMessage: "Error: x",
		},
		{
			name:        "thrown string",
			code:        `throw "boom";`,
			wantPhase:   PhaseExecute,
			wantMessage: "Error: boom",
		},
		{
			name:        "thrown object without message",
			code:        `throw {code: 7};`,
			wantPhase:   PhaseExecute,
			wantMessage: "Error: [object Object]",
		},
		{
			name:        "rejected promise",
			code:        `return Promise.reject(new TypeError("bad input"));`,
			wantPhase:   PhaseExecute,
			wantMessage: "Error: bad input",
		},
		{
			name:        "reference error",
			code:        `return missingVariable + 1;`,
			wantPhase:   PhaseExecute,
			wantMessage: "Error: missingVariable is not defined",
		},
		{
			name:        "unbalanced braces",
			code:        "if (true) { return 1;",
			wantPhase:   PhaseCompile,
			wantMessage: "Error: SyntaxError",
		},
		{
			name:        "stray closing brace",
			code:        "return 1; }",
			wantPhase:   PhaseCompile,
			wantMessage: "Error: SyntaxError",
		},
		{
			name:        "body closing the function into a sequence",
			code:        "return 1 }, function (page) { return 2",
			wantPhase:   PhaseCompile,
			wantMessage: "Error: SyntaxError",
		},
		{
			name:        "body closing the function into a second statement",
			code:        "}); (function () { return 3",
			wantPhase:   PhaseCompile,
			wantMessage: "Error: SyntaxError",
		},
		{
			name:        "body calling a second function",
			code:        "}).call(null, (async function (page) { return 4",
			wantPhase:   PhaseCompile,
			wantMessage: "Error: SyntaxError",
		},
		{
			name:       "braces inside strings and comments",
			code:       "// }\nreturn '})' + `}`; /* } */",
			wantResult: `"})}"`,
		},
		{
			name:        "promise that never settles",
			code:        "return new Promise(() => {});",
			wantPhase:   PhaseExecute,
			wantMessage: "Error: returned promise never settled",
		},
		{
			name:        "cyclic value",
			code:        "const a = {}; a.self = a; return a;",
			wantPhase:   PhaseExecute,
			wantMessage: "Error: ",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := Execute(context.Background(), newFakePage(), tc.code)
			if tc.wantPhase == "" {
				require.False(t, out.Failed(), out.Message())
				assert.Equal(t, tc.wantResult, out.Result)
				assert.Equal(t, tc.wantResult, out.Message())
				return
			}

			require.True(t, out.Failed(), "expected failure, got %q", out.Result)
			assert.Equal(t, tc.wantPhase, out.Err.Phase)
			assert.Contains(t, out.Message(), tc.wantMessage)
			assert.Empty(t, out.Result)
		})
	}
}

func TestExecutePageBinding(t *testing.T) {
	tt := []struct {
		name       string
		code       string
		wantResult string
		check      func(t *testing.T, page *browsertest.Page)
	}{
		{
			name: "navigate and read",
			code: `
await page.goto('https://example.com');
return {url: await page.url(), title: await page.title(), h1: await page.textContent('h1')};`,
			wantResult: "{\n  \"url\": \"https://example.com\",\n  \"title\": \"Example Domain\",\n  \"h1\": \"Example Domain\"\n}",
		},
		{
			name: "fill then read back",
			code: `
await page.goto('https://example.com');
await page.fill('#search', 'rod');
await page.type('#search', ' go');
return await page.inputValue('#search');`,
			wantResult: `"rod go"`,
		},
		{
			name: "keyboard types into the focused element",
			code: `
await page.goto('https://example.com');
await page.click('#search');
await page.keyboard.type('hello');
await page.keyboard.press('Enter');
return await page.inputValue('#search');`,
			wantResult: `"hello"`,
			check: func(t *testing.T, page *browsertest.Page) {
				assert.Contains(t, page.Methods(), "Press")
			},
		},
		{
			name: "select option",
			code: `
await page.goto('https://example.com');
return await page.selectOption('#country', ['Peru']);`,
			wantResult: "[\n  \"Peru\"\n]",
		},
		{
			name: "visibility",
			code: `
await page.goto('https://example.com');
return [await page.isVisible('h1'), await page.isVisible('#hidden'), await page.isVisible('#nope')];`,
			wantResult: "[\n  true,\n  false,\n  false\n]",
		},
		{
			name: "page errors are catchable",
			code: `
try {
  await page.click('#missing');
} catch (e) {
  return 'caught: ' + e.message;
}`,
			wantResult: `"caught: failed to find element \"#missing\""`,
		},
		{
			name: "history",
			code: `
await page.goto('https://example.com');
await page.goto('https://example.org');
await page.goBack();
const back = await page.url();
await page.goForward();
await page.reload();
return [back, await page.url()];`,
			wantResult: "[\n  \"https://example.com\",\n  \"https://example.org\"\n]",
		},
		{
			name:       "screenshot is base64",
			code:       `return await page.screenshot({fullPage: true});`,
			wantResult: `"` + base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'}) + `"`,
		},
		{
			name:       "viewport",
			code:       `await page.setViewportSize({width: 800, height: 600});`,
			wantResult: "undefined",
			check: func(t *testing.T, page *browsertest.Page) {
				w, h := page.Viewport()
				assert.Equal(t, 800, w)
				assert.Equal(t, 600, h)
			},
		},
		{
			name:       "wait for timeout",
			code:       `await page.waitForTimeout(5); return 'waited';`,
			wantResult: `"waited"`,
		},
		{
			name: "wait for selector",
			code: `
await page.goto('https://example.com');
await page.waitForSelector('h1', {timeout: 1000});
return await page.content();`,
			wantResult: `"<html><body><h1>Example Domain</h1></body></html>"`,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			page := newFakePage()
			out := Execute(context.Background(), page, tc.code)
			require.False(t, out.Failed(), out.Message())
			assert.Equal(t, tc.wantResult, out.Result)
			if tc.check != nil {
				tc.check(t, page)
			}
		})
	}
}

func TestExecuteEvaluate(t *testing.T) {
	page := newFakePage()
	var gotExpression string
	var gotArg any
	page.Evaluator = func(expression string, arg any) (any, error) {
		gotExpression, gotArg = expression, arg
		return map[string]any{"links": float64(3)}, nil
	}

	out := Execute(context.Background(), page,
		`return await page.evaluate((sel) => document.querySelectorAll(sel).length, 'a');`)
	require.False(t, out.Failed(), out.Message())
	assert.Equal(t, "{\n  \"links\": 3\n}", out.Result)
	assert.Equal(t, "(sel) => document.querySelectorAll(sel).length", gotExpression)
	assert.Equal(t, "a", gotArg)
}

func TestExecuteSuppressesTracing(t *testing.T) {
	tracer := &browsertest.Tracer{}
	page := browser.NewTracedPage(newFakePage(), "tab", tracer)

	out := Execute(context.Background(), page, `
await page.goto('https://example.com');
await page.click('h1');
return await page.title();`)
	require.False(t, out.Failed(), out.Message())
	assert.Empty(t, tracer.Actions())

	// tracing resumes after the call
	require.NoError(t, page.Reload(context.Background()))
	assert.Equal(t, []string{"reload"}, tracer.Actions())
}

func TestExecuteSuppressesTracingOnFailure(t *testing.T) {
	tracer := &browsertest.Tracer{}
	page := browser.NewTracedPage(newFakePage(), "tab", tracer)

	out := Execute(context.Background(), page, `await page.goto('https://example.com'); throw new Error('late');`)
	require.True(t, out.Failed())
	assert.Empty(t, tracer.Actions())

	_, err := page.URL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"url"}, tracer.Actions())
}

func TestIsWholeBody(t *testing.T) {
	tt := []struct {
		name string
		code string
		want bool
	}{
		{name: "empty body", code: "", want: true},
		{name: "statements", code: "const a = 1;\nreturn a;", want: true},
		{name: "nested blocks", code: "if (x) { return {a: 1}; }", want: true},
		{name: "multi-byte characters", code: "return 'héllo wörld';", want: true},
		{name: "sequence after the function", code: "return 1 }, function (page) { return 2", want: false},
		{name: "second statement", code: "}); (function () { return 3", want: false},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			prg, err := goja.Parse("", functionPrefix+tc.code+functionSuffix)
			require.NoError(t, err)
			assert.Equal(t, tc.want, isWholeBody(prg, len(tc.code)))
		})
	}
}

func TestExecuteSequentialRunsDoNotShareState(t *testing.T) {
	page := newFakePage()

	first := Execute(context.Background(), page, `globalThis.counter = 41; await page.goto('https://example.com'); return counter + 1;`)
	require.False(t, first.Failed(), first.Message())
	assert.Equal(t, "42", first.Result)

	second := Execute(context.Background(), page, `return [typeof counter, await page.url()];`)
	require.False(t, second.Failed(), second.Message())
	// page state carries over, script state does not
	assert.Equal(t, "[\n  \"undefined\",\n  \"https://example.com\"\n]", second.Result)
}

func TestExecuteInterruptedByContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	out := Execute(ctx, newFakePage(), "while (true) {}")
	require.True(t, out.Failed())
	assert.Equal(t, PhaseExecute, out.Err.Phase)
	assert.Contains(t, out.Message(), "execution interrupted")
}

func TestExecuteCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out := Execute(ctx, newFakePage(), "await page.waitForTimeout(60000);")
	require.True(t, out.Failed())
}

func TestExecuteConsoleIsLogged(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	ctx := logging.WithRequestLogger(context.Background(), zap.New(core))

	out := Execute(ctx, newFakePage(), `console.log('hello', 1, {a: 1}); console.warn('careful');`)
	require.False(t, out.Failed(), out.Message())

	entries := observed.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "hello 1 [object Object]", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "console", entries[0].LoggerName)
	assert.Equal(t, "careful", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestOutcomeMessage(t *testing.T) {
	assert.Equal(t, "1", success("1").Message())
	assert.Equal(t, "Error: x", failure(PhaseExecute, "x").Message())
	assert.Equal(t, "compile failed: bad", failure(PhaseCompile, "bad").Err.Error())
}
