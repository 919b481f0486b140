package test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/genmcp/browser-mcp/pkg/browser"
	"github.com/genmcp/browser-mcp/pkg/browser/browsertest"
)

const codeTool = "browser_playwright_code"

var _ = Describe("Playwright code tool", func() {
	var (
		opener  *browsertest.Opener
		tracer  *browsertest.Tracer
		cs      *mcp.ClientSession
		cleanup func()
	)

	BeforeEach(func() {
		opener = &browsertest.Opener{NewPage: newExamplePage}
		tracer = &browsertest.Tracer{}
		cs, cleanup = connectInMemory(browser.NewContext(opener, browser.WithTracer(tracer)))
	})

	AfterEach(func() {
		cleanup()
	})

	Describe("tool listing", func() {
		It("advertises the code tool with a required code parameter", func() {
			result, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
			Expect(err).NotTo(HaveOccurred())

			var tool *mcp.Tool
			for _, t := range result.Tools {
				if t.Name == codeTool {
					tool = t
				}
			}
			Expect(tool).NotTo(BeNil())
			Expect(tool.Description).To(ContainSubstring("Playwright"))
			Expect(tool.Annotations.DestructiveHint).NotTo(BeNil())
			Expect(*tool.Annotations.DestructiveHint).To(BeTrue())
		})
	})

	DescribeTable("executing code",
		func(code string, wantError bool, wantResult string) {
			result := callTool(cs, codeTool, map[string]any{"code": code})
			Expect(result.IsError).To(Equal(wantError))
			Expect(resultText(result)).To(HavePrefix("### Result\n" + wantResult))
		},
		Entry("a number", "return 1", false, "1"),
		Entry("no return value", "await page.title();", false, "undefined"),
		Entry("an object", "return { a: 1 }", false, "{\n  \"a\": 1\n}"),
		Entry("a page value", "await page.goto('https://example.com'); return await page.title();", false, "\"Example Domain\""),
		Entry("a thrown error", "throw new Error('boom')", true, "Error: boom"),
		Entry("a syntax error", "return (", true, "Error: SyntaxError"),
		Entry("a body closing the function early", "return 1 }, function (page) { return 2", true, "Error: SyntaxError"),
	)

	It("echoes the code and includes the page state", func() {
		code := "await page.goto('https://example.com');\nreturn 'done';"
		text := resultText(callTool(cs, codeTool, map[string]any{"code": code}))

		Expect(text).To(ContainSubstring("### Ran Playwright code\n```js\n// Executing custom Playwright code\n" + code + "\n```"))
		Expect(text).To(ContainSubstring("- Page URL: https://example.com"))
		Expect(text).To(ContainSubstring("- Page Title: Example Domain"))
		Expect(text).To(ContainSubstring(`- heading "Example Domain" [level=1]`))
	})

	It("keeps page state but not script state across calls", func() {
		By("navigating and declaring a global in the first call")
		result := callTool(cs, codeTool, map[string]any{"code": "globalThis.marker = 1; await page.goto('https://example.com');"})
		Expect(result.IsError).To(BeFalse())

		By("reading both back in the second call")
		result = callTool(cs, codeTool, map[string]any{"code": "return [typeof marker, await page.url()];"})
		Expect(result.IsError).To(BeFalse())
		Expect(resultText(result)).To(ContainSubstring("\"undefined\",\n  \"https://example.com\""))

		Expect(opener.Pages()).To(HaveLen(1))
	})

	It("does not trace page calls made by code", func() {
		callTool(cs, codeTool, map[string]any{"code": "await page.goto('https://example.com');"})
		Expect(tracer.Actions()).To(BeEmpty())

		By("while built-in tools are traced")
		callTool(cs, "browser_navigate", map[string]any{"url": "https://example.com"})
		Expect(tracer.Actions()).To(Equal([]string{"navigate"}))
	})

	It("rejects calls without code", func() {
		result := callTool(cs, codeTool, map[string]any{})
		Expect(result.IsError).To(BeTrue())
		Expect(resultText(result)).To(ContainSubstring("failed to validate tool call request"))
	})
})
