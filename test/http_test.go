package test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/genmcp/browser-mcp/pkg/browser"
	"github.com/genmcp/browser-mcp/pkg/browser/browsertest"
	"github.com/genmcp/browser-mcp/pkg/runtime"
)

func freePort() int {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = ln.Close() }()
	return ln.Addr().(*net.TCPAddr).Port
}

var _ = Describe("Streamable HTTP server", Ordered, func() {
	var (
		baseURL string
		cancel  context.CancelFunc
		done    chan error
	)

	BeforeAll(func() {
		cfg := testConfig()
		port := freePort()
		cfg.Runtime.StreamableHTTPConfig.Port = port
		baseURL = fmt.Sprintf("http://127.0.0.1:%d", port)

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)

		By("starting the MCP server")
		tabs := browser.NewContext(&browsertest.Opener{NewPage: newExamplePage})
		go func() {
			defer GinkgoRecover()
			done <- runtime.DoRunServer(ctx, cfg, tabs)
		}()

		Eventually(func() (int, error) {
			resp, err := http.Get(baseURL + "/readyz")
			if err != nil {
				return 0, err
			}
			defer func() { _ = resp.Body.Close() }()
			return resp.StatusCode, nil
		}, 5*time.Second, 50*time.Millisecond).Should(Equal(http.StatusOK))
	})

	AfterAll(func() {
		By("stopping the MCP server")
		cancel()
		Eventually(done, 15*time.Second).Should(Receive(BeNil()))
	})

	It("serves liveness", func() {
		resp, err := http.Get(baseURL + "/healthz")
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = resp.Body.Close() }()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("serves metrics", func() {
		resp, err := http.Get(baseURL + "/metrics")
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = resp.Body.Close() }()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("runs code over the MCP endpoint", func() {
		ctx := context.Background()
		client := mcp.NewClient(&mcp.Implementation{Name: "test client", Version: "0.0.1"}, nil)
		cs, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: baseURL + "/mcp"}, nil)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = cs.Close() }()

		result, err := cs.CallTool(ctx, &mcp.CallToolParams{
			Name:      codeTool,
			Arguments: map[string]any{"code": "await page.goto('https://example.com'); return await page.title();"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeFalse())
		Expect(resultText(result)).To(HavePrefix("### Result\n\"Example Domain\""))
	})
})
