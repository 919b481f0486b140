package test

import (
	"context"

	. "github.com/onsi/gomega"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/genmcp/browser-mcp/pkg/browser"
	"github.com/genmcp/browser-mcp/pkg/browser/browsertest"
	serverconfig "github.com/genmcp/browser-mcp/pkg/config/server"
	"github.com/genmcp/browser-mcp/pkg/runtime"
	"github.com/genmcp/browser-mcp/pkg/tools"
)

func testConfig() *serverconfig.BrowserServerConfig {
	cfg := &serverconfig.BrowserServerConfig{}
	cfg.ApplyDefaults()
	cfg.Runtime.SetBaseLogger(zap.NewNop())
	return cfg
}

func newExamplePage() *browsertest.Page {
	return browsertest.NewPage(map[string]*browsertest.Document{
		"https://example.com": {
			Title: "Example Domain",
			Aria:  `- heading "Example Domain" [level=1]`,
			Elements: map[string]*browsertest.Element{
				"h1": {Text: "Example Domain"},
			},
		},
	})
}

// connectInMemory serves the registered tools against tabs and returns a connected client
// session, along with a func closing both ends.
func connectInMemory(tabs browser.TabProvider) (*mcp.ClientSession, func()) {
	ctx := context.Background()

	s := runtime.NewServer(testConfig(), tabs, tools.Default())
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := s.Connect(ctx, serverTransport, nil)
	Expect(err).NotTo(HaveOccurred())

	client := mcp.NewClient(&mcp.Implementation{Name: "test client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	Expect(err).NotTo(HaveOccurred())

	return cs, func() {
		_ = cs.Close()
		_ = ss.Close()
	}
}

func callTool(cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	result, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	Expect(err).NotTo(HaveOccurred())
	return result
}

func resultText(result *mcp.CallToolResult) string {
	Expect(result.Content).NotTo(BeEmpty())
	text, ok := result.Content[0].(*mcp.TextContent)
	Expect(ok).To(BeTrue())
	return text.Text
}
