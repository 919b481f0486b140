package logging

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap/zapcore"
)

var zapToMCP = map[zapcore.Level]mcp.LoggingLevel{
	zapcore.DebugLevel:  "debug",
	zapcore.InfoLevel:   "info",
	zapcore.WarnLevel:   "warning",
	zapcore.ErrorLevel:  "error",
	zapcore.DPanicLevel: "critical",
	zapcore.PanicLevel:  "alert",
	zapcore.FatalLevel:  "emergency",
}

// MCPLevel returns the MCP logging level for a zap level.
func MCPLevel(l zapcore.Level) mcp.LoggingLevel {
	if level, ok := zapToMCP[l]; ok {
		return level
	}
	return "info"
}

// session is the part of *mcp.ServerSession the core needs.
type session interface {
	Log(ctx context.Context, params *mcp.LoggingMessageParams) error
}

// mcpCore is a zapcore.Core that forwards entries to an MCP client as
// notifications/message.
type mcpCore struct {
	ss     session
	ctx    context.Context
	fields map[string]any
}

var _ zapcore.Core = &mcpCore{}

// NewMcpCore creates a core that sends every entry to the client of ss.
func NewMcpCore(ctx context.Context, ss *mcp.ServerSession) (zapcore.Core, error) {
	if ss == nil {
		return nil, fmt.Errorf("ServerSession cannot be nil")
	}
	return newMcpCore(ctx, ss)
}

func newMcpCore(ctx context.Context, ss session) (*mcpCore, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	return &mcpCore{
		ss:     ss,
		ctx:    ctx,
		fields: map[string]any{},
	}, nil
}

// Enabled is always true: the session filters by the level the client asked for.
func (m *mcpCore) Enabled(zapcore.Level) bool {
	return true
}

func (m *mcpCore) With(fields []zapcore.Field) zapcore.Core {
	return &mcpCore{
		ss:     m.ss,
		ctx:    m.ctx,
		fields: m.encode(fields),
	}
}

func (m *mcpCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return ce.AddCore(ent, m)
}

func (m *mcpCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	data := m.encode(fields)
	data["ts"] = ent.Time
	data["msg"] = ent.Message
	if ent.Caller.Defined {
		data["caller"] = ent.Caller.String()
	}

	return m.ss.Log(m.ctx, &mcp.LoggingMessageParams{
		Data:   data,
		Level:  MCPLevel(ent.Level),
		Logger: ent.LoggerName,
	})
}

func (m *mcpCore) Sync() error {
	return nil
}

// encode returns a fresh map holding the core's fields plus the given ones.
// The core's own map is never written to, so cores derived with With stay independent.
func (m *mcpCore) encode(fields []zapcore.Field) map[string]any {
	enc := zapcore.NewMapObjectEncoder()
	for k, v := range m.fields {
		enc.Fields[k] = v
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	return enc.Fields
}
