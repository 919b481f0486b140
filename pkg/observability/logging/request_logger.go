package logging

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewRequestLogger creates a request-scoped logger that writes to baseLogger
// and to the client of ss. It is cheap enough to call on every request: the
// base logger is reused and only the MCP core and tee are allocated.
func NewRequestLogger(ctx context.Context, baseLogger *zap.Logger, ss *mcp.ServerSession) (*zap.Logger, error) {
	core, err := NewMcpCore(ctx, ss)
	if err != nil {
		return nil, err
	}
	return teeLogger(baseLogger, core), nil
}

func teeLogger(baseLogger *zap.Logger, mcpCore zapcore.Core) *zap.Logger {
	return baseLogger.WithOptions(
		zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, mcpCore)
		}),
	)
}
