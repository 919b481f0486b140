package logging

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type ctxKey struct{}

type baseCtxKey struct{}

// WithLoggingMiddleware creates an MCP middleware that adds request-scoped logging.
// Every request carries the base logger (see BaseFromContext). When mcpLogs is set
// and the request has a ServerSession, the request logger (see FromContext) also
// forwards entries to the client. Failures to build it are logged and the request
// continues with the base logger.
func WithLoggingMiddleware(base *zap.Logger, mcpLogs bool) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			base := base.With(zap.String("method", method))
			ctx = WithBaseLogger(ctx, base)
			ctx = WithRequestLogger(ctx, base)

			if !mcpLogs {
				return next(ctx, method, req)
			}

			ss, ok := req.GetSession().(*mcp.ServerSession)
			if !ok {
				// client-side sessions have nothing to log to
				return next(ctx, method, req)
			}

			requestLogger, err := NewRequestLogger(ctx, base, ss)
			if err != nil {
				base.Warn("failed to initialize request logger", zap.Error(err))
				return next(ctx, method, req)
			}

			return next(WithRequestLogger(ctx, requestLogger), method, req)
		}
	}
}

// WithRequestLogger stores a logger in the given context, making it available
// for retrieval via FromContext throughout the request lifecycle.
func WithRequestLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext retrieves the logger stored by WithRequestLogger, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}

// WithBaseLogger stores the server-side only logger in the context.
func WithBaseLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, baseCtxKey{}, logger)
}

// BaseFromContext returns the logger stored by WithBaseLogger, or a no-op logger.
// Use it for details that should not reach the client.
func BaseFromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(baseCtxKey{}).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}
