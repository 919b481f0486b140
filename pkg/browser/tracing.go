package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

type noTraceKey struct{}

// WithoutTracing returns a context in which page actions are not recorded.
func WithoutTracing(ctx context.Context) context.Context {
	return context.WithValue(ctx, noTraceKey{}, true)
}

// TracingSuppressed reports whether ctx was derived from WithoutTracing.
func TracingSuppressed(ctx context.Context) bool {
	suppressed, _ := ctx.Value(noTraceKey{}).(bool)
	return suppressed
}

// CallOnPageNoTrace runs fn against page with tracing suppressed. Suppression is
// scoped to the context handed to fn, so it ends when fn returns, however it returns.
func CallOnPageNoTrace[T any](ctx context.Context, page Page, fn func(ctx context.Context, page Page) (T, error)) (T, error) {
	return fn(WithoutTracing(ctx), page)
}

// TraceEvent is one recorded page action.
type TraceEvent struct {
	ID        string         `json:"id"`
	TabID     string         `json:"tab_id"`
	Action    string         `json:"action"`
	Params    map[string]any `json:"params,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Error     string         `json:"error,omitempty"`
}

// Tracer records page actions.
type Tracer interface {
	Record(event TraceEvent)
	Close() error
}

type nopTracer struct{}

func (nopTracer) Record(TraceEvent) {}

func (nopTracer) Close() error { return nil }

// NopTracer discards every event.
func NopTracer() Tracer {
	return nopTracer{}
}

type fileTracer struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileTracer writes events as JSON lines to trace-<id>.jsonl in dir.
// An empty dir means the system temp dir.
func NewFileTracer(dir string) (Tracer, string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create trace directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("trace-%s.jsonl", uuid.NewString()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open trace file: %w", err)
	}

	return &fileTracer{file: f, enc: json.NewEncoder(f)}, path, nil
}

func (t *fileTracer) Record(event TraceEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	// a failed trace write must not fail the page action
	_ = t.enc.Encode(event)
}

func (t *fileTracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file.Close()
}
