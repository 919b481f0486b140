package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tab is the page the tools currently act on.
type Tab struct {
	ID   string
	Page Page

	owner *Context
}

// Close closes the page. When the tab belongs to a Context, the next
// CurrentTab opens a fresh one.
func (t *Tab) Close(ctx context.Context) error {
	if t.owner != nil {
		return t.owner.release(ctx, t)
	}
	return t.Page.Close(ctx)
}

// CaptureSnapshot reads the page state without recording trace events.
func (t *Tab) CaptureSnapshot(ctx context.Context) (*PageSnapshot, error) {
	return CallOnPageNoTrace(ctx, t.Page, func(ctx context.Context, page Page) (*PageSnapshot, error) {
		url, err := page.URL(ctx)
		if err != nil {
			return nil, err
		}
		title, err := page.Title(ctx)
		if err != nil {
			return nil, err
		}
		aria, err := page.AriaSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		return &PageSnapshot{URL: url, Title: title, Aria: aria}, nil
	})
}

// TabProvider hands out the current tab, opening one when needed.
type TabProvider interface {
	CurrentTab(ctx context.Context) (*Tab, error)
	CloseTab(ctx context.Context) error
	Ready(ctx context.Context) error
	Close(ctx context.Context) error
}

// Context owns the browser and the single tab exposed to tools.
type Context struct {
	opener PageOpener
	tracer Tracer
	logger *zap.Logger

	mu  sync.Mutex
	tab *Tab
}

var _ TabProvider = &Context{}

type ContextOption func(*Context)

func WithTracer(tracer Tracer) ContextOption {
	return func(c *Context) {
		c.tracer = tracer
	}
}

func WithLogger(logger *zap.Logger) ContextOption {
	return func(c *Context) {
		c.logger = logger
	}
}

// NewContext creates a browser context. Nothing is launched until the first CurrentTab.
func NewContext(opener PageOpener, opts ...ContextOption) *Context {
	c := &Context{
		opener: opener,
		tracer: NopTracer(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) CurrentTab(ctx context.Context) (*Tab, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tab != nil {
		return c.tab, nil
	}

	page, err := c.opener.OpenPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	id := uuid.NewString()
	c.tab = &Tab{ID: id, Page: NewTracedPage(page, id, c.tracer), owner: c}
	c.logger.Debug("opened tab", zap.String("tab_id", id))
	return c.tab, nil
}

// CloseTab closes the current tab. The next CurrentTab opens a fresh one.
func (c *Context) CloseTab(ctx context.Context) error {
	c.mu.Lock()
	tab := c.tab
	c.mu.Unlock()

	if tab == nil {
		return nil
	}
	return c.release(ctx, tab)
}

func (c *Context) release(ctx context.Context, tab *Tab) error {
	c.mu.Lock()
	if c.tab == tab {
		c.tab = nil
	}
	c.mu.Unlock()

	c.logger.Debug("closing tab", zap.String("tab_id", tab.ID))
	return tab.Page.Close(ctx)
}

// Ready reports whether the browser, if started, is still reachable.
func (c *Context) Ready(ctx context.Context) error {
	return c.opener.Ping(ctx)
}

// Close releases the tab, the browser and the tracer.
func (c *Context) Close(ctx context.Context) error {
	err := c.CloseTab(WithoutTracing(ctx))
	return errors.Join(err, c.opener.Close(), c.tracer.Close())
}
