package browsertest

import (
	"context"
	"errors"
	"sync"

	"github.com/genmcp/browser-mcp/pkg/browser"
)

// Opener is a browser.PageOpener handing out fake pages.
type Opener struct {
	mu sync.Mutex

	// NewPage builds each opened page; NewPage(nil) is used when unset.
	NewPage func() *Page
	// OpenErr, when set, fails every OpenPage.
	OpenErr error
	// PingErr is returned by Ping.
	PingErr error

	pages  []*Page
	closed bool
}

var _ browser.PageOpener = &Opener{}

func (o *Opener) OpenPage(ctx context.Context) (browser.Page, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.OpenErr != nil {
		return nil, o.OpenErr
	}
	if o.closed {
		return nil, errors.New("browser has been closed")
	}

	var p *Page
	if o.NewPage != nil {
		p = o.NewPage()
	} else {
		p = NewPage(nil)
	}
	o.pages = append(o.pages, p)
	return p, nil
}

func (o *Opener) Ping(ctx context.Context) error {
	return o.PingErr
}

func (o *Opener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

// Pages returns every page opened so far.
func (o *Opener) Pages() []*Page {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Page(nil), o.pages...)
}

// Closed reports whether Close was called.
func (o *Opener) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// Tracer keeps recorded events in memory.
type Tracer struct {
	mu     sync.Mutex
	events []browser.TraceEvent
}

var _ browser.Tracer = &Tracer{}

func (t *Tracer) Record(event browser.TraceEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *Tracer) Close() error { return nil }

// Actions returns the action names of the recorded events in order.
func (t *Tracer) Actions() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	actions := make([]string, len(t.events))
	for i, e := range t.events {
		actions[i] = e.Action
	}
	return actions
}

// Events returns the recorded events.
func (t *Tracer) Events() []browser.TraceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]browser.TraceEvent(nil), t.events...)
}
