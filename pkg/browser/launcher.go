package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/genmcp/browser-mcp/pkg/config/server"
)

// PageOpener opens new pages in a browser it owns.
type PageOpener interface {
	OpenPage(ctx context.Context) (Page, error)
	Ping(ctx context.Context) error
	Close() error
}

// rodOpener launches Chrome, or attaches to a running one, on the first OpenPage.
type rodOpener struct {
	config *server.BrowserConfig

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

var _ PageOpener = &rodOpener{}

// NewRodOpener returns a PageOpener backed by go-rod.
func NewRodOpener(config *server.BrowserConfig) PageOpener {
	if config == nil {
		config = &server.BrowserConfig{}
		config.ApplyDefaults()
	}
	return &rodOpener{config: config}
}

func (o *rodOpener) connect(ctx context.Context) (*rod.Browser, error) {
	if o.browser != nil {
		return o.browser, nil
	}

	controlURL := o.config.ControlURL
	if controlURL == "" {
		l, err := o.newLauncher()
		if err != nil {
			return nil, err
		}
		u, err := l.Context(ctx).Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		o.launcher = l
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		o.killLauncher()
		return nil, fmt.Errorf("failed to connect to browser at %s: %w", controlURL, err)
	}
	o.browser = b
	return b, nil
}

func (o *rodOpener) newLauncher() (*launcher.Launcher, error) {
	l := launcher.New().Headless(o.config.IsHeadless())
	if o.config.BrowserPath != "" {
		l = l.Bin(o.config.BrowserPath)
	}
	if o.config.UserDataDir != "" {
		l = l.UserDataDir(o.config.UserDataDir)
	}

	args, err := o.config.ParseLaunchArgs()
	if err != nil {
		return nil, err
	}
	for _, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			l = l.Set(flags.Flag(name), value)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	return l, nil
}

func (o *rodOpener) OpenPage(ctx context.Context) (Page, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	b, err := o.connect(ctx)
	if err != nil {
		return nil, err
	}

	rp, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	page := newRodPage(rp, o.config.GetActionTimeout())
	if vp := o.config.Viewport; vp != nil {
		if err := page.SetViewportSize(ctx, vp.Width, vp.Height); err != nil {
			_ = rp.Close()
			return nil, fmt.Errorf("failed to set viewport: %w", err)
		}
	}
	return page, nil
}

// Ping checks that the browser, once started, still answers.
func (o *rodOpener) Ping(ctx context.Context) error {
	o.mu.Lock()
	b := o.browser
	o.mu.Unlock()

	if b == nil {
		return nil
	}
	_, err := b.Context(ctx).Version()
	return err
}

func (o *rodOpener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var err error
	// an attached browser belongs to whoever started it
	if o.browser != nil && o.launcher != nil {
		done := make(chan error, 1)
		go func() { done <- o.browser.Close() }()
		select {
		case err = <-done:
		case <-time.After(5 * time.Second):
			err = fmt.Errorf("timed out closing browser")
		}
	}
	o.browser = nil
	o.killLauncher()
	return err
}

func (o *rodOpener) killLauncher() {
	if o.launcher == nil {
		return
	}
	o.launcher.Kill()
	if o.config.UserDataDir == "" {
		// only the temporary profile is ours to remove
		o.launcher.Cleanup()
	}
	o.launcher = nil
}
