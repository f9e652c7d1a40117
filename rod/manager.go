package rod

import (
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
)

// DefaultMaxPages is how many pages a browser serves before it is replaced.
const DefaultMaxPages = 75

// chromeFlags keep background tabs running at full speed while several
// pages render in parallel.
var chromeFlags = []flags.Flag{
	"disable-background-timer-throttling",
	"disable-backgrounding-occluded-windows",
	"disable-renderer-backgrounding",
	"disable-dev-shm-usage",
	"disable-hang-monitor",
}

// instance is one running Chrome process and its connection.
type instance struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

func launch() (*instance, error) {
	l := launcher.New().Leakless(true).Headless(true)
	for _, flag := range chromeFlags {
		l = l.Set(flag)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return &instance{browser: b, launcher: l}, nil
}

func (in *instance) stop() error {
	err := in.browser.Close()
	in.launcher.Kill()
	return err
}

// BrowserManager owns a headless Chrome process and swaps it for a fresh
// one after maxPages pages. Chrome's memory use only grows across a long
// crawl. It is safe for concurrent use.
type BrowserManager struct {
	mu       sync.Mutex
	current  *instance
	served   int64
	maxPages int64
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets how many pages a browser serves. Zero disables
// recycling.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// NewBrowserManager launches a browser. Close must be called to stop it.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(bm)
	}
	in, err := launch()
	if err != nil {
		return nil, err
	}
	bm.current = in
	return bm, nil
}

// Browser returns the live browser, replacing it first when it has served
// its quota. It returns nil after Close.
func (bm *BrowserManager) Browser() *rod.Browser {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.current == nil {
		return nil
	}
	if bm.maxPages > 0 && bm.served >= bm.maxPages {
		// A failed relaunch keeps the old browser serving.
		if fresh, err := launch(); err == nil {
			_ = bm.current.stop()
			bm.current = fresh
			bm.served = 0
		}
	}
	return bm.current.browser
}

// IncrementPageCount records a served page.
func (bm *BrowserManager) IncrementPageCount() {
	bm.mu.Lock()
	bm.served++
	bm.mu.Unlock()
}

// Close stops the browser. It is safe to call more than once.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.current == nil {
		return nil
	}
	err := bm.current.stop()
	bm.current = nil
	return err
}

// LauncherPID returns the launcher's process id, or 0 once closed.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.current == nil {
		return 0
	}
	return bm.current.launcher.PID()
}
