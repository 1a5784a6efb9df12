package rod

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/landitus/bookmarks"
)

// Defaults for BrowserManager settings.
const (
	DefaultMaxPages    = 75
	DefaultIdleTimeout = 5 * time.Minute
)

// BrowserManager owns a headless Chrome process. Chrome is started on first
// use and shut down after idleTimeout without use. Once maxPages pages have
// been loaded it is restarted as soon as no page is open.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	idle     *time.Timer
	pages    int
	active   int
	closed   bool

	bin         string
	maxPages    int
	idleTimeout time.Duration
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the number of page loads after which Chrome is restarted.
func WithMaxPages(n int) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithIdleTimeout sets how long an unused browser is kept running.
// Zero keeps it running until Close.
func WithIdleTimeout(d time.Duration) ManagerOption {
	return func(bm *BrowserManager) {
		bm.idleTimeout = d
	}
}

// WithBrowserBin uses the Chrome binary at path instead of looking one up
// (or downloading one).
func WithBrowserBin(path string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.bin = path
	}
}

// NewBrowserManager returns a manager that launches Chrome lazily.
func NewBrowserManager(opts ...ManagerOption) *BrowserManager {
	bm := &BrowserManager{
		maxPages:    DefaultMaxPages,
		idleTimeout: DefaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(bm)
	}
	return bm
}

// Acquire returns a running browser for one page load, launching or
// recycling Chrome as needed. Callers must call Release when the page is
// closed.
func (bm *BrowserManager) Acquire() (*rod.Browser, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil, bookmarks.Errorf(bookmarks.EINVALID, "browser manager is closed")
	}
	if bm.idle != nil {
		bm.idle.Stop()
	}

	if bm.browser != nil && bm.active == 0 && bm.maxPages > 0 && bm.pages >= bm.maxPages {
		_ = bm.shutdown()
	}
	if bm.browser == nil {
		if err := bm.launch(); err != nil {
			return nil, err
		}
	}
	bm.pages++
	bm.active++
	return bm.browser, nil
}

// Release marks the end of a page load and arms the idle timer.
func (bm *BrowserManager) Release() {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.active > 0 {
		bm.active--
	}
	if bm.closed || bm.browser == nil || bm.active > 0 || bm.idleTimeout <= 0 {
		return
	}
	if bm.idle == nil {
		bm.idle = time.AfterFunc(bm.idleTimeout, bm.expire)
		return
	}
	bm.idle.Reset(bm.idleTimeout)
}

// Running reports whether Chrome is currently running.
func (bm *BrowserManager) Running() bool {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.browser != nil
}

// LauncherPID returns the process ID of the browser launcher, or 0 when
// Chrome is not running.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.launcher == nil {
		return 0
	}
	return bm.launcher.PID()
}

// Close stops Chrome. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true
	if bm.idle != nil {
		bm.idle.Stop()
	}
	return bm.shutdown()
}

func (bm *BrowserManager) expire() {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.active == 0 {
		_ = bm.shutdown()
	}
}

// launch must be called with mu held.
func (bm *BrowserManager) launch() error {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("mute-audio").
		Leakless(true).
		Headless(true)
	if bm.bin != "" {
		l = l.Bin(bm.bin)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("connecting to browser: %w", err)
	}

	bm.browser, bm.launcher, bm.pages = browser, l, 0
	return nil
}

// shutdown must be called with mu held.
func (bm *BrowserManager) shutdown() error {
	var err error
	if bm.browser != nil {
		err = bm.browser.Close()
		bm.browser = nil
	}
	if bm.launcher != nil {
		bm.launcher.Kill()
		bm.launcher = nil
	}
	bm.pages = 0
	return err
}
