// Package browser owns the Chromium process behind a test: launching it,
// tracking its tabs and queuing the native JavaScript dialogs it raises.
package browser

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/v0xg/paneltest/internal/config"
)

// ErrNoBrowser is returned when no Chromium binary could be located.
var ErrNoBrowser = errors.New("no chromium binary found")

// ErrNoDialog is returned when a dialog operation finds nothing to handle.
var ErrNoDialog = errors.New("no dialog is open")

// Dialog is a native alert/confirm/prompt raised by the page.
type Dialog struct {
	Type    proto.PageDialogType
	Message string
}

// Session wraps one browser process and its active tab.
// A Session belongs to a single test and is not safe for concurrent actions.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser

	mu      sync.Mutex
	page    *rod.Page
	tabs    []proto.TargetTargetID
	dialogs map[proto.TargetTargetID][]Dialog
	handled map[proto.TargetTargetID]int
	watched map[proto.TargetTargetID]bool
	closed  bool
}

// FindBinary resolves the browser to launch: cfg.BrowserBin when set,
// otherwise whatever the rod launcher can find on this machine.
func FindBinary(cfg *config.Config) (string, error) {
	if cfg.BrowserBin != "" {
		return cfg.BrowserBin, nil
	}
	path, has := launcher.LookPath()
	if !has {
		return "", ErrNoBrowser
	}
	return path, nil
}

// Launch starts a browser configured from cfg and opens a blank tab.
func Launch(cfg *config.Config) (*Session, error) {
	bin, err := FindBinary(cfg)
	if err != nil {
		return nil, err
	}

	l := launcher.New().
		Bin(bin).
		Headless(cfg.Headless).
		NoSandbox(true).
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	s := &Session{
		launcher: l,
		dialogs:  map[proto.TargetTargetID][]Dialog{},
		handled:  map[proto.TargetTargetID]int{},
		watched:  map[proto.TargetTargetID]bool{},
	}

	s.browser = rod.New().ControlURL(u).NoDefaultDevice()
	if err := s.browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	if err := s.watchTargets(); err != nil {
		s.Close()
		return nil, err
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.WindowWidth,
		Height:            cfg.WindowHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	s.mu.Lock()
	s.addTab(page.TargetID)
	s.page = page
	s.mu.Unlock()
	s.watchDialogs(page)

	return s, nil
}

// watchTargets records the creation order of tabs so SwitchToTab indexes
// are stable, the way window handles are.
func (s *Session) watchTargets() error {
	if err := (proto.TargetSetDiscoverTargets{Discover: true}).Call(s.browser); err != nil {
		return fmt.Errorf("failed to enable target discovery: %w", err)
	}
	go s.browser.EachEvent(
		func(e *proto.TargetTargetCreated) {
			if e.TargetInfo.Type != proto.TargetTargetInfoTypePage {
				return
			}
			s.mu.Lock()
			s.addTab(e.TargetInfo.TargetID)
			s.mu.Unlock()
		},
		func(e *proto.TargetTargetDestroyed) {
			s.mu.Lock()
			s.removeTab(e.TargetID)
			s.mu.Unlock()
		},
	)()
	return nil
}

// watchDialogs queues the dialogs page raises. Each tab gets one watcher
// however often it is switched to.
func (s *Session) watchDialogs(page *rod.Page) {
	id := page.TargetID
	if !s.markWatched(id) {
		return
	}
	go page.EachEvent(
		func(e *proto.PageJavascriptDialogOpening) {
			s.mu.Lock()
			s.dialogs[id] = append(s.dialogs[id], Dialog{Type: e.Type, Message: e.Message})
			s.mu.Unlock()
		},
		func(e *proto.PageJavascriptDialogClosed) {
			s.mu.Lock()
			if s.handled[id] > 0 {
				// already popped by HandleDialog
				s.handled[id]--
			} else if q := s.dialogs[id]; len(q) > 0 {
				s.dialogs[id] = q[1:]
			}
			s.mu.Unlock()
		},
	)()
}

// markWatched records id as watched and reports whether it was not before.
func (s *Session) markWatched(id proto.TargetTargetID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watched[id] {
		return false
	}
	s.watched[id] = true
	return true
}

// caller holds s.mu
func (s *Session) addTab(id proto.TargetTargetID) {
	for _, t := range s.tabs {
		if t == id {
			return
		}
	}
	s.tabs = append(s.tabs, id)
}

// caller holds s.mu
func (s *Session) removeTab(id proto.TargetTargetID) {
	for i, t := range s.tabs {
		if t == id {
			s.tabs = append(s.tabs[:i], s.tabs[i+1:]...)
			break
		}
	}
	delete(s.dialogs, id)
	delete(s.handled, id)
	delete(s.watched, id)
}

// Page returns the active tab.
func (s *Session) Page() *rod.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// TabCount is the number of open tabs.
func (s *Session) TabCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tabs)
}

// SwitchToTab makes the i-th tab, in opening order, the active one.
func (s *Session) SwitchToTab(i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.tabs) {
		n := len(s.tabs)
		s.mu.Unlock()
		return fmt.Errorf("tab index %d out of range (%d open)", i, n)
	}
	id := s.tabs[i]
	current := s.page
	s.mu.Unlock()

	if current != nil && current.TargetID == id {
		return nil
	}

	page, err := s.browser.PageFromTarget(id)
	if err != nil {
		return fmt.Errorf("failed to attach to tab %d: %w", i, err)
	}
	if _, err := page.Activate(); err != nil {
		return fmt.Errorf("failed to activate tab %d: %w", i, err)
	}

	s.mu.Lock()
	s.page = page
	s.mu.Unlock()
	s.watchDialogs(page)
	return nil
}

// CloseTab closes the active tab and activates the first remaining one.
func (s *Session) CloseTab() error {
	s.mu.Lock()
	page := s.page
	s.mu.Unlock()
	if page == nil {
		return errors.New("no active tab")
	}

	if err := page.Close(); err != nil {
		return fmt.Errorf("failed to close tab: %w", err)
	}

	s.mu.Lock()
	s.removeTab(page.TargetID)
	s.page = nil
	remaining := len(s.tabs)
	s.mu.Unlock()

	if remaining == 0 {
		return nil
	}
	return s.SwitchToTab(0)
}

// PendingDialog returns the oldest unhandled dialog on the active tab.
func (s *Session) PendingDialog() (Dialog, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return Dialog{}, false
	}
	q := s.dialogs[s.page.TargetID]
	if len(q) == 0 {
		return Dialog{}, false
	}
	return q[0], true
}

// HandleDialog accepts or dismisses the oldest pending dialog. The entry
// is popped before the protocol call so the closed event, which may arrive
// first, does not pop it again.
func (s *Session) HandleDialog(accept bool) (Dialog, error) {
	s.mu.Lock()
	page := s.page
	if page == nil || len(s.dialogs[page.TargetID]) == 0 {
		s.mu.Unlock()
		return Dialog{}, ErrNoDialog
	}
	id := page.TargetID
	d := s.dialogs[id][0]
	s.dialogs[id] = s.dialogs[id][1:]
	s.handled[id]++
	s.mu.Unlock()

	if err := (proto.PageHandleJavaScriptDialog{Accept: accept}).Call(page); err != nil {
		s.mu.Lock()
		s.dialogs[id] = append([]Dialog{d}, s.dialogs[id]...)
		s.handled[id]--
		s.mu.Unlock()
		return d, fmt.Errorf("failed to handle %s dialog: %w", d.Type, err)
	}
	return d, nil
}

// Close shuts the browser down. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.browser != nil {
		s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
}
