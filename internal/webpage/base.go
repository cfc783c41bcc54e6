package webpage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"github.com/v0xg/paneltest/internal/browser"
	"github.com/v0xg/paneltest/internal/config"
	"github.com/v0xg/paneltest/internal/console"
	"github.com/v0xg/paneltest/internal/locator"
)

// ErrNoDialog is returned by AcceptAlert and DismissAlert when no native
// dialog shows up in time.
var ErrNoDialog = browser.ErrNoDialog

// TimestampLayout formats the suffix of screenshot and report file names.
const TimestampLayout = "20060102_150405"

const dialogPoll = 50 * time.Millisecond

// Base implements Actions on top of a browser session.
type Base struct {
	session *browser.Session
	cfg     *config.Config
	log     *console.Logger

	pointer    Point
	hasPointer bool
}

var _ Actions = (*Base)(nil)

// New returns a Base acting on the session's active tab.
func New(session *browser.Session, cfg *config.Config, log *console.Logger) *Base {
	if log == nil {
		log = console.Discard()
	}
	return &Base{session: session, cfg: cfg, log: log}
}

func (b *Base) page() *rod.Page {
	return b.session.Page()
}

func (b *Base) explicit(timeout time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}
	return b.cfg.ExplicitWait()
}

func (b *Base) implicit(timeout time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}
	return b.cfg.ImplicitWait()
}

func probe(timeout time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}
	return DefaultProbeTimeout
}

// Navigate loads url and waits for the document to finish loading.
func (b *Base) Navigate(url string) error {
	b.log.Info("Navigating to: %s", url)
	p := b.page().Timeout(b.cfg.ExplicitWait())
	defer p.CancelTimeout()
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	b.hasPointer = false
	return b.WaitForPageLoad()
}

// Refresh reloads the current page.
func (b *Base) Refresh() error {
	p := b.page().Timeout(b.cfg.ExplicitWait())
	defer p.CancelTimeout()
	if err := p.Reload(); err != nil {
		return fmt.Errorf("failed to reload: %w", err)
	}
	b.hasPointer = false
	return b.WaitForPageLoad()
}

// CurrentURL returns the active tab's URL, or "" when it cannot be read.
func (b *Base) CurrentURL() string {
	res, err := b.eval(`() => window.location.href`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// WaitForPageLoad blocks until document.readyState is "complete".
func (b *Base) WaitForPageLoad() error {
	timeout := b.cfg.ExplicitWait()
	ok, err := waitUntil(timeout, PollInterval, func() (bool, error) {
		res, err := b.eval(`() => document.readyState`)
		if err != nil {
			return false, err
		}
		return res.Value.Str() == "complete", nil
	})
	if !ok {
		if err != nil {
			return fmt.Errorf("page did not finish loading within %s: %w", timeout, err)
		}
		return fmt.Errorf("page did not finish loading within %s", timeout)
	}
	return nil
}

// eval runs js on the active tab, bounded by queryTimeout.
func (b *Base) eval(js string) (*proto.RuntimeRemoteObject, error) {
	p := b.page().Timeout(queryTimeout)
	defer p.CancelTimeout()
	return p.Eval(js)
}

// bounded runs fn on a clone of el limited to timeout. The clone's timer
// is released when fn returns.
func bounded(el *rod.Element, timeout time.Duration, fn func(*rod.Element) error) error {
	clone := el.Timeout(timeout)
	defer clone.CancelTimeout()
	return fn(clone)
}

// Click waits for loc to be clickable and clicks it.
func (b *Base) Click(loc locator.Locator) error {
	el, err := resolve(b.page, loc, Clickable, b.cfg.ExplicitWait())
	if err != nil {
		return err
	}
	return b.click(loc, el)
}

// ClickNth clicks the i-th clickable match of loc.
func (b *Base) ClickNth(loc locator.Locator, i int) error {
	els, err := resolveAll(b.page, loc, Clickable, b.cfg.ExplicitWait())
	if err != nil {
		return err
	}
	if i < 0 || i >= len(els) {
		return &NotFoundError{
			Locator:   loc,
			Condition: Clickable,
			Timeout:   b.cfg.ExplicitWait(),
			Last:      fmt.Errorf("index %d out of range, %d matched", i, len(els)),
		}
	}
	return b.click(loc, els[i])
}

// click hit-tests the element first. When another element covers it the
// native click would land on the overlay, so a programmatic click is
// dispatched on the element instead.
func (b *Base) click(loc locator.Locator, el *rod.Element) error {
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("failed to scroll %s into view: %w", loc, err)
	}

	pt, err := el.Interactable()
	if err == nil {
		b.track(*pt)
		err = b.dispatch(el)
	}
	if err == nil {
		return nil
	}
	if !intercepted(err) {
		return fmt.Errorf("failed to click %s: %w", loc, err)
	}

	b.log.Warn("Click intercepted on %s, using JavaScript click", loc)
	if _, err := el.Eval(`() => this.click()`); err != nil {
		return fmt.Errorf("javascript click on %s failed: %w", loc, err)
	}
	return nil
}

// dispatch performs a native click. The protocol call behind a click that
// opens a native dialog only returns once the dialog is handled, so a
// pending dialog also ends the wait.
func (b *Base) dispatch(el *rod.Element) error {
	done := make(chan error, 1)
	go func() {
		done <- bounded(el, b.cfg.ExplicitWait(), func(el *rod.Element) error {
			return el.Click(proto.InputMouseButtonLeft, 1)
		})
	}()

	tick := time.NewTicker(dialogPoll)
	defer tick.Stop()
	for {
		select {
		case err := <-done:
			return err
		case <-tick.C:
			if _, open := b.session.PendingDialog(); open {
				return nil
			}
		}
	}
}

func intercepted(err error) bool {
	var covered *rod.CoveredError
	var noPointer *rod.NoPointerEventsError
	return errors.As(err, &covered) || errors.As(err, &noPointer)
}

func (b *Base) track(pt proto.Point) {
	b.pointer = Point{X: pt.X, Y: pt.Y}
	b.hasPointer = true
}

func (b *Base) trackElement(el *rod.Element) {
	shape, err := el.Shape()
	if err != nil {
		return
	}
	if box := shape.Box(); box != nil {
		b.track(proto.Point{X: box.X + box.Width/2, Y: box.Y + box.Height/2})
	}
}

// TypeText waits for loc to be present and types text into it, replacing
// the current value when clearFirst is set.
func (b *Base) TypeText(loc locator.Locator, text string, clearFirst bool) error {
	el, err := resolve(b.page, loc, Present, b.cfg.ExplicitWait())
	if err != nil {
		return err
	}
	b.trackElement(el)

	return bounded(el, b.cfg.ExplicitWait(), func(el *rod.Element) error {
		if clearFirst {
			if err := clearInput(el); err != nil {
				return fmt.Errorf("failed to clear %s: %w", loc, err)
			}
		}
		if text == "" {
			return nil
		}

		var err error
		if t, ok := dateValue(el, text); ok {
			err = el.InputTime(t)
		} else {
			err = el.Input(text)
		}
		if err != nil {
			return fmt.Errorf("failed to type into %s: %w", loc, err)
		}
		return nil
	})
}

// TypeSlowly types text one character at a time.
func (b *Base) TypeSlowly(loc locator.Locator, text string, delay time.Duration) error {
	el, err := resolve(b.page, loc, Present, b.cfg.ExplicitWait())
	if err != nil {
		return err
	}
	b.trackElement(el)

	return bounded(el, b.cfg.ExplicitWait(), func(el *rod.Element) error {
		if err := clearInput(el); err != nil {
			return fmt.Errorf("failed to clear %s: %w", loc, err)
		}
		for _, r := range text {
			if err := el.Input(string(r)); err != nil {
				return fmt.Errorf("failed to type into %s: %w", loc, err)
			}
			time.Sleep(delay)
		}
		return nil
	})
}

func clearInput(el *rod.Element) error {
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Type(input.Backspace)
}

// dateValue detects date inputs, which do not accept typed text.
func dateValue(el *rod.Element, text string) (time.Time, bool) {
	typ, err := el.Attribute("type")
	if err != nil || typ == nil || *typ != "date" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", text)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SelectDropdown picks the option with the given value. Native selects are
// set directly; custom dropdowns are opened and the option clicked.
func (b *Base) SelectDropdown(loc locator.Locator, value string) error {
	el, err := resolve(b.page, loc, Clickable, b.cfg.ExplicitWait())
	if err != nil {
		return err
	}

	res, err := el.Eval(`() => this.tagName.toLowerCase()`)
	if err == nil && res.Value.Str() == "select" {
		b.trackElement(el)
		sel := fmt.Sprintf("option[value=%q]", value)
		err := bounded(el, b.cfg.ExplicitWait(), func(el *rod.Element) error {
			return el.Select([]string{sel}, true, rod.SelectorTypeCSSSector)
		})
		if err != nil {
			return fmt.Errorf("failed to select %q in %s: %w", value, loc, err)
		}
		return nil
	}

	if err := b.click(loc, el); err != nil {
		return err
	}
	return b.Click(locator.OptionValue(value))
}

// Hover moves the pointer over loc.
func (b *Base) Hover(loc locator.Locator) error {
	el, err := resolve(b.page, loc, Visible, b.cfg.ExplicitWait())
	if err != nil {
		return err
	}
	if err := bounded(el, b.cfg.ExplicitWait(), (*rod.Element).Hover); err != nil {
		return fmt.Errorf("failed to hover %s: %w", loc, err)
	}
	b.trackElement(el)
	return nil
}

// PressEnter sends the Enter key to loc.
func (b *Base) PressEnter(loc locator.Locator) error {
	el, err := resolve(b.page, loc, Present, b.cfg.ExplicitWait())
	if err != nil {
		return err
	}
	err = bounded(el, b.cfg.ExplicitWait(), func(el *rod.Element) error {
		return el.Type(input.Enter)
	})
	if err != nil {
		return fmt.Errorf("failed to press enter on %s: %w", loc, err)
	}
	return nil
}

// IsPresent reports whether loc is attached within timeout.
func (b *Base) IsPresent(loc locator.Locator, timeout time.Duration) bool {
	_, err := resolve(b.page, loc, Present, probe(timeout))
	return err == nil
}

// IsVisible reports whether loc is rendered within timeout.
func (b *Base) IsVisible(loc locator.Locator, timeout time.Duration) bool {
	_, err := resolve(b.page, loc, Visible, probe(timeout))
	return err == nil
}

// WaitVisible waits for loc to be rendered.
func (b *Base) WaitVisible(loc locator.Locator, timeout time.Duration) error {
	_, err := resolve(b.page, loc, Visible, b.explicit(timeout))
	return err
}

// WaitClickable waits for loc to accept clicks.
func (b *Base) WaitClickable(loc locator.Locator, timeout time.Duration) error {
	_, err := resolve(b.page, loc, Clickable, b.explicit(timeout))
	return err
}

// WaitInvisible waits until no match of loc is rendered. An element that
// never existed counts as invisible.
func (b *Base) WaitInvisible(loc locator.Locator, timeout time.Duration) bool {
	ok, _ := waitUntil(b.explicit(timeout), PollInterval, func() (bool, error) {
		els, err := query(b.page(), loc)
		if err != nil {
			return false, err
		}
		for _, el := range els {
			if shown, err := isRendered(el); err == nil && shown {
				return false, nil
			}
		}
		return true, nil
	})
	return ok
}

// Count returns how many elements match loc, or 0 when none appear in time.
func (b *Base) Count(loc locator.Locator, timeout time.Duration) int {
	els, err := resolveAll(b.page, loc, Present, b.implicit(timeout))
	if err != nil {
		return 0
	}
	return len(els)
}

// Texts returns the rendered text of every match of loc.
func (b *Base) Texts(loc locator.Locator, timeout time.Duration) []string {
	els, err := resolveAll(b.page, loc, Present, b.implicit(timeout))
	if err != nil {
		return nil
	}
	texts := make([]string, 0, len(els))
	for _, el := range els {
		if s, err := el.Text(); err == nil {
			texts = append(texts, strings.TrimSpace(s))
		}
	}
	return texts
}

// Text returns the rendered text of loc.
func (b *Base) Text(loc locator.Locator) (string, error) {
	el, err := resolve(b.page, loc, Present, b.cfg.ExplicitWait())
	if err != nil {
		return "", err
	}
	s, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read text of %s: %w", loc, err)
	}
	return strings.TrimSpace(s), nil
}

// Attribute returns the named attribute of loc, "" when it is absent.
func (b *Base) Attribute(loc locator.Locator, name string) (string, error) {
	el, err := resolve(b.page, loc, Present, b.cfg.ExplicitWait())
	if err != nil {
		return "", err
	}
	v, err := el.Attribute(name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s of %s: %w", name, loc, err)
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

// ScrollTo scrolls loc into view.
func (b *Base) ScrollTo(loc locator.Locator) error {
	el, err := resolve(b.page, loc, Present, b.cfg.ExplicitWait())
	if err != nil {
		return err
	}
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("failed to scroll to %s: %w", loc, err)
	}
	time.Sleep(ScrollSettle)
	return nil
}

func (b *Base) ScrollToTop() error {
	return b.scroll(`() => window.scrollTo(0, 0)`)
}

func (b *Base) ScrollToBottom() error {
	return b.scroll(`() => window.scrollTo(0, document.body.scrollHeight)`)
}

func (b *Base) scroll(js string) error {
	if _, err := b.eval(js); err != nil {
		return fmt.Errorf("failed to scroll: %w", err)
	}
	time.Sleep(ScrollSettle)
	return nil
}

// WaitForToast returns the text of the first visible toast, or "" when
// none shows up within timeout.
func (b *Base) WaitForToast(timeout time.Duration) string {
	if timeout <= 0 {
		timeout = DefaultToastTimeout
	}
	var text string
	waitUntil(timeout, PollInterval, func() (bool, error) {
		els, err := resolveAll(b.page, ToastLocator, Visible, 0)
		if err != nil {
			return false, nil
		}
		for _, el := range els {
			if s, err := el.Text(); err == nil && strings.TrimSpace(s) != "" {
				text = strings.TrimSpace(s)
				return true, nil
			}
		}
		return false, nil
	})
	if text != "" {
		b.log.Info("Toast message: %s", text)
	}
	return text
}

// Capture returns a PNG of the current viewport.
func (b *Base) Capture() ([]byte, error) {
	p := b.page().Timeout(b.cfg.ExplicitWait())
	defer p.CancelTimeout()
	data, err := p.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return data, nil
}

// Screenshot saves the viewport to <name>_<timestamp>.png under the
// screenshot directory and returns the path.
func (b *Base) Screenshot(name string) (string, error) {
	data, err := b.Capture()
	if err != nil {
		return "", err
	}
	path, err := SaveScreenshot(b.cfg.ScreenshotDir, name, time.Now(), data)
	if err != nil {
		return "", err
	}
	b.log.Info("Screenshot saved: %s", path)
	return path, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// ScreenshotPath is the file name a screenshot taken at ts is written to.
func ScreenshotPath(dir, name string, ts time.Time) string {
	name = strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_")
	if name == "" {
		name = "screenshot"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s.png", name, ts.Format(TimestampLayout)))
}

// SaveScreenshot writes data to ScreenshotPath, creating dir on demand.
func SaveScreenshot(dir, name string, ts time.Time, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := ScreenshotPath(dir, name, ts)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// AlertPresent reports whether a native dialog is open within timeout.
func (b *Base) AlertPresent(timeout time.Duration) bool {
	ok, _ := waitUntil(probe(timeout), PollInterval, func() (bool, error) {
		_, open := b.session.PendingDialog()
		return open, nil
	})
	return ok
}

// AcceptAlert accepts the open dialog and returns its message.
func (b *Base) AcceptAlert() (string, error) {
	return b.handleAlert(true)
}

// DismissAlert dismisses the open dialog and returns its message.
func (b *Base) DismissAlert() (string, error) {
	return b.handleAlert(false)
}

func (b *Base) handleAlert(accept bool) (string, error) {
	if !b.AlertPresent(b.cfg.ExplicitWait()) {
		return "", ErrNoDialog
	}
	d, err := b.session.HandleDialog(accept)
	if err != nil {
		return "", err
	}
	return d.Message, nil
}

func (b *Base) SwitchToTab(i int) error {
	b.hasPointer = false
	return b.session.SwitchToTab(i)
}

func (b *Base) CloseTab() error {
	b.hasPointer = false
	return b.session.CloseTab()
}

// Pause sleeps for d, for scenarios that must give the app time to settle.
func (b *Base) Pause(d time.Duration) {
	time.Sleep(d)
}

// LastPointer is where the most recent pointer action landed on the
// current page.
func (b *Base) LastPointer() (Point, bool) {
	return b.pointer, b.hasPointer
}
