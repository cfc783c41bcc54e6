// Package webpage implements locating, waiting for and acting on page
// elements. Page objects depend on the Actions interface, not on Base.
package webpage

import (
	"time"

	"github.com/v0xg/paneltest/internal/locator"
)

// Default timeouts for operations that do not take one, or are passed 0.
const (
	DefaultProbeTimeout = 2 * time.Second
	DefaultToastTimeout = 5 * time.Second
	ScrollSettle        = 500 * time.Millisecond
)

// ToastLocator matches transient status notifications.
var ToastLocator = locator.ByCSS("[class*='toast'], [role='status']")

// Point is a viewport coordinate in CSS pixels.
type Point struct {
	X, Y float64
}

// Actions is the page capability every page object is built on.
//
// Required lookups (Click, TypeText, Text, ...) return an error wrapping
// ErrNotFound when the target never shows up. Probes (IsPresent, IsVisible,
// WaitInvisible, Count, Texts, WaitForToast) degrade to false, zero or empty.
// A zero timeout means the operation's default.
type Actions interface {
	Navigate(url string) error
	Refresh() error
	CurrentURL() string
	WaitForPageLoad() error

	Click(loc locator.Locator) error
	ClickNth(loc locator.Locator, i int) error
	TypeText(loc locator.Locator, text string, clearFirst bool) error
	TypeSlowly(loc locator.Locator, text string, delay time.Duration) error
	SelectDropdown(loc locator.Locator, value string) error
	Hover(loc locator.Locator) error
	PressEnter(loc locator.Locator) error

	IsPresent(loc locator.Locator, timeout time.Duration) bool
	IsVisible(loc locator.Locator, timeout time.Duration) bool
	WaitVisible(loc locator.Locator, timeout time.Duration) error
	WaitInvisible(loc locator.Locator, timeout time.Duration) bool
	WaitClickable(loc locator.Locator, timeout time.Duration) error
	Count(loc locator.Locator, timeout time.Duration) int
	Texts(loc locator.Locator, timeout time.Duration) []string
	Text(loc locator.Locator) (string, error)
	Attribute(loc locator.Locator, name string) (string, error)

	ScrollTo(loc locator.Locator) error
	ScrollToTop() error
	ScrollToBottom() error

	WaitForToast(timeout time.Duration) string
	Screenshot(name string) (string, error)

	AlertPresent(timeout time.Duration) bool
	AcceptAlert() (string, error)
	DismissAlert() (string, error)
	SwitchToTab(i int) error
	CloseTab() error

	Pause(d time.Duration)
	LastPointer() (Point, bool)
}
