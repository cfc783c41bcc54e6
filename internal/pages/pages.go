// Package pages holds one page object per screen of the admin panel.
// Page objects never keep element handles; every call re-resolves its
// locators through webpage.Actions.
package pages

import (
	"strings"
	"time"

	"github.com/v0xg/paneltest/internal/config"
	"github.com/v0xg/paneltest/internal/console"
	"github.com/v0xg/paneltest/internal/locator"
	"github.com/v0xg/paneltest/internal/webpage"
)

// SuccessMarker is the text a toast must contain for a create or save to
// count as confirmed. Matching is case-insensitive.
const SuccessMarker = "success"

const (
	dialogTimeout = 5 * time.Second
	saveSettle    = time.Second
	toggleSettle  = 500 * time.Millisecond

	// loginRedirect bounds the wait for the panel to leave /login after
	// the password is accepted.
	loginRedirect = 2 * time.Second
	loginPoll     = 100 * time.Millisecond
)

// Locators shared by every screen.
var (
	Dialog      = locator.ByCSS("[role='dialog']")
	DialogClose = locator.ByCSS("[role='dialog'] button[aria-label='Close']")
	Table       = locator.ByCSS("table")
	TableRows   = locator.ByCSS("tbody tr")
	TableHeader = locator.ByCSS("thead th")

	// rowsX addresses the same rows as TableRows for row-scoped lookups.
	rowsX = locator.ByXPath("//tbody/tr")
)

// Confirmed reports whether toast text signals success.
func Confirmed(toast string) bool {
	return toast != "" && strings.Contains(strings.ToLower(toast), SuccessMarker)
}

// page is embedded by every page object.
type page struct {
	act webpage.Actions
	cfg *config.Config
	log *console.Logger
}

func newPage(act webpage.Actions, cfg *config.Config, log *console.Logger) page {
	if log == nil {
		log = console.Discard()
	}
	return page{act: act, cfg: cfg, log: log}
}

// Actions exposes the underlying capability for assertions the page object
// does not wrap.
func (p page) Actions() webpage.Actions {
	return p.act
}

// CurrentURL is the URL of the active tab.
func (p page) CurrentURL() string {
	return p.act.CurrentURL()
}

func (p page) open(path, name string) error {
	if err := p.act.Navigate(p.cfg.URL(path)); err != nil {
		return err
	}
	p.log.Info("Navigated to %s Page", name)
	return nil
}

func (p page) isDialogOpen() bool {
	return p.act.IsVisible(Dialog, 2*time.Second)
}

// closeDialog clicks the dialog's close button, if a dialog is open, and
// waits for it to go away.
func (p page) closeDialog() error {
	if !p.isDialogOpen() {
		return nil
	}
	if err := p.act.Click(DialogClose); err != nil {
		return err
	}
	p.act.WaitInvisible(Dialog, dialogTimeout)
	p.log.Info("Closed dialog")
	return nil
}

func (p page) rowCount() int {
	return p.act.Count(TableRows, 0)
}

// clickInFirstRow clicks the button matched by rel inside the first table
// row. It reports false when the table is empty.
func (p page) clickInFirstRow(rel, what string) (bool, error) {
	if p.rowCount() == 0 {
		p.log.Warn("No rows found to %s", what)
		return false, nil
	}
	if err := p.act.Click(rowsX.Nth(0).Within(rel)); err != nil {
		return false, err
	}
	return true, nil
}
