package pages

import (
	"fmt"

	"github.com/v0xg/paneltest/internal/config"
	"github.com/v0xg/paneltest/internal/console"
	"github.com/v0xg/paneltest/internal/locator"
	"github.com/v0xg/paneltest/internal/webpage"
)

var (
	SiteConfigTitle = locator.ByXPath("//h1[contains(text(), 'Site Configuration') or contains(text(), 'Configuration')]")
	SiteConfigSave  = locator.ByXPath("//button[contains(., 'Save')]")
	ToggleSwitch    = locator.ByCSS("button[role='switch']")

	toggleSwitchX = locator.ByXPath("//button[@role='switch']")
)

// ToggleFor locates the switch belonging to the label containing text,
// whether it is the label's sibling or nested inside it.
func ToggleFor(label string) locator.Locator {
	lit := locator.Literal(label)
	return locator.ByXPath(fmt.Sprintf(
		"//label[contains(text(), %s)]/following-sibling::button[@role='switch'] | //label[contains(text(), %s)]//button[@role='switch']",
		lit, lit))
}

// SiteConfig is the /site-config screen: a list of feature switches and a
// save button.
type SiteConfig struct {
	page
}

func NewSiteConfig(act webpage.Actions, cfg *config.Config, log *console.Logger) *SiteConfig {
	return &SiteConfig{page: newPage(act, cfg, log)}
}

func (p *SiteConfig) Navigate() error {
	return p.open("/site-config", "Site Config")
}

func (p *SiteConfig) IsLoaded() bool {
	return p.act.IsVisible(SiteConfigTitle, p.cfg.ImplicitWait())
}

func (p *SiteConfig) HasSaveButton() bool {
	return p.act.IsPresent(SiteConfigSave, 0)
}

// Switches counts the toggle switches on the page.
func (p *SiteConfig) Switches() int {
	n := p.act.Count(ToggleSwitch, 0)
	p.log.Info("Found %d toggle switches", n)
	return n
}

// States reads aria-checked of every switch, in page order.
func (p *SiteConfig) States() ([]bool, error) {
	n := p.act.Count(ToggleSwitch, 0)
	states := make([]bool, n)
	for i := range states {
		v, err := p.act.Attribute(toggleSwitchX.Nth(i), "aria-checked")
		if err != nil {
			return nil, err
		}
		states[i] = v == "true"
	}
	return states, nil
}

// ToggleByIndex clicks the i-th switch. It reports false when there are
// fewer switches than that.
func (p *SiteConfig) ToggleByIndex(i int) (bool, error) {
	if n := p.Switches(); i < 0 || i >= n {
		p.log.Error("Switch index %d out of range", i)
		return false, nil
	}
	if err := p.act.ClickNth(ToggleSwitch, i); err != nil {
		return false, err
	}
	p.log.Info("Toggled switch at index %d", i)
	p.act.Pause(toggleSettle)
	return true, nil
}

// ToggleByLabel clicks the switch of the labelled setting. It reports false
// when no such setting exists.
func (p *SiteConfig) ToggleByLabel(label string) (bool, error) {
	loc := ToggleFor(label)
	if !p.act.IsPresent(loc, 0) {
		p.log.Warn("Switch not found for label: %s", label)
		return false, nil
	}
	if err := p.act.Click(loc); err != nil {
		return false, err
	}
	p.log.Info("Toggled switch for: %s", label)
	return true, nil
}

func (p *SiteConfig) ClickSave() error {
	if err := p.act.Click(SiteConfigSave); err != nil {
		return err
	}
	p.log.Info("Clicked Save button")
	p.act.Pause(saveSettle)
	return nil
}

// Save saves the configuration and reports whether a success toast
// confirmed it.
func (p *SiteConfig) Save() (bool, error) {
	if err := p.ClickSave(); err != nil {
		return false, err
	}
	toast := p.act.WaitForToast(0)
	if !Confirmed(toast) {
		p.log.Warn("Configuration save not confirmed, toast: %q", toast)
		return false, nil
	}
	p.log.Success("Configuration saved successfully")
	return true, nil
}

func (p *SiteConfig) VerifyTogglesPresent() bool {
	if n := p.Switches(); n > 0 {
		p.log.Success("✓ Found %d toggle switches", n)
		return true
	}
	p.log.Error("✗ No toggle switches found")
	return false
}
