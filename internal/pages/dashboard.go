package pages

import (
	"fmt"

	"github.com/v0xg/paneltest/internal/config"
	"github.com/v0xg/paneltest/internal/console"
	"github.com/v0xg/paneltest/internal/locator"
	"github.com/v0xg/paneltest/internal/webpage"
)

// Section is an entry of the sidebar navigation.
type Section struct {
	Name string
	Path string
}

// Nav locates the section's sidebar link.
func (s Section) Nav() locator.Locator {
	return locator.ContainsAttr("a", "href", s.Path)
}

// Sections lists the sidebar entries in menu order.
var Sections = []Section{
	{"Blogs", "/blogs"},
	{"Portfolio", "/portfolio"},
	{"About", "/about"},
	{"Services", "/services"},
	{"Technologies", "/technologies"},
	{"Timeline", "/timeline"},
	{"Gallery", "/gallery"},
	{"Header", "/header"},
	{"Site Config", "/site-config"},
	{"Backups", "/backups"},
}

var (
	Sidebar         = locator.ByCSS("aside, [role='navigation']")
	Header          = locator.ByCSS("header")
	BackupIndicator = locator.ByXPath("//button[contains(., 'Backups')]")
	ThemeToggle     = locator.ByXPath("//button[contains(@class, 'theme') or @aria-label='Toggle theme']")
)

// Dashboard is the landing screen and the navigation chrome around every
// other screen.
type Dashboard struct {
	page
}

func NewDashboard(act webpage.Actions, cfg *config.Config, log *console.Logger) *Dashboard {
	return &Dashboard{page: newPage(act, cfg, log)}
}

func (p *Dashboard) Navigate() error {
	return p.open("/", "Dashboard")
}

func (p *Dashboard) IsSidebarVisible() bool {
	return p.act.IsVisible(Sidebar, 0)
}

func (p *Dashboard) IsHeaderVisible() bool {
	return p.act.IsVisible(Header, 0)
}

func (p *Dashboard) HasBackupIndicator() bool {
	return p.act.IsPresent(BackupIndicator, 0)
}

func (p *Dashboard) HasThemeToggle() bool {
	return p.act.IsPresent(ThemeToggle, 0)
}

// SectionByName looks a sidebar entry up by its display name.
func SectionByName(name string) (Section, error) {
	for _, s := range Sections {
		if s.Name == name {
			return s, nil
		}
	}
	return Section{}, fmt.Errorf("unknown section %q", name)
}

// NavigateTo follows the sidebar link of the named section.
func (p *Dashboard) NavigateTo(name string) error {
	s, err := SectionByName(name)
	if err != nil {
		return err
	}
	if err := p.act.Click(s.Nav()); err != nil {
		return err
	}
	if err := p.act.WaitForPageLoad(); err != nil {
		return err
	}
	p.log.Info("Navigated to %s", s.Name)
	return nil
}

func (p *Dashboard) ToggleTheme() error {
	if err := p.act.Click(ThemeToggle); err != nil {
		return err
	}
	p.log.Info("Toggled theme")
	return nil
}

func (p *Dashboard) ClickBackupIndicator() error {
	if err := p.act.Click(BackupIndicator); err != nil {
		return err
	}
	p.log.Info("Clicked Backup Indicator")
	return nil
}

// VerifyNavigation checks every sidebar entry is present and returns the
// per-section result.
func (p *Dashboard) VerifyNavigation() (bool, map[string]bool) {
	p.log.Info("Verifying navigation menu...")
	results := make(map[string]bool, len(Sections))
	all := true
	for _, s := range Sections {
		present := p.act.IsPresent(s.Nav(), 0)
		results[s.Name] = present
		if present {
			p.log.Success("✓ %s menu item is present", s.Name)
		} else {
			p.log.Error("✗ %s menu item is missing", s.Name)
			all = false
		}
	}
	return all, results
}
