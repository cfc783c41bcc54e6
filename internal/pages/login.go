package pages

import (
	"strings"
	"time"

	"github.com/v0xg/paneltest/internal/config"
	"github.com/v0xg/paneltest/internal/console"
	"github.com/v0xg/paneltest/internal/locator"
	"github.com/v0xg/paneltest/internal/webpage"
)

var (
	LoginPassword     = locator.ByID("password")
	LoginSignIn       = locator.ByXPath("//button[contains(text(), 'Sign In')]")
	LoginError        = locator.ByCSS("[role='alert']")
	LoginDemoPassword = locator.ByXPath("//code[text()='admin']")
)

// Login is the /login screen.
type Login struct {
	page
}

func NewLogin(act webpage.Actions, cfg *config.Config, log *console.Logger) *Login {
	return &Login{page: newPage(act, cfg, log)}
}

func (p *Login) Navigate() error {
	return p.open("/login", "Login")
}

func (p *Login) EnterPassword(password string) error {
	if err := p.act.TypeText(LoginPassword, password, true); err != nil {
		return err
	}
	p.log.Info("Entered password: %s", mask(password))
	return nil
}

func (p *Login) ClickSignIn() error {
	if err := p.act.Click(LoginSignIn); err != nil {
		return err
	}
	p.log.Info("Clicked Sign In button")
	return nil
}

// Login submits password and reports whether the panel let us past the
// login screen. A rejected password is not an error.
func (p *Login) Login(password string) (bool, error) {
	if err := p.EnterPassword(password); err != nil {
		return false, err
	}
	if err := p.ClickSignIn(); err != nil {
		return false, err
	}
	if err := p.act.WaitForPageLoad(); err != nil {
		return false, err
	}
	if !p.leftLoginPage() {
		p.log.Warn("Still on login page after submitting password: %s", mask(password))
		return false, nil
	}
	p.log.Success("Login completed with password: %s", mask(password))
	return true, nil
}

func (p *Login) leftLoginPage() bool {
	deadline := time.Now().Add(loginRedirect)
	for {
		if !p.IsOnLoginPage() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(loginPoll)
	}
}

func (p *Login) IsOnLoginPage() bool {
	return strings.Contains(p.act.CurrentURL(), "login")
}

func (p *Login) IsDemoPasswordVisible() bool {
	return p.act.IsVisible(LoginDemoPassword, 0)
}

// ErrorMessage returns the inline error text, "" when there is none.
func (p *Login) ErrorMessage() string {
	if !p.act.IsPresent(LoginError, 0) {
		return ""
	}
	text, err := p.act.Text(LoginError)
	if err != nil {
		return ""
	}
	return text
}

// VerifyElements checks the password field, the sign in button and the
// demo hint are on the page.
func (p *Login) VerifyElements() bool {
	p.log.Info("Verifying login page elements...")
	return checklist(p.log, "is present", "is missing", []check{
		{"Password input", func() bool { return p.act.IsPresent(LoginPassword, 0) }},
		{"Sign In button", func() bool { return p.act.IsPresent(LoginSignIn, 0) }},
		{"Demo password hint", func() bool { return p.act.IsPresent(LoginDemoPassword, 0) }},
	})
}

func mask(s string) string {
	return strings.Repeat("*", len([]rune(s)))
}

type check struct {
	name string
	ok   func() bool
}

// checklist runs every check, logging each outcome, and reports whether
// all passed.
func checklist(log *console.Logger, pass, fail string, checks []check) bool {
	all := true
	for _, c := range checks {
		if c.ok() {
			log.Success("✓ %s %s", c.name, pass)
		} else {
			log.Error("✗ %s %s", c.name, fail)
			all = false
		}
	}
	return all
}
