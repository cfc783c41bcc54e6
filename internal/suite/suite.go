// Package suite provides the per-test fixtures used by the browser
// scenarios: a fresh browser session per test, an already logged-in
// variant, category selection and screenshot-on-failure.
package suite

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/v0xg/paneltest/internal/browser"
	"github.com/v0xg/paneltest/internal/config"
	"github.com/v0xg/paneltest/internal/console"
	"github.com/v0xg/paneltest/internal/formdata"
	"github.com/v0xg/paneltest/internal/overlay"
	"github.com/v0xg/paneltest/internal/pages"
	"github.com/v0xg/paneltest/internal/webpage"
)

var (
	loadOnce sync.Once
	shared   *config.Config
	loadErr  error
)

// Config loads the configuration once per test binary. The .env file is
// looked up from the working directory towards the module root.
func Config(t testing.TB) *config.Config {
	t.Helper()
	loadOnce.Do(func() {
		shared, loadErr = config.Load(findEnvFile())
		if loadErr == nil && shared.EnvFileMissing {
			console.Stdout().Warn(".env file not found, using defaults")
		}
	})
	if loadErr != nil {
		t.Fatalf("failed to load configuration: %v", loadErr)
	}
	return shared
}

func findEnvFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return config.DefaultEnvFile
	}
	for {
		candidate := filepath.Join(dir, config.DefaultEnvFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return config.DefaultEnvFile
		}
		dir = parent
	}
}

// Categories skips the test unless the selected category is "all" or one
// of tags. Without a selection every scenario is skipped, so a plain
// `go test ./...` needs no running panel.
func Categories(t testing.TB, tags ...string) {
	t.Helper()
	selected := os.Getenv(config.CategoryEnv)
	if selected == "" {
		t.Skipf("%s %s not set", console.Deselected, config.CategoryEnv)
	}
	if selected == config.CategoryAll || slices.Contains(tags, selected) {
		return
	}
	t.Skipf("%s category %q not in %v", console.Deselected, selected, tags)
}

// Session is one test's browser plus the page objects bound to it.
type Session struct {
	T       testing.TB
	Cfg     *config.Config
	Log     *console.Logger
	Browser *browser.Session
	Page    *webpage.Base
}

// NewSession launches a browser for t and registers its teardown. The
// teardown takes a screenshot when t failed and always closes the browser.
func NewSession(t testing.TB) *Session {
	t.Helper()
	cfg := Config(t)
	log := console.Stdout()

	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("%v", err)
	}

	log.Tagged(console.MarkerSetup, "Initializing browser for test: %s", t.Name())
	bs, err := browser.Launch(cfg)
	if errors.Is(err, browser.ErrNoBrowser) {
		t.Fatalf("%v: install Chromium or set BROWSER_BIN", err)
	}
	if err != nil {
		t.Fatalf("%v", err)
	}

	s := &Session{
		T:       t,
		Cfg:     cfg,
		Log:     log,
		Browser: bs,
		Page:    webpage.New(bs, cfg, log),
	}
	t.Cleanup(s.teardown)

	log.Rule()
	log.Tagged(console.MarkerTestStart, "%s", t.Name())
	log.Rule()
	return s
}

// Authenticated is NewSession followed by a login with the configured
// admin password.
func Authenticated(t testing.TB) *Session {
	t.Helper()
	s := NewSession(t)

	s.Log.Tagged(console.MarkerAuth, "Logging in...")
	login := s.Login()
	if err := login.Navigate(); err != nil {
		t.Fatalf("failed to open login page: %v", err)
	}
	ok, err := login.Login(s.Cfg.AdminPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !ok {
		t.Fatalf("login failed: still on %s", s.Page.CurrentURL())
	}
	s.Log.Tagged(console.MarkerAuth, "Login successful")
	return s
}

func (s *Session) teardown() {
	status := "PASSED"
	if s.T.Failed() {
		status = "FAILED"
		if s.Cfg.ScreenshotOnFailure {
			s.captureFailure()
		}
	}

	s.Log.Rule()
	s.Log.Tagged(console.MarkerTestEnd, "%s - %s", s.T.Name(), status)
	s.Log.Rule()

	s.Log.Tagged(console.MarkerTeardown, "Closing browser...")
	s.Browser.Close()
}

func (s *Session) captureFailure() {
	data, err := s.Page.Capture()
	if err != nil {
		s.Log.Warn("Could not capture failure screenshot: %v", err)
		return
	}
	if pt, ok := s.Page.LastPointer(); ok {
		if marked, err := overlay.MarkPNG(data, pt.X, pt.Y); err == nil {
			data = marked
		}
	}
	path, err := webpage.SaveScreenshot(s.Cfg.ScreenshotDir, s.T.Name(), time.Now(), data)
	if err != nil {
		s.Log.Warn("Could not save failure screenshot: %v", err)
		return
	}
	s.T.Logf("%s", screenshotLine(path))
}

// screenshotLine is the log line the runner picks the screenshot path from.
// The path is made absolute since the test binary's working directory is
// its package, not the runner's.
func screenshotLine(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return console.ScreenshotSaved + path
}

func (s *Session) Login() *pages.Login {
	return pages.NewLogin(s.Page, s.Cfg, s.Log)
}

func (s *Session) Dashboard() *pages.Dashboard {
	return pages.NewDashboard(s.Page, s.Cfg, s.Log)
}

func (s *Session) Blogs() *pages.Blogs {
	return pages.NewBlogs(s.Page, s.Cfg, s.Log)
}

func (s *Session) Portfolio() *pages.Portfolio {
	return pages.NewPortfolio(s.Page, s.Cfg, s.Log)
}

func (s *Session) Gallery() *pages.Gallery {
	return pages.NewGallery(s.Page, s.Cfg, s.Log)
}

func (s *Session) SiteConfig() *pages.SiteConfig {
	return pages.NewSiteConfig(s.Page, s.Cfg, s.Log)
}

func (s *Session) Backups() *pages.Backups {
	return pages.NewBackups(s.Page, s.Cfg, s.Log)
}

// Fixture returns defaults overridden by TEST_DATA_DIR/<name>.yaml when
// that file exists.
func Fixture(t testing.TB, cfg *config.Config, name string, defaults formdata.Fields) formdata.Fields {
	t.Helper()
	path := filepath.Join(cfg.TestDataDir, name+".yaml")
	over, err := formdata.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaults
	}
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", path, err)
	}
	return defaults.Merge(over)
}

// Unique appends a short random suffix to prefix, for records that must
// not collide with earlier runs.
func Unique(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}
