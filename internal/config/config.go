package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mstoykov/envconfig"
)

// DefaultEnvFile is read from the working directory when present
const DefaultEnvFile = ".env"

// Config holds the settings shared by the runner, the fixtures and every page object.
// It is built once per process and passed by pointer.
type Config struct {
	AdminURL      string `envconfig:"ADMIN_URL" default:"http://localhost:5173"`
	ServerURL     string `envconfig:"SERVER_URL" default:"http://localhost:1420"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"admin"`

	Headless     bool   `envconfig:"HEADLESS_MODE" default:"false"`
	BrowserBin   string `envconfig:"BROWSER_BIN"`
	WindowWidth  int    `envconfig:"WINDOW_WIDTH" default:"1920"`
	WindowHeight int    `envconfig:"WINDOW_HEIGHT" default:"1080"`

	// Seconds
	ImplicitWaitSeconds int `envconfig:"IMPLICIT_WAIT" default:"10"`
	ExplicitWaitSeconds int `envconfig:"EXPLICIT_WAIT" default:"20"`

	ScreenshotOnFailure bool   `envconfig:"SCREENSHOT_ON_FAILURE" default:"true"`
	ScreenshotDir       string `envconfig:"SCREENSHOT_DIR" default:"screenshots"`
	ReportsDir          string `envconfig:"REPORTS_DIR" default:"reports"`
	TestDataDir         string `envconfig:"TEST_DATA_DIR" default:"test_data"`

	// EnvFileMissing is set when the env file could not be found; defaults were used.
	EnvFileMissing bool `ignored:"true"`
}

// Load reads envFile (if it exists) and the process environment, with
// the process environment taking precedence, and applies defaults.
func Load(envFile string) (*Config, error) {
	return LoadWith(envFile, os.LookupEnv)
}

// LoadWith is Load with an explicit lookup for the environment.
func LoadWith(envFile string, lookup func(string) (string, bool)) (*Config, error) {
	fileVars := map[string]string{}
	missing := false
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, fs.ErrNotExist):
			missing = true
		default:
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	merged := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg, merged); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.EnvFileMissing = missing
	cfg.AdminURL = strings.TrimRight(cfg.AdminURL, "/")
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")

	root := "."
	if envFile != "" {
		root = filepath.Dir(envFile)
	}
	if err := cfg.resolveDirs(root); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no test could run with.
func (c *Config) Validate() error {
	if c.AdminURL == "" {
		return errors.New("ADMIN_URL must not be empty")
	}
	if c.ExplicitWaitSeconds <= 0 {
		return fmt.Errorf("EXPLICIT_WAIT must be positive, got %d", c.ExplicitWaitSeconds)
	}
	if c.ImplicitWaitSeconds < 0 {
		return fmt.Errorf("IMPLICIT_WAIT must not be negative, got %d", c.ImplicitWaitSeconds)
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.WindowWidth, c.WindowHeight)
	}
	return nil
}

// ExplicitWait is the default timeout for required element lookups.
func (c *Config) ExplicitWait() time.Duration {
	return time.Duration(c.ExplicitWaitSeconds) * time.Second
}

// ImplicitWait is the default timeout for plural lookups.
func (c *Config) ImplicitWait() time.Duration {
	return time.Duration(c.ImplicitWaitSeconds) * time.Second
}

// URL joins path onto the admin base URL.
func (c *Config) URL(path string) string {
	if path == "" {
		return c.AdminURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.AdminURL + path
}

// resolveDirs makes relative output directories absolute against root.
// Test binaries run from their package directory, so a relative path
// would point somewhere different in the runner and in each test.
func (c *Config) resolveDirs(root string) error {
	base, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	for _, dir := range []*string{&c.ScreenshotDir, &c.ReportsDir, &c.TestDataDir} {
		if *dir != "" && !filepath.IsAbs(*dir) {
			*dir = filepath.Join(base, *dir)
		}
	}
	return nil
}

// DirEnv returns the output directories as environment assignments, so a
// child process sees the same absolute paths.
func (c *Config) DirEnv() []string {
	return []string{
		"SCREENSHOT_DIR=" + c.ScreenshotDir,
		"REPORTS_DIR=" + c.ReportsDir,
		"TEST_DATA_DIR=" + c.TestDataDir,
	}
}

// EnsureDirs creates the screenshot, report and test data directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.ScreenshotDir, c.ReportsDir, c.TestDataDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// CategoryEnv carries the selected test category from the runner to the
// scenario tests.
const CategoryEnv = "PANELTEST_CATEGORY"

// CategoryAll selects every scenario.
const CategoryAll = "all"

// Categories are the values accepted for CategoryEnv, in help order.
var Categories = []string{
	CategoryAll, "smoke", "critical", "login", "blogs", "portfolio",
	"gallery", "site_config", "backups", "dashboard",
}

// ValidCategory reports whether name is one of Categories.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
