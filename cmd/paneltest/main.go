package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/v0xg/paneltest/internal/config"
	"github.com/v0xg/paneltest/internal/console"
	"github.com/v0xg/paneltest/internal/report"
	"github.com/v0xg/paneltest/internal/runner"
	"github.com/v0xg/paneltest/internal/testapp"
	"github.com/v0xg/paneltest/internal/triage"
)

var (
	runPattern string
	pkg        string
	goBin      string
	quiet      bool
	triageWith string
	model      string
	addr       string

	exitCode int
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	info    = color.New(color.FgCyan)
	notice  = color.New(color.FgYellow)
	good    = color.New(color.FgGreen, color.Bold)
	bad     = color.New(color.FgRed, color.Bold)
)

const rule = "================================================================================"

const long = `paneltest runs the admin panel browser scenarios with go test, streams
their progress and writes a self-contained HTML report.

Test categories:
  all          Run all tests (default)
  smoke        Run smoke tests only
  critical     Run critical tests only
  login        Run login tests only
  blogs        Run blog CRUD tests only
  portfolio    Run portfolio CRUD tests only
  gallery      Run gallery CRUD tests only
  site_config  Run site configuration tests only
  backups      Run backup system tests only
  dashboard    Run dashboard and navigation tests only

Examples:
  paneltest                        # Run all tests
  paneltest smoke                  # Run smoke tests
  paneltest blogs --triage claude  # Blog tests, failures diagnosed by Claude
  paneltest all --run TestLogin    # A single scenario group

Requirements:
  1. Copy .env.example to .env and configure ADMIN_URL and ADMIN_PASSWORD
  2. Start the admin panel, or "paneltest demo" for the bundled one
  3. Chromium installed, or BROWSER_BIN pointing at it

Reports are written to REPORTS_DIR (reports/), failure screenshots to
SCREENSHOT_DIR (screenshots/).`

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "paneltest [category]",
		Short: "Run the admin panel UI test suite",
		Long:  long,
		Args:  categoryArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			category := config.CategoryAll
			if len(args) == 1 {
				category = args[0]
			}
			code, err := run(cmd.Context(), category)
			exitCode = code
			return err
		},
	}
	rootCmd.Flags().StringVar(&runPattern, "run", "", "Only run scenarios matching this go test -run pattern")
	rootCmd.Flags().StringVar(&pkg, "pkg", runner.DefaultPackage, "Package holding the scenarios")
	rootCmd.Flags().StringVar(&goBin, "go", "go", "Go binary used to run the tests")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only test results, not their output")
	rootCmd.Flags().StringVar(&triageWith, "triage", "", "Diagnose failures with an AI provider: claude, openai")
	rootCmd.Flags().StringVar(&model, "model", "", "Specific model override for --triage")

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Serve the bundled demo admin panel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveDemo(cmd.Context())
		},
	}
	demoCmd.Flags().StringVar(&addr, "addr", ":5173", "Listen address")
	rootCmd.AddCommand(demoCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func categoryArg(cmd *cobra.Command, args []string) error {
	if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
		return err
	}
	if len(args) == 1 && !config.ValidCategory(args[0]) {
		return fmt.Errorf("unknown test category %q (valid: %s)", args[0], strings.Join(config.Categories, ", "))
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.DefaultEnvFile)
	if err != nil {
		return nil, err
	}
	if cfg.EnvFileMissing {
		notice.Println("⚠ .env file not found, using defaults (copy .env.example to .env)")
	}
	return cfg, nil
}

func banner() {
	fmt.Print("\n" + rule + "\n")
	heading.Println("ADMIN PANEL UI TEST SUITE")
	fmt.Println(rule)
	notice.Printf("Test Execution Started: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Print(rule + "\n\n")
}

func run(ctx context.Context, category string) (int, error) {
	cfg, err := loadConfig()
	if err != nil {
		return 1, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return 1, err
	}

	banner()
	opts := runner.Options{
		Category: category,
		Run:      runPattern,
		Package:  pkg,
		GoBin:    goBin,
		Live:     os.Stdout,
		Quiet:    quiet,
		Env:      cfg.DirEnv(),
	}
	info.Printf("Executing: %s\n\n", opts.CommandLine())

	res, err := runner.Run(ctx, opts)
	if errors.Is(err, runner.ErrGoNotFound) {
		bad.Printf("Error: %v. Install Go or pass --go.\n", err)
		return 1, nil
	}
	if err != nil {
		bad.Printf("Error running tests: %v\n", err)
		if len(res.Tests) == 0 {
			return 1, nil
		}
	}

	notes := diagnose(ctx, res)

	path, err := report.Write(cfg.ReportsDir, report.Build(res, notes), res.Start)
	if err != nil {
		bad.Printf("Error writing report: %v\n", err)
	}

	fmt.Print("\n" + rule + "\n")
	if res.Passed() {
		good.Println("✓ ALL TESTS PASSED!")
	} else {
		bad.Println("✗ SOME TESTS FAILED!")
	}
	fmt.Println(res.Summary())
	notice.Printf("Test Execution Completed: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	if path != "" {
		info.Printf("HTML Report: %s\n", path)
	}
	fmt.Print(rule + "\n\n")
	return res.ExitCode, nil
}

// diagnose runs --triage over the failed tests. Problems are printed and
// leave the report without notes.
func diagnose(ctx context.Context, res *runner.Result) map[string]string {
	failed := res.Failures()
	if triageWith == "" || len(failed) == 0 {
		return nil
	}

	fmt.Printf("→ Triaging %d failures via %s... ", len(failed), triageWith)
	provider, err := triage.NewProvider(triageWith, model)
	if err != nil {
		fmt.Println("failed")
		bad.Printf("Triage unavailable: %v\n", err)
		return nil
	}
	failures := make([]triage.Failure, 0, len(failed))
	for _, t := range failed {
		failures = append(failures, triage.Failure{
			Name:   t.Name,
			Output: report.StripANSI(strings.Join(t.Output, "")),
		})
	}
	notes := triage.DiagnoseAll(ctx, provider, failures)
	fmt.Println("done")
	for _, t := range failed {
		fmt.Printf("  %s: %s\n", t.Name, notes[t.Name])
	}
	return notes
}

func serveDemo(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := console.Stdout()

	app, err := testapp.New(testapp.Options{
		Password: cfg.AdminPassword,
		Seed:     true,
		Log:      log.Logrus(),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: addr, Handler: app, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Success("Demo admin panel listening on %s (password: %s)", addr, cfg.AdminPassword)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info("Shutting down...")
	return srv.Shutdown(shutdown)
}
