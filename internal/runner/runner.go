// Package runner executes the scenario suite through `go test -json` and
// gathers per-test results for the console and the HTML report.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/v0xg/paneltest/internal/config"
)

// DefaultPackage holds the browser scenarios.
const DefaultPackage = "./internal/scenarios/..."

// ErrGoNotFound is returned when the go binary cannot be located.
var ErrGoNotFound = errors.New("go binary not found")

// Options selects what to run.
type Options struct {
	Category string
	// Run is passed to -run; it selects test functions by name.
	Run     string
	Package string
	GoBin   string
	Dir     string
	// Env is appended to the current environment.
	Env []string

	Live  io.Writer
	Quiet bool
}

func (o Options) category() string {
	if o.Category == "" {
		return config.CategoryAll
	}
	return o.Category
}

func (o Options) goBin() string {
	if o.GoBin == "" {
		return "go"
	}
	return o.GoBin
}

// Args is the full command line, binary first.
func (o Options) Args() []string {
	args := []string{o.goBin(), "test", "-json", "-count=1", "-v"}
	if o.Run != "" {
		args = append(args, "-run", o.Run)
	}
	pkg := o.Package
	if pkg == "" {
		pkg = DefaultPackage
	}
	return append(args, pkg)
}

// CommandLine renders Args for display, prefixed with the category
// environment variable.
func (o Options) CommandLine() string {
	return config.CategoryEnv + "=" + o.category() + " " + strings.Join(o.Args(), " ")
}

// Result of one run.
type Result struct {
	Category string
	Command  string
	Start    time.Time
	Duration time.Duration
	ExitCode int
	Tests    []*TestResult
	// Stray holds non-JSON output such as compiler errors.
	Stray []string
}

// Counts tallies outcomes, leaving deselected tests out of skipped.
type Counts struct {
	Passed, Failed, Skipped, Deselected int
}

func (c Counts) Total() int {
	return c.Passed + c.Failed + c.Skipped
}

func (r *Result) Counts() Counts {
	var c Counts
	for _, t := range r.Tests {
		switch {
		case t.Deselected:
			c.Deselected++
		case t.Status == StatusPass:
			c.Passed++
		case t.Status == StatusFail:
			c.Failed++
		case t.Status == StatusSkip:
			c.Skipped++
		}
	}
	return c
}

// Selected drops deselected tests.
func (r *Result) Selected() []*TestResult {
	out := make([]*TestResult, 0, len(r.Tests))
	for _, t := range r.Tests {
		if !t.Deselected {
			out = append(out, t)
		}
	}
	return out
}

// Failures lists failed tests.
func (r *Result) Failures() []*TestResult {
	var out []*TestResult
	for _, t := range r.Tests {
		if t.Status == StatusFail {
			out = append(out, t)
		}
	}
	return out
}

func (r *Result) Summary() string {
	c := r.Counts()
	s := fmt.Sprintf("%d passed, %d failed, %d skipped", c.Passed, c.Failed, c.Skipped)
	if c.Deselected > 0 {
		s += fmt.Sprintf(", %d deselected", c.Deselected)
	}
	return s + fmt.Sprintf(" in %.1fs", r.Duration.Seconds())
}

// Passed reports a zero exit code.
func (r *Result) Passed() bool {
	return r.ExitCode == 0
}

// Run executes the suite. A non-zero exit from go test is reported in
// Result.ExitCode, not as an error.
func Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{
		Category: opts.category(),
		Command:  opts.CommandLine(),
		Start:    time.Now(),
		ExitCode: 1,
	}

	args := opts.Args()
	bin, err := exec.LookPath(args[0])
	if err != nil {
		return res, fmt.Errorf("%w: %s", ErrGoNotFound, args[0])
	}

	cmd := exec.CommandContext(ctx, bin, args[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), opts.Env...)
	cmd.Env = append(cmd.Env, config.CategoryEnv+"="+res.Category)

	// go test -json writes build failures to stderr; both streams share
	// one pipe so the collector sees them in order.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		return res, fmt.Errorf("failed to start go test: %w", err)
	}
	done := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		done <- err
	}()

	collector := NewCollector(opts.Live, opts.Quiet)
	readErr := collector.Consume(pr)
	if readErr != nil {
		_, _ = io.Copy(io.Discard, pr)
	}
	waitErr := <-done
	res.Duration = time.Since(res.Start)
	res.Tests = collector.Results()
	res.Stray = collector.Stray

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		res.ExitCode = 0
	case errors.As(waitErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, fmt.Errorf("go test failed: %w", waitErr)
	}
	if readErr != nil {
		return res, readErr
	}
	return res, nil
}
