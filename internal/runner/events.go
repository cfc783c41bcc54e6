package runner

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/v0xg/paneltest/internal/console"
)

// Status is the outcome of one test.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// TestResult collects the events of one test (or subtest).
type TestResult struct {
	Package    string
	Name       string
	Status     Status
	Elapsed    time.Duration
	Output     []string
	Screenshot string
	// Deselected is set when the test skipped itself because the selected
	// category does not include it.
	Deselected bool
}

// Parent is the name of the enclosing test, or "" for a top-level test.
func (r *TestResult) Parent() string {
	if i := strings.LastIndexByte(r.Name, '/'); i >= 0 {
		return r.Name[:i]
	}
	return ""
}

func (r *TestResult) key() string {
	return r.Package + "\x00" + r.Name
}

// Collector folds a test2json stream into TestResults. Lines that are not
// JSON (build errors, vet output) are kept verbatim in Stray.
type Collector struct {
	// Live receives test output as it arrives; nil discards it.
	Live io.Writer
	// Quiet limits Live to the final verdict of each test.
	Quiet bool

	Stray []string

	tests []*TestResult
	index map[string]*TestResult
}

func NewCollector(live io.Writer, quiet bool) *Collector {
	return &Collector{Live: live, Quiet: quiet, index: map[string]*TestResult{}}
}

// Results returns tests in the order they started.
func (c *Collector) Results() []*TestResult {
	return c.tests
}

func (c *Collector) lookup(pkg, name string) *TestResult {
	r := &TestResult{Package: pkg, Name: name}
	if got, ok := c.index[r.key()]; ok {
		return got
	}
	c.index[r.key()] = r
	c.tests = append(c.tests, r)
	return r
}

// Consume reads r until EOF.
func (c *Collector) Consume(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		c.Line(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading test output: %w", err)
	}
	return nil
}

// Line handles one line of test2json output.
func (c *Collector) Line(line string) {
	if !gjson.Valid(line) {
		if strings.TrimSpace(line) != "" {
			c.Stray = append(c.Stray, line)
			c.echo(line + "\n")
		}
		return
	}

	ev := gjson.Parse(line)
	pkg := ev.Get("Package").String()
	name := ev.Get("Test").String()
	action := ev.Get("Action").String()

	if name == "" {
		c.packageEvent(pkg, action, ev)
		return
	}

	t := c.lookup(pkg, name)
	switch action {
	case "output":
		out := ev.Get("Output").String()
		t.Output = append(t.Output, out)
		if path, ok := screenshotPath(out); ok {
			t.Screenshot = path
		}
		if strings.Contains(out, console.Deselected) {
			t.Deselected = true
		}
		if !c.Quiet {
			c.echo(out)
		}
	case "pass", "fail", "skip":
		t.Status = Status(action)
		t.Elapsed = seconds(ev.Get("Elapsed").Float())
		if c.Quiet && !t.Deselected {
			c.echo(fmt.Sprintf("--- %s: %s (%.2fs)\n", strings.ToUpper(action), name, t.Elapsed.Seconds()))
		}
	}
}

// packageEvent records a package that failed without running any test,
// usually a build failure, as a pseudo-test so it is not lost.
func (c *Collector) packageEvent(pkg, action string, ev gjson.Result) {
	switch action {
	case "output":
		if !c.Quiet {
			c.echo(ev.Get("Output").String())
		}
	case "build-output":
		out := ev.Get("Output").String()
		c.Stray = append(c.Stray, strings.TrimRight(out, "\n"))
		c.echo(out)
	case "fail":
		for _, t := range c.tests {
			if t.Package == pkg {
				return
			}
		}
		t := c.lookup(pkg, "[build]")
		t.Status = StatusFail
		t.Elapsed = seconds(ev.Get("Elapsed").Float())
		t.Output = append(t.Output, c.Stray...)
	}
}

func (c *Collector) echo(s string) {
	if c.Live != nil {
		_, _ = io.WriteString(c.Live, s)
	}
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func screenshotPath(out string) (string, bool) {
	i := strings.Index(out, console.ScreenshotSaved)
	if i < 0 {
		return "", false
	}
	path := strings.TrimSpace(out[i+len(console.ScreenshotSaved):])
	return path, path != ""
}
