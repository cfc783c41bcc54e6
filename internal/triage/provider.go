// Package triage asks a language model to classify failed scenarios from
// their captured output.
package triage

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Provider diagnoses one failed test.
type Provider interface {
	Diagnose(ctx context.Context, f Failure) (*Diagnosis, error)
}

// Failure is what the model sees of a failed test.
type Failure struct {
	Name   string
	Output string
}

// Categories a diagnosis may carry.
const (
	CategoryAppBug      = "app-bug"
	CategoryTestBug     = "test-bug"
	CategoryEnvironment = "environment"
	CategoryFlaky       = "flaky"
)

// Diagnosis is the model's verdict.
type Diagnosis struct {
	Category   string `json:"category"`
	Summary    string `json:"summary"`
	Suggestion string `json:"suggestion"`
}

func (d *Diagnosis) String() string {
	s := d.Category + ": " + d.Summary
	if d.Suggestion != "" {
		s += " (" + d.Suggestion + ")"
	}
	return s
}

// DefaultProviderEnv names the provider used when none is given.
const DefaultProviderEnv = "PANELTEST_DEFAULT_PROVIDER"

// NewProvider creates a provider by name. An empty name falls back to
// DefaultProviderEnv, then claude.
func NewProvider(name, model string) (Provider, error) {
	if name == "" {
		name = os.Getenv(DefaultProviderEnv)
	}
	switch strings.ToLower(name) {
	case "", "claude", "anthropic":
		return NewClaudeProvider(model)
	case "openai", "gpt":
		return NewOpenAIProvider(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai)", name)
	}
}

// apiKey returns the first non-empty variable of names.
func apiKey(names ...string) (string, error) {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s environment variable required", strings.Join(names, " or "))
}

// DiagnoseAll runs p over failures in order. A failing call is recorded
// as an error note for that test and does not stop the rest.
func DiagnoseAll(ctx context.Context, p Provider, failures []Failure) map[string]string {
	notes := make(map[string]string, len(failures))
	for _, f := range failures {
		d, err := p.Diagnose(ctx, f)
		if err != nil {
			notes[f.Name] = "triage failed: " + err.Error()
			continue
		}
		notes[f.Name] = d.String()
	}
	return notes
}
