package triage

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPrompt = `You triage failures of an end-to-end browser test suite for a web admin panel (login, dashboard, blogs, portfolio, gallery, site configuration, backups).

You will receive the name of a failed Go test and its captured output, which includes the harness log lines ([INFO], [SUCCESS], [WARNING], [ERROR]) and testify assertion messages.

Classify the failure into exactly one category:
- "app-bug": the admin panel misbehaved (wrong data, missing element it should render, no success toast after a valid save)
- "test-bug": the test or its locators are wrong (element never matched, wrong expectation)
- "environment": the panel or browser was unreachable, timed out on startup, or was misconfigured
- "flaky": timing-sensitive behavior that is likely to pass on retry

Respond ONLY with a JSON object, no explanation or markdown:
{"category": "...", "summary": "one sentence on what failed", "suggestion": "one sentence on what to check next"}`

// maxOutput keeps the tail of long logs, where the failure usually is.
const maxOutput = 12000

func buildUserPrompt(f Failure) string {
	out := f.Output
	if len(out) > maxOutput {
		out = "...\n" + out[len(out)-maxOutput:]
	}
	return fmt.Sprintf("Test: %s\n\nOutput:\n%s", f.Name, out)
}

var validCategories = map[string]bool{
	CategoryAppBug:      true,
	CategoryTestBug:     true,
	CategoryEnvironment: true,
	CategoryFlaky:       true,
}

// parseDiagnosisJSON extracts and parses a JSON object from a response
// that may contain surrounding text.
func parseDiagnosisJSON(response string) (*Diagnosis, error) {
	var d Diagnosis
	if err := json.Unmarshal([]byte(response), &d); err != nil {
		obj, ok := extractObject(response)
		if !ok {
			return nil, fmt.Errorf("no JSON object found in response")
		}
		if err := json.Unmarshal([]byte(obj), &d); err != nil {
			return nil, fmt.Errorf("failed to parse extracted JSON: %w", err)
		}
	}

	d.Category = strings.ToLower(strings.TrimSpace(d.Category))
	if !validCategories[d.Category] {
		return nil, fmt.Errorf("unknown category %q", d.Category)
	}
	if d.Summary == "" {
		return nil, fmt.Errorf("diagnosis has no summary")
	}
	return &d, nil
}

// extractObject finds the first balanced {...}, skipping braces inside
// JSON strings.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
