package deploy

import (
	"fmt"
	"strings"

	"github.com/fleetpush/fleetpush/pkg/util"
)

// ConfigLines returns the effective configuration lines of a template:
// trimmed, with blank lines and '!' comment lines removed. The template
// is otherwise opaque to the engine.
func ConfigLines(template string) []string {
	var lines []string
	for _, line := range strings.Split(template, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// ValidateTemplate runs basic syntax checks over a template before any
// task starts. Returns advisory warnings and a hard error when the
// template cannot be deployed at all.
func ValidateTemplate(template string) (warnings []string, err error) {
	v := &util.ValidationBuilder{}

	lines := strings.Split(template, "\n")
	hasHostname := false
	effective := 0
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}
		effective++
		if strings.Contains(strings.ToLower(line), "hostname") {
			hasHostname = true
		}
		if strings.Count(line, `"`)%2 != 0 {
			v.AddErrorf("line %d: unclosed quotes", i+1)
		}
		if strings.Contains(raw, "\t") {
			warnings = append(warnings, fmt.Sprintf("line %d: contains tabs (use spaces instead)", i+1))
		}
	}

	if effective == 0 {
		v.AddError("no effective configuration lines")
	}
	if !hasHostname {
		warnings = append(warnings, "no hostname configuration found")
	}

	return warnings, v.Build()
}
