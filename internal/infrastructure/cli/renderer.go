package cli

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cerebrum/bofh-go/internal/domain"
	"github.com/cerebrum/bofh-go/internal/ports"
)

// YAMLFormatter prints strings as they are and structured results as
// YAML. An empty result prints nothing.
type YAMLFormatter struct{}

// Format implements ports.ResultFormatter.
func (YAMLFormatter) Format(result domain.Result) (string, error) {
	switch v := result.Value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []interface{}:
		if len(v) == 0 {
			return "", nil
		}
		if lines, ok := stringLines(v); ok {
			return lines, nil
		}
	}
	out, err := yaml.Marshal(result.Value)
	if err != nil {
		return "", fmt.Errorf("format %s result: %w", result.Command, err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// stringLines joins a list made only of strings one per line.
func stringLines(values []interface{}) (string, bool) {
	lines := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return "", false
		}
		lines = append(lines, s)
	}
	return strings.Join(lines, "\n"), true
}

var _ ports.ResultFormatter = YAMLFormatter{}
