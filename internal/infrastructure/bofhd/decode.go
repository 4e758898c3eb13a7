package bofhd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cerebrum/bofh-go/internal/domain"
)

// The server escapes None as ":None" and doubles a leading colon on
// ordinary strings; the same rules apply to arguments we send.
const noneMarker = ":None"

func escapeArg(s string) string {
	if strings.HasPrefix(s, ":") {
		return ":" + s
	}
	return s
}

// unescape rewrites server strings throughout a decoded response.
func unescape(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		if t == noneMarker {
			return nil
		}
		if strings.HasPrefix(t, "::") {
			return t[1:]
		}
		return t
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = unescape(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = unescape(e)
		}
		return out
	}
	return v
}

// parseCommands decodes the get_commands response:
//
//	{fullname: [[group, subcommand], [argument, ...] | "prompt_func"], ...}
func parseCommands(raw interface{}) ([]domain.CommandSpec, error) {
	table, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("get_commands: expected struct, got %T", raw)
	}
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]domain.CommandSpec, 0, len(names))
	for _, name := range names {
		spec, err := parseCommand(name, table[name])
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseCommand(name string, raw interface{}) (domain.CommandSpec, error) {
	entry, ok := raw.([]interface{})
	if !ok || len(entry) < 1 {
		return domain.CommandSpec{}, fmt.Errorf("command %s: malformed entry", name)
	}
	spec := domain.CommandSpec{Name: name}
	if words, ok := entry[0].([]interface{}); ok && len(words) == 2 {
		spec.Group = asString(words[0])
		spec.Subcommand = asString(words[1])
	}
	if len(entry) < 2 {
		return spec, nil
	}
	switch args := entry[1].(type) {
	case string:
		// Arguments are negotiated one at a time through call_prompt_func.
		spec.PromptFunc = true
		spec.Args = []domain.ArgumentSpec{{
			Name:     "value",
			Kind:     domain.KindReference,
			Optional: true,
			Repeat:   true,
			Remote:   true,
		}}
	case []interface{}:
		for i, a := range args {
			fields, ok := a.(map[string]interface{})
			if !ok {
				return domain.CommandSpec{}, fmt.Errorf("command %s: argument %d is %T", name, i, a)
			}
			spec.Args = append(spec.Args, parseArgument(fields))
		}
	case nil:
	default:
		return domain.CommandSpec{}, fmt.Errorf("command %s: unexpected arguments %T", name, args)
	}
	return spec, nil
}

func parseArgument(fields map[string]interface{}) domain.ArgumentSpec {
	arg := domain.ArgumentSpec{
		Type:     asString(fields["type"]),
		Optional: asBool(fields["optional"]),
		Repeat:   asBool(fields["repeat"]),
		Default:  asString(fields["default"]),
		HelpRef:  asString(fields["help_ref"]),
		Prompt:   asString(fields["prompt"]),
	}
	arg.Kind = kindForType(arg.Type)
	if arg.Kind == domain.KindBoolean {
		arg.Choices = []string{"yes", "no"}
	}
	arg.Name = placeholder(arg)
	return arg
}

// kindForType maps server argument types onto completion behaviour.
func kindForType(typ string) domain.ArgumentKind {
	lower := strings.ToLower(typ)
	switch {
	case lower == "yesno" || lower == "yesnoarg":
		return domain.KindBoolean
	case lower == "integer":
		return domain.KindNumeric
	case strings.HasSuffix(lower, "name") || strings.HasSuffix(lower, "id"):
		return domain.KindReference
	case strings.HasSuffix(lower, "type") || strings.HasSuffix(lower, "spread"):
		return domain.KindEnumerated
	}
	return domain.KindFreeText
}

// placeholder derives a hint label: the prompt without its trailing
// punctuation, or the type in dashed form.
func placeholder(arg domain.ArgumentSpec) string {
	if p := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(arg.Prompt), ":?")); p != "" {
		return strings.ToLower(strings.Join(strings.Fields(p), "-"))
	}
	var b strings.Builder
	for i, r := range arg.Type {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parsePromptValues extracts the selectable values from a
// call_prompt_func response:
//
//	{prompt: ..., map: [[["Header", ...], None], [[format, ...], value], ...]}
func parsePromptValues(raw interface{}) []string {
	reply, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	entries, ok := reply["map"].([]interface{})
	if !ok {
		return nil
	}
	var values []string
	for i, e := range entries {
		pair, ok := e.([]interface{})
		if !ok || len(pair) < 2 {
			continue
		}
		if i == 0 && pair[1] == nil {
			continue
		}
		if v := asString(pair[1]); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

func asBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "True" || t == "true" || t == "1"
	case int64:
		return t != 0
	case int:
		return t != 0
	}
	return false
}
