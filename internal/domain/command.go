package domain

import "strings"

// ArgumentKind classifies how candidate values for an argument are produced.
type ArgumentKind string

const (
	KindFreeText   ArgumentKind = "text"
	KindEnumerated ArgumentKind = "enumerated"
	KindReference  ArgumentKind = "reference"
	KindBoolean    ArgumentKind = "boolean"
	KindNumeric    ArgumentKind = "numeric"
)

// ArgumentSpec describes one positional argument of a server command.
type ArgumentSpec struct {
	// Name is the placeholder shown to the operator, e.g. "account-name".
	Name string
	// Type is the raw server type name, e.g. "accountName".
	Type     string
	Kind     ArgumentKind
	Optional bool
	// Repeat marks an argument that may be given any number of times.
	// Only meaningful on the last argument.
	Repeat  bool
	Default string
	HelpRef string
	Prompt  string
	// Choices holds the legal literal values of a statically enumerated
	// argument.
	Choices []string
	// Remote marks arguments whose values are looked up from the server.
	Remote bool
}

// Required reports whether the argument must be supplied.
func (a ArgumentSpec) Required() bool {
	return !a.Optional
}

// Label returns the placeholder text used in hints.
func (a ArgumentSpec) Label() string {
	if a.Name != "" {
		return a.Name
	}
	if a.Type != "" {
		return a.Type
	}
	return "arg"
}

// CommandSpec is one command from the server catalog. It is immutable
// once fetched and replaced wholesale on refresh.
type CommandSpec struct {
	// Name is the full command name as understood by the server,
	// e.g. "user_create".
	Name string
	// Group and Subcommand are the two-word form of the name,
	// e.g. "user" and "create". Both are empty when the server
	// does not advertise a grouping.
	Group      string
	Subcommand string
	Args       []ArgumentSpec
	Help       string
	Usage      string
	// PromptFunc marks commands whose arguments are negotiated with
	// the server one at a time.
	PromptFunc bool
}

// ArgumentAt returns the argument expected at ordinal position i. A
// repeating last argument absorbs every position past the end.
func (c CommandSpec) ArgumentAt(i int) (ArgumentSpec, bool) {
	if i < 0 || len(c.Args) == 0 {
		return ArgumentSpec{}, false
	}
	if i < len(c.Args) {
		return c.Args[i], true
	}
	last := c.Args[len(c.Args)-1]
	if last.Repeat {
		return last, true
	}
	return ArgumentSpec{}, false
}

// UsageLine renders a one-line usage string for the command.
func (c CommandSpec) UsageLine() string {
	if c.Usage != "" {
		return c.Usage
	}
	parts := []string{c.Name}
	for _, arg := range c.Args {
		label := "<" + arg.Label() + ">"
		if arg.Repeat {
			label += "..."
		}
		if arg.Optional {
			label = "[" + label + "]"
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " ")
}

// ValueQuery describes an enumerated-value lookup for one argument
// position of a partially typed command.
type ValueQuery struct {
	Command   CommandSpec
	Argument  ArgumentSpec
	Position  int
	Preceding []string
	Filter    string
}
