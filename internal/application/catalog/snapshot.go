package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/cerebrum/bofh-go/internal/domain"
)

// Snapshot is an immutable, fully built view of the server's commands.
// Completion works on snapshots so a refresh never exposes a half-built
// grammar.
type Snapshot struct {
	commands *orderedmap.OrderedMap[string, domain.CommandSpec]
	// names is sorted lexicographically, stable on insertion order.
	names  []string
	groups map[string]*group
	// groupNames is sorted lexicographically.
	groupNames []string
}

type group struct {
	subcommands map[string]string
	names       []string
}

// IncompleteCommandError reports a group name typed without a subcommand.
type IncompleteCommandError struct {
	Group       string
	Subcommands []string
}

func (e *IncompleteCommandError) Error() string {
	return fmt.Sprintf("incomplete command '%s', possible subcommands: %s", e.Group, strings.Join(e.Subcommands, ", "))
}

// UnknownCommandError reports a command word that matches nothing.
type UnknownCommandError struct {
	Words []string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command '%s'", strings.Join(e.Words, " "))
}

func (e *UnknownCommandError) Unwrap() error {
	return domain.ErrUnknownCommand
}

// Resolution is a command word sequence resolved against the catalog.
type Resolution struct {
	Command domain.CommandSpec
	Args    []string
}

// NewSnapshot builds a snapshot from the server's command list. Names must
// be non-empty and unique.
func NewSnapshot(specs []domain.CommandSpec) (*Snapshot, error) {
	s := &Snapshot{
		commands: orderedmap.New[string, domain.CommandSpec](),
		groups:   make(map[string]*group),
	}
	for _, spec := range specs {
		if strings.TrimSpace(spec.Name) == "" {
			return nil, errors.New("command with empty name")
		}
		if _, exists := s.commands.Get(spec.Name); exists {
			return nil, fmt.Errorf("duplicate command %q", spec.Name)
		}
		s.commands.Set(spec.Name, spec)
		s.names = append(s.names, spec.Name)
		if spec.Group == "" || spec.Subcommand == "" {
			continue
		}
		g, ok := s.groups[spec.Group]
		if !ok {
			g = &group{subcommands: make(map[string]string)}
			s.groups[spec.Group] = g
			s.groupNames = append(s.groupNames, spec.Group)
		}
		if _, dup := g.subcommands[spec.Subcommand]; dup {
			return nil, fmt.Errorf("duplicate subcommand %q in group %q", spec.Subcommand, spec.Group)
		}
		g.subcommands[spec.Subcommand] = spec.Name
		g.names = append(g.names, spec.Subcommand)
	}
	sort.SliceStable(s.names, func(i, j int) bool { return s.names[i] < s.names[j] })
	sort.Strings(s.groupNames)
	for _, g := range s.groups {
		sort.SliceStable(g.names, func(i, j int) bool { return g.names[i] < g.names[j] })
	}
	return s, nil
}

func emptySnapshot() *Snapshot {
	s, _ := NewSnapshot(nil)
	return s
}

// Len returns the number of commands.
func (s *Snapshot) Len() int {
	return s.commands.Len()
}

// Lookup finds a command by exact name.
func (s *Snapshot) Lookup(name string) (domain.CommandSpec, bool) {
	return s.commands.Get(name)
}

// Names returns every command name in lexicographic order.
func (s *Snapshot) Names() []string {
	return append([]string(nil), s.names...)
}

// Commands returns every command in catalog insertion order.
func (s *Snapshot) Commands() []domain.CommandSpec {
	out := make([]domain.CommandSpec, 0, s.commands.Len())
	for pair := s.commands.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// PrefixSearch returns every command whose name starts with prefix,
// sorted lexicographically.
func (s *Snapshot) PrefixSearch(prefix string) []domain.CommandSpec {
	var out []domain.CommandSpec
	for _, name := range prefixRange(s.names, prefix) {
		spec, _ := s.commands.Get(name)
		out = append(out, spec)
	}
	return out
}

// PrefixNames is PrefixSearch returning names only.
func (s *Snapshot) PrefixNames(prefix string) []string {
	return append([]string(nil), prefixRange(s.names, prefix)...)
}

// IsGroup reports whether name is a command group.
func (s *Snapshot) IsGroup(name string) bool {
	_, ok := s.groups[name]
	return ok
}

// Groups returns the group names starting with prefix.
func (s *Snapshot) Groups(prefix string) []string {
	return append([]string(nil), prefixRange(s.groupNames, prefix)...)
}

// Subcommands returns the subcommand names of group starting with prefix.
func (s *Snapshot) Subcommands(groupName, prefix string) []string {
	g, ok := s.groups[groupName]
	if !ok {
		return nil
	}
	return append([]string(nil), prefixRange(g.names, prefix)...)
}

// LookupSubcommand finds a command by its two-word form.
func (s *Snapshot) LookupSubcommand(groupName, sub string) (domain.CommandSpec, bool) {
	g, ok := s.groups[groupName]
	if !ok {
		return domain.CommandSpec{}, false
	}
	name, ok := g.subcommands[sub]
	if !ok {
		return domain.CommandSpec{}, false
	}
	return s.commands.Get(name)
}

// Resolve maps the words of a submitted line to a command and its
// arguments. The full command name always wins; otherwise the two-word
// group form is tried, accepting unambiguous abbreviations of either word.
func (s *Snapshot) Resolve(words []string) (Resolution, error) {
	if len(words) == 0 {
		return Resolution{}, &UnknownCommandError{}
	}
	if spec, ok := s.Lookup(words[0]); ok {
		return Resolution{Command: spec, Args: words[1:]}, nil
	}
	groupName, ok := s.uniqueGroup(words[0])
	if !ok {
		return Resolution{}, &UnknownCommandError{Words: words[:1]}
	}
	if len(words) == 1 {
		return Resolution{}, &IncompleteCommandError{Group: groupName, Subcommands: s.Subcommands(groupName, "")}
	}
	sub, ok := s.uniqueSubcommand(groupName, words[1])
	if !ok {
		return Resolution{}, &UnknownCommandError{Words: words[:2]}
	}
	spec, _ := s.LookupSubcommand(groupName, sub)
	return Resolution{Command: spec, Args: words[2:]}, nil
}

func (s *Snapshot) uniqueGroup(word string) (string, bool) {
	if s.IsGroup(word) {
		return word, true
	}
	matches := prefixRange(s.groupNames, word)
	if len(matches) == 1 {
		return matches[0], true
	}
	return "", false
}

func (s *Snapshot) uniqueSubcommand(groupName, word string) (string, bool) {
	if _, ok := s.LookupSubcommand(groupName, word); ok {
		return word, true
	}
	matches := s.Subcommands(groupName, word)
	if len(matches) == 1 {
		return matches[0], true
	}
	return "", false
}

// prefixRange returns the contiguous run of sorted entries starting with
// prefix. The result aliases sorted.
func prefixRange(sorted []string, prefix string) []string {
	lo := sort.SearchStrings(sorted, prefix)
	hi := lo
	for hi < len(sorted) && strings.HasPrefix(sorted[hi], prefix) {
		hi++
	}
	return sorted[lo:hi]
}
