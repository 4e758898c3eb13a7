// Package completion turns a partially typed line into completion
// candidates and inline hints, driven entirely by the catalog grammar.
//
// The engine is stateless. Every call receives an immutable catalog
// snapshot and the line up to the cursor; the only side effects are the
// enumerated-value lookups it delegates to a [ValueSource].
package completion

import (
	"context"
	"sort"
	"unicode/utf8"

	"github.com/cerebrum/bofh-go/internal/application/catalog"
	"github.com/cerebrum/bofh-go/internal/domain"
)

// ValueSource resolves enumerated argument values.
type ValueSource interface {
	EnumeratedValues(ctx context.Context, query domain.ValueQuery) []string
}

// Engine computes completions and hints.
type Engine struct{}

// NewEngine returns a completion engine.
func NewEngine() *Engine {
	return &Engine{}
}

type targetKind int

const (
	targetCommand targetKind = iota
	targetSubcommand
	targetArgument
	targetUnknown
)

// analysis is where the cursor sits in the grammar.
type analysis struct {
	kind    targetKind
	partial Token
	// inWord reports that the cursor is inside a word being typed rather
	// than at the start of a new one.
	inWord   bool
	group    string
	spec     domain.CommandSpec
	argIndex int
	args     []string
	unknown  string
}

func analyze(snap *catalog.Snapshot, line string, cursor int) analysis {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(line) {
		cursor = len(line)
	}
	tokens := Tokenize(line[:cursor])
	words := tokens.Words
	var a analysis
	index := len(words)
	if len(words) > 0 && !tokens.Trailing {
		index = len(words) - 1
		a.partial = words[index]
		a.partial.End = cursor
		a.inWord = true
	} else {
		a.partial = Token{Start: cursor, End: cursor}
	}
	done := words[:index]

	if index == 0 {
		a.kind = targetCommand
		return a
	}
	first := done[0].Text
	if spec, ok := snap.Lookup(first); ok {
		a.kind = targetArgument
		a.spec = spec
		a.argIndex = index - 1
		a.args = texts(done[1:])
		return a
	}
	if !snap.IsGroup(first) {
		a.kind = targetUnknown
		a.unknown = first
		return a
	}
	a.group = first
	if index == 1 {
		a.kind = targetSubcommand
		return a
	}
	spec, ok := snap.LookupSubcommand(first, done[1].Text)
	if !ok {
		a.kind = targetUnknown
		a.unknown = first + " " + done[1].Text
		return a
	}
	a.kind = targetArgument
	a.spec = spec
	a.argIndex = index - 2
	a.args = texts(done[2:])
	return a
}

// Complete returns the candidates for the word at the cursor. When no
// candidates exist for an argument the hint still describes what is
// expected there.
func (e *Engine) Complete(ctx context.Context, snap *catalog.Snapshot, values ValueSource, line string, cursor int) domain.CompletionResult {
	a := analyze(snap, line, cursor)
	result := domain.CompletionResult{Start: a.partial.Start, End: a.partial.End}

	switch a.kind {
	case targetCommand:
		result.Candidates = snap.PrefixNames(a.partial.Text)
		if len(result.Candidates) == 0 && a.partial.Text != "" {
			result.Hint = unknownHint(a.partial.Text, a.inWord)
		}
	case targetSubcommand:
		result.Candidates = snap.Subcommands(a.group, a.partial.Text)
		if len(result.Candidates) == 0 {
			result.Hint = unknownHint(a.group+" "+a.partial.Text, a.inWord)
		}
	case targetUnknown:
		result.Hint = unknownHint(a.unknown, a.inWord)
	case targetArgument:
		arg, ok := a.spec.ArgumentAt(a.argIndex)
		if !ok {
			result.Hint = tooManyHint(a.inWord)
			break
		}
		if values != nil {
			query := domain.ValueQuery{
				Command:   a.spec,
				Argument:  arg,
				Position:  a.argIndex,
				Preceding: a.args,
				Filter:    a.partial.Text,
			}
			result.Candidates = sortCandidates(values.EnumeratedValues(ctx, query))
		}
		result.Hint = argumentsHint(a.spec, a.argIndex, true, a.inWord)
	}
	return result
}

// Hint returns the live hint for the line, or nil. It never performs a
// remote lookup and only hints when the cursor is at the end of the line.
func (e *Engine) Hint(snap *catalog.Snapshot, line string, cursor int) *domain.Hint {
	if cursor != len(line) || line == "" {
		return nil
	}
	a := analyze(snap, line, cursor)
	switch a.kind {
	case targetCommand:
		if !a.inWord {
			return nil
		}
		candidates := snap.PrefixNames(a.partial.Text)
		if len(candidates) == 0 {
			return unknownHint(a.partial.Text, true)
		}
		if len(candidates) != 1 {
			return nil
		}
		if candidates[0] == a.partial.Text {
			spec, _ := snap.Lookup(candidates[0])
			return argumentsHint(spec, 0, true, true)
		}
		return remainderHint(candidates[0], a.partial.Text)
	case targetSubcommand:
		if !a.inWord {
			return &domain.Hint{Kind: domain.HintIncompleteCommand, Text: "expects a subcommand"}
		}
		candidates := snap.Subcommands(a.group, a.partial.Text)
		if len(candidates) == 0 {
			return unknownHint(a.group+" "+a.partial.Text, true)
		}
		if len(candidates) != 1 {
			return nil
		}
		if candidates[0] == a.partial.Text {
			spec, _ := snap.LookupSubcommand(a.group, candidates[0])
			return argumentsHint(spec, 0, true, true)
		}
		return remainderHint(candidates[0], a.partial.Text)
	case targetUnknown:
		return unknownHint(a.unknown, a.inWord)
	case targetArgument:
		if !a.inWord {
			if _, ok := a.spec.ArgumentAt(a.argIndex); !ok {
				return tooManyHint(false)
			}
			return argumentsHint(a.spec, a.argIndex, true, false)
		}
		if _, ok := a.spec.ArgumentAt(a.argIndex); !ok {
			return tooManyHint(true)
		}
		return argumentsHint(a.spec, a.argIndex+1, false, true)
	}
	return nil
}

// Classify reports how the command word of line matches the catalog and
// the rune offset where that word ends. In the two-word group form the
// subcommand word is classified too and the offset covers both words.
func (e *Engine) Classify(snap *catalog.Snapshot, line string) (domain.CommandStatus, int) {
	tokens := Tokenize(line)
	if len(tokens.Words) == 0 {
		return domain.StatusEmpty, 0
	}
	first := tokens.Words[0]
	end := utf8.RuneCountInString(line[:first.End])

	if group, ok := groupOf(snap, first.Text); ok && len(tokens.Words) > 1 {
		second := tokens.Words[1]
		end = utf8.RuneCountInString(line[:second.End])
		if _, ok := snap.LookupSubcommand(group, second.Text); ok {
			return domain.StatusKnown, end
		}
		return statusOf(len(snap.Subcommands(group, second.Text))), end
	}

	if _, ok := snap.Lookup(first.Text); ok || snap.IsGroup(first.Text) {
		return domain.StatusKnown, end
	}
	return statusOf(len(snap.PrefixNames(first.Text)) + len(snap.Groups(first.Text))), end
}

// groupOf resolves word to a group when it is not a full command name.
func groupOf(snap *catalog.Snapshot, word string) (string, bool) {
	if _, ok := snap.Lookup(word); ok {
		return "", false
	}
	if snap.IsGroup(word) {
		return word, true
	}
	if groups := snap.Groups(word); len(groups) == 1 {
		return groups[0], true
	}
	return "", false
}

func statusOf(matches int) domain.CommandStatus {
	switch matches {
	case 0:
		return domain.StatusUnknown
	case 1:
		return domain.StatusKnown
	}
	return domain.StatusAmbiguous
}

func remainderHint(candidate, typed string) *domain.Hint {
	return &domain.Hint{Kind: domain.HintRemainder, Text: candidate[len(typed):]}
}

func unknownHint(word string, leading bool) *domain.Hint {
	return &domain.Hint{Kind: domain.HintUnknownCommand, Text: "unknown command " + word, Leading: leading}
}

func tooManyHint(leading bool) *domain.Hint {
	return &domain.Hint{Kind: domain.HintTooManyArguments, Text: "no more arguments", Leading: leading}
}

// argumentsHint lists the placeholders from position from onwards. With
// markCurrent the first of them is flagged as the one being entered.
// A nil hint is returned when nothing remains to show.
func argumentsHint(spec domain.CommandSpec, from int, markCurrent, leading bool) *domain.Hint {
	hint := &domain.Hint{Kind: domain.HintArguments, Leading: leading}
	for i := from; i < len(spec.Args); i++ {
		arg := spec.Args[i]
		hint.Args = append(hint.Args, domain.HintArgument{
			Name:     arg.Label(),
			Kind:     arg.Kind,
			Required: arg.Required(),
			Repeat:   arg.Repeat,
			Current:  markCurrent && i == from,
		})
	}
	if len(hint.Args) == 0 && markCurrent {
		if arg, ok := spec.ArgumentAt(from); ok {
			hint.Args = append(hint.Args, domain.HintArgument{
				Name: arg.Label(), Kind: arg.Kind, Required: false, Repeat: true, Current: true,
			})
		}
	}
	if len(hint.Args) == 0 {
		return nil
	}
	return hint
}

// sortCandidates deduplicates and sorts lexicographically; equal entries
// keep their original order.
func sortCandidates(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func texts(tokens []Token) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Text)
	}
	return out
}
