package completion

import (
	"strings"
	"unicode"

	"github.com/cerebrum/bofh-go/internal/domain"
)

// Token is one word of an input line.
type Token struct {
	// Text is the word with quoting removed.
	Text string
	// Start and End are byte offsets of the raw word in the line.
	Start int
	End   int
}

// Tokens is the result of tokenizing a line.
type Tokens struct {
	Words []Token
	// Open is the quote rune left unterminated at end of input, if any.
	Open rune
	// Escape reports a trailing unconsumed backslash.
	Escape bool
	// Trailing reports that the line ends in unquoted whitespace, so the
	// next word has not started yet.
	Trailing bool
}

// Tokenize splits line into words. Single quotes are literal, double
// quotes allow backslash escapes of '"' and '\', and a backslash outside
// quotes escapes the next rune. Unterminated quoting is reported, not
// rejected, so a word being typed can still be completed.
func Tokenize(line string) Tokens {
	var (
		out     Tokens
		word    strings.Builder
		inWord  bool
		start   int
		quote   rune
		escaped bool
	)
	flush := func(end int) {
		out.Words = append(out.Words, Token{Text: word.String(), Start: start, End: end})
		word.Reset()
		inWord = false
	}
	for i, r := range line {
		if !inWord {
			if unicode.IsSpace(r) {
				continue
			}
			inWord = true
			start = i
		}
		switch {
		case escaped:
			if quote == '"' && r != '"' && r != '\\' {
				word.WriteRune('\\')
			}
			word.WriteRune(r)
			escaped = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				word.WriteRune(r)
			}
		case quote == '"':
			switch r {
			case '"':
				quote = 0
			case '\\':
				escaped = true
			default:
				word.WriteRune(r)
			}
		case r == '\\':
			escaped = true
		case r == '\'' || r == '"':
			quote = r
		case unicode.IsSpace(r):
			flush(i)
		default:
			word.WriteRune(r)
		}
	}
	if inWord {
		flush(len(line))
	} else if len(out.Words) > 0 {
		out.Trailing = true
	}
	out.Open = quote
	out.Escape = escaped
	return out
}

// Split tokenizes a submitted line into its words. Unterminated quoting is
// an error wrapping domain.ErrInvalidInputSyntax.
func Split(line string) ([]string, error) {
	tokens := Tokenize(line)
	if tokens.Open != 0 {
		last := tokens.Words[len(tokens.Words)-1]
		return nil, &domain.SyntaxError{Offset: last.Start, Reason: "unterminated " + quoteName(tokens.Open) + " quote"}
	}
	if tokens.Escape {
		return nil, &domain.SyntaxError{Offset: len(line) - 1, Reason: "trailing backslash"}
	}
	words := make([]string, 0, len(tokens.Words))
	for _, w := range tokens.Words {
		words = append(words, w.Text)
	}
	return words, nil
}

// Quote renders a word so that Tokenize yields it back unchanged.
func Quote(word string) string {
	if word == "" {
		return `""`
	}
	if !strings.ContainsFunc(word, needsQuoting) {
		return word
	}
	if !strings.ContainsRune(word, '\'') {
		return "'" + word + "'"
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range word {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func needsQuoting(r rune) bool {
	return unicode.IsSpace(r) || r == '\'' || r == '"' || r == '\\'
}

func quoteName(q rune) string {
	if q == '\'' {
		return "single"
	}
	return "double"
}
