package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// EditMode is the active key-binding mode of the line editor.
type EditMode int

const (
	ModeEmacs EditMode = iota
	ModeViInsert
	ModeViNormal
)

func (m EditMode) String() string {
	switch m {
	case ModeEmacs:
		return "emacs"
	case ModeViInsert:
		return "vi-insert"
	case ModeViNormal:
		return "vi-normal"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Vi reports whether the mode is one of the vi modes.
func (m EditMode) Vi() bool {
	return m == ModeViInsert || m == ModeViNormal
}

// ParseEditMode maps a configuration value to a mode.
func ParseEditMode(s string) (EditMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "emacs":
		return ModeEmacs, nil
	case "vi", "vim":
		return ModeViInsert, nil
	}
	return ModeEmacs, fmt.Errorf("unknown edit mode %q (want emacs or vi)", s)
}

// KeyCode identifies non-printable keys. Printable input and control
// chords use KeyRune.
type KeyCode int

const (
	KeyRune KeyCode = iota
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyEscape
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
)

// Key is one decoded keystroke. Ctrl-x chords are Key{Rune: 'x', Ctrl: true}.
type Key struct {
	Code KeyCode
	Rune rune
	Ctrl bool
	Alt  bool
}

// Printable reports whether the key inserts its rune.
func (k Key) Printable() bool {
	return k.Code == KeyRune && !k.Ctrl && !k.Alt && k.Rune >= ' ' && k.Rune != 0x7f
}

// Char builds a plain printable key.
func Char(r rune) Key { return Key{Code: KeyRune, Rune: r} }

// Ctrl builds a control chord.
func Ctrl(r rune) Key { return Key{Code: KeyRune, Rune: r, Ctrl: true} }

// Alt builds a meta chord.
func Alt(r rune) Key { return Key{Code: KeyRune, Rune: r, Alt: true} }

// Special builds a key for a non-printable code.
func Special(code KeyCode) Key { return Key{Code: code} }

var keyNames = map[KeyCode]string{
	KeyEnter:     "enter",
	KeyTab:       "tab",
	KeyBackspace: "backspace",
	KeyDelete:    "delete",
	KeyEscape:    "escape",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyHome:      "home",
	KeyEnd:       "end",
}

func (k Key) String() string {
	var b strings.Builder
	if k.Ctrl {
		b.WriteString("ctrl-")
	}
	if k.Alt {
		b.WriteString("alt-")
	}
	if name, ok := keyNames[k.Code]; ok {
		b.WriteString(name)
	} else {
		b.WriteRune(k.Rune)
	}
	return b.String()
}

// ParseKey parses names such as "ctrl-]", "alt-v", "ctrl-alt-j" or "tab".
func ParseKey(s string) (Key, error) {
	rest := strings.ToLower(strings.TrimSpace(s))
	if rest == "" {
		return Key{}, fmt.Errorf("empty key name")
	}
	var key Key
	for {
		switch {
		case strings.HasPrefix(rest, "ctrl-") && len(rest) > len("ctrl-"):
			key.Ctrl = true
			rest = rest[len("ctrl-"):]
			continue
		case strings.HasPrefix(rest, "alt-") && len(rest) > len("alt-"):
			key.Alt = true
			rest = rest[len("alt-"):]
			continue
		case strings.HasPrefix(rest, "meta-") && len(rest) > len("meta-"):
			key.Alt = true
			rest = rest[len("meta-"):]
			continue
		}
		break
	}
	for code, name := range keyNames {
		if rest == name {
			key.Code = code
			return key, nil
		}
	}
	if utf8.RuneCountInString(rest) != 1 {
		return Key{}, fmt.Errorf("unknown key %q", s)
	}
	key.Code = KeyRune
	key.Rune, _ = utf8.DecodeRuneInString(rest)
	return key, nil
}
