package terminal

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cerebrum/bofh-go/internal/domain"
)

// specialKeys maps bubbletea key types to editor key codes. Shift and
// Ctrl variants of the cursor keys collapse onto the plain key.
var specialKeys = map[tea.KeyType]domain.KeyCode{
	tea.KeyEnter:      domain.KeyEnter,
	tea.KeyTab:        domain.KeyTab,
	tea.KeyBackspace:  domain.KeyBackspace,
	tea.KeyDelete:     domain.KeyDelete,
	tea.KeyUp:         domain.KeyUp,
	tea.KeyDown:       domain.KeyDown,
	tea.KeyLeft:       domain.KeyLeft,
	tea.KeyRight:      domain.KeyRight,
	tea.KeyHome:       domain.KeyHome,
	tea.KeyEnd:        domain.KeyEnd,
	tea.KeyCtrlUp:     domain.KeyUp,
	tea.KeyCtrlDown:   domain.KeyDown,
	tea.KeyCtrlLeft:   domain.KeyLeft,
	tea.KeyCtrlRight:  domain.KeyRight,
	tea.KeyCtrlHome:   domain.KeyHome,
	tea.KeyCtrlEnd:    domain.KeyEnd,
	tea.KeyShiftUp:    domain.KeyUp,
	tea.KeyShiftDown:  domain.KeyDown,
	tea.KeyShiftLeft:  domain.KeyLeft,
	tea.KeyShiftRight: domain.KeyRight,
	tea.KeyShiftHome:  domain.KeyHome,
	tea.KeyShiftEnd:   domain.KeyEnd,
}

// translateKey turns one bubbletea key event into editor keys. A run of
// typed or pasted runes yields one key per rune. Control characters in
// pasted text are dropped so a paste never submits a line.
func translateKey(msg tea.KeyMsg) []domain.Key {
	switch msg.Type {
	case tea.KeyRunes, tea.KeySpace:
		runes := msg.Runes
		if len(runes) == 0 && msg.Type == tea.KeySpace {
			runes = []rune{' '}
		}
		keys := make([]domain.Key, 0, len(runes))
		for _, r := range runes {
			if msg.Paste && (r < ' ' || r == 0x7f) {
				continue
			}
			key := domain.Char(r)
			key.Alt = msg.Alt && !msg.Paste
			keys = append(keys, key)
		}
		return keys
	case tea.KeyEsc:
		// ESC ESC arrives as Alt+Esc.
		if msg.Alt {
			return []domain.Key{domain.Special(domain.KeyEscape), domain.Special(domain.KeyEscape)}
		}
		return []domain.Key{domain.Special(domain.KeyEscape)}
	}

	if code, ok := specialKeys[msg.Type]; ok {
		key := domain.Special(code)
		key.Alt = msg.Alt
		return []domain.Key{key}
	}

	var key domain.Key
	switch t := msg.Type; {
	case t == tea.KeyCtrlAt:
		key = domain.Ctrl('@')
	case t >= tea.KeyCtrlA && t <= tea.KeyCtrlZ:
		key = domain.Ctrl(rune('a' + int(t-tea.KeyCtrlA)))
	case t >= tea.KeyCtrlBackslash && t <= tea.KeyCtrlUnderscore:
		key = domain.Ctrl(rune(`\]^_`[t-tea.KeyCtrlBackslash]))
	default:
		return nil
	}
	key.Alt = msg.Alt
	return []domain.Key{key}
}
