package hotkey

import (
	"fmt"
	"strings"
)

// Key is a normalized key identifier. Left and right variants of the same
// modifier collapse to one Key at the source boundary, so "ctrl" means
// either control key.
type Key string

const (
	KeyCtrl  Key = "ctrl"
	KeyShift Key = "shift"
	KeyAlt   Key = "alt"
	KeyCmd   Key = "cmd"

	KeySpace  Key = "space"
	KeyEnter  Key = "enter"
	KeyTab    Key = "tab"
	KeyEscape Key = "esc"
)

// Event is a single key transition delivered by a Source. Key repeat
// arrives as repeated Down events.
type Event struct {
	Key  Key
	Down bool
}

// Source delivers raw key events from the OS input layer. Start returns
// once the source is listening; the handler is called from the source's
// own goroutine.
type Source interface {
	Start(handler func(Event)) error
	Stop()
}

var modifierAliases = map[string]Key{
	"ctrl":    KeyCtrl,
	"control": KeyCtrl,
	"shift":   KeyShift,
	"alt":     KeyAlt,
	"option":  KeyAlt,
	"opt":     KeyAlt,
	"cmd":     KeyCmd,
	"command": KeyCmd,
	"super":   KeyCmd,
	"meta":    KeyCmd,
	"win":     KeyCmd,
}

var triggerAliases = map[string]Key{
	"space":  KeySpace,
	"enter":  KeyEnter,
	"return": KeyEnter,
	"tab":    KeyTab,
	"esc":    KeyEscape,
	"escape": KeyEscape,
}

// IsModifier reports whether k is one of the four modifier keys.
func IsModifier(k Key) bool {
	switch k {
	case KeyCtrl, KeyShift, KeyAlt, KeyCmd:
		return true
	}
	return false
}

// Combo is a set of modifiers plus exactly one trigger key. The combo is
// satisfied while every modifier and the trigger are held at once.
type Combo struct {
	Modifiers []Key
	Trigger   Key
}

// ParseCombo parses a spec like "ctrl+shift+space". Parsing is
// case-insensitive, tolerates spaces around the plus signs, and resolves
// aliases ("control", "option", "super"). The last token must be a
// non-modifier trigger.
func ParseCombo(spec string) (Combo, error) {
	parts := strings.Split(spec, "+")
	if len(parts) < 2 {
		return Combo{}, fmt.Errorf("combo %q needs at least one modifier and a trigger", spec)
	}

	var c Combo
	seen := make(map[Key]bool)
	for i, part := range parts {
		tok := strings.ToLower(strings.TrimSpace(part))
		if tok == "" {
			return Combo{}, fmt.Errorf("combo %q has an empty token", spec)
		}
		last := i == len(parts)-1

		if mod, ok := modifierAliases[tok]; ok {
			if last {
				return Combo{}, fmt.Errorf("combo %q ends in modifier %q, need a trigger key", spec, tok)
			}
			if !seen[mod] {
				seen[mod] = true
				c.Modifiers = append(c.Modifiers, mod)
			}
			continue
		}

		if !last {
			return Combo{}, fmt.Errorf("combo %q: %q is not a modifier", spec, tok)
		}
		c.Trigger = parseTrigger(tok)
		if c.Trigger == "" {
			return Combo{}, fmt.Errorf("combo %q: unknown trigger key %q", spec, tok)
		}
	}
	return c, nil
}

func parseTrigger(tok string) Key {
	if k, ok := triggerAliases[tok]; ok {
		return k
	}
	if len(tok) == 1 {
		ch := tok[0]
		if ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9' {
			return Key(tok)
		}
	}
	return ""
}

func (c Combo) String() string {
	parts := make([]string, 0, len(c.Modifiers)+1)
	for _, m := range c.Modifiers {
		parts = append(parts, string(m))
	}
	parts = append(parts, string(c.Trigger))
	return strings.Join(parts, "+")
}
