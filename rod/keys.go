package rod

import (
	"unicode/utf8"

	"github.com/fwojciec/pagecap"
	"github.com/go-rod/rod/lib/input"
)

// namedKeys maps DOM KeyboardEvent key names to devtools input keys.
// Single characters like "j" are resolved by rune and need no entry.
var namedKeys = map[string]input.Key{
	"ArrowDown":  input.ArrowDown,
	"ArrowLeft":  input.ArrowLeft,
	"ArrowRight": input.ArrowRight,
	"ArrowUp":    input.ArrowUp,
	"Backspace":  input.Backspace,
	"End":        input.End,
	"Enter":      input.Enter,
	"Escape":     input.Escape,
	"Home":       input.Home,
	"PageDown":   input.PageDown,
	"PageUp":     input.PageUp,
	"Space":      input.Space,
	"Tab":        input.Tab,
}

// keyByName resolves a DOM key name to a devtools input key.
func keyByName(name string) (input.Key, error) {
	if k, ok := namedKeys[name]; ok {
		return k, nil
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return input.Key(r), nil
	}
	return 0, pagecap.Errorf(pagecap.EINVALID, "unknown key %q", name)
}
