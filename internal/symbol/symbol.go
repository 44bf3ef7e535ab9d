package symbol

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Reserved runes used by the canonical fused form.
const (
	openRune  = '⟨'
	closeRune = '⟩'
	sepRune   = '|'

	openMark      = "⟨"
	closeMark     = "⟩"
	sepMark       = "|"
	evolutionMark = "²"
)

// ErrEmpty is returned by Parse for an empty string.
var ErrEmpty = errors.New("symbol: empty")

// Symbol is a single discoverable token.
//
// The zero value is the empty symbol and never appears in a rule table.
// Static symbols carry only key; fused symbols also carry the canonical
// strings of their two parts.
type Symbol struct {
	key   string
	left  string
	right string
}

// Static returns the static symbol for glyph, NFC normalized.
func Static(glyph string) Symbol {
	return Symbol{key: norm.NFC.String(glyph)}
}

// Fuse returns the fused symbol of a and b. The result is order dependent:
// Fuse(a, b) != Fuse(b, a) unless a == b, which yields the evolution form.
func Fuse(a, b Symbol) Symbol {
	var key string
	if a.key == b.key {
		key = openMark + a.key + closeMark + evolutionMark
	} else {
		key = openMark + a.key + sepMark + b.key + closeMark
	}
	return Symbol{key: key, left: a.key, right: b.key}
}

// String returns the canonical form.
func (s Symbol) String() string {
	return s.key
}

// IsZero reports whether s is the empty symbol.
func (s Symbol) IsZero() bool {
	return s.key == ""
}

// IsFused reports whether s was synthesized by Fuse.
func (s Symbol) IsFused() bool {
	return s.left != ""
}

// IsEvolution reports whether s is the fusion of a symbol with itself.
func (s Symbol) IsEvolution() bool {
	return s.IsFused() && s.left == s.right
}

// Parts returns the two fused parts. ok is false for static symbols.
func (s Symbol) Parts() (left, right Symbol, ok bool) {
	if !s.IsFused() {
		return Symbol{}, Symbol{}, false
	}
	// Parts were canonical when s was built, so parsing cannot fail.
	l, _ := Parse(s.left)
	r, _ := Parse(s.right)
	return l, r, true
}

// Leaves counts the static symbols s is built from.
func (s Symbol) Leaves() int {
	l, r, ok := s.Parts()
	if !ok {
		if s.IsZero() {
			return 0
		}
		return 1
	}
	return l.Leaves() + r.Leaves()
}

// Display renders s the way a player sees it: fusions are plain
// concatenations and evolutions carry a superscript two.
func (s Symbol) Display() string {
	l, r, ok := s.Parts()
	if !ok {
		return s.key
	}
	if s.IsEvolution() {
		return l.Display() + evolutionMark
	}
	return l.Display() + r.Display()
}

// ContainsReserved reports whether glyph uses a rune reserved for the
// canonical fused form.
func ContainsReserved(glyph string) bool {
	return strings.ContainsAny(glyph, openMark+closeMark+sepMark)
}

// Parse converts a canonical string back into a Symbol.
func Parse(s string) (Symbol, error) {
	s = norm.NFC.String(s)
	if s == "" {
		return Symbol{}, ErrEmpty
	}
	if !strings.HasPrefix(s, openMark) {
		if ContainsReserved(s) {
			return Symbol{}, fmt.Errorf("symbol %q: reserved rune outside fused form", s)
		}
		return Symbol{key: s}, nil
	}

	if strings.HasSuffix(s, closeMark+evolutionMark) {
		inner := strings.TrimSuffix(strings.TrimPrefix(s, openMark), closeMark+evolutionMark)
		part, err := Parse(inner)
		if err != nil {
			return Symbol{}, fmt.Errorf("symbol %q: %w", s, err)
		}
		return Fuse(part, part), nil
	}

	if !strings.HasSuffix(s, closeMark) {
		return Symbol{}, fmt.Errorf("symbol %q: unterminated fused form", s)
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(s, openMark), closeMark)

	split := -1
	depth := 0
	for i, r := range inner {
		switch r {
		case openRune:
			depth++
		case closeRune:
			depth--
			if depth < 0 {
				return Symbol{}, fmt.Errorf("symbol %q: unbalanced brackets", s)
			}
		case sepRune:
			if depth == 0 && split < 0 {
				split = i
			}
		}
	}
	if depth != 0 {
		return Symbol{}, fmt.Errorf("symbol %q: unbalanced brackets", s)
	}
	if split < 0 {
		return Symbol{}, fmt.Errorf("symbol %q: missing separator", s)
	}

	left, err := Parse(inner[:split])
	if err != nil {
		return Symbol{}, fmt.Errorf("symbol %q: %w", s, err)
	}
	right, err := Parse(inner[split+len(sepMark):])
	if err != nil {
		return Symbol{}, fmt.Errorf("symbol %q: %w", s, err)
	}

	fused := Fuse(left, right)
	if fused.key != s {
		return Symbol{}, fmt.Errorf("symbol %q: not canonical, want %q", s, fused.key)
	}
	return fused, nil
}

// MustParse is Parse for trusted input; it panics on error.
func MustParse(s string) Symbol {
	sym, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return sym
}

// List converts canonical strings into symbols, skipping unparseable
// entries. Persisted discovered sets go through here.
func List(items []string) []Symbol {
	out := make([]Symbol, 0, len(items))
	for _, item := range items {
		sym, err := Parse(item)
		if err != nil {
			continue
		}
		out = append(out, sym)
	}
	return out
}

// Strings converts symbols into their canonical strings.
func Strings(syms []Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.key
	}
	return out
}

// Join renders symbols for display, separated by sep.
func Join(syms []Symbol, sep string) string {
	parts := make([]string, len(syms))
	for i, s := range syms {
		parts[i] = s.Display()
	}
	return strings.Join(parts, sep)
}
