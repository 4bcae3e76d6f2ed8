package store

import (
	"strings"
	"time"
)

// Pattern is a file path template with date placeholders.
// %Y, %y, %m, %d, %H, and %M expand to the build time's fields; %% is a
// literal percent. Anything else is kept as is.
type Pattern struct {
	pattern string
}

func ParsePattern(s string) Pattern {
	return Pattern{pattern: s}
}

func (p Pattern) String() string {
	return p.pattern
}

// IsDated reports whether the pattern contains any date placeholder,
// which means Build returns a different path on different days.
func (p Pattern) IsDated() bool {
	s := p.pattern
	for i := 0; i+1 < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		switch s[i+1] {
		case 'Y', 'y', 'm', 'd', 'H', 'M':
			return true
		case '%':
			i++
		}
	}
	return false
}

// Build expands the pattern for time t.
func (p Pattern) Build(t time.Time) string {
	var b strings.Builder
	s := p.pattern

	for i := 0; i < len(s); i++ {
		if s[i] != '%' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}

		i++
		switch s[i] {
		case 'Y':
			b.WriteString(t.Format("2006"))
		case 'y':
			b.WriteString(t.Format("06"))
		case 'm':
			b.WriteString(t.Format("01"))
		case 'd':
			b.WriteString(t.Format("02"))
		case 'H':
			b.WriteString(t.Format("15"))
		case 'M':
			b.WriteString(t.Format("04"))
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(s[i])
		}
	}

	return b.String()
}
