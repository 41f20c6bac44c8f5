package sexpr

import "strings"

// Render produces the canonical text of v: integers in decimal, text as a
// Go-quoted string, Empty as "()", lists as "(a b c)" and improper lists
// with the final tail after a dot, "(a b . c)".
func Render(v Value) string {
	var b strings.Builder
	writeValue(&b, orNil(v))
	return b.String()
}

func writeValue(b *strings.Builder, v Value) {
	p, ok := v.(*Pair)
	if !ok {
		b.WriteString(orNil(v).String())
		return
	}

	b.WriteByte('(')
	for {
		writeValue(b, p.Head)
		switch t := orNil(p.Tail).(type) {
		case *Pair:
			b.WriteByte(' ')
			p = t
		case Empty:
			b.WriteByte(')')
			return
		default:
			b.WriteString(" . ")
			b.WriteString(t.String())
			b.WriteByte(')')
			return
		}
	}
}
