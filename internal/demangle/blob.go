package demangle

import (
	"regexp"
	"strings"
)

// A token must start the text or follow a byte that cannot be part of an
// identifier, so `load_RC5value` is left alone.
var mangledTokenPattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9_$.])(_{1,2}R[A-Za-z0-9_]+)`)

// DemangleBlob rewrites every v0 symbol found inside text, such as a
// disassembly line or a linker message. Tokens that fail to parse are
// left as they are.
func DemangleBlob(text string) string {
	matches := mangledTokenPattern.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		start, end := m[2], m[3]
		b.WriteString(text[last:start])
		if out, err := Demangle(text[start:end]); err == nil {
			b.WriteString(out)
		} else {
			b.WriteString(text[start:end])
		}
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}
