package queryfold

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// decodeComponent percent-decodes one key or value component. Malformed
// escapes fall back to the raw input rather than failing the pass.
func decodeComponent(s, charset string) string {
	if charset == CharsetLatin1 {
		return latin1Unescape(strings.ReplaceAll(s, "+", " "))
	}
	out, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return out
}

// latin1Unescape decodes %XX escapes as single iso-8859-1 bytes, which
// map one to one onto the first 256 Unicode code points.
func latin1Unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, ok1 := unhex(s[i+1])
			lo, ok2 := unhex(s[i+2])
			if ok1 && ok2 {
				b.WriteRune(rune(hi<<4 | lo))
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

var numericEntity = regexp.MustCompile(`&#(\d+);`)

// decodeEntity interprets HTML numeric entities in latin1 input when the
// option asks for it; legacy forms submit non-latin1 characters that way.
func decodeEntity(s, charset string, opt ParseOptions) string {
	if charset != CharsetLatin1 || !opt.InterpretNumericEntities {
		return s
	}
	return numericEntity.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.Atoi(m[2 : len(m)-1])
		if err != nil || n < 0 || n > 0x10FFFF {
			return m
		}
		return string(rune(n))
	})
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
