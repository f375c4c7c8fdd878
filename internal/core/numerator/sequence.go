package numerator

import (
	"strconv"
	"strings"
)

// ParseSequence extracts the sequence value from a full document number.
// ok is false when full does not start with prefix or the remainder is not
// a plain non-negative decimal integer that fits in int64.
func ParseSequence(full, prefix string) (seq int64, ok bool) {
	rest, found := strings.CutPrefix(full, prefix)
	if !found || rest == "" {
		return 0, false
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Format renders prefix + sequence according to style.
func Format(prefix string, seq int64, style FormatStyle) string {
	return style.Format(prefix, seq)
}

// Format renders prefix + sequence.
func (s FormatStyle) Format(prefix string, seq int64) string {
	digits := strconv.FormatInt(seq, 10)
	if s.Kind == StyleZeroPadded && len(digits) < s.Width {
		digits = strings.Repeat("0", s.Width-len(digits)) + digits
	}
	return prefix + digits
}
