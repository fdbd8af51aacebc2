package twocheckout

import (
	"fmt"
	"sort"
	"strings"
)

// Canonicalize serialises a field map into the vendor's length-prefixed form:
// keys are sorted alphabetically and each value is emitted as
// "<utf8-byte-length><value>" with no delimiter in between. Length-prefixing
// keeps values containing digits or separator characters unambiguous, so two
// different field maps cannot collide on the same canonical string.
func Canonicalize(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := fields[k]
		// len on a string counts bytes, which is what the vendor expects
		// for multi-byte text.
		b.WriteString(fmt.Sprintf("%d%s", len(v), v))
	}
	return b.String()
}

// FormatAmount renders a minor-unit amount with exactly two decimal places.
// Amounts are carried as int64 cents throughout, so formatting never depends
// on float rounding or locale settings.
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
