package geo

import "strings"

// NormalizeZip reduces a raw postal code to its 5-digit ZIP form.
// ZIP+4 suffixes are dropped, non-digits are stripped, and short codes are
// left-padded with zeros (leading zeros are lost when ZIPs pass through
// numeric columns in order feeds)
func NormalizeZip(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if i := strings.Index(s, "-"); i >= 0 {
		s = s[:i]
	}

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if len(digits) > 5 {
		digits = digits[:5]
	}
	for len(digits) < 5 {
		digits = "0" + digits
	}
	return digits
}
