package planning

import (
	"fmt"
	"strings"
)

// FormatLoadNumber builds a display load number: plant code, two-digit
// year, and a per-plant-per-year sequence, with "-D" marking drafts.
// Example: CL26-0042-D.
func FormatLoadNumber(plant string, year, seq int, draft bool) string {
	number := fmt.Sprintf("%s%02d-%04d", strings.ToUpper(strings.TrimSpace(plant)), year%100, seq)
	if draft {
		number += "-D"
	}
	return number
}

// PromoteLoadNumber strips the draft marker when a load is approved
func PromoteLoadNumber(number string) string {
	return strings.TrimSuffix(number, "-D")
}
