package orders

import (
	"strings"
)

// StrategicCustomer is an account with special planning rules. Patterns are
// normalized substrings matched against normalized customer names.
type StrategicCustomer struct {
	Key                    string
	Label                  string
	Patterns               []string
	DueDateFlexDays        *int
	NoMix                  bool
	DefaultWedge51         bool
	RequiresReturnToOrigin bool
	IgnoreForOptimization  bool
}

// StrategicRule carries the admin-set flags for one strategic account,
// joined onto parsed pattern entries by key
type StrategicRule struct {
	DueDateFlexDays        *int
	NoMix                  bool
	DefaultWedge51         bool
	RequiresReturnToOrigin bool
	IgnoreForOptimization  bool
}

// NormalizeCustomerName uppercases, strips everything but letters, digits
// and spaces, and collapses runs of whitespace
func NormalizeCustomerName(name string) string {
	upper := strings.ToUpper(name)
	var b strings.Builder
	for _, r := range upper {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ParseStrategicCustomers reads the strategic customer setting text: one
// entry per line, "Label|PATTERN1,PATTERN2", with # starting a comment.
// Duplicate keys keep the first entry.
func ParseStrategicCustomers(text string) []StrategicCustomer {
	var out []StrategicCustomer
	seen := map[string]bool{}
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "|", 2)
		label := strings.TrimSpace(parts[0])
		key := NormalizeCustomerName(label)
		if key == "" || seen[key] {
			continue
		}

		var patterns []string
		if len(parts) == 2 {
			for _, p := range strings.Split(parts[1], ",") {
				if norm := NormalizeCustomerName(p); norm != "" {
					patterns = append(patterns, norm)
				}
			}
		}
		if len(patterns) == 0 {
			patterns = []string{key}
		}

		seen[key] = true
		out = append(out, StrategicCustomer{Key: key, Label: label, Patterns: patterns})
	}
	return out
}

// ApplyRules copies admin flags onto parsed entries by key
func ApplyRules(customers []StrategicCustomer, rules map[string]StrategicRule) []StrategicCustomer {
	for i := range customers {
		rule, ok := rules[customers[i].Key]
		if !ok {
			continue
		}
		customers[i].DueDateFlexDays = rule.DueDateFlexDays
		customers[i].NoMix = rule.NoMix
		customers[i].DefaultWedge51 = rule.DefaultWedge51
		customers[i].RequiresReturnToOrigin = rule.RequiresReturnToOrigin
		customers[i].IgnoreForOptimization = rule.IgnoreForOptimization
	}
	return customers
}

// MatchStrategic finds the first strategic customer whose pattern appears
// in the normalized customer name
func MatchStrategic(customers []StrategicCustomer, custName string) *StrategicCustomer {
	norm := NormalizeCustomerName(custName)
	if norm == "" {
		return nil
	}
	for i := range customers {
		for _, p := range customers[i].Patterns {
			if strings.Contains(norm, p) {
				return &customers[i]
			}
		}
	}
	return nil
}
