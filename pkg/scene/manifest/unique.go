package manifest

import (
	"strconv"
	"strings"
)

// GenerateUniqueName returns base when no name in existing uses it, otherwise
// base-N where N is one more than the largest numeric suffix found. With an
// empty base the result is just the next number. Matching is case-sensitive
// and names with non-numeric suffixes are ignored.
func GenerateUniqueName(existing []string, base string) string {
	if base == "" {
		highest := 0
		for _, name := range existing {
			if n, ok := parseCounter(name); ok && n > highest {
				highest = n
			}
		}
		return strconv.Itoa(highest + 1)
	}

	prefix := base + "-"
	found := false
	highest := 0
	for _, name := range existing {
		if name == base {
			found = true
			continue
		}
		suffix, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}
		if n, ok := parseCounter(suffix); ok {
			found = true
			highest = max(highest, n)
		}
	}

	if !found {
		return base
	}
	return prefix + strconv.Itoa(highest+1)
}

// parseCounter accepts only plain decimal digits.
func parseCounter(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
