package conversation

import "strings"

// PhoneVariants expands a raw phone string into the representations a
// conversation document may be keyed by: the trimmed original, the digits
// only, and the +-prefixed digits. Duplicates are removed, order preserved.
func PhoneVariants(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	digits := digitsOnly(trimmed)

	candidates := []string{trimmed}
	if digits != "" {
		candidates = append(candidates, digits, "+"+digits)
	}

	seen := make(map[string]bool, len(candidates))
	variants := candidates[:0]
	for _, v := range candidates {
		if seen[v] {
			continue
		}
		seen[v] = true
		variants = append(variants, v)
	}
	return variants
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
