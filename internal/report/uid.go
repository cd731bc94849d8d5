package report

import "strings"

// UIDSeparator joins the name, set, and number segments of a card UID,
// e.g. "Boss's Orders::PAL::172".
const UIDSeparator = "::"

// NormalizeNumber strips leading zeros from a card number and re-pads the
// digit portion to three characters, preserving any letter suffix. Collector
// numbers arrive in both "9" and "009" forms depending on the source page.
func NormalizeNumber(number string) string {
	raw := strings.ToUpper(strings.TrimSpace(number))
	if raw == "" {
		return ""
	}
	digits := raw
	suffix := ""
	for i, r := range raw {
		if r < '0' || r > '9' {
			digits, suffix = raw[:i], raw[i:]
			break
		}
	}
	if digits == "" {
		return raw
	}
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	for len(trimmed) < 3 {
		trimmed = "0" + trimmed
	}
	return trimmed + suffix
}

// BuildUID assembles the canonical identity string for a specific printing.
// It returns just the name when the set or number is unknown, matching how
// unversioned trainers and energies are keyed in the reports.
func BuildUID(name, set, number string) string {
	set = strings.ToUpper(strings.TrimSpace(set))
	number = NormalizeNumber(number)
	if set == "" || number == "" {
		return name
	}
	return name + UIDSeparator + set + UIDSeparator + number
}

// SplitUID breaks a UID back into name, set, and number. For bare-name
// identities the set and number come back empty.
func SplitUID(uid string) (name, set, number string) {
	parts := strings.SplitN(uid, UIDSeparator, 3)
	if len(parts) != 3 {
		return uid, "", ""
	}
	return parts[0], parts[1], parts[2]
}
