package fragment

import "strings"

// USPCText converts the fixed-width national classification found in
// bibliographic data ("709223", "D11184", "PLT263") to the separated form
// "709/223".  Values that already carry a separator are returned trimmed.
func USPCText(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 3 || strings.ContainsAny(s, "/ ") {
		return s
	}
	return strings.TrimLeft(s[:3], " ") + "/" + s[3:]
}

// IPCText converts the fixed-width IPC layout of legacy records, a four
// character subclass, a three character right-aligned main group and the
// subgroup ("G06F 1730", "A61K  3124"), to "G06F 17/30".  Values that already
// carry a slash are returned trimmed.
func IPCText(s string) string {
	s = strings.Trim(s, " ")
	if strings.Contains(s, "/") || len(s) < 8 {
		return strings.TrimSpace(s)
	}
	main := strings.TrimSpace(s[4:7])
	sub := strings.TrimSpace(s[7:])
	if main == "" {
		return strings.TrimSpace(s)
	}
	if sub == "" {
		sub = "00"
	}
	return s[:4] + " " + main + "/" + sub
}

//Personal.AI order the ending
