package normalizer

import "strings"

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

// NormalizeBodyType resolves a body-type description. Door-count and cab
// variants are checked before the coarse table so "รถเก๋ง 5 ประตู" becomes
// Hatchback rather than Sedan.
func NormalizeBodyType(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	z := fold(raw)
	tokens := latinTokens(raw)
	doors := func(n string) bool {
		return strings.Contains(z, "รถเก๋ง"+n+"ประตู") ||
			(tokens["sedan"] && containsAll(z, n, "ประตู"))
	}

	switch {
	case doors("5"):
		return "Hatchback", true
	case doors("4"):
		return "Sedan", true
	case strings.Contains(z, "รถเก๋ง2ประตู"):
		return "Coupe", true
	case strings.Contains(z, "เปิดประทุน"):
		return "Convertible", true
	case strings.Contains(z, "รถตู้บรรทุกสินค้า"):
		return "Cargo Van", true
	case strings.Contains(z, "รถตู้"):
		return "Van", true
	case strings.Contains(z, "รถกระบะ2ประตูตอนเดียว"), strings.Contains(z, "ตอนเดียว"):
		return "Single Cab Pickup", true
	case strings.Contains(z, "รถกระบะ2ประตูตอนครึ่ง"), strings.Contains(z, "แค็บ"), strings.Contains(z, "ตอนครึ่ง"):
		return "Extended Cab Pickup", true
	case strings.Contains(z, "รถกระบะ4ประตู"):
		return "Double Cab Pickup", true
	case strings.Contains(z, "mpv/suv/ppv"):
		return "MPV/SUV/PPV", true
	case tokens["suv"]:
		return "SUV", true
	case tokens["ppv"]:
		return "PPV", true
	case tokens["mpv"]:
		return "MPV", true
	}
	return lookup(bodyTypeTable, raw)
}
