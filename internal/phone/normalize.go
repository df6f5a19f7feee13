package phone

import "strings"

// Normalize converts a raw phone string to E.164-ish form, or nil when the
// input cannot plausibly be a phone number.
//
// Rules:
//   - empty / literal "null", "undefined", "nan" (any case) -> nil
//   - whitespace and the separators - ( ) . are stripped
//   - "+<digits>" is kept as-is
//   - "00<digits>" becomes "+<digits>"
//   - fewer than 7 digits -> nil
//   - exactly 8 digits is a domestic number: prefixed with +47
//   - longer bare-digit strings are assumed to already carry a country code
//     and just get a "+"
//
// Examples:
//
//	Normalize("90914271")       -> "+4790914271"
//	Normalize("476 84 728")     -> "+4747684728"
//	Normalize("+370 65849390")  -> "+37065849390"
//	Normalize("0046 702289760") -> "+46702289760"
//	Normalize("Roos")           -> nil
func Normalize(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	switch strings.ToLower(s) {
	case "null", "undefined", "nan":
		return nil
	}

	var b strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '-', '(', ')', '.':
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()
	if s == "" {
		return nil
	}

	if strings.HasPrefix(s, "+") {
		digits := s[1:]
		if !allDigits(digits) || digits == "" {
			return nil
		}
		return strPtr("+" + digits)
	}

	if strings.HasPrefix(s, "00") {
		digits := s[2:]
		if !allDigits(digits) || digits == "" {
			return nil
		}
		return strPtr("+" + digits)
	}

	if !allDigits(s) {
		return nil
	}

	// Too short to be a real phone number
	if len(s) < 7 {
		return nil
	}

	// Local style without country code: assume Norway
	if len(s) == 8 {
		return strPtr("+47" + s)
	}

	// Probably already includes a country code but lost the "+"
	return strPtr("+" + s)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func strPtr(s string) *string {
	return &s
}
