package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactPostcode keeps only the outward code of a UK postcode.
// "SW1A 1AA" → "SW1A ***", "sw1a1aa" → "SW1A ***", "" → "".
// The outward code identifies a district, not a street.
func RedactPostcode(postcode string) string {
	compact := strings.ToUpper(strings.Join(strings.Fields(postcode), ""))
	if compact == "" {
		return ""
	}
	if len(compact) <= 3 {
		return "***"
	}
	return compact[:len(compact)-3] + " ***"
}
