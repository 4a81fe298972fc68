package directory

import (
	"regexp"
	"strings"
)

// ukPostcode matches a normalised UK postcode, outward and inward code
// separated by one space. GIR 0AA is the one historic exception.
var ukPostcode = regexp.MustCompile(`^([A-Z]{1,2}[0-9][A-Z0-9]? [0-9][A-Z]{2}|GIR 0AA)$`)

// NormalizePostcode upper-cases s, drops all whitespace and puts a single
// space before the three-character inward code.
func NormalizePostcode(s string) string {
	compact := strings.ToUpper(strings.Join(strings.Fields(s), ""))
	if len(compact) <= 3 {
		return compact
	}
	return compact[:len(compact)-3] + " " + compact[len(compact)-3:]
}

// ValidPostcode reports whether a normalised postcode has UK shape.
func ValidPostcode(pc string) bool {
	return ukPostcode.MatchString(pc)
}
