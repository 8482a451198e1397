// Package validate holds pure input validators for form fields.
package validate

import (
	"regexp"
	"strings"
)

// germanPhone matches a German number after separator stripping: an
// optional country prefix (+49, 0049 or a plain leading 0) followed by
// a nonzero digit and 1 to 14 further digits.
var germanPhone = regexp.MustCompile(`^(\+49|0049|0)[1-9][0-9]{1,14}$`)

// phoneSeparators are the characters callers commonly type into phone
// fields that carry no meaning.
var phoneSeparators = strings.NewReplacer(
	" ", "",
	"-", "",
	"(", "",
	")", "",
	"/", "",
)

// Phone reports whether raw looks like a dialable German phone number.
// Deterministic and side-effect free; empty input is invalid.
func Phone(raw string) bool {
	normalized := phoneSeparators.Replace(strings.TrimSpace(raw))
	if normalized == "" {
		return false
	}
	return germanPhone.MatchString(normalized)
}
