package query

import (
	"fmt"
	"regexp"
)

// ValidationError reports an invalid tag name or an incomplete
// modifier inside an otherwise well-formed expression. It is
// surfaced to the query author, never silently corrected.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "invalid query: " + e.Msg
}

// Tag names are letters, digits and parentheses; hyphen, underscore
// and apostrophe are allowed only strictly between two such
// characters, never first or last.
var tagNameRe = regexp.MustCompile(`^[()a-zA-Z0-9]([()a-zA-Z0-9_'-]*[()a-zA-Z0-9])?$`)

// ValidTagName reports whether name may be stored and searched for.
func ValidTagName(name string) bool {
	return tagNameRe.MatchString(name)
}

// ValidateTagName returns a ValidationError if name does not satisfy
// the tag naming rule.
func ValidateTagName(name string) error {
	if !ValidTagName(name) {
		return &ValidationError{Msg: fmt.Sprintf("tag name %q is not valid", name)}
	}
	return nil
}

func validateTerm(t Term) error {
	switch v := t.(type) {
	case Tag:
		return ValidateTagName(string(v))
	case Group:
		for _, inner := range v {
			if err := validateTerm(inner); err != nil {
				return err
			}
		}
	case Not:
		if v.X == nil {
			return &ValidationError{Msg: `dangling "-" with no term to negate`}
		}
		return validateTerm(v.X)
	case Or:
		if v.X == nil {
			return &ValidationError{Msg: `dangling "~" with no term to include`}
		}
		return validateTerm(v.X)
	}
	return nil
}
