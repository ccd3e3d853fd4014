// Package query implements the boolean tag search language: a single-pass
// parser over the query text and an evaluator that matches parsed
// expressions against a file's tag set.
package query

import "strings"

// Term is a single element of a parsed search expression.
// The concrete types are Tag, Group, Not and Or.
type Term interface {
	isTerm()
}

// Tag matches files carrying the named tag.
type Tag string

// Group is a bracketed sub-expression, evaluated with the same
// AND/OR rules as the top-level term list.
type Group []Term

// Not inverts the match of its inner term. X is nil while the
// parser has consumed the "-" modifier but not yet its operand.
type Not struct {
	X Term
}

// Or marks its inner term as a disjunct: at least one Or term in a
// list must match. X is nil while the modifier is dangling.
type Or struct {
	X Term
}

func (Tag) isTerm()   {}
func (Group) isTerm() {}
func (Not) isTerm()   {}
func (Or) isTerm()    {}

// Search is a parsed, validated search expression.
type Search struct {
	terms []Term
}

// Terms returns the ordered top-level terms of the expression.
func (s Search) Terms() []Term {
	return s.terms
}

// String renders the expression back into canonical query text.
// Two queries that differ only in whitespace render identically,
// which makes the string usable as a cache key.
func (s Search) String() string {
	return termsString(s.terms)
}

func termsString(terms []Term) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, termString(t))
	}
	return strings.Join(parts, " ")
}

func termString(t Term) string {
	switch v := t.(type) {
	case Tag:
		return string(v)
	case Group:
		return "[" + termsString(v) + "]"
	case Not:
		return "-" + termString(v.X)
	case Or:
		return "~" + termString(v.X)
	}
	return ""
}

// FirstTag returns the first plain tag found in the expression,
// descending into groups. It is the cheap candidate-seeding choice
// when no usage counts are available.
func (s Search) FirstTag() (string, bool) {
	return firstTag(s.terms)
}

func firstTag(terms []Term) (string, bool) {
	for _, t := range terms {
		switch v := t.(type) {
		case Tag:
			return string(v), true
		case Group:
			if tag, ok := firstTag(v); ok {
				return tag, true
			}
		}
	}
	return "", false
}

// CheapestTag returns the plain tag with the smallest non-zero usage
// count, descending into groups. Negated and disjunct terms are
// skipped: their membership sets are not sound starting candidates.
// Returns false if the expression holds no countable plain tag.
func (s Search) CheapestTag(count func(tag string) int64) (string, bool) {
	tag, n := cheapestTag(s.terms, count)
	return tag, n > 0
}

func cheapestTag(terms []Term, count func(tag string) int64) (string, int64) {
	var bestTag string
	var bestCount int64
	for _, t := range terms {
		switch v := t.(type) {
		case Tag:
			c := count(string(v))
			if c > 0 && (bestCount == 0 || c < bestCount) {
				bestTag, bestCount = string(v), c
			}
		case Group:
			tag, c := cheapestTag(v, count)
			if c > 0 && (bestCount == 0 || c < bestCount) {
				bestTag, bestCount = tag, c
			}
		}
	}
	return bestTag, bestCount
}
