package query

// Match reports whether a file carrying the given tag set satisfies
// the expression. Every non-disjunct term must match individually;
// if any disjunct terms are present, at least one of them must match
// as well.
func (s Search) Match(tags map[string]bool) bool {
	return matchList(s.terms, tags)
}

func matchList(terms []Term, tags map[string]bool) bool {
	hasOr := false
	orMatched := false
	for _, t := range terms {
		if o, ok := t.(Or); ok {
			hasOr = true
			if matchTerm(o.X, tags) {
				orMatched = true
			}
			continue
		}
		if !matchTerm(t, tags) {
			return false
		}
	}
	return !hasOr || orMatched
}

func matchTerm(t Term, tags map[string]bool) bool {
	switch v := t.(type) {
	case Tag:
		return tags[string(v)]
	case Group:
		return matchList(v, tags)
	case Not:
		return !matchTerm(v.X, tags)
	case Or:
		return matchTerm(v.X, tags)
	}
	return false
}
