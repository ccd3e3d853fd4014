package query

import "fmt"

// ParseError reports malformed query structure, such as unbalanced
// brackets. It is distinct from ValidationError, which covers
// structurally sound expressions with invalid content.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Msg
}

// Parse parses query text into a Search and validates every term.
//
// Grammar: whitespace separates terms; "[" opens a nested group and
// "]" closes the innermost one; a leading "-" negates the following
// term or group; a leading "~" marks the following term as a
// disjunct. A "-" inside a token is an ordinary tag character.
func Parse(text string) (Search, error) {
	p := &parser{runes: []rune(text)}
	terms, err := p.parseList(0)
	if err != nil {
		return Search{}, err
	}
	for _, t := range terms {
		if err := validateTerm(t); err != nil {
			return Search{}, err
		}
	}
	return Search{terms: terms}, nil
}

type parser struct {
	runes []rune
	pos   int
}

// parseList consumes terms until end of input or, at depth > 0, the
// closing bracket of the current group.
func (p *parser) parseList(depth int) ([]Term, error) {
	var out []Term
	last := ' '
	for p.pos < len(p.runes) {
		c := p.runes[p.pos]
		p.pos++
		switch c {
		case '[':
			inner, err := p.parseList(depth + 1)
			if err != nil {
				return nil, err
			}
			group := Group(inner)
			// A dangling modifier absorbs the whole group: -[a b]
			// parses as Not(Group(a, b)).
			if n := len(out); n > 0 {
				if m, ok := out[n-1].(Not); ok && m.X == nil {
					out[n-1] = Not{X: group}
					last = c
					continue
				}
				if m, ok := out[n-1].(Or); ok && m.X == nil {
					out[n-1] = Or{X: group}
					last = c
					continue
				}
			}
			out = append(out, group)
		case ']':
			if depth == 0 {
				return nil, &ParseError{Msg: `unexpected "]"`}
			}
			return out, nil
		case '-':
			// Only a "-" after a separator starts a negation; inside a
			// token it is a tag character (e.g. black-body).
			if last != '[' && last != ']' && last != '~' && last != ' ' {
				if appended, err := p.appendToLast(out, c); err != nil {
					return nil, err
				} else if appended {
					break
				}
				out = append(out, Not{})
			} else {
				out = append(out, Not{})
			}
		case '~':
			out = append(out, Or{})
		case ' ', '\t', '\n', '\r':
			c = ' '
		default:
			if last != '[' && last != ']' && last != ' ' {
				if appended, err := p.appendToLast(out, c); err != nil {
					return nil, err
				} else if appended {
					break
				}
			}
			out = append(out, Tag(c))
		}
		last = c
	}
	if depth > 0 {
		return nil, &ParseError{Msg: `missing closing "]"`}
	}
	return out, nil
}

// appendToLast feeds a tag character into the trailing term in out,
// extending an open tag or completing a dangling modifier. Reports
// false when there is nothing to extend and a fresh tag must start.
func (p *parser) appendToLast(out []Term, c rune) (bool, error) {
	n := len(out)
	if n == 0 {
		return false, nil
	}
	switch out[n-1].(type) {
	case Group:
		return false, nil
	}
	t, err := appendRune(out[n-1], c)
	if err != nil {
		return false, err
	}
	out[n-1] = t
	return true, nil
}

func appendRune(t Term, c rune) (Term, error) {
	switch v := t.(type) {
	case Tag:
		return v + Tag(c), nil
	case Not:
		if v.X == nil {
			return Not{X: Tag(c)}, nil
		}
		inner, err := appendRune(v.X, c)
		if err != nil {
			return nil, err
		}
		return Not{X: inner}, nil
	case Or:
		if v.X == nil {
			return Or{X: Tag(c)}, nil
		}
		inner, err := appendRune(v.X, c)
		if err != nil {
			return nil, err
		}
		return Or{X: inner}, nil
	}
	return nil, fmt.Errorf("cannot append character %q to %T term", c, t)
}
