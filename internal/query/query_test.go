package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagSet(tags ...string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	return set
}

func TestParse(t *testing.T) {
	s, err := Parse("wawa ~wiwi ~wa -[wiwa wauo] lol")
	require.NoError(t, err)

	assert.Equal(t, []Term{
		Tag("wawa"),
		Or{X: Tag("wiwi")},
		Or{X: Tag("wa")},
		Not{X: Group{Tag("wiwa"), Tag("wauo")}},
		Tag("lol"),
	}, s.Terms())
}

func TestParseEmbeddedHyphen(t *testing.T) {
	s, err := Parse("black-body -b-w")
	require.NoError(t, err)

	assert.Equal(t, []Term{
		Tag("black-body"),
		Not{X: Tag("b-w")},
	}, s.Terms())
}

func TestParseNestedGroups(t *testing.T) {
	s, err := Parse("a [b [c d] ~e]")
	require.NoError(t, err)

	assert.Equal(t, []Term{
		Tag("a"),
		Group{Tag("b"), Group{Tag("c"), Tag("d")}, Or{X: Tag("e")}},
	}, s.Terms())
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"a b]",
		"[a b",
		"a [b [c] d",
	}
	for _, text := range cases {
		_, err := Parse(text)
		var perr *ParseError
		assert.ErrorAs(t, err, &perr, "query %q", text)
	}
}

func TestParseValidationErrors(t *testing.T) {
	cases := []string{
		"a -",
		"a ~",
		"~ b",
		"a _bad",
		"a bad_",
		"-[a -]",
	}
	for _, text := range cases {
		_, err := Parse(text)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "query %q", text)
	}
}

func TestParseStringRoundTrip(t *testing.T) {
	s, err := Parse("  wawa   ~wiwi -[wiwa  wauo]  lol ")
	require.NoError(t, err)
	assert.Equal(t, "wawa ~wiwi -[wiwa wauo] lol", s.String())

	again, err := Parse(s.String())
	require.NoError(t, err)
	assert.Equal(t, s.Terms(), again.Terms())
}

func TestMatch(t *testing.T) {
	s, err := Parse("wa -iwi ~ooo ~aaa")
	require.NoError(t, err)

	cases := []struct {
		tags map[string]bool
		want bool
	}{
		{tagSet("wa", "lala", "ooo"), true},
		{tagSet("wa", "lala", "iwi", "ooo"), false},
		{tagSet("wa", "lala"), false},
		{tagSet("wa", "aaa"), true},
		{tagSet("wa", "ooo", "aaa"), true},
		{tagSet("wa", "lala", "ooo", "iwi"), false},
	}
	for i, c := range cases {
		assert.Equal(t, c.want, s.Match(c.tags), "case %d", i)
	}
}

func TestMatchNegatedGroup(t *testing.T) {
	s, err := Parse("keep -[scrap ~draft ~temp]")
	require.NoError(t, err)

	// Group matches when scrap is present along with draft or temp;
	// negation inverts that.
	assert.True(t, s.Match(tagSet("keep")))
	assert.True(t, s.Match(tagSet("keep", "scrap")))
	assert.False(t, s.Match(tagSet("keep", "scrap", "draft")))
	assert.True(t, s.Match(tagSet("keep", "draft")))
}

func TestMatchNoDisjuncts(t *testing.T) {
	s, err := Parse("a b")
	require.NoError(t, err)

	assert.True(t, s.Match(tagSet("a", "b", "c")))
	assert.False(t, s.Match(tagSet("a", "c")))
}

func TestFirstTag(t *testing.T) {
	s, err := Parse("-x [inner deep] top")
	require.NoError(t, err)
	tag, ok := s.FirstTag()
	require.True(t, ok)
	assert.Equal(t, "inner", tag)

	s, err = Parse("-x ~y")
	require.NoError(t, err)
	_, ok = s.FirstTag()
	assert.False(t, ok)
}

func TestCheapestTag(t *testing.T) {
	counts := map[string]int64{
		"cat":         56,
		"black-body":  73,
		"tongue":      31,
		"blep":        5,
		"dog":         52,
		"yellow-body": 20,
		"sitting":     15,
		"bird":        48,
		"music-note":  1,
		"white-body":  63,
	}
	count := func(tag string) int64 { return counts[tag] }

	cases := []struct {
		text string
		want string
	}{
		{"cat black-body tongue blep", "blep"},
		{"dog yellow-body sitting", "sitting"},
		{"bird music-note white-body", "music-note"},
		{"cat [black-body blep] -dog", "blep"},
	}
	for _, c := range cases {
		s, err := Parse(c.text)
		require.NoError(t, err)
		tag, ok := s.CheapestTag(count)
		require.True(t, ok, "query %q", c.text)
		assert.Equal(t, c.want, tag, "query %q", c.text)
	}

	// Unknown tags have zero counts and cannot seed.
	s, err := Parse("nothing known-to-none")
	require.NoError(t, err)
	_, ok := s.CheapestTag(count)
	assert.False(t, ok)
}

func TestValidTagName(t *testing.T) {
	valid := []string{
		"bawk", "b-bawk", "b-b-bbAWWKK", "B_B_BAWWKKK", "BAWK_BWAK_BAWK",
		"B", "BA", "B4W", "B4Wk11", "11B4Wk", "(a)", "it's",
	}
	for _, name := range valid {
		assert.True(t, ValidTagName(name), "tag %q", name)
	}

	invalid := []string{
		"bawk~", "_BAWK", "BAWK_", "_BAWKBAWK_", "BAWK BAWK", "'BAWK",
		"-BAWK", "BAWK'", "BAWK-", "B=+{2}AWK", "", "-", "_", "--", "___",
	}
	for _, name := range invalid {
		assert.False(t, ValidTagName(name), "tag %q", name)
	}
}
