package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in     string
		parent string
		sub    string
	}{
		{"", "", ""},
		{"   ", "", ""},
		{"Food", "Food", ""},
		{"Food > Groceries", "Food", "Groceries"},
		{"  Food > Groceries  ", "Food", "Groceries"},
		{"Income > Salary", "Income", "Salary"},
	}
	for _, c := range cases {
		parent, sub := Parse(c.in)
		require.Equal(t, c.parent, parent, "parse %q", c.in)
		require.Equal(t, c.sub, sub, "parse %q", c.in)
	}
}

func TestBuildParseRoundTrip(t *testing.T) {
	t.Parallel()
	cases := []struct {
		parent string
		sub    string
	}{
		{"Food", ""},
		{"Food", "Groceries"},
		{"Bills & Utilities", "Internet"},
		{"Income", "Salary"},
	}
	for _, c := range cases {
		parent, sub := Parse(Build(c.parent, c.sub))
		require.Equal(t, c.parent, parent)
		require.Equal(t, c.sub, sub)
	}
	require.Equal(t, "Food", Build("Food", ""))
}

func TestIsValid(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in string
		ok bool
	}{
		{"Food", true},
		{"Food > Groceries", true},
		{"", false},
		{"   ", false},
		{"Food > ", false},
		{" > Groceries", false},
		{"A > B > C", false},
	}
	for _, c := range cases {
		require.Equal(t, c.ok, IsValid(c.in), "IsValid(%q)", c.in)
	}
}

func TestBuildTree(t *testing.T) {
	t.Parallel()
	tree := BuildTree([]string{
		"Transport > Transit",
		"Food > Restaurants",
		"Food > Groceries",
		"Food > Groceries",
		"Food",
	})
	require.Len(t, tree, 2)

	require.Equal(t, "Food", tree[0].Name)
	require.Equal(t, "Food", tree[0].FullPath)
	require.Len(t, tree[0].Children, 2)
	require.Equal(t, "Groceries", tree[0].Children[0].Name)
	require.Equal(t, "Food > Groceries", tree[0].Children[0].FullPath)
	require.Equal(t, "Restaurants", tree[0].Children[1].Name)

	require.Equal(t, "Transport", tree[1].Name)
	require.Len(t, tree[1].Children, 1)
}

func TestMatchesFilter(t *testing.T) {
	t.Parallel()
	cases := []struct {
		tx       string
		filter   string
		children bool
		want     bool
	}{
		{"Food > Groceries", "Food > Groceries", false, true},
		{"Food > Groceries", "Food", true, true},
		{"Food > Groceries", "Food", false, false},
		{"Food", "Food", true, true},
		{"Travel > Flights", "Food", true, false},
		{"Food > Groceries", "Food > Restaurants", true, false},
		{"", "Food", true, false},
		{"Food", "", true, false},
	}
	for _, c := range cases {
		got := MatchesFilter(c.tx, c.filter, c.children)
		require.Equal(t, c.want, got, "MatchesFilter(%q, %q, %v)", c.tx, c.filter, c.children)
	}
}
