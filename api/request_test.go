package api_test

import (
	"net/url"
	"testing"

	"github.com/jrsteele09/go-auth-session/api"
	"github.com/stretchr/testify/require"
)

func TestCollapseWhitespace(t *testing.T) {
	cases := map[string]string{
		"":                   "",
		"   ":                "",
		"plain":              "plain",
		"  Tower \t\n A  ":   "Tower A",
		"multi   word value": "multi word value",
	}
	for in, want := range cases {
		require.Equal(t, want, api.CollapseWhitespace(in), "input %q", in)
	}
}

func TestNormalizeForm(t *testing.T) {
	got := api.NormalizeForm(url.Values{"a": {" x  y ", "  "}})
	require.Equal(t, url.Values{"a": {"x y", ""}}, got)
}

func TestNormalizeJSON(t *testing.T) {
	doc := map[string]any{
		"s":    " a  b ",
		"n":    1.5,
		"b":    true,
		"nil":  nil,
		"list": []any{" c ", map[string]any{"deep": " d  e "}},
	}

	got := api.NormalizeJSON(doc)

	require.Equal(t, map[string]any{
		"s":    "a b",
		"n":    1.5,
		"b":    true,
		"nil":  nil,
		"list": []any{"c", map[string]any{"deep": "d e"}},
	}, got)
}
