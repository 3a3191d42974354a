package backend

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeTags(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"art", []string{"art"}},
		{"art, travel ,food", []string{"art", "travel", "food"}},
		{"new york, la", []string{"newyork", "la"}},
		{"a,,b,", []string{"a", "b"}},
		{"\ta,\nb", []string{"a", "b"}},
		{"x,x", []string{"x", "x"}},
	}
	for i, c := range cases {
		if diff := cmp.Diff(c.want, NormalizeTags(c.in)); diff != "" {
			t.Fatalf("case %d (%q) mismatch (-want +got):\n%s", i, c.in, diff)
		}
	}
}

func TestNormalizeTagsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"one",
		" one , two,three ",
		",,,",
		"a b c,d e",
		"émoji, 🌊 ,wave",
		"trailing,",
	}
	for _, in := range inputs {
		once := NormalizeTags(in)
		twice := NormalizeTags(JoinTags(once))
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("normalizing %q is not idempotent (-once +twice):\n%s", in, diff)
		}
	}
}
