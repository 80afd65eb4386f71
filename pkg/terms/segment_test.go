package terms

import "testing"

func TestSplit(t *testing.T) {
	tests := []struct {
		in   string
		want []Span
	}{
		{"", nil},
		{"plain", []Span{{SpanText, "plain"}}},
		{"<b>", []Span{{SpanMarkup, "<b>"}}},
		{`a <a href="x">b</a> c`, []Span{
			{SpanText, "a "}, {SpanMarkup, `<a href="x">`}, {SpanText, "b"}, {SpanMarkup, "</a>"}, {SpanText, " c"},
		}},
		{"a < b <i>x", []Span{{SpanText, "a < b "}, {SpanMarkup, "<i>"}, {SpanText, "x"}}},
		{"unclosed <tag", []Span{{SpanText, "unclosed <tag"}}},
		{"<> empty", []Span{{SpanText, "<> empty"}}},
		{"x > y", []Span{{SpanText, "x > y"}}},
		{"<<b>>", []Span{{SpanText, "<"}, {SpanMarkup, "<b>"}, {SpanText, ">"}}},
	}
	for _, tt := range tests {
		got := Split(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("Split(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Split(%q)[%d] = %+v, want %+v", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestSplit_Lossless(t *testing.T) {
	inputs := []string{
		"",
		"<",
		">",
		"<<<>>>",
		"a<b<c>d>e",
		"<p>Cloudcode</p><br/>",
		"<a title='1 > 0'>x</a>",
		"héllo <ß> wörld <",
		"\x00<\xff>",
	}
	for _, in := range inputs {
		if got := Join(Split(in)); got != in {
			t.Errorf("Join(Split(%q)) = %q", in, got)
		}
	}
}

func FuzzSplitLossless(f *testing.F) {
	f.Add("a <b>c</b> d")
	f.Add("<<>>")
	f.Fuzz(func(t *testing.T, in string) {
		if got := Join(Split(in)); got != in {
			t.Fatalf("Join(Split(%q)) = %q", in, got)
		}
	})
}
