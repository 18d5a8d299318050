package extract

import (
	"strings"
	"testing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "cid artifacts", in: "Led(cid:3) team(cid:12)", want: "Led team"},
		{name: "control chars", in: "A\x00B\x07C", want: "ABC"},
		{name: "ligatures", in: "e\ufb03cient o\ufb03ce \ufb01le", want: "efficient office file"},
		{name: "soft hyphen", in: "manage\u00adment", want: "management"},
		{name: "form feed", in: "page one\fpage two", want: "page one\npage two"},
		{name: "trailing spaces", in: "line   \nnext\t\n", want: "line\nnext"},
		{name: "blank runs", in: "a\n\n\n\n\nb", want: "a\n\nb"},
		{name: "crlf", in: "a\r\nb\rc", want: "a\nb\nc"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Fatalf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanPastedTextConvertsHTML(t *testing.T) {
	in := `<div><p>Head of <strong>Sales</strong></p><ul><li>Grew ARR 3x</li></ul></div>`
	got := CleanPastedText(in)
	if strings.Contains(got, "<") {
		t.Fatalf("expected html tags removed, got %q", got)
	}
	if !strings.Contains(got, "**Sales**") || !strings.Contains(got, "Grew ARR 3x") {
		t.Fatalf("expected markdown conversion, got %q", got)
	}
}

func TestCleanPastedTextPlain(t *testing.T) {
	in := "About me  \n\n\n\nI build teams. 3 < 5"
	if got := CleanPastedText(in); got != "About me\n\nI build teams. 3 < 5" {
		t.Fatalf("unexpected %q", got)
	}
}
