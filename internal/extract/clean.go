package extract

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var (
	cidArtifactRe   = regexp.MustCompile(`\(cid:\d+\)`)
	controlCharsRe  = regexp.MustCompile(`[\x00-\x08\x0B\x0E-\x1F\x7F]`)
	trailingSpaceRe = regexp.MustCompile(`[ \t]+\n`)
	blankRunRe      = regexp.MustCompile(`\n{3,}`)
	htmlTagRe       = regexp.MustCompile(`(?i)<(p|div|br|span|ul|ol|li|h[1-6]|strong|em|b|i|a|section|article)\b[^>]*>`)

	ligatures = strings.NewReplacer(
		"\ufb00", "ff",
		"\ufb01", "fi",
		"\ufb02", "fl",
		"\ufb03", "ffi",
		"\ufb04", "ffl",
		"\u00ad", "",
		"\u00a0", " ",
		"\u2028", "\n",
		"\f", "\n",
		"\r\n", "\n",
		"\r", "\n",
	)
)

// CleanText strips PDF glyph artifacts and control characters, normalizes
// ligatures and line endings, and collapses long runs of blank lines.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = ligatures.Replace(s)
	s = cidArtifactRe.ReplaceAllString(s, "")
	s = controlCharsRe.ReplaceAllString(s, "")
	s = trailingSpaceRe.ReplaceAllString(s, "\n")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// CleanPastedText converts HTML pastes to markdown before cleaning.
// Plain text goes straight to CleanText.
func CleanPastedText(s string) string {
	if htmlTagRe.MatchString(s) {
		if md, err := htmltomarkdown.ConvertString(s); err == nil {
			s = md
		}
	}
	return CleanText(s)
}
