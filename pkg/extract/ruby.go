package extract

import "regexp"

var (
	// (?s) allows dot to match newlines
	// (?i) makes it case-insensitive
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes ruby text (<rt>...</rt>) and ruby parentheses
// (<rp>...</rp>) from HTML. Readability keeps furigana as text, so "漢字"
// would otherwise come out as "漢字かんじ". It works on raw bytes and is
// safe for Shift_JIS, since '<' is never a trailing byte there.
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, nil)
	return reRP.ReplaceAll(cleaned, nil)
}
