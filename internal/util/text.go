package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const MaxSheetNameLen = 31

var (
	reSpaces   = regexp.MustCompile(`\s+`)
	reNonWord  = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	sheetChars = strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")
)

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// MakeSafe collapses runs of non-word characters to "_" and trims "_" from both ends.
func MakeSafe(input string) string {
	return strings.Trim(reNonWord.ReplaceAllString(input, "_"), "_")
}

// SheetName returns a worksheet name valid for xlsx: forbidden characters
// replaced, no leading/trailing apostrophe, at most 31 characters.
func SheetName(input string) string {
	s := sheetChars.Replace(strings.TrimSpace(input))
	s = strings.Trim(s, "'")
	s = Truncate(s, MaxSheetNameLen)
	if s == "" {
		return "Unknown"
	}
	return s
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
