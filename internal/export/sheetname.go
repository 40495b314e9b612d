package export

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// MaxSheetName is Excel's sheet name limit in UTF-16 code units.
const MaxSheetName = 31

var illegalSheetChars = strings.NewReplacer(
	":", "", "/", "",
	"\\", "", "?", "", "*", "", "[", "", "]", "",
)

// SheetName derives a sheet name from a section title: truncated to the
// length limit first, then stripped of characters Excel rejects. The result
// may be empty.
func SheetName(title string) string {
	s := truncateUTF16(title, MaxSheetName)
	s = illegalSheetChars.Replace(s)
	s = strings.Trim(s, "'")
	return strings.TrimSpace(s)
}

// truncateUTF16 cuts s to at most n UTF-16 code units without splitting a rune.
func truncateUTF16(s string, n int) string {
	units := 0
	for i, r := range s {
		w := utf16.RuneLen(r)
		if w < 0 {
			w = 1
		}
		if units+w > n {
			return s[:i]
		}
		units += w
	}
	return s
}

// sheetNamer hands out unique sheet names. Excel compares names
// case-insensitively, so the seen set is keyed on the lowered name.
type sheetNamer struct {
	seen map[string]bool
	n    int
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{seen: make(map[string]bool)}
}

func (s *sheetNamer) next(title string) string {
	s.n++
	base := SheetName(title)
	if base == "" {
		base = fmt.Sprintf("Sheet%d", s.n)
	}
	name := base
	for k := 2; s.seen[strings.ToLower(name)]; k++ {
		suffix := fmt.Sprintf(" (%d)", k)
		name = strings.TrimSpace(truncateUTF16(base, MaxSheetName-len(suffix))) + suffix
	}
	s.seen[strings.ToLower(name)] = true
	return name
}
