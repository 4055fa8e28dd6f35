package export

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxSheetNameLen is the workbook format's sheet name limit.
const MaxSheetNameLen = 31

var sheetNameReplacer = strings.NewReplacer(
	"/", "_", `\`, "_", "?", "_", "*", "_", "[", "_", "]", "_", ":", "_",
)

// SheetName normalizes a display name into a valid sheet name: NFC form,
// forbidden characters replaced with "_", at most 31 characters.
func SheetName(base string) string {
	name := norm.NFC.String(strings.TrimSpace(base))
	name = sheetNameReplacer.Replace(name)
	// A leading or trailing apostrophe is also rejected by spreadsheet apps.
	if strings.HasPrefix(name, "'") {
		name = "_" + name[1:]
	}
	if strings.HasSuffix(name, "'") {
		name = name[:len(name)-1] + "_"
	}
	name = truncateRunes(name, MaxSheetNameLen)
	if name == "" {
		return "Sheet"
	}
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// sheetNamer hands out unique sheet names. Sheet names compare
// case-insensitively.
type sheetNamer struct {
	used map[string]bool
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{used: make(map[string]bool)}
}

func (n *sheetNamer) unique(base string) string {
	name := SheetName(base)
	for i := 2; n.used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncateRunes(SheetName(base), MaxSheetNameLen-utf8.RuneCountInString(suffix)) + suffix
	}
	n.used[strings.ToLower(name)] = true
	return name
}
