package textutil

import (
	"path/filepath"
	"strings"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", " -",
	"*", "-",
	"?", "",
	"\"", "'",
	"<", "",
	">", "",
	"|", "-",
)

// SanitizeFileName replaces filesystem-unsafe characters in a canonical
// title. Slashes, backslashes, pipes and asterisks become dashes, a colon
// becomes " -" ("Zelda II: The Adventure" -> "Zelda II - The Adventure"),
// double quotes become single quotes, and the rest are removed. The result is
// trimmed of leading/trailing whitespace and trailing dots.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = fileNameReplacer.Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	return strings.TrimRight(name, ". ")
}

// StripExtension removes the final extension from a file name.
func StripExtension(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
