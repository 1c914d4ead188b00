package textutil

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Similarity returns the indel similarity ratio of a and b in [0, 1]:
// 2*LCS / (len(a)+len(b)) over runes, where LCS is the longest common
// subsequence. Both strings are NFC-normalised first so composed and
// decomposed accents compare equal, and case-folded so "Megaman" and
// "MegaMan" do. Two empty strings are identical.
func Similarity(a, b string) float64 {
	ra := foldRunes(a)
	rb := foldRunes(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	return float64(2*lcsLength(ra, rb)) / float64(total)
}

func foldRunes(s string) []rune {
	return []rune(norm.NFC.String(cases.Fold().String(s)))
}

func lcsLength(a, b []rune) int {
	if len(b) > len(a) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
