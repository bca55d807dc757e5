package matching

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Normalize lowercases s, replaces every character that is not a letter,
// digit, underscore or whitespace with a space, collapses whitespace runs
// and trims. The same normalization is applied to budget descriptions and
// reference names so scores compare like with like.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenSort reorders the whitespace tokens of a normalized string
// alphabetically and rejoins them with single spaces.
func tokenSort(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// TokenSortRatio scores the similarity of two normalized strings on a 0-100
// scale. Both sides are token-sorted first, so word order never penalizes a
// match; the reordered strings are then compared by Levenshtein ratio
// round(100 * (lenA + lenB - dist) / (lenA + lenB)). Two empty strings
// score 0, not 100: an empty description carries no evidence of a match.
func TokenSortRatio(a, b string) int {
	sa := tokenSort(a)
	sb := tokenSort(b)
	lensum := len([]rune(sa)) + len([]rune(sb))
	if lensum == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(sa, sb)
	ratio := float64(lensum-dist) / float64(lensum)
	return int(ratio*100 + 0.5)
}
