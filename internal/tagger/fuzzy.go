package tagger

// similarity returns a 0..1 score for how alike two strings are:
// twice the number of matched characters over the total length, with
// matches found by recursively splitting around the longest common
// substring.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchedRunes(ra, rb)) / float64(total)
}

func matchedRunes(a, b []rune) int {
	i, j, k := longestMatch(a, b)
	if k == 0 {
		return 0
	}
	return matchedRunes(a[:i], b[:j]) + k + matchedRunes(a[i+k:], b[j+k:])
}

// longestMatch finds the longest common substring of a and b,
// returning its start in each and its length. Ties resolve to the
// earliest position in a, then in b.
func longestMatch(a, b []rune) (bestI, bestJ, bestK int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// lengths[j] is the length of the common suffix ending at a[i-1]
	// and b[j-1] from the previous row.
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > bestK {
					bestK = lengths[j]
					bestI = i - bestK
					bestJ = j - bestK
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return bestI, bestJ, bestK
}
