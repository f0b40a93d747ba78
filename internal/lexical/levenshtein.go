package lexical

// LevenshteinDistance calculates the minimum number of single-character edits
// (insertions, deletions, or substitutions) required to change one string
// into another. Operates on runes for correct Unicode handling.
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len([]rune(b))
	}
	if len(b) == 0 {
		return len([]rune(a))
	}

	runesA := []rune(a)
	runesB := []rune(b)

	// Two rolling rows are enough.
	prev := make([]int, len(runesB)+1)
	curr := make([]int, len(runesB)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(runesA); i++ {
		curr[0] = i
		for j := 1; j <= len(runesB); j++ {
			cost := 1
			if runesA[i-1] == runesB[j-1] {
				cost = 0
			}
			deletion := prev[j] + 1
			insertion := curr[j-1] + 1
			substitution := prev[j-1] + cost
			d := deletion
			if insertion < d {
				d = insertion
			}
			if substitution < d {
				d = substitution
			}
			curr[j] = d
		}
		prev, curr = curr, prev
	}
	return prev[len(runesB)]
}
