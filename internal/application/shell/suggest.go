package shell

// suggest returns the candidate closest to an unknown word, or "" if
// nothing is within an edit distance of 3.
func suggest(unknown string, candidates []string) string {
	best := ""
	bestDistance := 4
	for _, candidate := range candidates {
		if d := levenshtein(unknown, candidate); d < bestDistance {
			bestDistance = d
			best = candidate
		}
	}
	return best
}

// levenshtein computes the edit distance between two strings over runes,
// keeping a single row of the distance matrix.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	previous := make([]int, len(ra)+1)
	for i := range previous {
		previous[i] = i
	}
	current := make([]int, len(ra)+1)
	for j := 1; j <= len(rb); j++ {
		current[0] = j
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			current[i] = min(previous[i]+1, current[i-1]+1, previous[i-1]+cost)
		}
		previous, current = current, previous
	}
	return previous[len(ra)]
}
