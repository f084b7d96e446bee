package keyword

// MatchRatio returns 2*M / (len(a)+len(b)) where M is the number of runes in the
// matching blocks of a and b: the longest common block is taken first (earliest
// in a, then earliest in b) and the same search is repeated on both sides of
// it. Two empty strings are identical.
func MatchRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(ra, rb)) / float64(total)
}

type span struct {
	alo, ahi, blo, bhi int
}

func matchingRunes(a, b []rune) int {
	positions := make(map[rune][]int, len(b))
	for j, r := range b {
		positions[r] = append(positions[r], j)
	}

	matched := 0
	queue := []span{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		i, j, k := longestBlock(a, positions, s)
		if k == 0 {
			continue
		}
		matched += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return matched
}

// longestBlock finds the longest run shared by a[alo:ahi] and b[blo:bhi].
// positions maps each rune of b to its ascending indexes.
func longestBlock(a []rune, positions map[rune][]int, s span) (besti, bestj, bestk int) {
	besti, bestj = s.alo, s.blo
	// runLen[j] is the length of the common run ending at a[i-1], b[j].
	runLen := map[int]int{}
	for i := s.alo; i < s.ahi; i++ {
		next := map[int]int{}
		for _, j := range positions[a[i]] {
			if j < s.blo {
				continue
			}
			if j >= s.bhi {
				break
			}
			k := runLen[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		runLen = next
	}
	return besti, bestj, bestk
}
