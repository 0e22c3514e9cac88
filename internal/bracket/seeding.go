package bracket

import "math"

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func calcBracketSize(count int) int {
	if count <= 0 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}

func roundCount(bracketSize int) int {
	if bracketSize <= 1 {
		return 0
	}
	return int(math.Log2(float64(bracketSize)))
}

// generateRound1Pairs returns zero-based seed indexes for each first round
// match, so that seed 1 and seed 2 can only meet in the final.
func generateRound1Pairs(bracketSize int) [][2]int {
	if bracketSize == 0 {
		return [][2]int{}
	}

	rounds := []int{0}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, seed := range rounds {
			nextRound = append(nextRound, seed)
			nextRound = append(nextRound, (currentCount-1)-seed)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(rounds); i += 2 {
		pairs = append(pairs, [2]int{rounds[i], rounds[i+1]})
	}

	return pairs
}

// snakeGroups assigns seeds to groups in serpentine order (1..G, G..1, ...)
// so that neighbouring seeds never share a group while there are enough groups.
func snakeGroups(count, groups int) []int {
	assignment := make([]int, count)
	for i := 0; i < count; i++ {
		row := i / groups
		col := i % groups
		if row%2 == 1 {
			col = groups - 1 - col
		}
		assignment[i] = col + 1
	}
	return assignment
}
