package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRound1SeedOrder(t *testing.T) {
	testCases := []struct {
		name       string
		numEntries int
		expected   [][2]int
	}{
		{
			name:       "2 entries",
			numEntries: 2,
			expected:   [][2]int{{0, 1}},
		},
		{
			name:       "4 entries",
			numEntries: 4,
			expected:   [][2]int{{0, 3}, {1, 2}},
		},
		{
			name:       "8 entries",
			numEntries: 8,
			expected:   [][2]int{{0, 7}, {3, 4}, {1, 6}, {2, 5}},
		},
		{
			name:       "Non-power of 2 (7 entries)",
			numEntries: 7,
			expected:   [][2]int{{0, 7}, {3, 4}, {1, 6}, {2, 5}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual := generateRound1Pairs(tc.numEntries)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestCalcBracketSize(t *testing.T) {
	testCases := map[int]int{0: 0, 1: 1, 2: 2, 3: 4, 5: 8, 8: 8, 9: 16, 100: 128, 128: 128}
	for count, expected := range testCases {
		assert.Equal(t, expected, calcBracketSize(count), "count %d", count)
	}
}

func TestSnakeGroups(t *testing.T) {
	assert.Equal(t, []int{1, 2, 2, 1, 1, 2, 2, 1}, snakeGroups(8, 2))
	assert.Equal(t, []int{1, 2, 3, 3, 2, 1, 1}, snakeGroups(7, 3))
}

func TestNormalizeSeeds(t *testing.T) {
	in := []Participant{
		{Name: "unseeded A"},
		{Name: "third", Seed: 7},
		{Name: "first", Seed: 1},
		{Name: "unseeded B"},
		{Name: "second", Seed: 3},
	}

	out := normalizeSeeds(in)

	names := make([]string, len(out))
	for i, p := range out {
		names[i] = p.Name
		assert.Equal(t, i+1, p.Seed)
	}
	assert.Equal(t, []string{"first", "second", "third", "unseeded A", "unseeded B"}, names)
	assert.Equal(t, 7, in[1].Seed, "input must not be modified")
}
