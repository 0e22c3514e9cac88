package bracket

import (
	"sort"

	"github.com/AdamBeresnev/op-bracket-engine/internal/utils"
)

// Section is one drawable part of a tournament: a group table, the winners or
// losers bracket, or the grand final.
type Section struct {
	BracketType BracketType `json:"bracket_type"`
	GroupNumber *int        `json:"group_number,omitempty"`
	Rounds      []Round     `json:"rounds"`
}

type Round struct {
	Number  int     `json:"number"`
	Matches []Match `json:"matches"`
}

var sectionOrder = map[BracketType]int{
	GroupBracket:   0,
	WinnersBracket: 1,
	LosersBracket:  2,
	GrandFinal:     3,
}

// Layout groups matches into sections and rounds, ordered for display.
func Layout(matches []Match) []Section {
	var sections []Section
	rounds := make(map[int]map[int][]Match)

	for _, m := range matches {
		idx := -1
		for i := range sections {
			if sections[i].BracketType == m.BracketType && utils.Equal(sections[i].GroupNumber, m.GroupNumber) {
				idx = i
				break
			}
		}
		if idx == -1 {
			sections = append(sections, Section{BracketType: m.BracketType, GroupNumber: m.GroupNumber})
			idx = len(sections) - 1
			rounds[idx] = make(map[int][]Match)
		}
		rounds[idx][m.Round] = append(rounds[idx][m.Round], m)
	}

	for i := range sections {
		var roundNums []int
		for r := range rounds[i] {
			roundNums = append(roundNums, r)
		}
		sort.Ints(roundNums)

		for _, r := range roundNums {
			ms := rounds[i][r]
			sort.Slice(ms, func(a, b int) bool {
				return ms[a].MatchNumber < ms[b].MatchNumber
			})
			sections[i].Rounds = append(sections[i].Rounds, Round{Number: r, Matches: ms})
		}
	}

	sort.SliceStable(sections, func(i, j int) bool {
		a, b := sections[i], sections[j]
		if a.BracketType != b.BracketType {
			return sectionOrder[a.BracketType] < sectionOrder[b.BracketType]
		}
		return utils.OrZero(a.GroupNumber) < utils.OrZero(b.GroupNumber)
	})

	return sections
}
