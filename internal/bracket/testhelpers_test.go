package bracket

import (
	"fmt"

	"github.com/AdamBeresnev/op-bracket-engine/internal/utils"
	"github.com/google/uuid"
)

func makeParticipants(n int) []Participant {
	ps := make([]Participant, n)
	for i := range ps {
		ps[i] = Participant{ID: uuid.New(), Name: fmt.Sprintf("P%d", i+1), Seed: i + 1}
	}
	return ps
}

func findMatch(matches []Match, bt BracketType, round, number int) *Match {
	for i := range matches {
		if matches[i].BracketType == bt && matches[i].Round == round && matches[i].MatchNumber == number {
			return &matches[i]
		}
	}
	return nil
}

func indexMatches(matches []Match) map[uuid.UUID]*Match {
	byID := make(map[uuid.UUID]*Match, len(matches))
	for i := range matches {
		byID[matches[i].ID] = &matches[i]
	}
	return byID
}

// play records a result in memory and routes winner and loser the same way
// the progression engine does, including losers bracket byes.
func play(matches []Match, m *Match, winner uuid.UUID) {
	byID := indexMatches(matches)
	loser := *m.Player1ID
	if loser == winner {
		loser = *m.Player2ID
	}
	m.Status = MatchCompleted
	m.WinnerID = utils.Ptr(winner)

	route(byID, m.WinnerTarget(), winner)
	route(byID, m.LoserTarget(), loser)
}

func route(byID map[uuid.UUID]*Match, target *SlotRef, id uuid.UUID) {
	if target == nil {
		return
	}
	next := byID[target.MatchID]
	next.setPlayer(target.Slot, id)
	switch {
	case next.IsBye:
		next.Status = MatchCompleted
		next.WinnerID = utils.Ptr(id)
		route(byID, next.WinnerTarget(), id)
	case next.BothSlotsFilled():
		next.Status = MatchReady
	}
}
