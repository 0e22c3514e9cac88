package bracket

import (
	"github.com/AdamBeresnev/op-bracket-engine/internal/utils"
	"github.com/google/uuid"
)

// builder accumulates the match arena of one bracket. Matches refer to each
// other only by id, never by pointer, so the result can be stored as flat rows.
type builder struct {
	tournamentID uuid.UUID
	newID        func() uuid.UUID
	matches      []*Match
	byID         map[uuid.UUID]*Match
}

func newBuilder(tournamentID uuid.UUID, newID func() uuid.UUID) *builder {
	return &builder{
		tournamentID: tournamentID,
		newID:        newID,
		byID:         make(map[uuid.UUID]*Match),
	}
}

func (b *builder) newMatch(bt BracketType, group *int, round, number int) *Match {
	m := &Match{
		ID:           b.newID(),
		TournamentID: b.tournamentID,
		BracketType:  bt,
		GroupNumber:  group,
		Round:        round,
		MatchNumber:  number,
		Status:       MatchPending,
	}
	b.matches = append(b.matches, m)
	b.byID[m.ID] = m
	return m
}

func linkWinner(from, to *Match, slot int) {
	from.WinnerNextMatchID = utils.Ptr(to.ID)
	from.WinnerNextSlot = utils.Ptr(slot)
}

func linkLoser(from, to *Match, slot int) {
	from.LoserNextMatchID = utils.Ptr(to.ID)
	from.LoserNextSlot = utils.Ptr(slot)
}

// tree creates an elimination tree with the given number of rounds and wires
// every match to its parent: odd match numbers feed slot 1, even feed slot 2.
func (b *builder) tree(bt BracketType, rounds int) [][]*Match {
	tree := make([][]*Match, rounds)
	for r := 1; r <= rounds; r++ {
		count := 1 << (rounds - r)
		tree[r-1] = make([]*Match, count)
		for i := 0; i < count; i++ {
			tree[r-1][i] = b.newMatch(bt, nil, r, i+1)
		}
	}

	for r := 0; r < rounds-1; r++ {
		for i, m := range tree[r] {
			parent := tree[r+1][i/2]
			if (i+1)%2 != 0 {
				linkWinner(m, parent, Slot1)
			} else {
				linkWinner(m, parent, Slot2)
			}
		}
	}
	return tree
}

// seedFirstRound places seeds with standard bracket seeding. Slots past the
// number of participants stay empty and become byes.
func seedFirstRound(first []*Match, seeded []uuid.UUID, bracketSize int) {
	for i, pair := range generateRound1Pairs(bracketSize) {
		if i >= len(first) {
			break
		}
		m := first[i]
		if pair[0] < len(seeded) {
			m.Player1ID = utils.Ptr(seeded[pair[0]])
		}
		if pair[1] < len(seeded) {
			m.Player2ID = utils.Ptr(seeded[pair[1]])
		}
	}
}

// resolveFirstRoundByes completes every first round match with a single
// participant and moves that participant into the next match.
func (b *builder) resolveFirstRoundByes(first []*Match) {
	for _, m := range first {
		var present *uuid.UUID
		switch {
		case m.Player1ID != nil && m.Player2ID == nil:
			present = m.Player1ID
		case m.Player1ID == nil && m.Player2ID != nil:
			present = m.Player2ID
		default:
			continue
		}

		m.Status = MatchCompleted
		m.WinnerID = utils.Ptr(*present)
		m.IsBye = true

		if target := m.WinnerTarget(); target != nil {
			if next, ok := b.byID[target.MatchID]; ok {
				next.setPlayer(target.Slot, *present)
			}
		}
	}
}

// markReady moves every open match whose two slots are known to ready.
func (b *builder) markReady() {
	for _, m := range b.matches {
		if m.Status == MatchPending && m.BothSlotsFilled() && !m.IsBye {
			m.Status = MatchReady
		}
	}
}

func (b *builder) result() []Match {
	out := make([]Match, len(b.matches))
	for i, m := range b.matches {
		out[i] = *m
	}
	return out
}
