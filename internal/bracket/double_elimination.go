package bracket

import "github.com/google/uuid"

// doubleElimination builds the winners bracket, a losers bracket with
// 2*(k-1) rounds for a k round winners bracket, and the first grand final.
// The bracket reset match is only created once it is needed.
//
// Losers bracket layout:
//   - round 1 pairs the winners round 1 losers (match i feeds match i/2).
//   - even round 2j takes the round 2j-1 survivors in slot 1 and the losers of
//     winners round j+1 in slot 2. The drop-in order is reversed on every other
//     round so that players do not immediately meet the same opponent again.
//   - odd round 2j+1 pairs the survivors of round 2j.
//
// The losers bracket champion takes slot 2 of the grand final.
func (b *builder) doubleElimination(seeded []uuid.UUID) {
	size := calcBracketSize(len(seeded))
	k := roundCount(size)

	wb := b.tree(WinnersBracket, k)
	seedFirstRound(wb[0], seeded, size)

	gf := b.newMatch(GrandFinal, nil, 1, 1)
	linkWinner(wb[k-1][0], gf, Slot1)

	var lb [][]*Match
	if k == 1 {
		linkLoser(wb[0][0], gf, Slot2)
	} else {
		lb = b.losersBracket(size, k)

		for i, m := range wb[0] {
			linkLoser(m, lb[0][i/2], i%2+1)
		}

		for r := 2; r <= k; r++ {
			drop := lb[2*(r-1)-1]
			count := len(wb[r-1])
			for i, m := range wb[r-1] {
				idx := i
				if (r-1)%2 == 1 {
					idx = count - 1 - i
				}
				linkLoser(m, drop[idx], Slot2)
			}
		}

		linkWinner(lb[len(lb)-1][0], gf, Slot2)
	}

	b.resolveFirstRoundByes(wb[0])
	b.markLosersByes(wb, lb)
}

func (b *builder) losersBracket(size, k int) [][]*Match {
	total := 2 * (k - 1)
	lb := make([][]*Match, total)

	for l := 1; l <= total; l++ {
		j := (l + 1) / 2
		count := size >> (j + 1)
		lb[l-1] = make([]*Match, count)
		for i := 0; i < count; i++ {
			lb[l-1][i] = b.newMatch(LosersBracket, nil, l, i+1)
		}
	}

	for l := 1; l < total; l++ {
		for i, m := range lb[l-1] {
			if l%2 == 1 {
				linkWinner(m, lb[l][i], Slot1)
			} else {
				linkWinner(m, lb[l][i/2], i%2+1)
			}
		}
	}
	return lb
}

// markLosersByes walks the bracket in play order and works out which slots
// can ever receive a participant. Winners round 1 byes produce no loser, so
// some losers bracket matches will only ever see one participant: those are
// flagged as byes and resolved when that participant arrives. Matches that
// can receive nobody are closed straight away without a winner.
func (b *builder) markLosersByes(wb, lb [][]*Match) {
	live := make(map[uuid.UUID]*[2]bool, len(b.matches))
	for _, m := range b.matches {
		live[m.ID] = &[2]bool{m.Player1ID != nil, m.Player2ID != nil}
	}

	feed := func(target *SlotRef, ok bool) {
		if target == nil || !ok {
			return
		}
		if s, found := live[target.MatchID]; found {
			s[target.Slot-1] = true
		}
	}

	for _, round := range append(append([][]*Match{}, wb...), lb...) {
		for _, m := range round {
			s := live[m.ID]
			feed(m.WinnerTarget(), s[0] || s[1])
			feed(m.LoserTarget(), s[0] && s[1])
		}
	}

	for _, round := range lb {
		for _, m := range round {
			s := live[m.ID]
			switch {
			case !s[0] && !s[1]:
				m.IsBye = true
				m.Status = MatchCompleted
			case s[0] != s[1]:
				m.IsBye = true
			}
		}
	}
}
