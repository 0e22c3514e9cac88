package bracket

import (
	"github.com/AdamBeresnev/op-bracket-engine/internal/utils"
	"github.com/google/uuid"
)

// roundRobin schedules every pair once per leg with the circle method: the
// first participant stays put and the rest rotate one place each round. An
// odd field gets a phantom opponent, which turns into a rest round.
func (b *builder) roundRobin(members []uuid.UUID, group *int, legs int) {
	slots := make([]*uuid.UUID, len(members))
	for i := range members {
		slots[i] = utils.Ptr(members[i])
	}
	if len(slots)%2 != 0 {
		slots = append(slots, nil)
	}

	n := len(slots)
	rounds := n - 1

	for leg := 0; leg < legs; leg++ {
		order := append([]*uuid.UUID(nil), slots...)

		for r := 0; r < rounds; r++ {
			number := 0
			for i := 0; i < n/2; i++ {
				home, away := order[i], order[n-1-i]
				if home == nil || away == nil {
					continue
				}
				// Second leg swaps home and away
				if leg%2 == 1 {
					home, away = away, home
				}

				number++
				m := b.newMatch(GroupBracket, group, leg*rounds+r+1, number)
				m.Player1ID = utils.Ptr(*home)
				m.Player2ID = utils.Ptr(*away)
			}

			rotated := make([]*uuid.UUID, 0, n)
			rotated = append(rotated, order[0], order[n-1])
			rotated = append(rotated, order[1:n-1]...)
			order = rotated
		}
	}
}
