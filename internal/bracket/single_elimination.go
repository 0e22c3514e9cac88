package bracket

import "github.com/google/uuid"

// singleElimination builds a full tree over bracketSize slots. Byes are
// completed immediately and their participant is already placed in round 2.
func (b *builder) singleElimination(seeded []uuid.UUID) [][]*Match {
	size := calcBracketSize(len(seeded))
	tree := b.tree(WinnersBracket, roundCount(size))

	seedFirstRound(tree[0], seeded, size)
	b.resolveFirstRoundByes(tree[0])

	return tree
}
