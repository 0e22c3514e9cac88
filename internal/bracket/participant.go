package bracket

import (
	"sort"

	"github.com/google/uuid"
)

type Participant struct {
	ID                uuid.UUID `db:"id" json:"id"`
	TournamentID      uuid.UUID `db:"tournament_id" json:"tournament_id"`
	Name              string    `db:"name" json:"name"`
	Seed              int       `db:"seed" json:"seed"`
	GroupNumber       *int      `db:"group_number" json:"group_number,omitempty"`
	EliminatedInRound *int      `db:"eliminated_in_round" json:"eliminated_in_round,omitempty"`
}

// normalizeSeeds returns a copy ordered by seed. Participants without a seed
// keep their input order and are numbered after the seeded ones.
func normalizeSeeds(participants []Participant) []Participant {
	out := make([]Participant, len(participants))
	copy(out, participants)

	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Seed, out[j].Seed
		if si == 0 || sj == 0 {
			return si != 0 && sj == 0
		}
		return si < sj
	})

	for i := range out {
		out[i].Seed = i + 1
	}
	return out
}
