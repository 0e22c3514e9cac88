package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentOngoing   TournamentStatus = "ongoing"
	TournamentCompleted TournamentStatus = "completed"
	TournamentCancelled TournamentStatus = "cancelled"
)

type Format string

const (
	SingleElimination Format = "single_elimination"
	DoubleElimination Format = "double_elimination"
	RoundRobin        Format = "round_robin"
	GroupStage        Format = "group_stage"
	Custom            Format = "custom"
)

func (f Format) Valid() bool {
	switch f {
	case SingleElimination, DoubleElimination, RoundRobin, GroupStage, Custom:
		return true
	}
	return false
}

// Stage tracks which part of a multi-phase tournament is being played.
// Only group stage tournaments move past StageMain.
type Stage string

const (
	StageMain     Stage = "main"
	StageGroups   Stage = "groups"
	StageKnockout Stage = "knockout"
)

type Tournament struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	Name             string           `db:"name" json:"name"`
	Format           Format           `db:"format" json:"format"`
	Status           TournamentStatus `db:"status" json:"status"`
	Stage            Stage            `db:"stage" json:"stage"`
	ParticipantCount int              `db:"participant_count" json:"participant_count"`
	Config           Config           `db:"config" json:"config"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
}

// EffectiveFormat resolves Custom to the format it actually plays as.
func (t *Tournament) EffectiveFormat() Format {
	if t.Format != Custom {
		return t.Format
	}
	f, err := t.Config.resolveCustom()
	if err != nil {
		return Custom
	}
	return f
}
