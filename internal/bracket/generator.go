package bracket

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator turns an ordered list of participants into the initial match
// graph of a tournament. It has no side effects besides calling newID.
type Generator struct {
	newID func() uuid.UUID
}

func NewGenerator(newID func() uuid.UUID) *Generator {
	if newID == nil {
		newID = uuid.New
	}
	return &Generator{newID: newID}
}

type Bracket struct {
	// Participants with normalised seeds and, for group stages, their group.
	Participants []Participant
	Matches      []Match
}

func (g *Generator) Generate(tournamentID uuid.UUID, participants []Participant, format Format, cfg Config) (*Bracket, error) {
	if len(participants) < MinParticipants || len(participants) > MaxParticipants {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidParticipantCount, len(participants))
	}
	if cfg.Legs < 0 || cfg.Legs > 2 {
		return nil, fmt.Errorf("%w: legs must be 1 or 2", ErrInvalidConfig)
	}

	resolved := format
	if format == Custom {
		f, err := cfg.resolveCustom()
		if err != nil {
			return nil, err
		}
		resolved = f
	}

	seeded := normalizeSeeds(participants)
	seen := make(map[uuid.UUID]bool, len(seeded))
	ids := make([]uuid.UUID, len(seeded))
	for i := range seeded {
		if seeded[i].ID == uuid.Nil {
			seeded[i].ID = g.newID()
		}
		if seen[seeded[i].ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, seeded[i].ID)
		}
		seen[seeded[i].ID] = true
		seeded[i].TournamentID = tournamentID
		seeded[i].GroupNumber = nil
		seeded[i].EliminatedInRound = nil
		ids[i] = seeded[i].ID
	}

	b := newBuilder(tournamentID, g.newID)
	switch resolved {
	case SingleElimination:
		b.singleElimination(ids)
	case DoubleElimination:
		b.doubleElimination(ids)
	case RoundRobin:
		b.roundRobin(ids, nil, cfg.legs())
	case GroupStage:
		if err := b.groupStage(seeded, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	b.markReady()

	return &Bracket{Participants: seeded, Matches: b.result()}, nil
}

// Knockout builds the single elimination stage that follows a group stage.
// Qualifiers must already be in seed order.
func (g *Generator) Knockout(tournamentID uuid.UUID, qualifiers []uuid.UUID) ([]Match, error) {
	if len(qualifiers) < MinParticipants || len(qualifiers) > MaxParticipants {
		return nil, fmt.Errorf("%w: %d qualifiers", ErrInvalidParticipantCount, len(qualifiers))
	}

	b := newBuilder(tournamentID, g.newID)
	b.singleElimination(qualifiers)
	b.markReady()
	return b.result(), nil
}
