package bracket

import (
	"fmt"

	"github.com/AdamBeresnev/op-bracket-engine/internal/utils"
	"github.com/google/uuid"
)

func groupLayout(count int, cfg Config) (int, error) {
	groups := cfg.GroupCount
	switch {
	case groups > 0:
		if cfg.TeamsPerGroup > 0 && groups*cfg.TeamsPerGroup < count {
			return 0, fmt.Errorf("%w: %d groups of %d cannot hold %d participants", ErrInvalidConfig, groups, cfg.TeamsPerGroup, count)
		}
	case cfg.TeamsPerGroup > 0:
		groups = (count + cfg.TeamsPerGroup - 1) / cfg.TeamsPerGroup
	default:
		return 0, fmt.Errorf("%w: group stage needs group_count or teams_per_group", ErrInvalidConfig)
	}

	if count < 2*groups {
		return 0, fmt.Errorf("%w: %d participants cannot fill %d groups of at least 2", ErrInvalidConfig, count, groups)
	}

	smallest := count / groups
	if cfg.KnockoutStageTeams < 0 || cfg.KnockoutStageTeams > smallest {
		return 0, fmt.Errorf("%w: knockout_stage_teams must be between 0 and %d", ErrInvalidConfig, smallest)
	}
	if cfg.KnockoutStageTeams > 0 && groups*cfg.KnockoutStageTeams < 2 {
		return 0, fmt.Errorf("%w: knockout stage needs at least 2 qualifiers", ErrInvalidConfig)
	}
	return groups, nil
}

// groupStage assigns seeded participants to groups in serpentine order and
// schedules a round robin inside each group. The knockout stage is built
// later, once every group match has a result.
func (b *builder) groupStage(seeded []Participant, cfg Config) error {
	groups, err := groupLayout(len(seeded), cfg)
	if err != nil {
		return err
	}

	assignment := snakeGroups(len(seeded), groups)
	members := make([][]uuid.UUID, groups)
	for i := range seeded {
		g := assignment[i]
		seeded[i].GroupNumber = utils.Ptr(g)
		members[g-1] = append(members[g-1], seeded[i].ID)
	}

	for i, ids := range members {
		b.roundRobin(ids, utils.Ptr(i+1), cfg.legs())
	}
	return nil
}
