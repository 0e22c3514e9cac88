package bracket

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

const (
	MinParticipants     = 2
	MaxParticipants     = 128
	DefaultPointsPerWin = 3
)

// Config holds the format specific knobs. It is persisted as a JSON column.
type Config struct {
	// Group stage
	GroupCount         int `json:"group_count,omitempty"`
	TeamsPerGroup      int `json:"teams_per_group,omitempty"`
	KnockoutStageTeams int `json:"knockout_stage_teams,omitempty"`

	// Round robin tables
	Legs                 int  `json:"legs,omitempty"`
	PointsPerWin         *int `json:"points_per_win,omitempty"`
	PointsPerLoss        int  `json:"points_per_loss,omitempty"`
	TrackScoreDifference bool `json:"track_score_difference,omitempty"`

	// Custom delegates to this format. When empty the group fields decide.
	Base Format `json:"base,omitempty"`
}

func (c Config) WinPoints() int {
	if c.PointsPerWin == nil {
		return DefaultPointsPerWin
	}
	return *c.PointsPerWin
}

func (c Config) legs() int {
	if c.Legs == 0 {
		return 1
	}
	return c.Legs
}

func (c Config) resolveCustom() (Format, error) {
	switch c.Base {
	case SingleElimination, DoubleElimination, GroupStage:
		return c.Base, nil
	case "":
		if c.GroupCount > 0 || c.TeamsPerGroup > 0 {
			return GroupStage, nil
		}
		return SingleElimination, nil
	}
	return "", fmt.Errorf("%w: custom base %q", ErrUnsupportedFormat, c.Base)
}

func (c Config) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *Config) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c = Config{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported config column type %T", src)
	}
	if len(raw) == 0 {
		*c = Config{}
		return nil
	}
	return json.Unmarshal(raw, c)
}
