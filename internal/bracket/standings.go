package bracket

import (
	"sort"

	"github.com/AdamBeresnev/op-bracket-engine/internal/utils"
	"github.com/google/uuid"
)

type Standing struct {
	Rank          int       `json:"rank"`
	ParticipantID uuid.UUID `json:"participant_id"`
	Seed          int       `json:"seed"`

	GroupNumber *int `json:"group_number,omitempty"`
	GroupRank   int  `json:"group_rank,omitempty"`

	Played          int `json:"played"`
	Wins            int `json:"wins"`
	Losses          int `json:"losses"`
	Points          int `json:"points"`
	ScoreFor        int `json:"score_for"`
	ScoreAgainst    int `json:"score_against"`
	ScoreDifference int `json:"score_difference"`

	// For double elimination this is the progression depth across both
	// brackets rather than a raw round number.
	RoundReached      int  `json:"round_reached"`
	Eliminated        bool `json:"eliminated"`
	EliminatedInRound *int `json:"eliminated_in_round,omitempty"`
}

// CalculateStandings ranks participants from the match log alone, so the same
// matches always give the same order regardless of submission order.
func CalculateStandings(t *Tournament, participants []Participant, matches []Match) []Standing {
	var rows []Standing
	switch t.EffectiveFormat() {
	case RoundRobin:
		rows = rankTable(participants, matches, t.Config)
	case GroupStage:
		rows = groupStageStandings(participants, matches, t.Config)
	case SingleElimination:
		rows = rankElimination(participants, matches, false)
	case DoubleElimination:
		rows = rankElimination(participants, matches, true)
	}

	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

func countsForTable(m *Match) bool {
	return m.BracketType == GroupBracket && m.Status == MatchCompleted && m.WinnerID != nil && m.BothSlotsFilled()
}

// rankTable orders a round robin table: points, wins, fewer losses, score
// difference when tracked, head-to-head among tied participants, then seed.
func rankTable(participants []Participant, matches []Match, cfg Config) []Standing {
	rows := make([]*Standing, 0, len(participants))
	byID := make(map[uuid.UUID]*Standing, len(participants))
	for _, p := range participants {
		s := &Standing{ParticipantID: p.ID, Seed: p.Seed, GroupNumber: p.GroupNumber}
		rows = append(rows, s)
		byID[p.ID] = s
	}

	for i := range matches {
		m := &matches[i]
		if !countsForTable(m) {
			continue
		}
		w, l := byID[*m.WinnerID], byID[*m.LoserID()]
		if w == nil || l == nil {
			continue
		}
		w.Played++
		w.Wins++
		l.Played++
		l.Losses++

		if m.Score1 != nil && m.Score2 != nil {
			p1, p2 := byID[*m.Player1ID], byID[*m.Player2ID]
			p1.ScoreFor += *m.Score1
			p1.ScoreAgainst += *m.Score2
			p2.ScoreFor += *m.Score2
			p2.ScoreAgainst += *m.Score1
		}
	}

	for _, s := range rows {
		s.Points = s.Wins*cfg.WinPoints() + s.Losses*cfg.PointsPerLoss
		s.ScoreDifference = s.ScoreFor - s.ScoreAgainst
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if c := compareTable(rows[i], rows[j], cfg.TrackScoreDifference); c != 0 {
			return c < 0
		}
		return rows[i].Seed < rows[j].Seed
	})
	breakHeadToHead(rows, matches, cfg.TrackScoreDifference)

	out := make([]Standing, len(rows))
	for i, s := range rows {
		out[i] = *s
	}
	return out
}

// compareTable returns -1 when a ranks above b.
func compareTable(a, b *Standing, scoreDiff bool) int {
	switch {
	case a.Points != b.Points:
		return desc(a.Points, b.Points)
	case a.Wins != b.Wins:
		return desc(a.Wins, b.Wins)
	case a.Losses != b.Losses:
		return desc(b.Losses, a.Losses)
	case scoreDiff && a.ScoreDifference != b.ScoreDifference:
		return desc(a.ScoreDifference, b.ScoreDifference)
	case scoreDiff && a.ScoreFor != b.ScoreFor:
		return desc(a.ScoreFor, b.ScoreFor)
	}
	return 0
}

func desc(a, b int) int {
	if a > b {
		return -1
	}
	if a < b {
		return 1
	}
	return 0
}

// breakHeadToHead reorders each run of tied rows by the wins they took off
// each other. Working on whole tie groups keeps the order transitive.
func breakHeadToHead(rows []*Standing, matches []Match, scoreDiff bool) {
	for start := 0; start < len(rows); {
		end := start + 1
		for end < len(rows) && compareTable(rows[start], rows[end], scoreDiff) == 0 {
			end++
		}
		if end-start > 1 {
			tied := rows[start:end]
			members := make(map[uuid.UUID]bool, len(tied))
			for _, s := range tied {
				members[s.ParticipantID] = true
			}
			h2h := make(map[uuid.UUID]int, len(tied))
			for i := range matches {
				m := &matches[i]
				if !countsForTable(m) || !members[*m.Player1ID] || !members[*m.Player2ID] {
					continue
				}
				h2h[*m.WinnerID]++
			}
			sort.SliceStable(tied, func(i, j int) bool {
				hi, hj := h2h[tied[i].ParticipantID], h2h[tied[j].ParticipantID]
				if hi != hj {
					return hi > hj
				}
				return tied[i].Seed < tied[j].Seed
			})
		}
		start = end
	}
}

// GroupTables ranks every group of a group stage separately, keyed by group number.
func GroupTables(participants []Participant, matches []Match, cfg Config) map[int][]Standing {
	members := make(map[int][]Participant)
	for _, p := range participants {
		if p.GroupNumber == nil {
			continue
		}
		members[*p.GroupNumber] = append(members[*p.GroupNumber], p)
	}
	games := make(map[int][]Match)
	for _, m := range matches {
		if m.BracketType != GroupBracket || m.GroupNumber == nil {
			continue
		}
		games[*m.GroupNumber] = append(games[*m.GroupNumber], m)
	}

	tables := make(map[int][]Standing, len(members))
	for g, ps := range members {
		table := rankTable(ps, games[g], cfg)
		for i := range table {
			table[i].GroupRank = i + 1
		}
		tables[g] = table
	}
	return tables
}

func sortedGroups(tables map[int][]Standing) []int {
	groups := make([]int, 0, len(tables))
	for g := range tables {
		groups = append(groups, g)
	}
	sort.Ints(groups)
	return groups
}

// KnockoutQualifiers takes the top perGroup rows of every table and orders
// them as knockout seeds: all group winners in group order, then all
// runners-up, and so on. With standard seeding this keeps group mates apart
// in the first knockout round.
func KnockoutQualifiers(tables map[int][]Standing, perGroup int) []uuid.UUID {
	groups := sortedGroups(tables)
	var qualifiers []uuid.UUID
	for pos := 0; pos < perGroup; pos++ {
		for _, g := range groups {
			if pos < len(tables[g]) {
				qualifiers = append(qualifiers, tables[g][pos].ParticipantID)
			}
		}
	}
	return qualifiers
}

func groupStageStandings(participants []Participant, matches []Match, cfg Config) []Standing {
	tables := GroupTables(participants, matches, cfg)
	groups := sortedGroups(tables)

	var knockout []Match
	for _, m := range matches {
		if m.BracketType == WinnersBracket {
			knockout = append(knockout, m)
		}
	}

	if len(knockout) == 0 {
		var rows []Standing
		for _, g := range groups {
			rows = append(rows, tables[g]...)
		}
		return rows
	}

	groupRows := make(map[uuid.UUID]Standing, len(participants))
	for _, g := range groups {
		for _, s := range tables[g] {
			groupRows[s.ParticipantID] = s
		}
	}

	inKnockout := make(map[uuid.UUID]bool)
	for _, m := range knockout {
		for _, p := range []*uuid.UUID{m.Player1ID, m.Player2ID} {
			if p != nil {
				inKnockout[*p] = true
			}
		}
	}

	var qualified []Participant
	var rest []Standing
	for _, p := range participants {
		if inKnockout[p.ID] {
			qualified = append(qualified, p)
			continue
		}
		s := groupRows[p.ID]
		s.Eliminated = true
		rest = append(rest, s)
	}

	rows := rankElimination(qualified, knockout, false)
	for i := range rows {
		g := groupRows[rows[i].ParticipantID]
		rows[i].GroupNumber = g.GroupNumber
		rows[i].GroupRank = g.GroupRank
		rows[i].Points = g.Points
	}

	sort.SliceStable(rest, func(i, j int) bool {
		if rest[i].GroupRank != rest[j].GroupRank {
			return rest[i].GroupRank < rest[j].GroupRank
		}
		if c := compareTable(&rest[i], &rest[j], cfg.TrackScoreDifference); c != 0 {
			return c < 0
		}
		return rest[i].Seed < rest[j].Seed
	})

	return append(rows, rest...)
}

// rankElimination orders by how far each participant got, then wins, then
// fewer losses, then seed. Single elimination knocks out on the first loss,
// double elimination on the second.
func rankElimination(participants []Participant, matches []Match, double bool) []Standing {
	wbRounds := 0
	for _, m := range matches {
		if m.BracketType == WinnersBracket && m.Round > wbRounds {
			wbRounds = m.Round
		}
	}

	progress := func(m *Match) int {
		if !double {
			return m.Round
		}
		switch m.BracketType {
		case LosersBracket:
			return m.Round
		case GrandFinal:
			return 2*(wbRounds-1) + m.Round
		}
		return 2 * (m.Round - 1)
	}

	ordered := make([]*Match, 0, len(matches))
	for i := range matches {
		if matches[i].BracketType != GroupBracket {
			ordered = append(ordered, &matches[i])
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := progress(ordered[i]), progress(ordered[j])
		if pi != pj {
			return pi < pj
		}
		if ordered[i].BracketType != ordered[j].BracketType {
			return ordered[i].BracketType > ordered[j].BracketType
		}
		return ordered[i].MatchNumber < ordered[j].MatchNumber
	})

	rows := make([]*Standing, 0, len(participants))
	byID := make(map[uuid.UUID]*Standing, len(participants))
	for _, p := range participants {
		s := &Standing{ParticipantID: p.ID, Seed: p.Seed, GroupNumber: p.GroupNumber}
		rows = append(rows, s)
		byID[p.ID] = s
	}

	allowedLosses := 1
	if double {
		allowedLosses = 2
	}

	for _, m := range ordered {
		depth := progress(m)
		for _, p := range []*uuid.UUID{m.Player1ID, m.Player2ID} {
			if p == nil {
				continue
			}
			if s := byID[*p]; s != nil && depth > s.RoundReached {
				s.RoundReached = depth
			}
		}

		if m.Status != MatchCompleted || m.WinnerID == nil {
			continue
		}
		if m.WinnerTarget() == nil {
			if s := byID[*m.WinnerID]; s != nil && depth+1 > s.RoundReached {
				s.RoundReached = depth + 1
			}
		}
		if m.IsBye || !m.BothSlotsFilled() {
			continue
		}

		w, l := byID[*m.WinnerID], byID[*m.LoserID()]
		if w != nil {
			w.Played++
			w.Wins++
		}
		if l != nil {
			l.Played++
			l.Losses++
			if l.Losses == allowedLosses {
				l.Eliminated = true
				l.EliminatedInRound = utils.Ptr(m.Round)
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.RoundReached != b.RoundReached:
			return a.RoundReached > b.RoundReached
		case a.Wins != b.Wins:
			return a.Wins > b.Wins
		case a.Losses != b.Losses:
			return a.Losses < b.Losses
		}
		return a.Seed < b.Seed
	})

	out := make([]Standing, len(rows))
	for i, s := range rows {
		out[i] = *s
	}
	return out
}
