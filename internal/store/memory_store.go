package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/AdamBeresnev/op-bracket-engine/internal/bracket"
	"github.com/google/uuid"
)

// MemoryStore keeps everything in maps guarded by one mutex. Every read hands
// out a copy so callers never alias the stored rows.
type MemoryStore struct {
	mu           sync.Mutex
	tournaments  map[uuid.UUID]bracket.Tournament
	participants map[uuid.UUID]bracket.Participant
	matches      map[uuid.UUID]bracket.Match
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tournaments:  make(map[uuid.UUID]bracket.Tournament),
		participants: make(map[uuid.UUID]bracket.Participant),
		matches:      make(map[uuid.UUID]bracket.Match),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) CreateTournament(_ context.Context, tournament *bracket.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tournaments[tournament.ID]; ok {
		return fmt.Errorf("tournament %s already exists", tournament.ID)
	}
	t := *tournament
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	s.tournaments[t.ID] = t
	return nil
}

func (s *MemoryStore) GetTournament(_ context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tournaments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bracket.ErrTournamentNotFound, id)
	}
	return &t, nil
}

func (s *MemoryStore) SaveBracket(_ context.Context, tournament *bracket.Tournament, participants []bracket.Participant, matches []bracket.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tournaments[tournament.ID]
	if !ok || current.Status != bracket.TournamentUpcoming {
		return bracket.ErrBracketExists
	}
	for _, p := range participants {
		if _, ok := s.participants[p.ID]; ok {
			return fmt.Errorf("participant %s already exists", p.ID)
		}
	}
	if err := s.checkMatchesLocked(matches); err != nil {
		return err
	}

	current.Format = tournament.Format
	current.Status = tournament.Status
	current.Stage = tournament.Stage
	current.ParticipantCount = tournament.ParticipantCount
	current.Config = tournament.Config
	s.tournaments[current.ID] = current

	for _, p := range participants {
		s.participants[p.ID] = p
	}
	s.putMatchesLocked(matches)
	return nil
}

func (s *MemoryStore) ListParticipants(_ context.Context, tournamentID uuid.UUID) ([]bracket.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []bracket.Participant
	for _, p := range s.participants {
		if p.TournamentID == tournamentID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b bracket.Participant) int { return cmp.Compare(a.Seed, b.Seed) })
	return out, nil
}

func (s *MemoryStore) EliminateParticipant(_ context.Context, participantID uuid.UUID, round int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok || p.EliminatedInRound != nil {
		return nil
	}
	p.EliminatedInRound = &round
	s.participants[participantID] = p
	return nil
}

func (s *MemoryStore) GetMatch(_ context.Context, id uuid.UUID) (*bracket.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bracket.ErrMatchNotFound, id)
	}
	return &m, nil
}

func (s *MemoryStore) ConditionalUpdateMatch(_ context.Context, id uuid.UUID, expected bracket.MatchStatus, update bracket.MatchUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok || m.Status != expected {
		return false, nil
	}
	if update.Status != nil {
		m.Status = *update.Status
	}
	if update.WinnerID != nil {
		w := *update.WinnerID
		m.WinnerID = &w
	}
	if update.Score1 != nil {
		v := *update.Score1
		m.Score1 = &v
	}
	if update.Score2 != nil {
		v := *update.Score2
		m.Score2 = &v
	}
	s.matches[m.ID] = m
	return true, nil
}

func (s *MemoryStore) FillSlot(_ context.Context, matchID uuid.UUID, slot int, participantID uuid.UUID) (bool, error) {
	if _, err := slotColumn(slot); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return false, nil
	}
	id := participantID
	switch {
	case slot == bracket.Slot1 && m.Player1ID == nil:
		m.Player1ID = &id
	case slot == bracket.Slot2 && m.Player2ID == nil:
		m.Player2ID = &id
	default:
		return false, nil
	}
	s.matches[matchID] = m
	return true, nil
}

func (s *MemoryStore) InsertMatches(_ context.Context, matches []bracket.Match) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkMatchesLocked(matches); err != nil {
		return nil, err
	}
	s.putMatchesLocked(matches)

	ids := make([]uuid.UUID, len(matches))
	for i := range matches {
		ids[i] = matches[i].ID
	}
	return ids, nil
}

type matchPosition struct {
	tournamentID uuid.UUID
	bracketType  bracket.BracketType
	group        int
	round        int
	number       int
}

func positionOf(m *bracket.Match) matchPosition {
	group := 0
	if m.GroupNumber != nil {
		group = *m.GroupNumber
	}
	return matchPosition{m.TournamentID, m.BracketType, group, m.Round, m.MatchNumber}
}

// checkMatchesLocked mirrors the primary key and the position unique index of the SQL schema.
func (s *MemoryStore) checkMatchesLocked(matches []bracket.Match) error {
	taken := make(map[matchPosition]bool)
	for _, m := range s.matches {
		taken[positionOf(&m)] = true
	}
	for i := range matches {
		if _, ok := s.matches[matches[i].ID]; ok {
			return fmt.Errorf("match %s already exists", matches[i].ID)
		}
		pos := positionOf(&matches[i])
		if taken[pos] {
			return fmt.Errorf("duplicate match position %s round %d match %d", pos.bracketType, pos.round, pos.number)
		}
		taken[pos] = true
	}
	return nil
}

func (s *MemoryStore) putMatchesLocked(matches []bracket.Match) {
	now := s.now()
	for _, m := range matches {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		s.matches[m.ID] = m
	}
}

func (s *MemoryStore) ListMatches(_ context.Context, tournamentID uuid.UUID, filter bracket.MatchFilter) ([]bracket.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []bracket.Match
	for _, m := range s.matches {
		if m.TournamentID == tournamentID && filter.Matches(&m) {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b bracket.Match) int {
		pa, pb := positionOf(&a), positionOf(&b)
		return cmp.Or(
			cmp.Compare(pa.bracketType, pb.bracketType),
			cmp.Compare(pa.group, pb.group),
			cmp.Compare(pa.round, pb.round),
			cmp.Compare(pa.number, pb.number),
		)
	})
	return out, nil
}

func (s *MemoryStore) UpdateTournamentStatus(_ context.Context, id uuid.UUID, status bracket.TournamentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tournaments[id]
	if !ok {
		return fmt.Errorf("%w: %s", bracket.ErrTournamentNotFound, id)
	}
	t.Status = status
	s.tournaments[id] = t
	return nil
}

func (s *MemoryStore) ConditionalUpdateTournamentStage(_ context.Context, id uuid.UUID, expected, next bracket.Stage) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tournaments[id]
	if !ok || t.Stage != expected {
		return false, nil
	}
	t.Stage = next
	s.tournaments[id] = t
	return true, nil
}
