package service

import (
	"context"
	"sync"
	"testing"

	"github.com/AdamBeresnev/op-bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/op-bracket-engine/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTournament(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	testCases := []struct {
		name          string
		input         NewTournament
		expectedError error
	}{
		{
			name:  "Single elimination",
			input: NewTournament{Name: "Spring Cup", Format: bracket.SingleElimination},
		},
		{
			name:  "Name is trimmed",
			input: NewTournament{Name: "  League  ", Format: bracket.RoundRobin},
		},
		{
			name:          "Missing name",
			input:         NewTournament{Name: " ", Format: bracket.SingleElimination},
			expectedError: bracket.ErrInvalidInput,
		},
		{
			name:          "Unknown format",
			input:         NewTournament{Name: "Cup", Format: "swiss"},
			expectedError: bracket.ErrUnsupportedFormat,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tournament, err := engine.CreateTournament(ctx, tc.input)
			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.ErrorIs(t, err, bracket.ErrValidation)
				return
			}
			require.NoError(t, err)

			fetched, err := engine.GetTournament(ctx, tournament.ID)
			require.NoError(t, err)
			assert.Equal(t, bracket.TournamentUpcoming, fetched.Status)
			assert.Equal(t, tc.input.Format, fetched.Format)
			assert.NotEqual(t, " ", fetched.Name[:1])
		})
	}
}

func TestGenerateBracket(t *testing.T) {
	engine, tournamentStore := newTestEngine(t)
	ctx := context.Background()

	testCases := []struct {
		name               string
		format             bracket.Format
		cfg                bracket.Config
		entries            int
		expectedMatchCount int
		expectedStage      bracket.Stage
		expectedError      error
	}{
		{
			name:               "Single elimination with 4 entries",
			format:             bracket.SingleElimination,
			entries:            4,
			expectedMatchCount: 3,
			expectedStage:      bracket.StageMain,
		},
		{
			name:               "Single elimination with 5 entries",
			format:             bracket.SingleElimination,
			entries:            5,
			expectedMatchCount: 7,
			expectedStage:      bracket.StageMain,
		},
		{
			name:               "Round robin with 4 entries",
			format:             bracket.RoundRobin,
			entries:            4,
			expectedMatchCount: 6,
			expectedStage:      bracket.StageMain,
		},
		{
			name:               "Double elimination with 4 entries",
			format:             bracket.DoubleElimination,
			entries:            4,
			expectedMatchCount: 6,
			expectedStage:      bracket.StageMain,
		},
		{
			name:               "Group stage with 2 groups of 4",
			format:             bracket.GroupStage,
			cfg:                bracket.Config{GroupCount: 2, KnockoutStageTeams: 2},
			entries:            8,
			expectedMatchCount: 12,
			expectedStage:      bracket.StageGroups,
		},
		{
			name:          "Tournament creation with 1 entry",
			format:        bracket.SingleElimination,
			entries:       1,
			expectedError: bracket.ErrInvalidParticipantCount,
		},
		{
			name:          "Tournament creation with 0 entries",
			format:        bracket.SingleElimination,
			entries:       0,
			expectedError: bracket.ErrInvalidParticipantCount,
		},
		{
			name:          "Group stage without groups",
			format:        bracket.GroupStage,
			entries:       8,
			expectedError: bracket.ErrInvalidConfig,
		},
		{
			name:          "Unknown format",
			format:        "ladder",
			entries:       4,
			expectedError: bracket.ErrUnsupportedFormat,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tournament, err := engine.CreateTournament(ctx, NewTournament{Name: tc.name, Format: bracket.SingleElimination})
			require.NoError(t, err)

			matches, err := engine.GenerateBracket(ctx, tournament.ID, entryInputs(tc.entries), tc.format, tc.cfg)
			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)

				// Nothing was written
				fetched, err := engine.GetTournament(ctx, tournament.ID)
				require.NoError(t, err)
				assert.Equal(t, bracket.TournamentUpcoming, fetched.Status)
				stored, err := tournamentStore.ListMatches(ctx, tournament.ID, bracket.MatchFilter{})
				require.NoError(t, err)
				assert.Empty(t, stored)
				return
			}
			require.NoError(t, err)
			assert.Len(t, matches, tc.expectedMatchCount)

			fetched, err := engine.GetTournament(ctx, tournament.ID)
			require.NoError(t, err)
			assert.Equal(t, bracket.TournamentOngoing, fetched.Status)
			assert.Equal(t, tc.format, fetched.Format)
			assert.Equal(t, tc.expectedStage, fetched.Stage)
			assert.Equal(t, tc.entries, fetched.ParticipantCount)

			stored, err := tournamentStore.ListMatches(ctx, tournament.ID, bracket.MatchFilter{})
			require.NoError(t, err)
			assert.Len(t, stored, tc.expectedMatchCount)

			participants, err := tournamentStore.ListParticipants(ctx, tournament.ID)
			require.NoError(t, err)
			require.Len(t, participants, tc.entries)
			for i, p := range participants {
				assert.Equal(t, i+1, p.Seed)
				assert.Equal(t, tournament.ID, p.TournamentID)
			}
		})
	}
}

func TestGenerateBracket_OnlyOnce(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	tournamentID, _ := createBracket(t, engine, bracket.SingleElimination, 4, bracket.Config{})

	_, err := engine.GenerateBracket(ctx, tournamentID, entryInputs(4), bracket.SingleElimination, bracket.Config{})
	assert.ErrorIs(t, err, bracket.ErrBracketExists)
	assert.ErrorIs(t, err, bracket.ErrConflict)

	matches := snapshot(t, engine, tournamentID)
	assert.Len(t, matches, 3)
}

func TestGenerateBracket_UnknownTournament(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.GenerateBracket(context.Background(), uuid.New(), entryInputs(4), bracket.SingleElimination, bracket.Config{})
	assert.ErrorIs(t, err, bracket.ErrTournamentNotFound)
}

func TestGenerateBracket_MissingParticipantName(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	tournament, err := engine.CreateTournament(ctx, NewTournament{Name: "Cup", Format: bracket.SingleElimination})
	require.NoError(t, err)

	entries := entryInputs(4)
	entries[2].Name = ""
	_, err = engine.GenerateBracket(ctx, tournament.ID, entries, bracket.SingleElimination, bracket.Config{})
	assert.ErrorIs(t, err, bracket.ErrInvalidInput)
}

func TestGenerateBracket_DefaultPointsPerWin(t *testing.T) {
	memoryStore := store.NewMemoryStore()
	engine := NewEngine(memoryStore, EngineConfig{Logger: quietLogger(), DefaultPointsPerWin: 2})

	tournamentID, _ := createBracket(t, engine, bracket.RoundRobin, 3, bracket.Config{})
	tournament, err := engine.GetTournament(context.Background(), tournamentID)
	require.NoError(t, err)
	assert.Equal(t, 2, tournament.Config.WinPoints())

	// An explicit weight wins over the engine default
	explicit := 5
	tournamentID, _ = createBracket(t, engine, bracket.RoundRobin, 3, bracket.Config{PointsPerWin: &explicit})
	tournament, err = engine.GetTournament(context.Background(), tournamentID)
	require.NoError(t, err)
	assert.Equal(t, 5, tournament.Config.WinPoints())
}

func TestListMatches_UnknownTournament(t *testing.T) {
	engine, _ := newMemoryEngine()

	_, err := engine.ListMatches(context.Background(), uuid.New(), bracket.MatchFilter{})
	assert.ErrorIs(t, err, bracket.ErrNotFound)
}

func TestGetBracket(t *testing.T) {
	engine, _ := newMemoryEngine()

	tournamentID, _ := createBracket(t, engine, bracket.DoubleElimination, 4, bracket.Config{})

	sections, err := engine.GetBracket(context.Background(), tournamentID)
	require.NoError(t, err)
	require.Len(t, sections, 3)
	assert.Equal(t, bracket.WinnersBracket, sections[0].BracketType)
	assert.Equal(t, bracket.GrandFinal, sections[2].BracketType)

	_, err = engine.GetBracket(context.Background(), uuid.New())
	assert.ErrorIs(t, err, bracket.ErrTournamentNotFound)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ uuid.UUID, eventType string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func TestEngine_PublishesEvents(t *testing.T) {
	publisher := &recordingPublisher{}
	engine := NewEngine(store.NewMemoryStore(), EngineConfig{Logger: quietLogger(), Publisher: publisher})
	ctx := context.Background()

	tournamentID, entries := createBracket(t, engine, bracket.SingleElimination, 2, bracket.Config{})
	final := findMatch(t, engine, tournamentID, bracket.WinnersBracket, 1, 1)

	_, err := engine.StartMatch(ctx, final.ID)
	require.NoError(t, err)
	_, err = engine.AdvanceWinner(ctx, final.ID, entries[0].ID)
	require.NoError(t, err)

	// Rejected submissions publish nothing
	_, err = engine.AdvanceWinner(ctx, final.ID, entries[0].ID)
	require.ErrorIs(t, err, bracket.ErrAlreadyCompleted)

	assert.Equal(t, []string{
		EventBracketGenerated,
		EventMatchStarted,
		EventMatchCompleted,
		EventTournamentCompleted,
	}, publisher.events)
}
