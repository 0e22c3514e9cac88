package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/AdamBeresnev/op-bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/op-bracket-engine/internal/db"
	"github.com/AdamBeresnev/op-bracket-engine/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Open("file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database), "Failed to apply migrations")
	return database
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T) (*Engine, *store.TournamentStore) {
	t.Helper()
	tournamentStore := store.NewTournamentStore(setupTestDB(t))
	return NewEngine(tournamentStore, EngineConfig{Logger: quietLogger()}), tournamentStore
}

func newMemoryEngine() (*Engine, *store.MemoryStore) {
	memoryStore := store.NewMemoryStore()
	return NewEngine(memoryStore, EngineConfig{Logger: quietLogger()}), memoryStore
}

func entryInputs(n int) []bracket.Participant {
	participants := make([]bracket.Participant, n)
	for i := range participants {
		participants[i] = bracket.Participant{Name: fmt.Sprintf("Entry %d", i+1), Seed: i + 1}
	}
	return participants
}

// createBracket creates a tournament with n seeded entries and returns it with
// the stored participants, ordered by seed.
func createBracket(t *testing.T, e *Engine, format bracket.Format, n int, cfg bracket.Config) (uuid.UUID, []bracket.Participant) {
	t.Helper()
	ctx := context.Background()

	tournament, err := e.CreateTournament(ctx, NewTournament{Name: "Test Tournament", Format: format})
	require.NoError(t, err)

	_, err = e.GenerateBracket(ctx, tournament.ID, entryInputs(n), format, cfg)
	require.NoError(t, err)

	participants, err := e.store.ListParticipants(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, participants, n)
	return tournament.ID, participants
}

func findMatch(t *testing.T, e *Engine, tournamentID uuid.UUID, bt bracket.BracketType, round, number int) *bracket.Match {
	t.Helper()
	matches, err := e.store.ListMatches(context.Background(), tournamentID, bracket.MatchFilter{BracketType: bt, Round: round})
	require.NoError(t, err)
	for i := range matches {
		if matches[i].MatchNumber == number {
			return &matches[i]
		}
	}
	return nil
}

func seedsByID(participants []bracket.Participant) map[uuid.UUID]int {
	seeds := make(map[uuid.UUID]int, len(participants))
	for _, p := range participants {
		seeds[p.ID] = p.Seed
	}
	return seeds
}

// favourite returns the better seeded participant of a filled match.
func favourite(m *bracket.Match, seeds map[uuid.UUID]int) uuid.UUID {
	if seeds[*m.Player1ID] < seeds[*m.Player2ID] {
		return *m.Player1ID
	}
	return *m.Player2ID
}

// playReady completes every ready match with the favourite winning until none
// is left, returning the last result.
func playReady(t *testing.T, e *Engine, tournamentID uuid.UUID, seeds map[uuid.UUID]int, filter bracket.MatchFilter) *AdvanceResult {
	t.Helper()
	ctx := context.Background()
	filter.Status = bracket.MatchReady

	var last *AdvanceResult
	for {
		ready, err := e.store.ListMatches(ctx, tournamentID, filter)
		require.NoError(t, err)
		if len(ready) == 0 {
			return last
		}
		res, err := e.AdvanceWinner(ctx, ready[0].ID, favourite(&ready[0], seeds))
		require.NoError(t, err)
		last = res
	}
}

func snapshot(t *testing.T, e *Engine, tournamentID uuid.UUID) []bracket.Match {
	t.Helper()
	matches, err := e.store.ListMatches(context.Background(), tournamentID, bracket.MatchFilter{})
	require.NoError(t, err)
	return matches
}
