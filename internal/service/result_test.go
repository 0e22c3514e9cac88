package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/op-bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/op-bracket-engine/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultSubmission_Validate(t *testing.T) {
	matchID, winnerID := uuid.New(), uuid.New()

	testCases := []struct {
		name          string
		sub           ResultSubmission
		expectedError error
	}{
		{name: "Winner only", sub: ResultSubmission{MatchID: matchID, WinnerID: winnerID}},
		{name: "With scores", sub: ResultSubmission{MatchID: matchID, WinnerID: winnerID, Score1: utils.Ptr(2), Score2: utils.Ptr(0)}},
		{name: "Missing match", sub: ResultSubmission{WinnerID: winnerID}, expectedError: bracket.ErrInvalidInput},
		{name: "Missing winner", sub: ResultSubmission{MatchID: matchID}, expectedError: bracket.ErrInvalidInput},
		{name: "One score", sub: ResultSubmission{MatchID: matchID, WinnerID: winnerID, Score1: utils.Ptr(1)}, expectedError: bracket.ErrInvalidScore},
		{name: "Negative score", sub: ResultSubmission{MatchID: matchID, WinnerID: winnerID, Score1: utils.Ptr(1), Score2: utils.Ptr(-1)}, expectedError: bracket.ErrInvalidScore},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.sub.Validate()
			if tc.expectedError == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.expectedError)
			assert.ErrorIs(t, err, bracket.ErrValidation)
		})
	}
}

func TestSubmitResult(t *testing.T) {
	engine, tournamentStore := newTestEngine(t)
	ctx := context.Background()

	tournamentID, entries := createBracket(t, engine, bracket.SingleElimination, 4, bracket.Config{})
	match1 := findMatch(t, engine, tournamentID, bracket.WinnersBracket, 1, 1)

	t.Run("Scores must favour the winner", func(t *testing.T) {
		before := snapshot(t, engine, tournamentID)

		// Seed 1 sits in slot 1, so 1-3 says seed 4 won
		_, err := engine.SubmitResult(ctx, ResultSubmission{
			MatchID:  match1.ID,
			WinnerID: entries[0].ID,
			Score1:   utils.Ptr(1),
			Score2:   utils.Ptr(3),
		})
		assert.ErrorIs(t, err, bracket.ErrInvalidScore)

		_, err = engine.SubmitResult(ctx, ResultSubmission{
			MatchID:  match1.ID,
			WinnerID: entries[0].ID,
			Score1:   utils.Ptr(2),
			Score2:   utils.Ptr(2),
		})
		assert.ErrorIs(t, err, bracket.ErrInvalidScore)

		assert.Equal(t, before, snapshot(t, engine, tournamentID))
	})

	t.Run("Scores are stored", func(t *testing.T) {
		res, err := engine.SubmitResult(ctx, ResultSubmission{
			MatchID:  match1.ID,
			WinnerID: entries[3].ID,
			Score1:   utils.Ptr(1),
			Score2:   utils.Ptr(3),
		})
		require.NoError(t, err)
		assert.Equal(t, entries[3].ID, *res.Match.WinnerID)

		stored, err := tournamentStore.GetMatch(ctx, match1.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, utils.OrZero(stored.Score1))
		assert.Equal(t, 3, utils.OrZero(stored.Score2))
		assert.Equal(t, entries[3].ID, *stored.WinnerID)
	})
}

func TestSubmitResult_ScoreDifferenceInTable(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	tournamentID, entries := createBracket(t, engine, bracket.RoundRobin, 3, bracket.Config{TrackScoreDifference: true})
	s1, s2, s3 := entries[0].ID, entries[1].ID, entries[2].ID

	submit := func(winner, loser uuid.UUID, winning, losing int) {
		t.Helper()
		for _, m := range snapshot(t, engine, tournamentID) {
			if m.SlotOf(winner) == 0 || m.SlotOf(loser) == 0 {
				continue
			}
			sub := ResultSubmission{MatchID: m.ID, WinnerID: winner, Score1: &winning, Score2: &losing}
			if m.SlotOf(winner) == bracket.Slot2 {
				sub.Score1, sub.Score2 = &losing, &winning
			}
			_, err := engine.SubmitResult(ctx, sub)
			require.NoError(t, err)
			return
		}
		t.Fatalf("no match between %s and %s", winner, loser)
	}

	// Everyone wins once; score difference decides
	submit(s1, s2, 1, 0)
	submit(s2, s3, 5, 0)
	submit(s3, s1, 2, 1)

	standings, err := engine.GetStandings(ctx, tournamentID)
	require.NoError(t, err)
	require.Len(t, standings, 3)
	assert.Equal(t, s2, standings[0].ParticipantID)
	assert.Equal(t, 4, standings[0].ScoreDifference)
	assert.Equal(t, s1, standings[1].ParticipantID)
	assert.Equal(t, 0, standings[1].ScoreDifference)
	assert.Equal(t, s3, standings[2].ParticipantID)
	assert.Equal(t, -4, standings[2].ScoreDifference)
}
