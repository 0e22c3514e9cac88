package service

import (
	"context"

	"github.com/AdamBeresnev/op-bracket-engine/internal/bracket"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// GetStandings ranks the tournament's participants from its current match log.
func (e *Engine) GetStandings(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Standing, error) {
	var (
		tournament   *bracket.Tournament
		participants []bracket.Participant
		matches      []bracket.Match
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournament, err = e.store.GetTournament(gctx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		participants, err = e.store.ListParticipants(gctx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = e.store.ListMatches(gctx, tournamentID, bracket.MatchFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return bracket.CalculateStandings(tournament, participants, matches), nil
}
