package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/op-bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/op-bracket-engine/internal/utils"
	"github.com/google/uuid"
)

// Status races only happen against the informational ready -> ongoing step,
// so a couple of re-reads settle them.
const maxCompleteAttempts = 3

const (
	stepAdvanceWinner      = "advance winner"
	stepAdvanceLoser       = "advance loser"
	stepEliminate          = "eliminate loser"
	stepCompleteTournament = "complete tournament"
	stepBracketReset       = "create bracket reset"
	stepKnockout           = "generate knockout stage"
)

type AdvanceResult struct {
	TournamentComplete bool           `json:"tournament_complete"`
	Match              *bracket.Match `json:"match"`
	// NextMatch is the match this result made ready, if any.
	NextMatch *bracket.Match `json:"next_match,omitempty"`
}

// stepError marks a failure after the result was already recorded.
type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string { return e.step + ": " + e.err.Error() }
func (e *stepError) Unwrap() error { return e.err }

func failedStep(step string, err error) error {
	var se *stepError
	if errors.As(err, &se) {
		return err
	}
	return &stepError{step: step, err: err}
}

// AdvanceWinner records winnerID as the winner of the match and routes both
// participants onwards. A duplicate call fails with ErrAlreadyCompleted and
// changes nothing.
func (e *Engine) AdvanceWinner(ctx context.Context, matchID, winnerID uuid.UUID) (*AdvanceResult, error) {
	return e.complete(ctx, matchID, winnerID, nil, nil)
}

// StartMatch marks a ready match as being played. It is informational only.
func (e *Engine) StartMatch(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	match, err := e.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	switch match.Status {
	case bracket.MatchCompleted:
		return nil, fmt.Errorf("%w: match %s", bracket.ErrAlreadyCompleted, matchID)
	case bracket.MatchOngoing:
		return match, nil
	case bracket.MatchPending:
		return nil, fmt.Errorf("%w: match %s", bracket.ErrMatchNotReady, matchID)
	}

	ok, err := e.store.ConditionalUpdateMatch(ctx, matchID, bracket.MatchReady, bracket.MatchUpdate{Status: utils.Ptr(bracket.MatchOngoing)})
	if err != nil {
		return nil, fmt.Errorf("failed to start match: %w", err)
	}
	if !ok {
		return e.StartMatch(ctx, matchID)
	}
	match.Status = bracket.MatchOngoing
	e.publisher.Publish(match.TournamentID, EventMatchStarted, match)
	return match, nil
}

func validateResult(match *bracket.Match, winnerID uuid.UUID, score1, score2 *int) error {
	slot := match.SlotOf(winnerID)
	if slot == 0 {
		return fmt.Errorf("%w: %s in match %s", bracket.ErrInvalidWinner, winnerID, match.ID)
	}
	if match.Status == bracket.MatchCompleted {
		return fmt.Errorf("%w: match %s", bracket.ErrAlreadyCompleted, match.ID)
	}
	if !match.BothSlotsFilled() {
		return fmt.Errorf("%w: match %s", bracket.ErrMatchNotReady, match.ID)
	}

	if score1 == nil && score2 == nil {
		return nil
	}
	if score1 == nil || score2 == nil || *score1 < 0 || *score2 < 0 {
		return fmt.Errorf("%w: both scores are required", bracket.ErrInvalidScore)
	}
	winning, losing := *score1, *score2
	if slot == bracket.Slot2 {
		winning, losing = losing, winning
	}
	if winning <= losing {
		return fmt.Errorf("%w: winner scored %d against %d", bracket.ErrInvalidScore, winning, losing)
	}
	return nil
}

func (e *Engine) complete(ctx context.Context, matchID, winnerID uuid.UUID, score1, score2 *int) (*AdvanceResult, error) {
	update := bracket.MatchUpdate{
		Status:   utils.Ptr(bracket.MatchCompleted),
		WinnerID: &winnerID,
		Score1:   score1,
		Score2:   score2,
	}

	var match *bracket.Match
	for attempt := 1; ; attempt++ {
		m, err := e.store.GetMatch(ctx, matchID)
		if err != nil {
			return nil, err
		}
		if err := validateResult(m, winnerID, score1, score2); err != nil {
			if errors.Is(err, bracket.ErrAlreadyCompleted) {
				e.logger.Warn("duplicate result submission", "match_id", matchID, "winner_id", winnerID)
			}
			return nil, err
		}

		ok, err := e.store.ConditionalUpdateMatch(ctx, matchID, m.Status, update)
		if err != nil {
			return nil, fmt.Errorf("failed to complete match: %w", err)
		}
		if ok {
			m.Status = bracket.MatchCompleted
			m.WinnerID = &winnerID
			m.Score1, m.Score2 = score1, score2
			match = m
			break
		}

		e.logger.Warn("match status changed concurrently", "match_id", matchID, "attempt", attempt)
		if attempt == maxCompleteAttempts {
			return nil, fmt.Errorf("%w: match %s", bracket.ErrConcurrentUpdate, matchID)
		}
	}

	e.logger.Info("match completed",
		"tournament_id", match.TournamentID,
		"match_id", match.ID,
		"bracket", match.BracketType,
		"round", match.Round,
		"winner_id", winnerID,
	)

	res := &AdvanceResult{Match: match}
	next, err := e.advance(ctx, match, res)
	res.NextMatch = next

	e.publisher.Publish(match.TournamentID, EventMatchCompleted, res)
	if res.TournamentComplete {
		e.publisher.Publish(match.TournamentID, EventTournamentCompleted, res.Match)
	}
	if err != nil {
		step := stepAdvanceWinner
		var se *stepError
		if errors.As(err, &se) {
			step, err = se.step, se.err
		}
		advErr := &bracket.AdvancementError{
			MatchID:  match.ID,
			WinnerID: winnerID,
			Step:     step,
			Match:    match,
			Err:      err,
		}
		e.logger.Error("match result recorded but advancement failed", "match_id", match.ID, "step", step, "error", err)
		return res, advErr
	}
	return res, nil
}

// advance routes a completed match: the winner and loser to their target
// slots, eliminations, and the end of a bracket or stage. It returns the
// first match this made ready.
func (e *Engine) advance(ctx context.Context, match *bracket.Match, res *AdvanceResult) (*bracket.Match, error) {
	winnerID := *match.WinnerID
	var next *bracket.Match

	if target := match.WinnerTarget(); target != nil {
		ready, err := e.fillSlot(ctx, *target, winnerID, res)
		if err != nil {
			return nil, failedStep(stepAdvanceWinner, err)
		}
		next = ready
	}

	if loserID := match.LoserID(); loserID != nil {
		if target := match.LoserTarget(); target != nil {
			ready, err := e.fillSlot(ctx, *target, *loserID, res)
			if err != nil {
				return next, failedStep(stepAdvanceLoser, err)
			}
			if next == nil {
				next = ready
			}
		} else if eliminatesLoser(match) {
			if err := e.store.EliminateParticipant(ctx, *loserID, match.Round); err != nil {
				return next, failedStep(stepEliminate, err)
			}
		}
	}

	switch {
	case match.BracketType == bracket.GrandFinal && !match.IsResetMatch():
		if match.Player1ID != nil && *match.Player1ID == winnerID {
			return next, e.completeTournament(ctx, match.TournamentID, res)
		}
		reset, err := e.createBracketReset(ctx, match)
		if err != nil {
			return next, failedStep(stepBracketReset, err)
		}
		return reset, nil
	case match.BracketType == bracket.GrandFinal:
		return next, e.completeTournament(ctx, match.TournamentID, res)
	case match.BracketType == bracket.WinnersBracket && match.WinnerTarget() == nil:
		return next, e.completeTournament(ctx, match.TournamentID, res)
	case match.BracketType == bracket.GroupBracket:
		ready, err := e.finishTable(ctx, match.TournamentID, res)
		if err != nil {
			return next, err
		}
		return ready, nil
	}
	return next, nil
}

// eliminatesLoser reports whether losing this match with nowhere to go ends
// the participant's run. The first grand final only costs the winners
// bracket champion their first loss.
func eliminatesLoser(match *bracket.Match) bool {
	switch match.BracketType {
	case bracket.GroupBracket:
		return false
	case bracket.GrandFinal:
		if match.IsResetMatch() {
			return true
		}
		return match.Player1ID != nil && *match.WinnerID == *match.Player1ID
	}
	return true
}

// fillSlot places a participant into the target slot and promotes the match
// to ready once both slots are known. A losers bracket bye is resolved on
// arrival and its own winner routed onwards.
func (e *Engine) fillSlot(ctx context.Context, target bracket.SlotRef, participantID uuid.UUID, res *AdvanceResult) (*bracket.Match, error) {
	ok, err := e.store.FillSlot(ctx, target.MatchID, target.Slot, participantID)
	if err != nil {
		return nil, err
	}

	next, err := e.store.GetMatch(ctx, target.MatchID)
	if err != nil {
		return nil, err
	}
	if !ok {
		if p := next.Player(target.Slot); p == nil || *p != participantID {
			return nil, fmt.Errorf("slot %d of match %s is already taken", target.Slot, target.MatchID)
		}
	}

	if next.IsBye && next.Status == bracket.MatchPending && !next.BothSlotsFilled() {
		return e.resolveBye(ctx, next, participantID, res)
	}

	if next.Status != bracket.MatchPending || !next.BothSlotsFilled() {
		return nil, nil
	}

	// Both feeders may race here; whoever flips the status reports the match.
	promoted, err := e.store.ConditionalUpdateMatch(ctx, next.ID, bracket.MatchPending, bracket.MatchUpdate{Status: utils.Ptr(bracket.MatchReady)})
	if err != nil {
		return nil, err
	}
	if !promoted {
		return nil, nil
	}
	next.Status = bracket.MatchReady
	return next, nil
}

func (e *Engine) resolveBye(ctx context.Context, bye *bracket.Match, participantID uuid.UUID, res *AdvanceResult) (*bracket.Match, error) {
	ok, err := e.store.ConditionalUpdateMatch(ctx, bye.ID, bracket.MatchPending, bracket.MatchUpdate{
		Status:   utils.Ptr(bracket.MatchCompleted),
		WinnerID: &participantID,
	})
	if err != nil || !ok {
		return nil, err
	}
	bye.Status = bracket.MatchCompleted
	bye.WinnerID = &participantID

	e.logger.Debug("bye resolved", "match_id", bye.ID, "participant_id", participantID)
	return e.advance(ctx, bye, res)
}

func (e *Engine) completeTournament(ctx context.Context, tournamentID uuid.UUID, res *AdvanceResult) error {
	if err := e.store.UpdateTournamentStatus(ctx, tournamentID, bracket.TournamentCompleted); err != nil {
		return failedStep(stepCompleteTournament, err)
	}
	res.TournamentComplete = true
	e.logger.Info("tournament completed", "tournament_id", tournamentID)
	return nil
}

// createBracketReset adds the second grand final once the losers bracket
// champion has handed the winners bracket champion their first loss.
func (e *Engine) createBracketReset(ctx context.Context, final *bracket.Match) (*bracket.Match, error) {
	existing, err := e.store.ListMatches(ctx, final.TournamentID, bracket.MatchFilter{BracketType: bracket.GrandFinal, Round: 2})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}

	reset := bracket.Match{
		ID:           e.newID(),
		TournamentID: final.TournamentID,
		BracketType:  bracket.GrandFinal,
		Round:        2,
		MatchNumber:  1,
		Player1ID:    final.Player1ID,
		Player2ID:    final.Player2ID,
		Status:       bracket.MatchReady,
	}
	if _, err := e.store.InsertMatches(ctx, []bracket.Match{reset}); err != nil {
		return nil, err
	}

	e.logger.Info("bracket reset created", "tournament_id", final.TournamentID, "match_id", reset.ID)
	return &reset, nil
}

// finishTable runs once a table match completes. When the last one is in, a
// round robin completes and a group stage either completes or moves on to
// its knockout stage.
func (e *Engine) finishTable(ctx context.Context, tournamentID uuid.UUID, res *AdvanceResult) (*bracket.Match, error) {
	table, err := e.store.ListMatches(ctx, tournamentID, bracket.MatchFilter{BracketType: bracket.GroupBracket})
	if err != nil {
		return nil, failedStep(stepCompleteTournament, err)
	}
	for i := range table {
		if table[i].Status != bracket.MatchCompleted {
			return nil, nil
		}
	}

	tournament, err := e.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, failedStep(stepCompleteTournament, err)
	}
	if tournament.EffectiveFormat() == bracket.GroupStage && tournament.Config.KnockoutStageTeams > 0 {
		ready, err := e.startKnockout(ctx, tournament, table)
		if err != nil {
			return nil, failedStep(stepKnockout, err)
		}
		return ready, nil
	}
	return nil, e.completeTournament(ctx, tournamentID, res)
}

// startKnockout seeds the knockout stage from the final group tables. The
// stage switch is a conditional write, so only one caller builds it.
func (e *Engine) startKnockout(ctx context.Context, tournament *bracket.Tournament, table []bracket.Match) (*bracket.Match, error) {
	switched, err := e.store.ConditionalUpdateTournamentStage(ctx, tournament.ID, bracket.StageGroups, bracket.StageKnockout)
	if err != nil || !switched {
		return nil, err
	}

	participants, err := e.store.ListParticipants(ctx, tournament.ID)
	if err != nil {
		return nil, err
	}

	tables := bracket.GroupTables(participants, table, tournament.Config)
	qualifiers := bracket.KnockoutQualifiers(tables, tournament.Config.KnockoutStageTeams)
	knockout, err := e.generator.Knockout(tournament.ID, qualifiers)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.InsertMatches(ctx, knockout); err != nil {
		return nil, err
	}

	e.logger.Info("knockout stage generated",
		"tournament_id", tournament.ID,
		"qualifiers", len(qualifiers),
		"matches", len(knockout),
	)

	for i := range knockout {
		if knockout[i].Status == bracket.MatchReady {
			return &knockout[i], nil
		}
	}
	return nil, nil
}
