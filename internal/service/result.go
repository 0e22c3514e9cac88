package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/op-bracket-engine/internal/bracket"
	"github.com/google/uuid"
)

// ResultSubmission is a reported match outcome. Scores are optional but must
// be given together and favour the winner.
type ResultSubmission struct {
	MatchID  uuid.UUID `json:"match_id"`
	WinnerID uuid.UUID `json:"winner_id"`
	Score1   *int      `json:"score_1,omitempty"`
	Score2   *int      `json:"score_2,omitempty"`
}

func (r ResultSubmission) Validate() error {
	if r.MatchID == uuid.Nil {
		return fmt.Errorf("%w: match_id is required", bracket.ErrInvalidInput)
	}
	if r.WinnerID == uuid.Nil {
		return fmt.Errorf("%w: winner_id is required", bracket.ErrInvalidInput)
	}
	if (r.Score1 == nil) != (r.Score2 == nil) {
		return fmt.Errorf("%w: both scores are required", bracket.ErrInvalidScore)
	}
	if r.Score1 != nil && (*r.Score1 < 0 || *r.Score2 < 0) {
		return fmt.Errorf("%w: scores cannot be negative", bracket.ErrInvalidScore)
	}
	return nil
}

// SubmitResult validates the submission and advances the winner. Scores are
// stored on the match and feed score difference in tables that track it.
func (e *Engine) SubmitResult(ctx context.Context, sub ResultSubmission) (*AdvanceResult, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	return e.complete(ctx, sub.MatchID, sub.WinnerID, sub.Score1, sub.Score2)
}
