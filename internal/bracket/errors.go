package bracket

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error categories. Every specific error below unwraps to one of them.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
)

type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

var (
	ErrInvalidParticipantCount = &Error{ErrValidation, fmt.Sprintf("participant count must be between %d and %d", MinParticipants, MaxParticipants)}
	ErrUnsupportedFormat       = &Error{ErrValidation, "unsupported tournament format"}
	ErrInvalidConfig           = &Error{ErrValidation, "invalid format config"}
	ErrInvalidWinner           = &Error{ErrValidation, "winner is not part of this match"}
	ErrMatchNotReady           = &Error{ErrValidation, "match does not have both participants yet"}
	ErrDuplicateParticipant    = &Error{ErrValidation, "participant listed more than once"}
	ErrInvalidScore            = &Error{ErrValidation, "scores must be non-negative and favour the winner"}
	ErrInvalidInput            = &Error{ErrValidation, "invalid input"}

	ErrAlreadyCompleted = &Error{ErrConflict, "match is already completed"}
	ErrBracketExists    = &Error{ErrConflict, "bracket has already been generated"}
	ErrConcurrentUpdate = &Error{ErrConflict, "match changed while being updated, retry"}

	ErrMatchNotFound      = &Error{ErrNotFound, "match not found"}
	ErrTournamentNotFound = &Error{ErrNotFound, "tournament not found"}
)

// AdvancementError means the winner of a match was recorded but routing to
// the next match failed. The result stands; the bracket needs a manual re-link.
type AdvancementError struct {
	MatchID  uuid.UUID
	WinnerID uuid.UUID
	Step     string
	Match    *Match
	Err      error
}

func (e *AdvancementError) Error() string {
	return fmt.Sprintf("match %s completed with winner %s but %s failed: %v", e.MatchID, e.WinnerID, e.Step, e.Err)
}

func (e *AdvancementError) Unwrap() error { return e.Err }
