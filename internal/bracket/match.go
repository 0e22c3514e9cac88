package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchReady     MatchStatus = "ready"
	MatchOngoing   MatchStatus = "ongoing"
	MatchCompleted MatchStatus = "completed"
)

type BracketType string

const (
	WinnersBracket BracketType = "winners"
	LosersBracket  BracketType = "losers"
	GrandFinal     BracketType = "grand_final"
	// Round robin and group tables have no elimination bracket.
	GroupBracket BracketType = "group"
)

const (
	Slot1 = 1
	Slot2 = 2
)

// SlotRef points at one player slot of another match.
type SlotRef struct {
	MatchID uuid.UUID
	Slot    int
}

type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`

	// Position in the tournament
	BracketType BracketType `db:"bracket_type" json:"bracket_type"`
	GroupNumber *int        `db:"group_number" json:"group_number,omitempty"`
	Round       int         `db:"round" json:"round"`
	MatchNumber int         `db:"match_number" json:"match_number"`

	Player1ID *uuid.UUID `db:"player1_id" json:"player1_id,omitempty"`
	Player2ID *uuid.UUID `db:"player2_id" json:"player2_id,omitempty"`
	WinnerID  *uuid.UUID `db:"winner_id" json:"winner_id,omitempty"`

	Score1 *int        `db:"score_1" json:"score_1,omitempty"`
	Score2 *int        `db:"score_2" json:"score_2,omitempty"`
	Status MatchStatus `db:"status" json:"status"`

	WinnerNextMatchID *uuid.UUID `db:"winner_next_match_id" json:"winner_next_match_id,omitempty"`
	WinnerNextSlot    *int       `db:"winner_next_slot" json:"winner_next_slot,omitempty"`

	LoserNextMatchID *uuid.UUID `db:"loser_next_match_id" json:"loser_next_match_id,omitempty"`
	LoserNextSlot    *int       `db:"loser_next_slot" json:"loser_next_slot,omitempty"`

	IsBye bool `db:"is_bye" json:"is_bye"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (m *Match) WinnerTarget() *SlotRef {
	if m.WinnerNextMatchID == nil || m.WinnerNextSlot == nil {
		return nil
	}
	return &SlotRef{MatchID: *m.WinnerNextMatchID, Slot: *m.WinnerNextSlot}
}

func (m *Match) LoserTarget() *SlotRef {
	if m.LoserNextMatchID == nil || m.LoserNextSlot == nil {
		return nil
	}
	return &SlotRef{MatchID: *m.LoserNextMatchID, Slot: *m.LoserNextSlot}
}

func (m *Match) Player(slot int) *uuid.UUID {
	switch slot {
	case Slot1:
		return m.Player1ID
	case Slot2:
		return m.Player2ID
	}
	return nil
}

func (m *Match) setPlayer(slot int, id uuid.UUID) {
	if slot == Slot1 {
		m.Player1ID = &id
	} else {
		m.Player2ID = &id
	}
}

// SlotOf returns the slot the participant occupies, or 0.
func (m *Match) SlotOf(participantID uuid.UUID) int {
	if m.Player1ID != nil && *m.Player1ID == participantID {
		return Slot1
	}
	if m.Player2ID != nil && *m.Player2ID == participantID {
		return Slot2
	}
	return 0
}

func (m *Match) BothSlotsFilled() bool {
	return m.Player1ID != nil && m.Player2ID != nil
}

// LoserID is only meaningful for a completed match with two participants.
func (m *Match) LoserID() *uuid.UUID {
	if m.WinnerID == nil || !m.BothSlotsFilled() {
		return nil
	}
	if *m.Player1ID == *m.WinnerID {
		return m.Player2ID
	}
	return m.Player1ID
}

func (m *Match) IsWinner(slot int) bool {
	p := m.Player(slot)
	return m.Status == MatchCompleted && m.WinnerID != nil && p != nil && *p == *m.WinnerID
}

func (m *Match) IsLoser(slot int) bool {
	p := m.Player(slot)
	return m.Status == MatchCompleted && m.WinnerID != nil && p != nil && *p != *m.WinnerID
}

// IsResetMatch reports whether this is the conditional second grand final.
func (m *Match) IsResetMatch() bool {
	return m.BracketType == GrandFinal && m.Round == 2
}

// MatchUpdate carries the fields a conditional write may change. Nil fields are left alone.
type MatchUpdate struct {
	Status   *MatchStatus
	WinnerID *uuid.UUID
	Score1   *int
	Score2   *int
}

// MatchFilter narrows ListMatches. Zero values match everything.
type MatchFilter struct {
	BracketType BracketType
	Status      MatchStatus
	GroupNumber *int
	Round       int
}

func (f MatchFilter) Matches(m *Match) bool {
	if f.BracketType != "" && m.BracketType != f.BracketType {
		return false
	}
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	if f.GroupNumber != nil && (m.GroupNumber == nil || *m.GroupNumber != *f.GroupNumber) {
		return false
	}
	if f.Round != 0 && m.Round != f.Round {
		return false
	}
	return true
}
