package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/AdamBeresnev/op-bracket-engine/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Keeps a single statement well below the bind variable limits of SQLite and PostgreSQL.
const insertBatchSize = 100

const (
	createTournamentQuery = `
		INSERT INTO tournaments (id, name, format, status, stage, participant_count, config)
		VALUES (:id, :name, :format, :status, :stage, :participant_count, :config)
	`
	// Only an upcoming tournament can receive a bracket.
	saveBracketTournamentQuery = `
		UPDATE tournaments SET
		format = :format,
		status = :status,
		stage = :stage,
		participant_count = :participant_count,
		config = :config
		WHERE id = :id AND status = 'upcoming'
	`
	createParticipantsQuery = `
		INSERT INTO participants (id, tournament_id, name, seed, group_number, eliminated_in_round)
		VALUES (:id, :tournament_id, :name, :seed, :group_number, :eliminated_in_round)
	`
	createMatchesQuery = `
		INSERT INTO matches (id, tournament_id, bracket_type, group_number, round, match_number,
			player1_id, player2_id, winner_id, score_1, score_2, status,
			winner_next_match_id, winner_next_slot, loser_next_match_id, loser_next_slot, is_bye)
		VALUES (:id, :tournament_id, :bracket_type, :group_number, :round, :match_number,
			:player1_id, :player2_id, :winner_id, :score_1, :score_2, :status,
			:winner_next_match_id, :winner_next_slot, :loser_next_match_id, :loser_next_slot, :is_bye)
	`
	getTournamentQuery      = "SELECT * FROM tournaments WHERE id = ?"
	getMatchQuery           = "SELECT * FROM matches WHERE id = ?"
	listParticipantsQuery   = "SELECT * FROM participants WHERE tournament_id = ? ORDER BY seed ASC"
	updateStatusQuery       = "UPDATE tournaments SET status = ? WHERE id = ?"
	updateStageQuery        = "UPDATE tournaments SET stage = ? WHERE id = ? AND stage = ?"
	eliminateParticipantSQL = "UPDATE participants SET eliminated_in_round = ? WHERE id = ? AND eliminated_in_round IS NULL"
)

// TournamentStore persists tournaments, participants and the match arena with sqlx.
// Queries are written with ? placeholders and rebound for the connected driver.
type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tournament *bracket.Tournament) error {
	_, err := s.db.NamedExecContext(ctx, createTournamentQuery, tournament)
	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := s.db.GetContext(ctx, &tournament, s.db.Rebind(getTournamentQuery), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", bracket.ErrTournamentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	return &tournament, nil
}

// SaveBracket writes the generated bracket in one transaction. It fails with
// ErrBracketExists when the tournament already left the upcoming status.
func (s *TournamentStore) SaveBracket(ctx context.Context, tournament *bracket.Tournament, participants []bracket.Participant, matches []bracket.Match) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.NamedExecContext(ctx, saveBracketTournamentQuery, tournament)
	if err != nil {
		return fmt.Errorf("failed to update tournament: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return bracket.ErrBracketExists
	}

	if err := batchInsert(ctx, tx, createParticipantsQuery, participants); err != nil {
		return fmt.Errorf("failed to create participants: %w", err)
	}
	if err := batchInsert(ctx, tx, createMatchesQuery, matches); err != nil {
		return fmt.Errorf("failed to create matches: %w", err)
	}

	return tx.Commit()
}

func batchInsert[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if _, err := tx.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *TournamentStore) ListParticipants(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Participant, error) {
	var participants []bracket.Participant
	err := s.db.SelectContext(ctx, &participants, s.db.Rebind(listParticipantsQuery), tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

// EliminateParticipant records the round of the final loss. The first write wins.
func (s *TournamentStore) EliminateParticipant(ctx context.Context, participantID uuid.UUID, round int) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(eliminateParticipantSQL), round, participantID)
	if err != nil {
		return fmt.Errorf("failed to eliminate participant: %w", err)
	}
	return nil
}

func (s *TournamentStore) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	err := s.db.GetContext(ctx, &match, s.db.Rebind(getMatchQuery), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", bracket.ErrMatchNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return &match, nil
}

// ConditionalUpdateMatch applies the update only while the row still has the
// expected status. It reports false when another writer got there first.
func (s *TournamentStore) ConditionalUpdateMatch(ctx context.Context, id uuid.UUID, expected bracket.MatchStatus, update bracket.MatchUpdate) (bool, error) {
	var sets []string
	var args []any
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *update.Status)
	}
	if update.WinnerID != nil {
		sets = append(sets, "winner_id = ?")
		args = append(args, *update.WinnerID)
	}
	if update.Score1 != nil {
		sets = append(sets, "score_1 = ?")
		args = append(args, *update.Score1)
	}
	if update.Score2 != nil {
		sets = append(sets, "score_2 = ?")
		args = append(args, *update.Score2)
	}
	if len(sets) == 0 {
		return false, errors.New("empty match update")
	}

	query := fmt.Sprintf("UPDATE matches SET %s WHERE id = ? AND status = ?", strings.Join(sets, ", "))
	args = append(args, id, expected)

	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return false, fmt.Errorf("failed to update match: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// FillSlot writes the participant into an empty slot. It reports false when
// the slot is already taken or the match does not exist.
func (s *TournamentStore) FillSlot(ctx context.Context, matchID uuid.UUID, slot int, participantID uuid.UUID) (bool, error) {
	column, err := slotColumn(slot)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("UPDATE matches SET %[1]s = ? WHERE id = ? AND %[1]s IS NULL", column)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), participantID, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to fill slot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func slotColumn(slot int) (string, error) {
	switch slot {
	case bracket.Slot1:
		return "player1_id", nil
	case bracket.Slot2:
		return "player2_id", nil
	}
	return "", fmt.Errorf("invalid slot %d", slot)
}

func (s *TournamentStore) InsertMatches(ctx context.Context, matches []bracket.Match) ([]uuid.UUID, error) {
	if len(matches) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := batchInsert(ctx, tx, createMatchesQuery, matches); err != nil {
		return nil, fmt.Errorf("failed to insert matches: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(matches))
	for i := range matches {
		ids[i] = matches[i].ID
	}
	return ids, nil
}

func (s *TournamentStore) ListMatches(ctx context.Context, tournamentID uuid.UUID, filter bracket.MatchFilter) ([]bracket.Match, error) {
	conds := []string{"tournament_id = ?"}
	args := []any{tournamentID}
	if filter.BracketType != "" {
		conds = append(conds, "bracket_type = ?")
		args = append(args, filter.BracketType)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.GroupNumber != nil {
		conds = append(conds, "group_number = ?")
		args = append(args, *filter.GroupNumber)
	}
	if filter.Round != 0 {
		conds = append(conds, "round = ?")
		args = append(args, filter.Round)
	}

	query := fmt.Sprintf(`SELECT * FROM matches WHERE %s
		ORDER BY bracket_type ASC, COALESCE(group_number, 0) ASC, round ASC, match_number ASC`,
		strings.Join(conds, " AND "))

	var matches []bracket.Match
	if err := s.db.SelectContext(ctx, &matches, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

func (s *TournamentStore) UpdateTournamentStatus(ctx context.Context, id uuid.UUID, status bracket.TournamentStatus) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(updateStatusQuery), status, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", bracket.ErrTournamentNotFound, id)
	}
	return nil
}

func (s *TournamentStore) ConditionalUpdateTournamentStage(ctx context.Context, id uuid.UUID, expected, next bracket.Stage) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(updateStageQuery), next, id, expected)
	if err != nil {
		return false, fmt.Errorf("failed to update tournament stage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
