package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AdamBeresnev/op-bracket-engine/internal/bracket"
	"github.com/google/uuid"
)

// EntityStore is the storage the engine runs on. Every mutation of a match is
// a conditional write scoped to one row, so no multi-row locking is needed.
type EntityStore interface {
	CreateTournament(ctx context.Context, tournament *bracket.Tournament) error
	GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error)
	SaveBracket(ctx context.Context, tournament *bracket.Tournament, participants []bracket.Participant, matches []bracket.Match) error
	UpdateTournamentStatus(ctx context.Context, id uuid.UUID, status bracket.TournamentStatus) error
	ConditionalUpdateTournamentStage(ctx context.Context, id uuid.UUID, expected, next bracket.Stage) (bool, error)

	ListParticipants(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Participant, error)
	EliminateParticipant(ctx context.Context, participantID uuid.UUID, round int) error

	GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error)
	ListMatches(ctx context.Context, tournamentID uuid.UUID, filter bracket.MatchFilter) ([]bracket.Match, error)
	InsertMatches(ctx context.Context, matches []bracket.Match) ([]uuid.UUID, error)
	ConditionalUpdateMatch(ctx context.Context, id uuid.UUID, expected bracket.MatchStatus, update bracket.MatchUpdate) (bool, error)
	FillSlot(ctx context.Context, matchID uuid.UUID, slot int, participantID uuid.UUID) (bool, error)
}

// Publisher receives tournament events as they happen. Delivery is best effort
// and never affects the outcome of an operation.
type Publisher interface {
	Publish(tournamentID uuid.UUID, eventType string, payload any)
}

const (
	EventBracketGenerated    = "bracket_generated"
	EventMatchStarted        = "match_started"
	EventMatchCompleted      = "match_completed"
	EventTournamentCompleted = "tournament_completed"
)

type nopPublisher struct{}

func (nopPublisher) Publish(uuid.UUID, string, any) {}

type EngineConfig struct {
	Logger    *slog.Logger
	Publisher Publisher
	// NewID generates tournament and match ids. Defaults to uuid.New.
	NewID func() uuid.UUID
	// DefaultPointsPerWin applies to tables whose config leaves points_per_win unset.
	DefaultPointsPerWin int
}

// Engine is the facade over bracket generation, progression and standings.
type Engine struct {
	store     EntityStore
	generator *bracket.Generator
	logger    *slog.Logger
	publisher Publisher
	newID     func() uuid.UUID

	defaultPointsPerWin int
}

func NewEngine(store EntityStore, cfg EngineConfig) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = nopPublisher{}
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.New
	}
	if cfg.DefaultPointsPerWin == 0 {
		cfg.DefaultPointsPerWin = bracket.DefaultPointsPerWin
	}
	return &Engine{
		store:               store,
		generator:           bracket.NewGenerator(cfg.NewID),
		logger:              cfg.Logger,
		publisher:           cfg.Publisher,
		newID:               cfg.NewID,
		defaultPointsPerWin: cfg.DefaultPointsPerWin,
	}
}

type NewTournament struct {
	Name   string         `json:"name"`
	Format bracket.Format `json:"format"`
}

// CreateTournament registers an upcoming tournament. Its bracket is generated later.
func (e *Engine) CreateTournament(ctx context.Context, input NewTournament) (*bracket.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", bracket.ErrInvalidInput)
	}
	if !input.Format.Valid() {
		return nil, fmt.Errorf("%w: %q", bracket.ErrUnsupportedFormat, input.Format)
	}

	tournament := &bracket.Tournament{
		ID:     e.newID(),
		Name:   name,
		Format: input.Format,
		Status: bracket.TournamentUpcoming,
		Stage:  bracket.StageMain,
	}
	if err := e.store.CreateTournament(ctx, tournament); err != nil {
		return nil, err
	}

	e.logger.Info("tournament created", "tournament_id", tournament.ID, "format", tournament.Format)
	return tournament, nil
}

func (e *Engine) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return e.store.GetTournament(ctx, id)
}

func (e *Engine) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	return e.store.GetMatch(ctx, id)
}

func (e *Engine) ListMatches(ctx context.Context, tournamentID uuid.UUID, filter bracket.MatchFilter) ([]bracket.Match, error) {
	if _, err := e.store.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	return e.store.ListMatches(ctx, tournamentID, filter)
}

// GetBracket returns every match of the tournament grouped for display.
func (e *Engine) GetBracket(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Section, error) {
	matches, err := e.ListMatches(ctx, tournamentID, bracket.MatchFilter{})
	if err != nil {
		return nil, err
	}
	return bracket.Layout(matches), nil
}

// GenerateBracket builds the initial match graph and stores it together with
// the seeded participants. The tournament moves from upcoming to ongoing.
func (e *Engine) GenerateBracket(ctx context.Context, tournamentID uuid.UUID, participants []bracket.Participant, format bracket.Format, cfg bracket.Config) ([]bracket.Match, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %q", bracket.ErrUnsupportedFormat, format)
	}
	for _, p := range participants {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("%w: participant name is required", bracket.ErrInvalidInput)
		}
	}

	tournament, err := e.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != bracket.TournamentUpcoming {
		return nil, fmt.Errorf("%w: tournament is %s", bracket.ErrBracketExists, tournament.Status)
	}

	if cfg.PointsPerWin == nil && e.defaultPointsPerWin != bracket.DefaultPointsPerWin {
		points := e.defaultPointsPerWin
		cfg.PointsPerWin = &points
	}

	generated, err := e.generator.Generate(tournamentID, participants, format, cfg)
	if err != nil {
		return nil, err
	}

	tournament.Format = format
	tournament.Config = cfg
	tournament.ParticipantCount = len(generated.Participants)
	tournament.Status = bracket.TournamentOngoing
	tournament.Stage = bracket.StageMain
	if tournament.EffectiveFormat() == bracket.GroupStage {
		tournament.Stage = bracket.StageGroups
	}

	if err := e.store.SaveBracket(ctx, tournament, generated.Participants, generated.Matches); err != nil {
		return nil, fmt.Errorf("failed to save bracket: %w", err)
	}

	e.logger.Info("bracket generated",
		"tournament_id", tournamentID,
		"format", format,
		"participants", len(generated.Participants),
		"matches", len(generated.Matches),
	)
	e.publisher.Publish(tournamentID, EventBracketGenerated, generated.Matches)
	return generated.Matches, nil
}
