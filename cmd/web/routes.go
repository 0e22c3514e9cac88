package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/AdamBeresnev/op-bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/op-bracket-engine/internal/httputil"
	"github.com/AdamBeresnev/op-bracket-engine/internal/live"
	"github.com/AdamBeresnev/op-bracket-engine/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

type handler struct {
	engine *service.Engine
	hub    *live.Hub
	logger *slog.Logger
}

func newRouter(engine *service.Engine, hub *live.Hub, logger *slog.Logger, allowedOrigins []string) http.Handler {
	h := &handler{engine: engine, hub: hub, logger: logger}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Route("/tournaments", func(r chi.Router) {
		r.Post("/", h.createTournament)
		r.Get("/{id}", h.getTournament)
		r.Get("/{id}/bracket", h.getBracket)
		r.Post("/{id}/bracket", h.generateBracket)
		r.Get("/{id}/matches", h.listMatches)
		r.Get("/{id}/standings", h.getStandings)
		r.Get("/{id}/live", h.subscribe)
	})

	r.Route("/matches", func(r chi.Router) {
		r.Get("/{id}", h.getMatch)
		r.Post("/{id}/start", h.startMatch)
		r.Post("/{id}/result", h.submitResult)
	})

	return r
}

func (h *handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, h.logger, "Invalid ID", err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *handler) createTournament(w http.ResponseWriter, r *http.Request) {
	var input service.NewTournament
	if err := httputil.ReadJSON(w, r, &input); err != nil {
		httputil.BadRequest(w, h.logger, err.Error(), nil)
		return
	}

	tournament, err := h.engine.CreateTournament(r.Context(), input)
	if err != nil {
		httputil.Error(w, h.logger, "Failed to create tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tournament)
}

func (h *handler) getTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	tournament, err := h.engine.GetTournament(r.Context(), id)
	if err != nil {
		httputil.Error(w, h.logger, "Failed to get tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tournament)
}

type participantInput struct {
	Name string `json:"name"`
	Seed int    `json:"seed"`
}

type bracketRequest struct {
	Format       bracket.Format     `json:"format"`
	Config       bracket.Config     `json:"config"`
	Participants []participantInput `json:"participants"`
}

func (h *handler) generateBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req bracketRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, h.logger, err.Error(), nil)
		return
	}

	participants := make([]bracket.Participant, len(req.Participants))
	for i, p := range req.Participants {
		participants[i] = bracket.Participant{Name: p.Name, Seed: p.Seed}
	}

	matches, err := h.engine.GenerateBracket(r.Context(), id, participants, req.Format, req.Config)
	if err != nil {
		httputil.Error(w, h.logger, "Failed to generate bracket", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, matches)
}

func (h *handler) getBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	sections, err := h.engine.GetBracket(r.Context(), id)
	if err != nil {
		httputil.Error(w, h.logger, "Failed to get bracket", err)
		return
	}
	if sections == nil {
		sections = []bracket.Section{}
	}
	httputil.WriteJSON(w, http.StatusOK, sections)
}

func (h *handler) listMatches(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := bracket.MatchFilter{
		BracketType: bracket.BracketType(query.Get("bracket_type")),
		Status:      bracket.MatchStatus(query.Get("status")),
	}
	if group := query.Get("group"); group != "" {
		n, err := strconv.Atoi(group)
		if err != nil {
			httputil.BadRequest(w, h.logger, "Invalid group", err)
			return
		}
		filter.GroupNumber = &n
	}
	if round := query.Get("round"); round != "" {
		n, err := strconv.Atoi(round)
		if err != nil {
			httputil.BadRequest(w, h.logger, "Invalid round", err)
			return
		}
		filter.Round = n
	}

	matches, err := h.engine.ListMatches(r.Context(), id, filter)
	if err != nil {
		httputil.Error(w, h.logger, "Failed to list matches", err)
		return
	}
	if matches == nil {
		matches = []bracket.Match{}
	}
	httputil.WriteJSON(w, http.StatusOK, matches)
}

func (h *handler) getStandings(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	standings, err := h.engine.GetStandings(r.Context(), id)
	if err != nil {
		httputil.Error(w, h.logger, "Failed to get standings", err)
		return
	}
	if standings == nil {
		standings = []bracket.Standing{}
	}
	httputil.WriteJSON(w, http.StatusOK, standings)
}

func (h *handler) subscribe(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if _, err := h.engine.GetTournament(r.Context(), id); err != nil {
		httputil.Error(w, h.logger, "Failed to get tournament", err)
		return
	}
	h.hub.Serve(w, r, id)
}

func (h *handler) getMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	match, err := h.engine.GetMatch(r.Context(), id)
	if err != nil {
		httputil.Error(w, h.logger, "Failed to get match", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, match)
}

func (h *handler) startMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	match, err := h.engine.StartMatch(r.Context(), id)
	if err != nil {
		httputil.Error(w, h.logger, "Failed to start match", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, match)
}

type resultRequest struct {
	WinnerID uuid.UUID `json:"winner_id"`
	Score1   *int      `json:"score_1"`
	Score2   *int      `json:"score_2"`
}

func (h *handler) submitResult(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req resultRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, h.logger, err.Error(), nil)
		return
	}

	res, err := h.engine.SubmitResult(r.Context(), service.ResultSubmission{
		MatchID:  id,
		WinnerID: req.WinnerID,
		Score1:   req.Score1,
		Score2:   req.Score2,
	})
	if err != nil {
		httputil.Error(w, h.logger, "Failed to submit result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
