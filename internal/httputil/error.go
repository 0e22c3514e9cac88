package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/op-bracket-engine/internal/bracket"
)

type errorResponse struct {
	Error string `json:"error"`

	// Set when a result was recorded but could not be routed onwards
	FailedStep string         `json:"failed_step,omitempty"`
	Match      *bracket.Match `json:"match,omitempty"`
}

func InternalServerError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
}

func BadRequest(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	if err != nil {
		logger.Warn("bad request", "message", msg, "error", err)
	} else {
		logger.Warn("bad request", "message", msg)
	}
	WriteJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func NotFound(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	if err != nil {
		logger.Warn("not found", "message", msg, "error", err)
	} else {
		logger.Warn("not found", "message", msg)
	}
	WriteJSON(w, http.StatusNotFound, errorResponse{Error: msg})
}

func Conflict(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	logger.Info("conflict", "message", msg, "error", err)
	WriteJSON(w, http.StatusConflict, errorResponse{Error: msg})
}

// Error maps engine errors onto HTTP statuses. An advancement failure still
// reports the completed match so the caller sees the recorded winner.
func Error(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	var advErr *bracket.AdvancementError
	if errors.As(err, &advErr) {
		logger.Error(msg, "error", err, "match_id", advErr.MatchID, "step", advErr.Step)
		WriteJSON(w, http.StatusInternalServerError, errorResponse{
			Error:      "match result recorded but advancing the bracket failed",
			FailedStep: advErr.Step,
			Match:      advErr.Match,
		})
		return
	}

	switch {
	case errors.Is(err, bracket.ErrValidation):
		BadRequest(w, logger, err.Error(), nil)
	case errors.Is(err, bracket.ErrNotFound):
		NotFound(w, logger, err.Error(), nil)
	case errors.Is(err, bracket.ErrConflict):
		Conflict(w, logger, err.Error(), nil)
	default:
		InternalServerError(w, logger, msg, err)
	}
}
