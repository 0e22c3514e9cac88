package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AdamBeresnev/op-bracket-engine/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_StatusMapping(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	testCases := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"validation", fmt.Errorf("%w: p9", bracket.ErrInvalidWinner), http.StatusBadRequest},
		{"not found", bracket.ErrMatchNotFound, http.StatusNotFound},
		{"conflict", bracket.ErrAlreadyCompleted, http.StatusConflict},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, logger, "request failed", tc.err)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestError_AdvancementReportsMatch(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	winner := uuid.New()
	match := &bracket.Match{ID: uuid.New(), Status: bracket.MatchCompleted, WinnerID: &winner}

	err := &bracket.AdvancementError{
		MatchID:  match.ID,
		WinnerID: winner,
		Step:     "advance winner",
		Match:    match,
		Err:      bracket.ErrMatchNotFound,
	}

	rec := httptest.NewRecorder()
	Error(rec, logger, "failed to submit result", err)

	// Advancement wins over the wrapped not found cause
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body struct {
		FailedStep string        `json:"failed_step"`
		Match      bracket.Match `json:"match"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "advance winner", body.FailedStep)
	assert.Equal(t, match.ID, body.Match.ID)
	assert.Equal(t, bracket.MatchCompleted, body.Match.Status)
	assert.Equal(t, winner, *body.Match.WinnerID)
}

func TestReadJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	testCases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"name":"cup"}`},
		{name: "empty", body: ``, wantErr: "must not be empty"},
		{name: "unknown field", body: `{"nam":"cup"}`, wantErr: "unknown key"},
		{name: "wrong type", body: `{"name":1}`, wantErr: "incorrect JSON type"},
		{name: "two values", body: `{"name":"a"}{"name":"b"}`, wantErr: "single JSON value"},
		{name: "broken", body: `{"name":`, wantErr: "badly-formed"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dst payload
			err := ReadJSON(httptest.NewRecorder(), req, &dst)
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "cup", dst.Name)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
