// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/eqscore/eqs/internal/domain/model"
	"github.com/eqscore/eqs/internal/domain/scoring"
)

// ScoreDependencies defines the interface for synchronous scoring.
type ScoreDependencies interface {
	Score(ctx context.Context, e model.EventEvaluation) (scoring.Result, error)
}

// ScoreHandler handles synchronous scoring requests.
type ScoreHandler struct {
	deps ScoreDependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// HandlePostScore handles POST /score requests. The evaluation is scored
// and returned without being stored; invalid input yields 400 with a
// missing_field or out_of_range code, never a defaulted score.
func (h *ScoreHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req evaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	result, err := h.deps.Score(r.Context(), req.toModel())
	if err != nil {
		writeError(w, http.StatusBadRequest, validationCode(err), Wrap(op, err))
		return
	}

	writeJSON(w, http.StatusOK, scoreResponse{
		EQS:           result.EQS,
		Exact:         result.Exact,
		AmbiguityNorm: result.AmbiguityNorm,
		RelevanceNorm: result.RelevanceNorm,
	})
}
