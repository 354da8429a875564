// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/eqscore/eqs/internal/domain/dedupe"
	"github.com/eqscore/eqs/internal/domain/model"
	"github.com/eqscore/eqs/internal/domain/scoring"
)

// EvaluationDependencies defines the interface for evaluation ingest.
type EvaluationDependencies interface {
	dedupe.Deduper
	Submit(ctx context.Context, e model.EventEvaluation) bool
}

// EvaluationsHandler handles evaluation submissions.
type EvaluationsHandler struct {
	deps EvaluationDependencies
}

// NewEvaluationsHandler creates a new evaluations handler.
func NewEvaluationsHandler(deps EvaluationDependencies) *EvaluationsHandler {
	return &EvaluationsHandler{deps: deps}
}

// HandlePostEvaluation handles POST /evaluations requests. Rubric
// validation happens here at the boundary so malformed rows are rejected
// before they are marked seen or enqueued.
func (h *EvaluationsHandler) HandlePostEvaluation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_evaluation"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req evaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	e := req.toModel()
	if err := scoring.Validate(e); err != nil {
		writeError(w, http.StatusBadRequest, validationCode(err), Wrap(op, err))
		return
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), req.EvalID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	// Try to enqueue for async processing
	if ok := h.deps.Submit(r.Context(), e); !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), req.EvalID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
