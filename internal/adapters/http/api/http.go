// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/eqscore/eqs/internal/domain/dedupe"
	"github.com/eqscore/eqs/internal/domain/model"
	"github.com/eqscore/eqs/internal/domain/scoring"
	"github.com/eqscore/eqs/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Score validates and scores one evaluation synchronously.
	Score(ctx context.Context, e model.EventEvaluation) (scoring.Result, error)

	// Submit pushes an evaluation for async processing. Returns false on
	// backpressure.
	Submit(ctx context.Context, e model.EventEvaluation) bool

	// Read operations expose the article quality report.
	TopN(ctx context.Context, n int) ([]Entry, error)
	ArticleScore(ctx context.Context, articleID string) (Entry, error)
}

// Entry mirrors the read shape returned by report queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoreHandler       *ScoreHandler
	evaluationsHandler *EvaluationsHandler
	articlesHandler    *ArticlesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxReportLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		scoreHandler:       NewScoreHandler(deps),
		evaluationsHandler: NewEvaluationsHandler(deps),
		articlesHandler:    NewArticlesHandler(deps, maxReportLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/score", MetricsMiddleware(s.scoreHandler.HandlePostScore, "score"))
	mux.HandleFunc("/evaluations", MetricsMiddleware(s.evaluationsHandler.HandlePostEvaluation, "evaluations"))
	mux.HandleFunc("/articles", MetricsMiddleware(s.articlesHandler.HandleGetReport, "articles"))
	mux.HandleFunc("/articles/", MetricsMiddleware(s.articlesHandler.HandleGetArticle, "article"))
}

// evaluationRequest mirrors one spreadsheet row of the annotation rubric.
// The five rubric fields are pointers so a missing cell is distinguishable
// from a zero.
type evaluationRequest struct {
	EvalID         string `json:"eval_id"`
	ArticleID      string `json:"article_id"`
	Model          string `json:"model"`
	DateCorrect    *int   `json:"date_correct"`
	RootEvent      *int   `json:"root_event"`
	EventType      *int   `json:"event_type"`
	EventAmbiguity *int   `json:"event_ambiguity"`
	Relevance      *int   `json:"relevance"`
	Comment        string `json:"comment"`
}

func (e evaluationRequest) validate() error {
	switch {
	case strings.TrimSpace(e.EvalID) == "":
		return errors.New("missing eval_id")
	case strings.TrimSpace(e.ArticleID) == "":
		return errors.New("missing article_id")
	}
	return nil
}

// toModel converts the request into the domain evaluation. Rubric domain
// checks happen in the scoring package, not here.
func (e evaluationRequest) toModel() model.EventEvaluation {
	return model.EventEvaluation{
		EvalID:         e.EvalID,
		ArticleID:      e.ArticleID,
		Model:          e.Model,
		DateCorrect:    e.DateCorrect,
		RootEvent:      e.RootEvent,
		EventType:      e.EventType,
		EventAmbiguity: e.EventAmbiguity,
		Relevance:      e.Relevance,
		Comment:        e.Comment,
	}
}

// scoreResponse mirrors the score shape returned by POST /score. Exact is
// the unrounded value; clients that average scores must use it instead of
// the rounded eqs.
type scoreResponse struct {
	EQS           float64 `json:"eqs"`
	Exact         float64 `json:"exact"`
	AmbiguityNorm float64 `json:"ambiguity_norm"`
	RelevanceNorm float64 `json:"relevance_norm"`
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// validationCode translates a scoring validation failure into the API error
// code surfaced to callers.
func validationCode(err error) string {
	switch {
	case errors.Is(err, scoring.ErrMissingField):
		return "missing_field"
	case errors.Is(err, scoring.ErrOutOfRange):
		return "out_of_range"
	default:
		return "bad_request"
	}
}
