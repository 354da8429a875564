package evalgen

import "time"

// Config holds configuration for the evaluation test run.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumEvals    int           // Number of evaluations to generate
	NumArticles int           // Number of distinct articles to spread evaluations over
	TopN        int           // Number of report entries to fetch
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for generated evaluations
	LogFile     string        // Log file for test output
	Verbose     bool          // Enable verbose logging
}

// Evaluation is the wire shape submitted to POST /evaluations.
type Evaluation struct {
	EvalID         string `json:"eval_id"`
	ArticleID      string `json:"article_id"`
	Model          string `json:"model"`
	DateCorrect    int    `json:"date_correct"`
	RootEvent      int    `json:"root_event"`
	EventType      int    `json:"event_type"`
	EventAmbiguity int    `json:"event_ambiguity"`
	Relevance      int    `json:"relevance"`
	Comment        string `json:"comment"`
}

// Entry is one row of the article quality report.
type Entry struct {
	Rank      int     `json:"rank"`
	ArticleID string  `json:"article_id"`
	MeanEQS   float64 `json:"mean_eqs"`
	Events    int     `json:"events"`
}

// AckResponse is the response from evaluation submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds test statistics.
type Stats struct {
	EvalsGenerated  int
	EvalsSubmitted  int
	EvalsSuccessful int
	EvalsDuplicate  int
	EvalsFailed     int
	ReportEntries   int
	ArticlesChecked int
	MeanMismatches  int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
