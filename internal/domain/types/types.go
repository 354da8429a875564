// Package types contains common types used across the application
package types

// Entry represents one row of the article quality report
type Entry struct {
	Rank      int     `json:"rank"`
	ArticleID string  `json:"article_id"`
	MeanEQS   float64 `json:"mean_eqs"`
	Events    int     `json:"events"`
}
