package evalgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with a request timeout.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request bound to ctx.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body bound to ctx.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitEvaluations submits evaluations concurrently using a worker pool.
func submitEvaluations(ctx context.Context, config *Config, evals []Evaluation, stats *Stats) error {
	log.Printf("submitting %d evaluations with %d workers...", len(evals), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/evaluations"

	var (
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	evalChan := make(chan Evaluation, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for eval := range evalChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleEvaluation(ctx, client, url, eval)

					atomic.AddInt64(&submitted, 1)
					switch result {
					case "success":
						atomic.AddInt64(&successful, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						succ := atomic.LoadInt64(&successful)
						dup := atomic.LoadInt64(&duplicate)
						fail := atomic.LoadInt64(&failed)

						log.Printf("progress: %d/%d submitted (success: %d, duplicate: %d, failed: %d)",
							total, len(evals), succ, dup, fail)
					}
				}
			}
		}()
	}

	go func() {
		defer close(evalChan)
		for _, eval := range evals {
			select {
			case <-ctx.Done():
				return
			case evalChan <- eval:
			}
		}
	}()

	wg.Wait()

	stats.EvalsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.EvalsSuccessful = int(atomic.LoadInt64(&successful))
	stats.EvalsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.EvalsFailed = int(atomic.LoadInt64(&failed))

	log.Printf("evaluation submission completed: successful=%d duplicate=%d failed=%d",
		stats.EvalsSuccessful, stats.EvalsDuplicate, stats.EvalsFailed)

	return nil
}

// submitSingleEvaluation submits one evaluation and classifies the outcome.
func submitSingleEvaluation(ctx context.Context, client *HTTPClient, url string, eval Evaluation) string {
	resp, err := client.Post(ctx, url, eval)
	if err != nil {
		return "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case StatusAccepted:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Status == "accepted" {
			return "success"
		}
		return "success"
	case StatusOK:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
			return "duplicate"
		}
		return "duplicate"
	default:
		return "failed"
	}
}

// getReport retrieves the top N report entries.
func getReport(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	log.Printf("getting top %d report entries...", config.TopN)

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/articles?limit=%d", config.BaseURL, config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var report []Entry
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.ReportEntries = len(report)
	log.Printf("retrieved %d report entries", len(report))

	return report, nil
}

// getArticle retrieves the report entry for a single article.
func getArticle(ctx context.Context, client *HTTPClient, baseURL, articleID string) (Entry, error) {
	url := fmt.Sprintf("%s/articles/%s", baseURL, articleID)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return Entry{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return Entry{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var entry Entry
	if err := json.Unmarshal(body, &entry); err != nil {
		return Entry{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return entry, nil
}
