package evalgen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/eqscore/eqs/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete evaluation test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting evaluation test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("evals", config.NumEvals),
		logger.Int("articles", config.NumArticles),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate evaluations
	evals, err := generateEvaluations(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("evaluation generation failed: %w", err)
	}

	// Step 3: Submit evaluations concurrently
	if err := submitEvaluations(ctx, config, evals, stats); err != nil {
		return fmt.Errorf("evaluation submission failed: %w", err)
	}

	// Step 4: Let the worker pool drain the queue
	logger.Get().Info(ctx, "waiting for evaluations to be processed")
	time.Sleep(ProcessingDrainDelay)

	// Step 5: Fetch the article quality report
	report, err := getReport(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("report retrieval failed: %w", err)
	}

	// Step 6: Verify the report against locally computed means
	if err := verifyResults(ctx, config, evals, report, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 7: Save evaluations to file
	if err := saveEvaluationsToFile(ctx, config, evals); err != nil {
		logger.Get().Warn(ctx, "failed to save evaluations to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 counts as healthy; the endpoint serves Prometheus metrics.
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveEvaluationsToFile saves the generated evaluations to a JSON file.
func saveEvaluationsToFile(ctx context.Context, config *Config, evals []Evaluation) error {
	if len(evals) == 0 {
		return fmt.Errorf("no evaluations to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_evals_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, eval := range evals {
		jsonData, err := json.Marshal(eval)
		if err != nil {
			return fmt.Errorf("failed to marshal evaluation %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write evaluation %d: %w", i, err)
		}

		if i < len(evals)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "evaluations saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, evalsPerSecond float64

	if stats.EvalsSubmitted > 0 {
		successRate = float64(stats.EvalsSuccessful) / float64(stats.EvalsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		evalsPerSecond = float64(stats.EvalsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("evalsGenerated", stats.EvalsGenerated),
		logger.Int("evalsSubmitted", stats.EvalsSubmitted),
		logger.Int("evalsSuccessful", stats.EvalsSuccessful),
		logger.Int("evalsDuplicate", stats.EvalsDuplicate),
		logger.Int("evalsFailed", stats.EvalsFailed),
		logger.Int("reportEntries", stats.ReportEntries),
		logger.Int("articlesChecked", stats.ArticlesChecked),
		logger.Int("meanMismatches", stats.MeanMismatches),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("evalsPerSecond", evalsPerSecond))
}
