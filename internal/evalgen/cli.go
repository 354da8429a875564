package evalgen

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/eqscore/eqs/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "eval_test_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the evaluation test tool.
func ShowHelp() {
	os.Stdout.WriteString(`EQS Evaluation Test Tool
========================

A concurrent tool for exercising the EQS scoring service end to end:
it generates evaluations, submits them, then checks the article report
against locally recomputed means.

Usage:
  go run cmd/test-evals/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -evals int
        Number of evaluations to generate and submit (default 10000)
  -articles int
        Number of distinct articles to spread evaluations over (default 100)
  -top int
        Number of top entries to fetch from the report (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated evaluations (default: generated_evals_TIMESTAMP.json)
  -log string
        Log file for test output (default: eval_test_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-evals/main.go

  # Test with custom parameters
  go run cmd/test-evals/main.go -evals 50000 -articles 500 -workers 16

  # Test with verbose output
  go run cmd/test-evals/main.go -verbose -evals 10000
`)
}
