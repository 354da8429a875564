package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/eqscore/eqs/internal/evalgen"
)

// Default configuration constants.
const (
	defaultNumEvals    = 10000
	defaultNumArticles = 100
	defaultTopN        = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numEvals    = flag.Int("evals", defaultNumEvals, "Number of evaluations to generate and submit")
		numArticles = flag.Int("articles", defaultNumArticles, "Number of distinct articles to spread evaluations over")
		topN        = flag.Int("top", defaultTopN, "Number of top entries to fetch from the report")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile  = flag.String("output", "", "Output file for generated evaluations (default: generated_evals_TIMESTAMP.json)")
		logFile     = flag.String("log", "", "Log file for test output (default: eval_test_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		evalgen.ShowHelp()
		return
	}

	// Setup logging
	if err := evalgen.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &evalgen.Config{
		BaseURL:     *baseURL,
		NumEvals:    *numEvals,
		NumArticles: *numArticles,
		TopN:        *topN,
		Workers:     *workers,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	// Run the test
	if err := evalgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
