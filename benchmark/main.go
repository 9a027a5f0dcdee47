// Package main measures how much the response cache speeds up popilot reports.
// Each report runs several times without a cache, then several times against a
// fresh SQLite cache, where the first run is cold and the rest are warm.
// The timings are written to a CSV file for documentation.
//
// Prerequisites:
// - popilot binary installed and available in PATH
// - POPILOT_BASE_URL, POPILOT_PAT, POPILOT_PROJECT and POPILOT_TEAM set for a real team
//
// Usage: go run benchmark/main.go [sprint-path]
//
//	sprint-path: Optional past sprint used by the sprint-effort report
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Report      string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	CacheFile   string
	Reports     map[string][]string
	Order       []string
}

func main() {
	if len(os.Args) > 2 {
		fmt.Printf("Usage: %s [sprint-path]\n", os.Args[0])
		os.Exit(1)
	}
	effortArgs := []string{"sprint-effort"}
	if len(os.Args) == 2 {
		effortArgs = append(effortArgs, os.Args[1])
	}

	config := BenchmarkConfig{
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		CacheFile:   filepath.Join(os.TempDir(), "popilot_benchmark_cache.db"),
		Reports: map[string][]string{
			"sprints":       {"sprints"},
			"current":       {"current-sprint"},
			"capacities":    {"capacities"},
			"sprint-effort": effortArgs,
			"velocity":      {"velocity", "--take", "6"},
		},
		Order: []string{"sprints", "current", "capacities", "sprint-effort", "velocity"},
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the popilot binary and the connection settings exist
func checkPrerequisites() error {
	if _, err := exec.LookPath("popilot"); err != nil {
		return fmt.Errorf("popilot binary not found in PATH")
	}
	for _, key := range []string{"POPILOT_BASE_URL", "POPILOT_PAT", "POPILOT_PROJECT", "POPILOT_TEAM"} {
		if os.Getenv(key) == "" {
			return fmt.Errorf("%s is not set", key)
		}
	}
	return nil
}

// runBenchmarks executes every configured report
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d reports, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Order), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, name := range config.Order {
		results = append(results, runBenchmarkSuite(config, name, config.Reports[name]))
	}
	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a report
func runBenchmarkSuite(config BenchmarkConfig, name string, args []string) BenchmarkResult {
	fmt.Printf("Running %s\n", name)

	// A fresh cache file per report keeps the cold run honest
	_ = os.Remove(config.CacheFile)

	runPhase := func(cacheArgs []string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, append(args, cacheArgs...), numRuns)
		if len(times) == 0 {
			return cold, "n/a"
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return cold, fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase([]string{"--cache-backend", "none"}, config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase([]string{"--cache-backend", "sqlite", "--cache-db-connect", config.CacheFile}, config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Report:      name,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a popilot report multiple times and returns the first time and the rest
func runBenchmark(config BenchmarkConfig, args []string, numRuns int) (coldTime float64, warmTimes []float64) {
	args = append(args, "--workers", fmt.Sprint(config.Workers))

	var times []float64
	for run := 1; run <= numRuns; run++ {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		output, err := exec.CommandContext(ctx, "popilot", args...).CombinedOutput()
		elapsed := time.Since(start).Seconds()
		cancel()

		if err == nil && isSuccess(output) {
			times = append(times, elapsed)
		} else {
			fmt.Printf("    run %d failed: %v\n", run, err)
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if the output carries the report footer
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Report completed in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("popilot_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"report", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Report, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-14s: No-cache: %s, Cold: %s, Warm: %s\n", result.Report, result.NoCacheTime, result.ColdTime, result.WarmTime)
	}
}
