// Package report persists run results: the YAML summary document the CLI
// prints or saves, and an optional CSV dump of every raw outcome.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"mcpblast/internal/config"
	"mcpblast/internal/runner"
	"mcpblast/internal/stats"
)

// Document is the full results payload: the configuration that produced the
// run followed by its summary.
type Document struct {
	TestConfig *config.Config `yaml:"test_config"`
	Results    *stats.Summary `yaml:"results"`
}

func WriteYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return enc.Close()
}

func SaveYAML(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating results file: %w", err)
	}
	defer f.Close()
	return WriteYAML(f, doc)
}

// SaveCSV dumps the raw per-request outcomes, one row per invocation.
func SaveCSV(path string, results []runner.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"timeStamp", "elapsedMs", "worker", "success", "timed", "error"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, res := range results {
		elapsed := ""
		if res.Timed {
			elapsed = strconv.FormatInt(res.Latency.Milliseconds(), 10)
		}
		record := []string{
			strconv.FormatInt(res.TimeStamp.UnixMilli(), 10),
			elapsed,
			res.WorkerID,
			strconv.FormatBool(res.Success),
			strconv.FormatBool(res.Timed),
			res.Err,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}
