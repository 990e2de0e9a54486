// DataScope - automated dataset analysis.
// Profiles tabular files, runs analysis packs, and narrates a findings report.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/datascope/datascope/pkg/config"
	"github.com/datascope/datascope/pkg/dataset"
	"github.com/datascope/datascope/pkg/ingest"
	"github.com/datascope/datascope/pkg/llm"
	"github.com/datascope/datascope/pkg/pipeline"
	"github.com/datascope/datascope/pkg/report"
	"github.com/datascope/datascope/pkg/telemetry"
	"github.com/datascope/datascope/pkg/tui"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// CLI flags
var (
	verbose    bool
	engineFlag string
	noLLM      bool
	outputFile string
	reportsDir string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "datascope",
	Short: "DataScope - Automated dataset analysis",
	Long: `DataScope ingests a tabular file (CSV, TSV, XLSX, Parquet, JSONL),
profiles it, plans and runs analysis packs, verifies hypotheses against the
data, and produces a narrated findings report with charts.`,
	Version: fmt.Sprintf("%s (%s)", version, commit),
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [input-file]",
	Short: "Analyze a dataset file and print the findings report",
	Long: `Run the full analysis pipeline on a single file.

Examples:
  datascope analyze sales.csv
  datascope analyze events.parquet -o report.json
  datascope analyze data.xlsx --engine duckdb --no-llm`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	analyzeCmd.Flags().StringVar(&engineFlag, "engine", "", "Ingestion engine (native, duckdb)")
	analyzeCmd.Flags().BoolVar(&noLLM, "no-llm", false, "Skip the LLM and use deterministic fallbacks")
	analyzeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the report JSON to a file")
	analyzeCmd.Flags().StringVar(&reportsDir, "reports-dir", "", "Directory for profiling reports")

	rootCmd.AddCommand(analyzeCmd)
}

// loadConfig loads the merged configuration once per command.
func loadConfig() (*config.Config, error) {
	mgr := config.NewManager()
	if err := mgr.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return mgr.Get(), nil
}

// newLogger builds the process logger.
func newLogger() *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	return zap.NewNop()
}

// newLLMClient builds the LLM client from config, or nil when disabled.
func newLLMClient(cfg *config.Config) llm.Client {
	if noLLM || !cfg.LLM.Enabled || cfg.APIKey() == "" {
		return nil
	}
	return llm.NewHTTPClient(llm.Options{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.APIKey(),
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
	})
}

// newPipeline wires a pipeline from config and flags.
func newPipeline(cfg *config.Config, logger *zap.Logger) *pipeline.Pipeline {
	engine := cfg.Engine.Default
	if engineFlag != "" {
		engine = engineFlag
	}
	dir := cfg.Server.ReportsDir
	if reportsDir != "" {
		dir = reportsDir
	}
	return &pipeline.Pipeline{
		Store:      dataset.NewStore(),
		Loader:     ingest.NewLoader(engine),
		LLM:        newLLMClient(cfg),
		ReportsDir: dir,
		Logger:     logger,
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	inputFile := args[0]
	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputFile)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()
	defer logger.Sync()

	pipe := newPipeline(cfg, logger)

	if cfg.Telemetry.Enabled {
		otlpCfg := telemetry.DefaultOTLPConfig("datascope")
		if cfg.Telemetry.Endpoint != "" {
			otlpCfg.Endpoint = cfg.Telemetry.Endpoint
		}
		tracer, shutdown, err := telemetry.Init(cmd.Context(), otlpCfg)
		if err != nil {
			logger.Warn("telemetry init failed", zap.Error(err))
		} else {
			pipe.Tracer = tracer
			defer shutdown(context.Background())
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted, cleaning up...")
		cancel()
	}()

	tui.PrintHeader(version)
	bar := tui.ShowProgress("analyzing " + filepath.Base(inputFile))

	start := time.Now()
	rep := pipe.Run(ctx, inputFile, filepath.Base(inputFile), func(e pipeline.Event) {
		if e.ProgressPct != nil {
			bar.Set(*e.ProgressPct)
		}
		if verbose && e.Type == pipeline.EventStep {
			tui.PrintStage(e.Step, e.Status, e.Detail)
		}
	})
	bar.Finish()
	tui.ClearLine()

	tui.PrintReportSummary(rep, time.Since(start))

	if outputFile != "" {
		if err := writeReportJSON(rep, outputFile); err != nil {
			return err
		}
		fmt.Printf("  Report written to %s\n\n", outputFile)
	}
	return nil
}

func writeReportJSON(rep *report.Report, path string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
