package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/datascope/datascope/pkg/watch"
)

var watchOutputDir string

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and analyze datasets as they arrive",
	Long: `Watch a directory for new or changed dataset files and run the full
analysis pipeline on each one. Report JSON files are written next to the
inputs, or to --output-dir when set.

Examples:
  datascope watch ./incoming
  datascope watch ./incoming --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchOutputDir, "output-dir", "", "Directory for report JSON files")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()
	defer logger.Sync()

	pipe := newPipeline(cfg, logger)

	w, err := watch.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	w.OnChange = func(path string) error {
		name := filepath.Base(path)
		fmt.Printf("  ⟳ analyzing %s\n", name)

		rep := pipe.Run(ctx, path, name, nil)

		outDir := watchOutputDir
		if outDir == "" {
			outDir = filepath.Dir(path)
		}
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return err
		}
		outPath := filepath.Join(outDir,
			strings.TrimSuffix(name, filepath.Ext(name))+".report.json")

		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return err
		}

		fmt.Printf("  ✓ %s -> %s (%d insights, %d errors)\n",
			name, outPath, len(rep.Insights), len(rep.Errors))
		return nil
	}
	w.OnError = func(path string, err error) {
		logger.Warn("watch error", zap.String("path", path), zap.Error(err))
		fmt.Fprintf(os.Stderr, "  ✗ %s: %v\n", path, err)
	}

	if err := w.Watch(dir); err != nil {
		return err
	}

	fmt.Printf("  Watching %s for dataset files. Press Ctrl+C to stop.\n", dir)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nStopping watch...")
		cancel()
	}()

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
