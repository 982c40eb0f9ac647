// Package main provides the CLI entry point for sheetrecords.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ukaji3/sheetrecords-go/internal/config"
	"github.com/ukaji3/sheetrecords-go/internal/importer"
	"github.com/ukaji3/sheetrecords-go/internal/logging"
	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords"
	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords/models"
	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords/output"
	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords/parser"
	"go.uber.org/zap"
)

var (
	logLevel   string
	logJSON    bool
	outputPath string
	pretty     bool
	typed      bool
	formatted  bool
	shortRows  string
	configPath string
	watch      bool

	logger = zap.NewNop()
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetrecords",
		Short: "Read spreadsheet worksheets as header-keyed records",
		Long: `sheetrecords lists the worksheets of an xlsx file and reads a worksheet's
rows as records keyed by the header row, with the "Name" column as each
record's asset name.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := logging.New(logLevel, logJSON)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")

	sheetsCmd := &cobra.Command{
		Use:   "sheets [input.xlsx]",
		Short: "List worksheet names in workbook order",
		Args:  cobra.ExactArgs(1),
		RunE:  runSheets,
	}
	sheetsCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	sheetsCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	readCmd := &cobra.Command{
		Use:   "read [input.xlsx] [worksheet]",
		Short: "Read a worksheet as records",
		Args:  cobra.ExactArgs(2),
		RunE:  runRead,
	}
	readCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	readCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	readCmd.Flags().BoolVar(&typed, "typed", false, "Emit numbers and booleans as JSON scalars")
	readCmd.Flags().BoolVar(&formatted, "formatted", false, "Apply number formats and emit display text instead of stored values")
	readCmd.Flags().StringVar(&shortRows, "short-rows", "pad", "Rows shorter than the header row: pad, reject")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync configured worksheets into per-asset JSON files",
		Args:  cobra.NoArgs,
		RunE:  runSync,
	}
	syncCmd.Flags().StringVarP(&configPath, "config", "c", "sheetrecords.yaml", "Import config file")
	syncCmd.Flags().BoolVar(&watch, "watch", false, "Re-sync when a configured workbook changes")

	rootCmd.AddCommand(sheetsCmd, readCmd, syncCmd)
	return rootCmd
}

func runSheets(cmd *cobra.Command, args []string) error {
	inputPath, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	opts := sheetrecords.DefaultOptions()
	opts.Logger = logger

	names, err := sheetrecords.ListSheetNames(inputPath, opts)
	if err != nil {
		return err
	}

	jsonData, err := output.SheetListToJSON(&models.SheetList{
		BookName: filepath.Base(inputPath),
		Sheets:   names,
	}, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	return writeOutput(cmd, jsonData)
}

func runRead(cmd *cobra.Command, args []string) error {
	inputPath, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	policy, err := parser.ParseRowPolicy(shortRows)
	if err != nil {
		return err
	}

	opts := sheetrecords.DefaultOptions()
	opts.ShortRows = policy
	opts.FormattedValues = formatted
	opts.Logger = logger

	set, err := sheetrecords.ReadRecordSet(cmd.Context(), inputPath, args[1], opts)
	if err != nil {
		return err
	}

	jsonData, err := output.RecordSetToJSON(set, pretty, typed)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	return writeOutput(cmd, jsonData)
}

func runSync(cmd *cobra.Command, args []string) error {
	conf, err := config.Load(configPath)
	if err != nil {
		return err
	}

	im := importer.New(conf, logger)
	errs := importer.NewErrorLog(logger)

	n := im.SyncAll(errs)
	errs.Flush()

	if watch {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return im.Watch(ctx, errs)
	}

	if n > 0 {
		return fmt.Errorf("import run completed with %d errors", n)
	}
	return nil
}

func writeOutput(cmd *cobra.Command, data []byte) error {
	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
