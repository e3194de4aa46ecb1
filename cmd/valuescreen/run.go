package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/valuescreen/internal/app"
	"github.com/ternarybob/valuescreen/internal/common"
	"github.com/ternarybob/valuescreen/internal/services/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the screener once and send the summary",
	Long: `Runs one screener cycle: fundamentals snapshot, value screen, ETF signal, then
delivery to every enabled sink. With --dry-run nothing is sent and the composed
message is printed instead. Suitable for an external cron.`,
	RunE: runOnce,
}

var (
	runDryRun bool
	runFormat string
)

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Print the message instead of sending it")
	runCmd.Flags().StringVar(&runFormat, "format", "markdown", "Output format for --dry-run and the run summary (markdown, yaml)")
}

func runOnce(cmd *cobra.Command, args []string) error {
	if runFormat != "markdown" && runFormat != "yaml" {
		return fmt.Errorf("unknown format %q (want markdown or yaml)", runFormat)
	}

	validate := config.Validate
	newApp := app.New
	if runDryRun {
		validate = config.ValidateData
		newApp = app.NewWithoutDelivery
	}

	if err := validate(); err != nil {
		logger.Error().Err(err).Msg("Invalid configuration")
		return err
	}

	application, err := newApp(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if timeout := common.ParseDurationOr(config.Scheduler.Timeout, 0); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var result *report.Report
	if runDryRun {
		result, err = application.ReportService.Build(ctx)
	} else {
		result, err = application.ReportService.Run(ctx)
	}
	if err != nil && result == nil {
		return err
	}

	if runDryRun || runFormat == "yaml" {
		if printErr := printReport(result); printErr != nil {
			return printErr
		}
	}

	return err
}

func printReport(result *report.Report) error {
	if runFormat == "yaml" {
		out, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Print(string(out))
		return nil
	}

	fmt.Println(report.FormatMessage(result))
	return nil
}
