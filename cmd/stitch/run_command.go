package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stitch/internal/logging"
	"stitch/internal/match"
	"stitch/internal/preflight"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the configured matching job",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !skipPreflight {
				results := preflight.RunAll(runCtx, cfg)
				if !preflight.AllPassed(results) {
					fmt.Fprintln(out, renderPreflight(results))
					return fmt.Errorf("preflight checks failed")
				}
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return err
			}

			engine := match.NewEngine(cfg, logger)
			summary, err := engine.Run(runCtx)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Run %s finished in %s\n", summary.RunID, summary.Duration.Round(time.Millisecond))
			fmt.Fprintf(out, "Results: %s (%d rows)\n", summary.ResultPath, summary.Rows)
			fmt.Fprintln(out, renderSummary(summary))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip preflight checks before the run")
	return cmd
}

func renderPreflight(results []preflight.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "FAIL"
		if r.Passed {
			status = "ok"
		}
		rows = append(rows, []string{r.Name, status, r.Detail})
	}
	return renderTable([]string{"Check", "Status", "Detail"}, rows)
}

func renderSummary(summary *match.Summary) string {
	rows := make([][]string, 0, len(summary.Passes))
	for _, report := range summary.Passes {
		tally := summary.Tallies[report.Name]
		row := []string{
			report.Name,
			report.Status,
			strconv.FormatInt(report.Candidates, 10),
			strconv.FormatInt(tally.Strict, 10),
			strconv.FormatInt(tally.Moderate, 10),
			strconv.FormatInt(tally.Relaxed, 10),
			strconv.FormatInt(tally.Review, 10),
		}
		rows = append(rows, row)
	}
	return renderTable(
		[]string{"Pass", "Status", "Candidates", "Strict", "Moderate", "Relaxed", "Review"},
		rows,
		2, 3, 4, 5, 6,
	)
}
