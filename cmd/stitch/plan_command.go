package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"stitch/internal/blocking"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the blocking passes the configured run would execute",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			plan, err := blocking.PlanFromConfig(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Match type: %s\n", cfg.Match.Type)
			fmt.Fprintf(out, "Backend: %s\n", backendLabel(cfg.Database != nil))

			var rows [][]string
			for _, gt := range plan.GroundTruth {
				rows = append(rows, []string{
					gt.Name, "ground truth", gt.Field, "no", "-", "-",
				})
			}
			for _, pass := range plan.Passes {
				blockCol := strings.Join(pass.Vars, ", ")
				if blockCol == "" {
					blockCol = "(empty, skipped)"
				}
				rows = append(rows, []string{
					pass.Name,
					"pass " + strconv.Itoa(pass.Num),
					blockCol,
					yesNo(pass.Inverted),
					strconv.Itoa(pass.ChunkSize),
					strings.Join(pass.CompareVars, ", "),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Stage", "Block", "Inverted", "Chunk", "Compare"},
				rows,
				4,
			))
			return nil
		},
	}
}

func backendLabel(hasDatabase bool) string {
	if hasDatabase {
		return "sql"
	}
	return "memory"
}
