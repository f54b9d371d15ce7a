package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"draft_worker/core/domain"
	"draft_worker/internal/bootstrap"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every pending thread once",
	Long: `Search the inbox label for unprocessed threads, draft each one and exit.

The run report is printed as YAML. The command fails when the run is aborted
(configuration, mailbox search or state errors); failed items only appear in
the report and are retried on the next run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		deps, cleanup, err := bootstrap.NewDependencies(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("initializing dependencies: %w", err)
		}
		defer cleanup()

		ctx := cmd.Context()
		if cfg.RunTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
			defer cancel()
		}

		report, runErr := deps.TriageService.Run(ctx)
		if report != nil {
			if err := writeReport(cmd.OutOrStdout(), report); err != nil {
				return err
			}
		}
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

type reportView struct {
	ID       string               `yaml:"id"`
	Query    string               `yaml:"query"`
	Started  string               `yaml:"started"`
	Duration string               `yaml:"duration"`
	Found    int                  `yaml:"found"`
	Drafted  int                  `yaml:"drafted"`
	Skipped  int                  `yaml:"skipped"`
	Failed   int                  `yaml:"failed"`
	Error    string               `yaml:"error,omitempty"`
	Items    []domain.ItemOutcome `yaml:"items"`
}

func writeReport(w io.Writer, r *domain.RunReport) error {
	view := reportView{
		ID:       r.ID,
		Query:    r.Query,
		Started:  r.StartedAt.Format(time.RFC3339),
		Duration: r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
		Found:    r.Found,
		Drafted:  r.Drafted,
		Skipped:  r.Skipped,
		Failed:   r.Failed,
		Error:    r.Error,
		Items:    r.Items,
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(view); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}
