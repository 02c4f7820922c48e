package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/polisee/polisee-cli/internal/analytics"
	"github.com/polisee/polisee-cli/internal/report"
	"github.com/polisee/polisee-cli/internal/store"
)

var (
	analyzeUser string
	analyzeJSON bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run cost breakdowns and savings recommendations over the stored snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		policies, err := st.ListPolicies(ctx, analyzeUser)
		if err != nil {
			return err
		}

		res := analytics.Analyze(policies, analytics.FromConfig(cfg.Analytics), time.Now())

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(res), "analyze: encode result")
		}

		report.Render(os.Stdout, res)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeUser, "user", "", "user id owning the snapshot (required)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit the raw analysis as JSON")
	_ = analyzeCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(analyzeCmd)
}
