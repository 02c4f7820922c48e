package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/polisee/polisee-cli/internal/store"
)

var policiesUser string

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "Inspect and manage stored policy snapshots",
}

var policiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the user's stored policies",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		policies, err := st.ListPolicies(ctx, policiesUser)
		if err != nil {
			return err
		}
		if len(policies) == 0 {
			fmt.Println("no policies stored")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tCOMPANY\tSUB BRANCH\tPOLICY\tPREMIUM\tTYPE")
		for _, p := range policies {
			premium := "-"
			if p.PremiumNIS != nil {
				premium = fmt.Sprintf("₪%.2f", *p.PremiumNIS)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				p.Category, p.Company, p.SubBranch, p.PolicyNumber, premium, p.PremiumType)
		}
		return w.Flush()
	},
}

var policiesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all of the user's stored policies",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		deleted, err := st.DeletePolicies(ctx, policiesUser)
		if err != nil {
			return err
		}

		zap.L().Info("cleared policies",
			zap.String("user", policiesUser),
			zap.Int("deleted", deleted),
		)
		fmt.Printf("deleted %d policies\n", deleted)
		return nil
	},
}

func init() {
	policiesCmd.PersistentFlags().StringVar(&policiesUser, "user", "", "user id owning the snapshot (required)")
	_ = policiesCmd.MarkPersistentFlagRequired("user")
	policiesCmd.AddCommand(policiesListCmd)
	policiesCmd.AddCommand(policiesClearCmd)
	rootCmd.AddCommand(policiesCmd)
}
