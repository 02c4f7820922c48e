package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/polisee/polisee-cli/internal/ingest"
	"github.com/polisee/polisee-cli/internal/model"
	"github.com/polisee/polisee-cli/internal/store"
)

var (
	ingestFile    string
	ingestUser    string
	ingestFormat  string
	ingestBatchID string
	ingestDryRun  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Parse a spreadsheet export and replace the user's policy snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		batchID := ingestBatchID
		if batchID == "" {
			batchID = uuid.New().String()
		}

		format := ingestFormat
		if format == "" {
			format = strings.TrimPrefix(strings.ToLower(filepath.Ext(ingestFile)), ".")
		}

		result, err := parseFile(ingestFile, format, batchID)
		if err != nil {
			return err
		}

		if len(result.Errors) > 0 {
			for _, msg := range result.Errors {
				fmt.Fprintln(os.Stderr, msg)
			}
			return eris.Errorf("ingest: %d error(s), nothing saved", len(result.Errors))
		}

		zap.L().Info("parsed export",
			zap.String("file", ingestFile),
			zap.String("batch_id", batchID),
			zap.Int("policies", len(result.Policies)),
		)

		if ingestDryRun {
			fmt.Printf("dry run: parsed %d policies, nothing saved\n", len(result.Policies))
			return nil
		}

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		inserted, err := st.ReplacePolicies(ctx, ingestUser, result.Policies)
		if err != nil {
			return err
		}

		fmt.Printf("saved %d policies (batch %s)\n", inserted, batchID)
		return nil
	},
}

func parseFile(path, format, batchID string) (*model.ParseResult, error) {
	switch format {
	case "xlsx":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read %s", path)
		}
		return ingest.Parse(data, batchID)
	case "csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: open %s", path)
		}
		defer f.Close()
		return ingest.ParseCSV(f, batchID)
	default:
		return nil, eris.Errorf("ingest: unsupported format %q (want xlsx or csv)", format)
	}
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "path to the export file (required)")
	ingestCmd.Flags().StringVar(&ingestUser, "user", "", "user id owning the snapshot (required)")
	ingestCmd.Flags().StringVar(&ingestFormat, "format", "", "file format: xlsx or csv (default from extension)")
	ingestCmd.Flags().StringVar(&ingestBatchID, "batch-id", "", "upload batch id (default random)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "parse and report without saving")
	_ = ingestCmd.MarkFlagRequired("file")
	_ = ingestCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(ingestCmd)
}
