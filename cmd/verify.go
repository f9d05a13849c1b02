package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/boxoffice-cli/internal/store"
	"github.com/sells-group/boxoffice-cli/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Report statistics and cross-source match rates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if n, _ := cmd.Flags().GetInt("sample"); n > 0 {
			cfg.Verify.SampleSize = n
		}
		report, err := runVerify(ctx, st)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, report)
	},
}

func runVerify(ctx context.Context, st store.Store) (*verify.Report, error) {
	report, err := verify.Run(ctx, st, verify.Options{
		SampleSize:    cfg.Verify.SampleSize,
		GoodThreshold: cfg.Verify.GoodThreshold,
		FairThreshold: cfg.Verify.FairThreshold,
	})
	if err != nil {
		return nil, eris.Wrap(err, "verify")
	}
	return report, nil
}

func init() {
	verifyCmd.Flags().Int("sample", 0, "distinct values sampled per match check (default from config)")
	rootCmd.AddCommand(verifyCmd)
}
