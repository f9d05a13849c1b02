package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/boxoffice-cli/internal/store"
)

type healthReport struct {
	Driver string           `json:"driver"`
	OK     bool             `json:"ok"`
	Tables map[string]int64 `json:"tables"`
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database connectivity and table counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		h, err := checkHealth(ctx, st)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, h)
	},
}

func checkHealth(ctx context.Context, st store.Store) (*healthReport, error) {
	if err := st.Ping(ctx); err != nil {
		return nil, eris.Wrap(err, "health: ping")
	}

	h := &healthReport{Driver: cfg.Store.Driver, OK: true, Tables: map[string]int64{}}
	for _, tbl := range store.Tables {
		n, err := st.Count(ctx, tbl)
		if err != nil {
			return nil, eris.Wrapf(err, "health: count %s", tbl)
		}
		h.Tables[string(tbl)] = n
	}
	return h, nil
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
