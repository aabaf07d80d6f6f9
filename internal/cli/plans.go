package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/railzwaylabs/planchange/internal/adapter/repository/postgres"
	"github.com/railzwaylabs/planchange/internal/config"
	"github.com/railzwaylabs/planchange/internal/domain/plan"
	"github.com/railzwaylabs/planchange/pkg/db"
)

func newPlansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List the active plan catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			gormDB, err := db.New(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			if sqlDB, err := gormDB.DB(); err == nil {
				defer sqlDB.Close()
			}

			plans, err := postgres.NewPlanRepository(gormDB).ListPlans(cmd.Context())
			if err != nil {
				return err
			}
			return printPlans(cmd.OutOrStdout(), plans)
		},
	}

	return cmd
}

func printPlans(out io.Writer, plans []plan.Plan) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tINTERVAL\tPRICE\tMEMBERS\tPRICE ID")
	for _, p := range plans {
		members := "unlimited"
		if !p.IsUnlimited() {
			members = strconv.Itoa(p.MaxMembers)
		}
		priceID := p.ExternalPriceID
		if priceID == "" {
			priceID = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", p.ID, p.Name, p.Interval, p.Price, members, priceID)
	}
	return w.Flush()
}
