package main

import (
	"fmt"

	"goanalyst/adapters/excel"
	"goanalyst/domain/dataset"
	"goanalyst/internal/testkit"

	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var rows int
	var seed int64

	cmd := &cobra.Command{
		Use:   "generate [orders|sales] [out-file]",
		Short: "Write a seeded synthetic dataset to CSV or XLSX",
		Long: `Write demo data with known structure.

  orders  shopping orders; order_value depends on pages_viewed, cart_value
          and tenure_days, returned depends on discount_pct
  sales   one row per day with linear growth and a weekly pattern`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ds *dataset.Dataset
			var err error
			switch args[0] {
			case "orders":
				config := testkit.DefaultShoppingConfig()
				config.Seed = seed
				if rows > 0 {
					config.OrderCount = rows
				}
				ds, err = testkit.NewShoppingDataGenerator(config).GenerateOrders()
			case "sales":
				config := testkit.DefaultDailySalesConfig()
				config.Seed = seed
				if rows > 0 {
					config.Days = rows
				}
				ds, err = testkit.GenerateDailySales(config)
			default:
				return fmt.Errorf("unknown dataset %q: use orders or sales", args[0])
			}
			if err != nil {
				return err
			}
			if err := excel.WriteFile(args[1], ds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", ds.Len(), args[1])
			return nil
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 0, "Rows to generate (default: 500 orders or 84 days)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	return cmd
}
