package main

import (
	"github.com/spf13/cobra"
)

func newSaleCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sale",
		Short: "Record and list sales",
	}
	cmd.AddCommand(newSaleRecordCommand(a), newSaleListCommand(a))
	return cmd
}

func newSaleRecordCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "record <product-id> <quantity>",
		Short: "Sell units of a product",
		Long: `Sell units of a product at its current price. The sale is rejected, and nothing
changes, when the product does not exist or has fewer units than requested.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseID(args[0])
			if err != nil {
				return err
			}
			qty, err := parseInt(quantityFlag, args[1])
			if err != nil {
				return err
			}
			return a.sales.RecordSale(cmd.Context(), productID, qty)
		},
	}
}

func newSaleListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sales with their product names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.sales.ListSales(cmd.Context())
		},
	}
}
