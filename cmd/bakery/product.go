package main

import (
	"github.com/fekuna/bakery-ledger/internal/apperror"
	prodH "github.com/fekuna/bakery-ledger/internal/product/handler"
	"github.com/go-extras/cobraflags"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

const (
	nameFlag     = "name"
	priceFlag    = "price"
	quantityFlag = "quantity"
)

func productFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		nameFlag: &cobraflags.StringFlag{
			Name:  nameFlag,
			Value: "",
			Usage: "Product name",
		},
		priceFlag: &cobraflags.StringFlag{
			Name:  priceFlag,
			Value: "",
			Usage: "Unit price, e.g. 2.50",
		},
		quantityFlag: &cobraflags.StringFlag{
			Name:  quantityFlag,
			Value: "0",
			Usage: "Units in stock",
		},
	}
}

func newProductCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage the product catalog",
	}
	cmd.AddCommand(
		newProductAddCommand(a),
		newProductUpdateCommand(a),
		newProductDeleteCommand(a),
		newProductGetCommand(a),
		newProductListCommand(a),
	)
	return cmd
}

func newProductAddCommand(a *app) *cobra.Command {
	flags := productFlags()
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			qty, err := parseInt(quantityFlag, flags[quantityFlag].GetString())
			if err != nil {
				return err
			}
			return a.products.AddProduct(cmd.Context(), &prodH.AddProductRequest{
				Name:     flags[nameFlag].GetString(),
				Price:    flags[priceFlag].GetString(),
				Quantity: qty,
			})
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newProductUpdateCommand(a *app) *cobra.Command {
	flags := productFlags()
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the name, price or quantity of a product",
		Long: `Change one or more fields of a product. Fields whose flag is not given keep
their current value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			req := &prodH.UpdateProductRequest{ID: id}
			if cmd.Flags().Changed(nameFlag) {
				name := flags[nameFlag].GetString()
				req.Name = &name
			}
			if cmd.Flags().Changed(priceFlag) {
				price := flags[priceFlag].GetString()
				req.Price = &price
			}
			if cmd.Flags().Changed(quantityFlag) {
				qty, err := parseInt(quantityFlag, flags[quantityFlag].GetString())
				if err != nil {
					return err
				}
				req.Quantity = &qty
			}
			return a.products.UpdateProduct(cmd.Context(), req)
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newProductDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a product; its recorded sales are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.products.DeleteProduct(cmd.Context(), id)
		},
	}
}

func newProductGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.products.GetProduct(cmd.Context(), id)
		},
	}
}

func newProductListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all products in id order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.products.ListProducts(cmd.Context())
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := cast.ToInt64E(s)
	if err != nil || id <= 0 {
		return 0, apperror.NewValidation("id", "must be a positive integer")
	}
	return id, nil
}

func parseInt(field, s string) (int, error) {
	n, err := cast.ToIntE(s)
	if err != nil {
		return 0, apperror.NewValidation(field, "must be an integer")
	}
	return n, nil
}
