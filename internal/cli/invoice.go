package cli

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/cafe-orders/internal/domain/invoice"
	"github.com/xenking/cafe-orders/internal/storage/postgres"
	"github.com/xenking/cafe-orders/internal/tui"
)

func newInvoiceCmd(opts *options) *cobra.Command {
	var business string

	cmd := &cobra.Command{
		Use:   "invoice <order-id>",
		Short: "Print the invoice of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, pool, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			o, err := postgres.NewOrderRepository(pool).Get(ctx, args[0])
			if err != nil {
				return errors.Wrapf(err, "get order %s", args[0])
			}
			if o.Invoice == nil {
				return errors.Errorf("order %s has no invoice", o.ID)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderInvoice(invoice.NewComposer(business).Compose(o, o.Invoice)))
			return nil
		},
	}
	cmd.Flags().StringVar(&business, "business", "Click Cafe", "Business name printed in the header")
	return cmd
}
