package cli

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/cafe-orders/internal/domain/auth"
	"github.com/xenking/cafe-orders/internal/legacy"
	"github.com/xenking/cafe-orders/internal/storage/postgres"
	"github.com/xenking/cafe-orders/internal/tui"
)

func newImportCmd(opts *options) *cobra.Command {
	var staffEmail string

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import legacy order exports",
		Long: "Import gzip-compressed JSON-lines exports of the previous order system. " +
			"Orders whose invoice number is already stored are skipped, so an import can be re-run.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, pool, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			loc, err := opts.location()
			if err != nil {
				return err
			}

			st, err := postgres.NewStaffRepository(pool).FindByEmail(ctx, strings.ToLower(strings.TrimSpace(staffEmail)))
			if err != nil {
				return errors.Wrapf(err, "find staff %q", staffEmail)
			}
			sess := auth.Session{StaffID: st.ID, Email: st.Email, Name: st.Name}

			stats, err := legacy.NewImporter(postgres.NewOrderRepository(pool), loc).Import(ctx, sess, args...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderSummary("Imported",
				tui.Count{Label: "read", N: stats.Read},
				tui.Count{Label: "imported", N: stats.Imported},
				tui.Count{Label: "duplicates", N: stats.Duplicates},
				tui.Count{Label: "invalid", N: stats.Invalid},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&staffEmail, "staff", "desk@clickcafe.test", "Email of the staff account recorded as creator")
	return cmd
}
