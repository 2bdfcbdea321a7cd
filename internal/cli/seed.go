package cli

import (
	"fmt"
	"os"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/cafe-orders/db"
	"github.com/xenking/cafe-orders/internal/domain/auth"
	"github.com/xenking/cafe-orders/internal/domain/menu"
	"github.com/xenking/cafe-orders/internal/seed"
	"github.com/xenking/cafe-orders/internal/storage/postgres"
	"github.com/xenking/cafe-orders/internal/tui"
)

func newSeedCmd(opts *options) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the staff accounts and menu items from a seed file",
		Long:  "Load staff accounts and menu items from YAML. Without --file the built-in seed is used. Items already on the menu are skipped.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := db.SeedMenu
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return errors.Wrap(err, "read seed file")
				}
				raw = b
			}
			data, err := seed.Parse(raw)
			if err != nil {
				return err
			}

			ctx, pool, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			// Register only hashes passwords; no tokens are signed here.
			staff := auth.NewService(postgres.NewStaffRepository(pool), nil, 0)
			catalog := menu.NewService(postgres.NewMenuRepository(pool))

			res, err := seed.Apply(ctx, staff, catalog, data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderSummary("Seeded",
				tui.Count{Label: "staff", N: res.Staff},
				tui.Count{Label: "items", N: res.Items},
				tui.Count{Label: "skipped", N: res.Skipped},
			))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML seed file (default: built-in)")
	return cmd
}
