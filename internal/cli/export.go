package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/cafe-orders/internal/domain/report"
	"github.com/xenking/cafe-orders/internal/storage/postgres"
	"github.com/xenking/cafe-orders/internal/tui"
)

func newExportCmd(opts *options) *cobra.Command {
	var (
		kind  string
		start string
		end   string
		dir   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a CSV report of the orders in a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := report.ParseKind(kind)
			if err != nil {
				return err
			}
			loc, err := opts.location()
			if err != nil {
				return err
			}
			from, err := time.ParseInLocation(report.DateLayout, start, loc)
			if err != nil {
				return errors.Wrap(err, "parse --start")
			}
			to, err := time.ParseInLocation(report.DateLayout, end, loc)
			if err != nil {
				return errors.Wrap(err, "parse --end")
			}
			if from.After(to) {
				return errors.New("--start is after --end")
			}

			ctx, pool, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			orders, err := postgres.NewOrderRepository(pool).List(ctx)
			if err != nil {
				return errors.Wrap(err, "list orders")
			}
			t, err := report.NewExporter(loc).Export(k, orders, from, to)
			if errors.Is(err, report.ErrEmptyResult) {
				fmt.Fprintln(cmd.OutOrStdout(), err.Error())
				return nil
			}
			if err != nil {
				return err
			}

			path := filepath.Join(dir, report.FileName(k, from, to))
			if err := writeReport(path, t); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderSummary("Exported "+path, tui.Count{Label: "rows", N: len(t.Rows)}))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(report.KindSummary), "Report kind: summary or detailed")
	cmd.Flags().StringVar(&start, "start", "", "First day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "Last day, YYYY-MM-DD")
	cmd.Flags().StringVarP(&dir, "out", "o", ".", "Output directory")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func writeReport(path string, t *report.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create report file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close report file")
		}
	}()
	return report.WriteCSV(f, t)
}
