// Package cli implements cafectl, the operator tool for seeding, importing,
// exporting and printing invoices against the order database.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"
	_ "time/tzdata"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/cafe-orders/internal/storage/postgres"
)

var (
	version = "dev"
	commit  = "none"
)

// options are the flags shared by every subcommand.
type options struct {
	databaseURL string
	timeZone    string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "cafectl",
		Short:         "Operate the cafe order desk database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or CAFE_DATABASE_URL / DATABASE_URL env)")
	cmd.PersistentFlags().StringVar(&opts.timeZone, "tz", "Asia/Kolkata", "IANA time zone for calendar dates")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newSeedCmd(opts))
	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newInvoiceCmd(opts))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// Execute runs cafectl until it finishes or is interrupted.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	return newRootCmd().ExecuteContext(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show cafectl version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "cafectl %s (%s)\n", version, commit)
			return nil
		},
	}
}

func (o *options) logger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !o.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func (o *options) location() (*time.Location, error) {
	loc, err := time.LoadLocation(o.timeZone)
	if err != nil {
		return nil, errors.Wrapf(err, "load time zone %q", o.timeZone)
	}
	return loc, nil
}

func (o *options) resolveDatabaseURL() (string, error) {
	if o.databaseURL != "" {
		return o.databaseURL, nil
	}
	for _, key := range []string{"CAFE_DATABASE_URL", "DATABASE_URL"} {
		if v := os.Getenv(key); v != "" {
			return v, nil
		}
	}
	return "", errors.New("database URL is required: set --database-url, CAFE_DATABASE_URL or DATABASE_URL")
}

// connect opens a migrated pool and returns a context carrying the logger.
func (o *options) connect(ctx context.Context) (context.Context, *pgxpool.Pool, error) {
	lg, err := o.logger()
	if err != nil {
		return ctx, nil, errors.Wrap(err, "create logger")
	}
	ctx = zctx.Base(ctx, lg)

	url, err := o.resolveDatabaseURL()
	if err != nil {
		return ctx, nil, err
	}
	lg.Debug("Connecting to database")
	pool, err := postgres.NewPool(ctx, url)
	if err != nil {
		return ctx, nil, errors.Wrap(err, "connect to database")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return ctx, nil, errors.Wrap(err, "run migrations")
	}
	return ctx, pool, nil
}
