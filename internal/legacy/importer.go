package legacy

import (
	"bufio"
	"context"
	"os"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/cafe-orders/internal/domain/auth"
	"github.com/xenking/cafe-orders/internal/domain/order"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	maxLineSize   = 1 << 20
	progressEvery = 1_000
)

// Stats summarizes an import run.
type Stats struct {
	Read       int
	Imported   int
	Duplicates int
	Invalid    int
}

// Importer writes legacy records through an order.Repository.
type Importer struct {
	orders order.Repository
	loc    *time.Location
}

// NewImporter creates an Importer. Invoice issue dates are taken in loc.
func NewImporter(orders order.Repository, loc *time.Location) *Importer {
	return &Importer{orders: orders, loc: loc}
}

// fileResult holds the records decoded from a single file.
type fileResult struct {
	records []Record
	invalid int
}

// Import decodes every file concurrently, then stores the records one by
// one in file order. Records whose invoice number is already stored are
// skipped, as are records without a customer name, without a valid line, or
// with neither a creation time nor an invoice number.
func (im *Importer) Import(ctx context.Context, sess auth.Session, paths ...string) (Stats, error) {
	lg := zctx.From(ctx)

	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			res, err := decodeFile(gctx, p)
			if err != nil {
				return errors.Wrapf(err, "decode %s", p)
			}
			lg.Info("Decoded legacy file",
				zap.String("path", p),
				zap.Int("records", len(res.records)),
				zap.Int("invalid", res.invalid),
			)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	seen, err := im.knownInvoices(ctx)
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	for _, res := range results {
		st.Invalid += res.invalid
		for _, rec := range res.records {
			if err := ctx.Err(); err != nil {
				return st, err
			}
			st.Read++

			o, inv, ok := im.convert(rec, sess)
			if !ok {
				st.Invalid++
				continue
			}

			if seen.TestString(inv.Number) {
				exists, err := im.orders.InvoiceExists(ctx, inv.Number)
				if err != nil {
					return st, errors.Wrapf(err, "check invoice %s", inv.Number)
				}
				if exists {
					st.Duplicates++
					continue
				}
			}

			if err := im.orders.Create(ctx, o, inv); err != nil {
				return st, errors.Wrapf(err, "store order %s", inv.Number)
			}
			seen.AddString(inv.Number)
			st.Imported++

			if st.Imported%progressEvery == 0 {
				lg.Info("Import progress", zap.Int("imported", st.Imported))
			}
		}
	}

	lg.Info("Legacy import finished",
		zap.Int("read", st.Read),
		zap.Int("imported", st.Imported),
		zap.Int("duplicates", st.Duplicates),
		zap.Int("invalid", st.Invalid),
	)
	return st, nil
}

// knownInvoices loads the stored invoice numbers into a bloom filter.
func (im *Importer) knownInvoices(ctx context.Context) (*bloom.BloomFilter, error) {
	existing, err := im.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list stored orders")
	}
	filter := bloom.NewWithEstimates(uint(max(bloomCapacity, 2*len(existing))), bloomFPR)
	for _, o := range existing {
		if n := o.InvoiceNumber(); n != "" {
			filter.AddString(n)
		}
	}
	return filter, nil
}

func (im *Importer) convert(rec Record, sess auth.Session) (*order.Order, *order.Invoice, bool) {
	if strings.TrimSpace(rec.ClientName) == "" {
		return nil, nil, false
	}
	items := make([]order.LineItem, 0, len(rec.Items))
	for _, it := range rec.Items {
		if strings.TrimSpace(it.Name) == "" || it.Quantity < 1 || it.Price.IsNegative() {
			return nil, nil, false
		}
		items = append(items, order.LineItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}

	number := strings.TrimSpace(rec.InvoiceNumber)
	created := rec.CreatedAt
	if created.IsZero() {
		// Without either field there is nothing stable to mint a number from.
		if number == "" {
			return nil, nil, false
		}
		created = time.Now()
	}
	created = created.In(im.loc)

	o := &order.Order{
		ID:            uuid.New().String(),
		CustomerName:  rec.ClientName,
		CustomerPhone: rec.ClientPhone,
		Notes:         rec.Notes,
		PaymentStatus: rec.PaymentStatus,
		AmountPaid:    rec.AmountPaid,
		CreatedBy:     sess.StaffID,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	o.SetItems(items)

	if number == "" {
		number = order.InvoiceNumber(created)
	}
	inv := &order.Invoice{
		ID:        uuid.New().String(),
		OrderID:   o.ID,
		Number:    number,
		Total:     o.Total,
		IssueDate: order.CalendarDate(created),
		Status:    order.InvoiceStatusFor(o.PaymentStatus),
	}
	return o, inv, true
}

// decodeFile streams a gzip-compressed JSON-lines file. Lines that fail to
// parse are counted, not fatal.
func decodeFile(ctx context.Context, path string) (fileResult, error) {
	var res fileResult

	f, err := os.Open(path)
	if err != nil {
		return res, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return res, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		rec, err := DecodeRecord(line)
		if err != nil {
			zctx.From(ctx).Debug("Skipping malformed line", zap.String("path", path), zap.Error(err))
			res.invalid++
			continue
		}
		res.records = append(res.records, rec)
	}
	if err := scanner.Err(); err != nil {
		return res, errors.Wrapf(err, "scan %s", path)
	}
	return res, nil
}
