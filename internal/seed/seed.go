// Package seed loads the bootstrap staff accounts and menu catalog.
package seed

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xenking/cafe-orders/internal/domain/auth"
	"github.com/xenking/cafe-orders/internal/domain/menu"
)

// Staff is a bootstrap account. Password is plain text and hashed on import.
type Staff struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

// Item is a catalog entry. Price is a decimal string.
type Item struct {
	Name     string `yaml:"name"`
	Price    string `yaml:"price"`
	Category string `yaml:"category"`
}

// Data is the content of a seed file.
type Data struct {
	Staff []Staff `yaml:"staff"`
	Items []Item  `yaml:"items"`
}

// Result counts what Apply wrote.
type Result struct {
	Staff   int
	Items   int
	Skipped int
}

// Parse decodes a YAML seed file and checks every price.
func Parse(b []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, errors.Wrap(err, "decode seed")
	}
	for _, it := range d.Items {
		if _, err := decimal.NewFromString(it.Price); err != nil {
			return nil, errors.Wrapf(err, "item %q: price", it.Name)
		}
	}
	return &d, nil
}

// Apply registers the staff accounts and adds the menu items whose names
// are not in the catalog yet. Running it twice is harmless.
func Apply(ctx context.Context, staff *auth.Service, catalog *menu.Service, d *Data) (Result, error) {
	lg := zctx.From(ctx)
	var res Result

	for _, s := range d.Staff {
		if _, err := staff.Register(ctx, s.Email, s.Name, s.Password); err != nil {
			return res, errors.Wrapf(err, "register %s", s.Email)
		}
		res.Staff++
	}

	existing, err := catalog.List(ctx)
	if err != nil {
		return res, errors.Wrap(err, "list menu")
	}
	known := make(map[string]struct{}, len(existing))
	for _, it := range existing {
		known[strings.ToLower(it.Name)] = struct{}{}
	}

	for _, it := range d.Items {
		if _, ok := known[strings.ToLower(it.Name)]; ok {
			res.Skipped++
			continue
		}
		if _, err := catalog.Add(ctx, it.Name, decimal.RequireFromString(it.Price), it.Category); err != nil {
			return res, errors.Wrapf(err, "add %q", it.Name)
		}
		known[strings.ToLower(it.Name)] = struct{}{}
		res.Items++
	}

	lg.Info("Seed applied",
		zap.Int("staff", res.Staff),
		zap.Int("items", res.Items),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}
