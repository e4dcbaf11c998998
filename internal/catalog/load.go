package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// Open loads the catalog file at path, or the built-in seed when path is empty.
func Open(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return New(Seed()), nil
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog %s", path)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrap(err, "decode catalog yaml")
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	return New(data), nil
}

func Validate(data Data) error {
	skus := make(map[string]bool, len(data.Products))
	for _, p := range data.Products {
		if !SKUPattern.MatchString(p.SKU) {
			return fmt.Errorf("%w: product sku %q must be two uppercase letters and three digits", ErrInvalidCatalog, p.SKU)
		}
		if skus[p.SKU] {
			return fmt.Errorf("%w: duplicate product sku %q", ErrInvalidCatalog, p.SKU)
		}
		if p.Price < 0 {
			return fmt.Errorf("%w: product %s has negative price", ErrInvalidCatalog, p.SKU)
		}
		skus[p.SKU] = true
	}
	for _, row := range data.Inventory {
		if row.Quantity < 0 {
			return fmt.Errorf("%w: store %s holds negative quantity of %s", ErrInvalidCatalog, row.StoreID, row.SKU)
		}
		if row.StoreID == "" {
			return fmt.Errorf("%w: inventory row for %s has no store id", ErrInvalidCatalog, row.SKU)
		}
	}
	ids := make(map[string]bool, len(data.Customers))
	for _, c := range data.Customers {
		if c.ID == "" || ids[c.ID] {
			return fmt.Errorf("%w: customer id %q is empty or duplicated", ErrInvalidCatalog, c.ID)
		}
		if !c.Tier.Valid() {
			return fmt.Errorf("%w: customer %s has unknown tier %q", ErrInvalidCatalog, c.ID, c.Tier)
		}
		if c.LoyaltyPoints < 0 {
			return fmt.Errorf("%w: customer %s has negative points", ErrInvalidCatalog, c.ID)
		}
		ids[c.ID] = true
	}
	return nil
}
