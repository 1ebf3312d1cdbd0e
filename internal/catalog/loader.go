package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// ProductsFile is the catalog file name inside the data directory.
const ProductsFile = "item_products.json"

type productsDocument struct {
	Products *[]productRecord `json:"products"`
}

// productRecord mirrors one entry of the products array. Pointer fields
// distinguish an absent key from a zero value.
type productRecord struct {
	ID                 *string   `json:"id"`
	Name               *string   `json:"name"`
	Volume             *float64  `json:"volume"`
	BasePrice          *int64    `json:"basePrice"`
	PlayerImpact       *float64  `json:"playerImpact"`
	MinPrice           *float64  `json:"minPrice"`
	MaxPrice           *float64  `json:"maxPrice"`
	Trends             []float64 `json:"trends"`
	ItemRarity         *string   `json:"itemRarity"`
	StackReplenishment *int      `json:"stackReplenishment"`
	SellStackRatio     *float64  `json:"sellStackRatio"`
	MaxQuantity        *int      `json:"maxQuantity"`
	ProductInfo        *string   `json:"productInfo"`
}

// Load reads and parses the product catalog at path.
// Any failure is fatal for the market and is wrapped in ErrInvalidCatalog.
func Load(path string) (*Catalog, error) {
	slog.Info("loading product catalog", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrInvalidCatalog, path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("loaded product catalog", "path", path, "products", c.Len())
	return c, nil
}

// Parse decodes a product catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc productsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if doc.Products == nil {
		return nil, fmt.Errorf("%w: %w: products", ErrInvalidCatalog, ErrMissingField)
	}

	records := *doc.Products
	products := make([]Product, 0, len(records))
	for i := range records {
		p, err := records[i].toProduct(i)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
		}
		products = append(products, p)
	}

	c, err := New(products)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return c, nil
}

func (r *productRecord) toProduct(index int) (Product, error) {
	if r.ID == nil {
		return Product{}, &FieldError{Record: fmt.Sprintf("#%d", index), Field: "id", Err: ErrMissingField}
	}
	id := *r.ID

	missing := func(field string) error {
		return &FieldError{Record: id, Field: field, Err: ErrMissingField}
	}
	outOfRange := func(field string, v any) error {
		return &FieldError{Record: id, Field: field, Err: fmt.Errorf("%w: %v", ErrOutOfRange, v)}
	}

	switch {
	case r.Name == nil:
		return Product{}, missing("name")
	case r.Volume == nil:
		return Product{}, missing("volume")
	case r.BasePrice == nil:
		return Product{}, missing("basePrice")
	case r.PlayerImpact == nil:
		return Product{}, missing("playerImpact")
	case r.MinPrice == nil:
		return Product{}, missing("minPrice")
	case r.MaxPrice == nil:
		return Product{}, missing("maxPrice")
	case r.Trends == nil:
		return Product{}, missing("trends")
	case r.ItemRarity == nil:
		return Product{}, missing("itemRarity")
	case r.StackReplenishment == nil:
		return Product{}, missing("stackReplenishment")
	case r.SellStackRatio == nil:
		return Product{}, missing("sellStackRatio")
	case r.MaxQuantity == nil:
		return Product{}, missing("maxQuantity")
	case r.ProductInfo == nil:
		return Product{}, missing("productInfo")
	}

	switch {
	case *r.Volume < 0:
		return Product{}, outOfRange("volume", *r.Volume)
	case *r.BasePrice < 0:
		return Product{}, outOfRange("basePrice", *r.BasePrice)
	case *r.PlayerImpact < 0:
		return Product{}, outOfRange("playerImpact", *r.PlayerImpact)
	case *r.MinPrice > *r.MaxPrice:
		return Product{}, outOfRange("minPrice", *r.MinPrice)
	case *r.StackReplenishment < 0:
		return Product{}, outOfRange("stackReplenishment", *r.StackReplenishment)
	case *r.SellStackRatio < 0:
		return Product{}, outOfRange("sellStackRatio", *r.SellStackRatio)
	case *r.MaxQuantity <= 0:
		return Product{}, outOfRange("maxQuantity", *r.MaxQuantity)
	}

	trends, err := NewTrendCurve(r.Trends)
	if err != nil {
		return Product{}, &FieldError{Record: id, Field: "trends", Err: err}
	}

	rarity, ok := ParseRarity(*r.ItemRarity)
	if !ok {
		slog.Warn("unknown itemRarity, defaulting to Common", "product", id, "value", *r.ItemRarity)
	}

	return Product{
		ID:                 id,
		Name:               *r.Name,
		Volume:             *r.Volume,
		BasePrice:          *r.BasePrice,
		PlayerImpact:       *r.PlayerImpact,
		MinPrice:           *r.MinPrice,
		MaxPrice:           *r.MaxPrice,
		Trends:             trends,
		Rarity:             rarity,
		StackReplenishment: *r.StackReplenishment,
		SellStackRatio:     *r.SellStackRatio,
		MaxQuantity:        *r.MaxQuantity,
		Info:               *r.ProductInfo,
	}, nil
}
