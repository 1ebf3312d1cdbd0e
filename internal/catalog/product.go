package catalog

// Rarity is the scarcity tier of a tradeable product.
type Rarity uint8

const (
	RarityCommon Rarity = iota
	RarityNormal
	RarityRare
)

// String returns the catalog spelling of the rarity tier.
func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "Common"
	case RarityNormal:
		return "Normal"
	case RarityRare:
		return "Rare"
	default:
		return "Unknown"
	}
}

// ParseRarity maps a catalog string to a Rarity. ok is false for
// unrecognized values, in which case RarityCommon is returned.
func ParseRarity(s string) (r Rarity, ok bool) {
	switch s {
	case "Common":
		return RarityCommon, true
	case "Normal":
		return RarityNormal, true
	case "Rare":
		return RarityRare, true
	default:
		return RarityCommon, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Rarity) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Product holds the static definition of a tradeable good, as loaded from
// the product catalog. Session state (stock, price, impact) lives in the
// market engine.
type Product struct {
	ID                 string
	Name               string
	Volume             float64 // storage volume of one unit
	BasePrice          int64
	PlayerImpact       float64 // impact added per unit traded, and decayed per cycle
	MinPrice           float64
	MaxPrice           float64
	Trends             TrendCurve
	Rarity             Rarity
	StackReplenishment int // nominal restock per cycle
	SellStackRatio     float64
	MaxQuantity        int
	Info               string
}

// Catalog is the load-once set of products, in file order, with an id index.
type Catalog struct {
	products []Product
	byID     map[string]int
}

// New builds a catalog from products. Product ids must be unique.
func New(products []Product) (*Catalog, error) {
	byID := make(map[string]int, len(products))
	for i := range products {
		id := products[i].ID
		if _, dup := byID[id]; dup {
			return nil, &FieldError{Record: id, Field: "id", Err: ErrDuplicateID}
		}
		byID[id] = i
	}
	return &Catalog{products: products, byID: byID}, nil
}

// FindByID returns the product with the given id.
func (c *Catalog) FindByID(id string) (*Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return &c.products[i], true
}

// Index returns the position of the product with the given id.
func (c *Catalog) Index(id string) (int, bool) {
	i, ok := c.byID[id]
	return i, ok
}

// Products returns all products in catalog order.
func (c *Catalog) Products() []Product {
	return c.products
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}
