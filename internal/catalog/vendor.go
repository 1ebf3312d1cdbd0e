package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// VendorsFile is the vendor roster file name inside the data directory.
const VendorsFile = "vendor_characters.json"

// Personality scalars range over 0..10.
type Personality struct {
	Discipline int `json:"discipline"`
	RiskTaking int `json:"riskTaking"`
	Greed      int `json:"greed"`
	Honor      int `json:"honor"`
}

// Vendor is a read-only character record attached to one product.
type Vendor struct {
	ID          string      `json:"id"`
	ProductID   string      `json:"productId"`
	Name        string      `json:"name"`
	Alias       string      `json:"alias,omitempty"`
	Company     string      `json:"company"`
	Role        string      `json:"role"`
	Profile     string      `json:"profile"`
	Appearance  string      `json:"appearance,omitempty"`
	Mood        string      `json:"mood,omitempty"`
	ColorTheme  []string    `json:"colorTheme,omitempty"`
	Quote       string      `json:"quote,omitempty"`
	Style       string      `json:"style,omitempty"`
	Personality Personality `json:"personality"`
}

// Vendors indexes the roster by associated product id.
type Vendors struct {
	all       []Vendor
	byProduct map[string]int
}

type vendorsDocument struct {
	Characters *[]vendorRecord `json:"characters"`
}

type vendorRecord struct {
	ID          *string  `json:"id"`
	ProductID   *string  `json:"product_id"`
	Name        *string  `json:"name"`
	Alias       string   `json:"alias"`
	Company     *string  `json:"company"`
	Role        *string  `json:"role"`
	Profile     *string  `json:"profile"`
	Appearance  string   `json:"appearance"`
	Mood        string   `json:"mood"`
	ColorTheme  []string `json:"colorTheme"`
	Quote       string   `json:"quote"`
	Style       string   `json:"style"`
	Personality *struct {
		Discipline *int `json:"discipline"`
		RiskTaking *int `json:"riskTaking"`
		Greed      *int `json:"greed"`
		Honor      *int `json:"honor"`
	} `json:"personality"`
}

// LoadVendors reads and parses the vendor roster at path.
func LoadVendors(path string) (*Vendors, error) {
	slog.Info("loading vendors", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrInvalidCatalog, path, err)
	}

	v, err := ParseVendors(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("loaded vendors", "path", path, "vendors", v.Len())
	return v, nil
}

// ParseVendors decodes a vendor roster document. When several vendors share a
// product id the first one wins.
func ParseVendors(data []byte) (*Vendors, error) {
	var doc vendorsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if doc.Characters == nil {
		return nil, fmt.Errorf("%w: %w: characters", ErrInvalidCatalog, ErrMissingField)
	}

	records := *doc.Characters
	v := &Vendors{
		all:       make([]Vendor, 0, len(records)),
		byProduct: make(map[string]int, len(records)),
	}
	for i := range records {
		vendor, err := records[i].toVendor(i)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
		}
		if _, dup := v.byProduct[vendor.ProductID]; dup {
			slog.Warn("duplicate vendor for product, keeping first", "product", vendor.ProductID, "vendor", vendor.ID)
		} else {
			v.byProduct[vendor.ProductID] = len(v.all)
		}
		v.all = append(v.all, vendor)
	}
	return v, nil
}

func (r *vendorRecord) toVendor(index int) (Vendor, error) {
	if r.ID == nil {
		return Vendor{}, &FieldError{Record: fmt.Sprintf("#%d", index), Field: "id", Err: ErrMissingField}
	}
	id := *r.ID
	missing := func(field string) error {
		return &FieldError{Record: id, Field: field, Err: ErrMissingField}
	}

	switch {
	case r.ProductID == nil:
		return Vendor{}, missing("product_id")
	case r.Name == nil:
		return Vendor{}, missing("name")
	case r.Company == nil:
		return Vendor{}, missing("company")
	case r.Role == nil:
		return Vendor{}, missing("role")
	case r.Profile == nil:
		return Vendor{}, missing("profile")
	case r.Personality == nil:
		return Vendor{}, missing("personality")
	}

	p := r.Personality
	traits := []struct {
		name string
		v    *int
	}{
		{"personality.discipline", p.Discipline},
		{"personality.riskTaking", p.RiskTaking},
		{"personality.greed", p.Greed},
		{"personality.honor", p.Honor},
	}
	for _, tr := range traits {
		if tr.v == nil {
			return Vendor{}, missing(tr.name)
		}
		if *tr.v < 0 || *tr.v > 10 {
			return Vendor{}, &FieldError{Record: id, Field: tr.name, Err: fmt.Errorf("%w: %d", ErrOutOfRange, *tr.v)}
		}
	}

	return Vendor{
		ID:         id,
		ProductID:  *r.ProductID,
		Name:       *r.Name,
		Alias:      r.Alias,
		Company:    *r.Company,
		Role:       *r.Role,
		Profile:    *r.Profile,
		Appearance: r.Appearance,
		Mood:       r.Mood,
		ColorTheme: r.ColorTheme,
		Quote:      r.Quote,
		Style:      r.Style,
		Personality: Personality{
			Discipline: *p.Discipline,
			RiskTaking: *p.RiskTaking,
			Greed:      *p.Greed,
			Honor:      *p.Honor,
		},
	}, nil
}

// ByProduct returns the vendor attached to productID.
func (v *Vendors) ByProduct(productID string) (Vendor, bool) {
	i, ok := v.byProduct[productID]
	if !ok {
		return Vendor{}, false
	}
	return v.all[i], true
}

// All returns every vendor in roster order.
func (v *Vendors) All() []Vendor {
	return v.all
}

func (v *Vendors) Len() int {
	return len(v.all)
}
