package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatTrend(v float64) []float64 {
	out := make([]float64, TrendLength)
	for i := range out {
		out[i] = v
	}
	return out
}

// productJSON returns a valid product record that tests can mutate.
func productJSON(id string) map[string]any {
	return map[string]any{
		"id":                 id,
		"name":               "Product " + id,
		"volume":             2.5,
		"basePrice":          40,
		"playerImpact":       0.01,
		"minPrice":           0.8,
		"maxPrice":           1.2,
		"trends":             flatTrend(0.5),
		"itemRarity":         "Normal",
		"stackReplenishment": 4,
		"sellStackRatio":     0.5,
		"maxQuantity":        30,
		"productInfo":        "Test cargo.",
	}
}

func encodeProducts(t *testing.T, records ...map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{"products": records})
	require.NoError(t, err)
	return data
}

func TestParse(t *testing.T) {
	t.Parallel()

	c, err := Parse(encodeProducts(t, productJSON("TRI"), productJSON("NFX")))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	p, ok := c.FindByID("NFX")
	require.True(t, ok)
	assert.Equal(t, "Product NFX", p.Name)
	assert.Equal(t, 2.5, p.Volume)
	assert.Equal(t, int64(40), p.BasePrice)
	assert.Equal(t, RarityNormal, p.Rarity)
	assert.Equal(t, 30, p.MaxQuantity)
	assert.Equal(t, "Test cargo.", p.Info)
	assert.Equal(t, 0.5, p.Trends.At(49))

	idx, ok := c.Index("NFX")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "TRI", c.Products()[0].ID)
}

func TestParse_UnknownRarityDefaultsToCommon(t *testing.T) {
	t.Parallel()

	rec := productJSON("TRI")
	rec["itemRarity"] = "Legendary"

	c, err := Parse(encodeProducts(t, rec))
	require.NoError(t, err)

	p, ok := c.FindByID("TRI")
	require.True(t, ok)
	assert.Equal(t, RarityCommon, p.Rarity)
}

func TestParse_MissingField(t *testing.T) {
	t.Parallel()

	fields := []string{
		"id", "name", "volume", "basePrice", "playerImpact", "minPrice", "maxPrice",
		"trends", "itemRarity", "stackReplenishment", "sellStackRatio", "maxQuantity", "productInfo",
	}
	for _, field := range fields {
		field := field
		t.Run(field, func(t *testing.T) {
			t.Parallel()

			rec := productJSON("TRI")
			delete(rec, field)

			_, err := Parse(encodeProducts(t, rec))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
			assert.ErrorIs(t, err, ErrMissingField)

			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, field, fe.Field)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(map[string]any)
		want   error
	}{
		{"short trend", func(r map[string]any) { r["trends"] = flatTrend(0.5)[:49] }, ErrTrendLength},
		{"empty trend", func(r map[string]any) { r["trends"] = []float64{} }, ErrTrendLength},
		{"zero max quantity", func(r map[string]any) { r["maxQuantity"] = 0 }, ErrOutOfRange},
		{"min above max", func(r map[string]any) { r["minPrice"] = 2.0 }, ErrOutOfRange},
		{"negative volume", func(r map[string]any) { r["volume"] = -1 }, ErrOutOfRange},
		{"negative sell ratio", func(r map[string]any) { r["sellStackRatio"] = -0.1 }, ErrOutOfRange},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := productJSON("TRI")
			tt.mutate(rec)

			_, err := Parse(encodeProducts(t, rec))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_DuplicateID(t *testing.T) {
	t.Parallel()

	_, err := Parse(encodeProducts(t, productJSON("TRI"), productJSON("TRI")))
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{"products": [`))
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	_, err = Parse([]byte(`{"items": []}`))
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ProductsFile)
	require.NoError(t, os.WriteFile(path, encodeProducts(t, productJSON("TRI")), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, ErrInvalidCatalog)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_SampleData(t *testing.T) {
	t.Parallel()

	c, err := Load(filepath.Join("..", "..", "data", ProductsFile))
	require.NoError(t, err)
	assert.Positive(t, c.Len())

	_, ok := c.FindByID("TRI")
	assert.True(t, ok, "sample catalog should contain TRI")
}

func TestFindByID_Unknown(t *testing.T) {
	t.Parallel()

	c, err := New(nil)
	require.NoError(t, err)

	p, ok := c.FindByID("XYZ")
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestRarity_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Common", RarityCommon.String())
	assert.Equal(t, "Normal", RarityNormal.String())
	assert.Equal(t, "Rare", RarityRare.String())
	assert.Equal(t, "Unknown", Rarity(9).String())

	r, ok := ParseRarity("Rare")
	assert.True(t, ok)
	assert.Equal(t, RarityRare, r)
}
