// Command gentrends generates 50-point looping trend curves from simplex
// noise for authoring product catalogs.
//
// Usage:
//
//	gentrends -seed 7 -count 3                        # print 3 curves as JSON arrays
//	gentrends -catalog data/item_products.json > out  # replace every product's trends
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ndrandal/market-sim/go-market/internal/catalog"
)

func main() {
	seed := flag.Int64("seed", 1, "Noise seed; curve i uses seed+i")
	count := flag.Int("count", 1, "Number of curves to print")
	octaves := flag.Int("octaves", catalog.DefaultTrendOptions().Octaves, "Noise octaves")
	radius := flag.Float64("radius", catalog.DefaultTrendOptions().Radius, "Sampling circle radius (larger = busier)")
	persistence := flag.Float64("persistence", catalog.DefaultTrendOptions().Persistence, "Amplitude falloff per octave")
	noStretch := flag.Bool("no-stretch", false, "Keep raw noise range instead of spanning [0, 1]")
	catalogPath := flag.String("catalog", "", "Product catalog whose trends are replaced; written to stdout")
	flag.Parse()

	opts := catalog.TrendOptions{
		Octaves:     *octaves,
		Radius:      *radius,
		Persistence: *persistence,
		Stretch:     !*noStretch,
	}

	var err error
	if *catalogPath != "" {
		err = rewriteCatalog(os.Stdout, *catalogPath, *seed, opts)
	} else {
		err = printCurves(os.Stdout, *seed, *count, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "gentrends: %v\n", err)
		os.Exit(1)
	}
}

func curve(seed int64, opts catalog.TrendOptions) []float64 {
	values := catalog.GenerateTrend(seed, opts).Values()
	for i, v := range values {
		values[i] = math.Round(v*1000) / 1000
	}
	return values
}

func printCurves(w io.Writer, seed int64, count int, opts catalog.TrendOptions) error {
	out := make([][]float64, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, curve(seed+int64(i), opts))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// rewriteCatalog replaces the trends of every product in the catalog file,
// keeping the other fields, and validates the result.
func rewriteCatalog(w io.Writer, path string, seed int64, opts catalog.TrendOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	products, ok := doc["products"].([]any)
	if !ok {
		return fmt.Errorf("%s: no products array", path)
	}
	for i, p := range products {
		rec, ok := p.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: product #%d is not an object", path, i)
		}
		rec["trends"] = curve(seed+int64(i), opts)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if _, err := catalog.Parse(out); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
