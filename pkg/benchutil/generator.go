// Package benchutil provides synthetic vendor inventory data for benchmarks
// and testing.
package benchutil

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

// Raw table file names written by WriteRawTables.
const (
	PurchasesFile      = "purchases.csv"
	PurchasePricesFile = "purchase_prices.csv"
	SalesFile          = "sales.csv"
	VendorInvoiceFile  = "vendor_invoice.csv"
)

// GeneratorConfig configures synthetic data generation.
type GeneratorConfig struct {
	// Vendors is the number of distinct vendors.
	Vendors int
	// BrandsPerVendor is the number of brands each vendor may carry.
	BrandsPerVendor int
	// PurchaseRows is the number of purchase line items.
	PurchaseRows int
	// SalesRows is the number of sales line items.
	SalesRows int
	// UnknownVolumeRate is the fraction of price rows whose Volume is text
	// that does not parse as a number.
	UnknownVolumeRate float64
	// Seed for reproducible generation. 0 = use default seed.
	Seed int64
}

// DefaultConfig returns a reasonable default configuration.
func DefaultConfig(purchaseRows int) GeneratorConfig {
	return GeneratorConfig{
		Vendors:           50,
		BrandsPerVendor:   40,
		PurchaseRows:      purchaseRows,
		SalesRows:         purchaseRows * 2,
		UnknownVolumeRate: 0.02,
		Seed:              BenchmarkSeed,
	}
}

// Dataset describes a generated set of raw tables.
type Dataset struct {
	Dir string
	// Rows maps each file name to its data row count.
	Rows map[string]int
	// Groups is the number of distinct (vendor, brand) purchase groups,
	// which is the expected summary row count.
	Groups int
}

// WriteRawTables writes purchases, purchase_prices, sales and vendor_invoice
// CSV files into dir.
func WriteRawTables(dir string, cfg GeneratorConfig) (Dataset, error) {
	if cfg.Vendors <= 0 || cfg.BrandsPerVendor <= 0 {
		return Dataset{}, fmt.Errorf("vendors and brands per vendor must be positive")
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = BenchmarkSeed
	}
	rng := rand.New(rand.NewSource(seed))

	ds := Dataset{Dir: dir, Rows: make(map[string]int)}
	groups := make(map[[2]int]struct{})

	pick := func() (vendor, brand int) {
		vendor = rng.Intn(cfg.Vendors) + 1
		brand = vendor*1000 + rng.Intn(cfg.BrandsPerVendor)
		return vendor, brand
	}

	err := writeCSV(filepath.Join(dir, PurchasesFile),
		"VendorNumber,VendorName,Brand,Description,PurchasePrice,Quantity,Dollars",
		cfg.PurchaseRows, func(w *bufio.Writer) {
			v, b := pick()
			groups[[2]int{v, b}] = struct{}{}
			price := purchasePrice(b)
			qty := rng.Intn(48) + 1
			fmt.Fprintf(w, "%d,%s,%d,Item %d,%.2f,%d,%.2f\n",
				v, vendorName(v), b, b, price, qty, price*float64(qty))
		})
	if err != nil {
		return Dataset{}, err
	}
	ds.Rows[PurchasesFile] = cfg.PurchaseRows
	ds.Groups = len(groups)

	priceRows := cfg.Vendors * cfg.BrandsPerVendor
	brandIdx := 0
	err = writeCSV(filepath.Join(dir, PurchasePricesFile),
		"Brand,Description,Price,Volume,VendorNumber",
		priceRows, func(w *bufio.Writer) {
			v := brandIdx/cfg.BrandsPerVendor + 1
			b := v*1000 + brandIdx%cfg.BrandsPerVendor
			brandIdx++
			volume := "750"
			if rng.Float64() < cfg.UnknownVolumeRate {
				volume = "Unknown"
			}
			fmt.Fprintf(w, "%d,Item %d,%.2f,%s,%d\n", b, b, purchasePrice(b)*1.5, volume, v)
		})
	if err != nil {
		return Dataset{}, err
	}
	ds.Rows[PurchasePricesFile] = priceRows

	err = writeCSV(filepath.Join(dir, SalesFile),
		"VendorNo,Brand,SalesQuantity,SalesDollars,SalesPrice,ExciseTax",
		cfg.SalesRows, func(w *bufio.Writer) {
			v, b := pick()
			qty := rng.Intn(12) + 1
			price := purchasePrice(b) * 1.5
			fmt.Fprintf(w, "%d,%d,%d,%.2f,%.2f,%.2f\n",
				v, b, qty, price*float64(qty), price, float64(qty)*0.79)
		})
	if err != nil {
		return Dataset{}, err
	}
	ds.Rows[SalesFile] = cfg.SalesRows

	vendor := 0
	err = writeCSV(filepath.Join(dir, VendorInvoiceFile),
		"VendorNumber,VendorName,Quantity,Dollars,Freight",
		cfg.Vendors, func(w *bufio.Writer) {
			vendor++
			fmt.Fprintf(w, "%d,%s,%d,%.2f,%.2f\n",
				vendor, vendorName(vendor), rng.Intn(1000), rng.Float64()*10000, rng.Float64()*500)
		})
	if err != nil {
		return Dataset{}, err
	}
	ds.Rows[VendorInvoiceFile] = cfg.Vendors

	return ds, nil
}

// vendorName pads every fifth name with trailing spaces, as seen in raw
// vendor exports.
func vendorName(v int) string {
	if v%5 == 0 {
		return fmt.Sprintf("VENDOR %d   ", v)
	}
	return fmt.Sprintf("VENDOR %d", v)
}

func purchasePrice(brand int) float64 {
	return float64(brand%97+3) + 0.99
}

func writeCSV(path, header string, rows int, row func(w *bufio.Writer)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	w := bufio.NewWriterSize(f, 1<<16)
	w.WriteString(header)
	w.WriteByte('\n')
	for range rows {
		row(w)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
