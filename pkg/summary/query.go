// Package summary derives the vendor/brand performance table from the raw
// purchase, sales and freight tables.
package summary

import (
	"context"

	"github.com/eunmann/vendor-summary-db/internal/logctx"
	"github.com/eunmann/vendor-summary-db/pkg/rowset"
	"github.com/eunmann/vendor-summary-db/pkg/store"
)

// Column names of the summary row.
const (
	ColVendorNumber          = "VendorNumber"
	ColVendorName            = "VendorName"
	ColBrand                 = "Brand"
	ColPurchasePrice         = "PurchasePrice"
	ColVolume                = "Volume"
	ColActualPrice           = "ActualPrice"
	ColTotalPurchaseQuantity = "TotalPurchaseQuantity"
	ColTotalPurchaseDollars  = "TotalPurchaseDollars"
	ColTotalSalesDollars     = "TotalSalesDollars"
	ColTotalSalesQuantity    = "TotalSalesQuantity"
	ColTotalExciseTax        = "TotalExciseTax"
	ColFreightCost           = "FreightCost"

	ColGrossProfit          = "GrossProfit"
	ColProfitMargin         = "ProfitMargin"
	ColStockTurnover        = "StockTurnover"
	ColSalesToPurchaseRatio = "SalesToPurchaseRatio"
)

// VendorSalesQuery aggregates each source table to one row per join key
// before joining, so no join can multiply rows. Every (VendorNumber,
// VendorName, Brand) purchase group appears once; sales, freight and price
// columns are NULL where no match exists.
const VendorSalesQuery = `
WITH FreightSummary AS (
    SELECT VendorNumber,
           SUM(Freight) AS FreightCost
    FROM vendor_invoice
    GROUP BY VendorNumber
),

PriceReference AS (
    SELECT Brand,
           MAX(Volume) AS Volume,
           MAX(Price) AS Price
    FROM purchase_prices
    GROUP BY Brand
),

PurchaseSummary AS (
    SELECT p.VendorNumber,
           p.VendorName,
           p.Brand,
           MAX(p.PurchasePrice) AS PurchasePrice,
           MAX(pp.Volume) AS Volume,
           MAX(pp.Price) AS ActualPrice,
           SUM(p.Quantity) AS TotalPurchaseQuantity,
           SUM(p.Dollars) AS TotalPurchaseDollars
    FROM purchases p
    LEFT JOIN PriceReference pp
        ON p.Brand = pp.Brand
    GROUP BY p.VendorNumber, p.VendorName, p.Brand
),

SalesSummary AS (
    SELECT VendorNo,
           Brand,
           SUM(SalesDollars) AS TotalSalesDollars,
           SUM(SalesQuantity) AS TotalSalesQuantity,
           SUM(ExciseTax) AS TotalExciseTax
    FROM sales
    GROUP BY VendorNo, Brand
)

SELECT ps.VendorNumber,
       ps.VendorName,
       ps.Brand,
       ps.PurchasePrice,
       ps.Volume,
       ps.ActualPrice,
       ps.TotalPurchaseQuantity,
       ps.TotalPurchaseDollars,
       ss.TotalSalesDollars,
       ss.TotalSalesQuantity,
       ss.TotalExciseTax,
       fs.FreightCost
FROM PurchaseSummary ps
LEFT JOIN SalesSummary ss
    ON ps.VendorNumber = ss.VendorNo
    AND ps.Brand = ss.Brand
LEFT JOIN FreightSummary fs
    ON ps.VendorNumber = fs.VendorNumber
ORDER BY ps.VendorNumber, ps.Brand, ps.VendorName
`

// Querier is the store capability the summary query needs.
type Querier interface {
	Query(ctx context.Context, query string) (*rowset.Set, error)
}

// TableWriter is the store capability the persister needs.
type TableWriter interface {
	WriteTable(ctx context.Context, name string, b *rowset.Set, mode store.Mode) error
}

// Store combines both capabilities.
type Store interface {
	Querier
	TableWriter
}

// Verify interface compliance at compile time.
var _ Store = (*store.DB)(nil)

// Summarize runs VendorSalesQuery. Errors are logged and returned unchanged.
func Summarize(ctx context.Context, q Querier) (*rowset.Set, error) {
	log := logctx.FromContext(ctx)

	rs, err := q.Query(ctx, VendorSalesQuery)
	if err != nil {
		log.Error().Err(err).Msg("query execution failed")
		return nil, err
	}

	log.Info().Int("rows", rs.Len()).Msg("vendor sales summary fetched")
	return rs, nil
}
