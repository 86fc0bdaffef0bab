package summary

import (
	"context"
	"math"

	"github.com/eunmann/vendor-summary-db/internal/logctx"
	"github.com/eunmann/vendor-summary-db/pkg/rowset"
)

// Engineer returns a copy of rs with four KPI columns appended:
//
//	GrossProfit          = TotalSalesDollars - TotalPurchaseDollars
//	ProfitMargin         = round(GrossProfit / TotalSalesDollars * 100, 2)
//	StockTurnover        = round(TotalSalesQuantity / TotalPurchaseQuantity, 4)
//	SalesToPurchaseRatio = round(TotalSalesDollars / TotalPurchaseDollars, 3)
//
// Each ratio is missing (nil) when its denominator is zero or missing. No KPI
// is ever NaN or infinite.
func Engineer(ctx context.Context, rs *rowset.Set) (*rowset.Set, error) {
	log := logctx.FromContext(ctx)
	log.Info().Int("rows", rs.Len()).Msg("starting feature engineering")

	out := rs.Clone()

	salesDollars, err := out.MustIndex(ColTotalSalesDollars)
	if err != nil {
		return nil, err
	}
	purchaseDollars, err := out.MustIndex(ColTotalPurchaseDollars)
	if err != nil {
		return nil, err
	}
	salesQty, err := out.MustIndex(ColTotalSalesQuantity)
	if err != nil {
		return nil, err
	}
	purchaseQty, err := out.MustIndex(ColTotalPurchaseQuantity)
	if err != nil {
		return nil, err
	}

	gp := out.AddColumn(ColGrossProfit)
	pm := out.AddColumn(ColProfitMargin)
	st := out.AddColumn(ColStockTurnover)
	spr := out.AddColumn(ColSalesToPurchaseRatio)

	missing := 0
	for _, row := range out.Rows {
		sales, salesOK := rowset.Float(row[salesDollars])
		purchases, purchasesOK := rowset.Float(row[purchaseDollars])

		var profit float64
		if salesOK && purchasesOK {
			profit = sales - purchases
			row[gp] = finite(profit)
		}

		if row[gp] != nil {
			row[pm] = ratio(profit, row[salesDollars], 100, 2)
		}
		row[st] = ratio2(row[salesQty], row[purchaseQty], 4)
		row[spr] = ratio2(row[salesDollars], row[purchaseDollars], 3)

		for _, c := range []int{pm, st, spr} {
			if row[c] == nil {
				missing++
			}
		}
	}

	log.Info().Int("missing_ratios", missing).Msg("feature engineering completed")
	return out, nil
}

// ratio2 divides two cells and rounds to places decimals.
func ratio2(num, den any, places int) any {
	n, ok := rowset.Float(num)
	if !ok {
		return nil
	}
	return ratio(n, den, 1, places)
}

// ratio returns round(num/den*scale, places), or nil when den is zero,
// missing or not numeric.
func ratio(num float64, den any, scale float64, places int) any {
	d, ok := rowset.Float(den)
	if !ok || d == 0 {
		return nil
	}
	return finite(Round(num/d*scale, places))
}

// finite maps NaN and infinities to a missing value.
func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// Round rounds half to even at the given number of decimal places.
func Round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(f*p) / p
}
