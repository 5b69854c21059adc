package usecase

import (
	"fmt"
	"math"

	"github.com/aims/backend/internal/domain"
)

// FeatureCount is the length of every assembled feature vector
const FeatureCount = 32

// Defaults applied when a sales item omits a field
const (
	defaultCurrentStock    = 50.0
	defaultUnitsOrdered    = 20.0
	defaultDemandForecast  = 100.0
	defaultPrice           = 25.0
	competitorPriceFactor  = 1.1
	defaultProductID       = "P0001"
	defaultCategory        = "Electronics"
	defaultSeasonality     = "Fall"
	weeklyToDaily          = 7.0
	minDailySales          = 0.1
	firstEncodedProductNum = 2
	lastEncodedProductNum  = 20
)

// Slot offsets inside the feature vector
const (
	productOffset  = 6
	categoryOffset = 25
	seasonOffset   = 29
)

// Category and season columns in training order. Categories missing here and
// the Fall season are the all-zero baseline.
var (
	featureCategories = []string{"Electronics", "Furniture", "Groceries", "Toys"}
	featureSeasons    = []string{"Spring", "Summer", "Winter"}
)

// FeatureNames returns the 32 column names the regressor was trained on
func FeatureNames() []string {
	names := []string{
		"Inventory Level",
		"Units Ordered",
		"Demand Forecast",
		"Price",
		"Holiday/Promotion",
		"Competitor Pricing",
	}
	for n := firstEncodedProductNum; n <= lastEncodedProductNum; n++ {
		names = append(names, fmt.Sprintf("Product ID_P%04d", n))
	}
	for _, c := range featureCategories {
		names = append(names, "Category_"+c)
	}
	for _, s := range featureSeasons {
		names = append(names, "Seasonality_"+s)
	}
	return names
}

// AssembleFeatures maps a sales item to the fixed 32-slot vector consumed by the regressor
func AssembleFeatures(item domain.SalesItem) []float64 {
	features := make([]float64, FeatureCount)

	price := floatOr(item.Price, defaultPrice)

	features[0] = floatOr(item.CurrentStock, defaultCurrentStock)
	features[1] = floatOr(item.UnitsOrdered, defaultUnitsOrdered)
	features[2] = floatOr(item.DemandForecast, defaultDemandForecast)
	features[3] = price
	if item.IsHoliday != nil && *item.IsHoliday {
		features[4] = 1
	}
	features[5] = floatOr(item.CompetitorPrice, price*competitorPriceFactor)

	if idx, ok := productIndex(stringOr(item.ProductID, defaultProductID)); ok {
		features[productOffset+idx] = 1
	}

	category := stringOr(item.Category, defaultCategory)
	for i, c := range featureCategories {
		if category == c {
			features[categoryOffset+i] = 1
		}
	}

	season := stringOr(item.Seasonality, defaultSeasonality)
	for i, s := range featureSeasons {
		if season == s {
			features[seasonOffset+i] = 1
		}
	}

	return features
}

// DaysUntilStockout converts a weekly sales prediction into days of remaining stock
func DaysUntilStockout(currentStock, predictedSales float64) int {
	dailySales := math.Max(predictedSales/weeklyToDaily, minDailySales)
	return clampToInt(math.Floor(currentStock / dailySales))
}

// RecommendedOrder is the shortfall between forecast demand and stock, never negative
func RecommendedOrder(demandForecast, currentStock float64) int {
	return max(0, clampToInt(demandForecast-currentStock))
}

// clampToInt truncates v toward zero, saturating at the int range. NaN maps to 0.
func clampToInt(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt:
		return math.MaxInt
	case v <= math.MinInt:
		return math.MinInt
	}
	return int(v)
}

// productIndex maps P0002..P0020 to one-hot slots 0..18. Only the exact
// zero-padded form is recognized.
func productIndex(productID string) (int, bool) {
	for n := firstEncodedProductNum; n <= lastEncodedProductNum; n++ {
		if productID == fmt.Sprintf("P%04d", n) {
			return n - firstEncodedProductNum, true
		}
	}
	return 0, false
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
