package domain

import "time"

// SalesItem is the loosely-typed record fed to the sales-units regressor.
// Nil fields fall back to the documented defaults during feature assembly.
type SalesItem struct {
	SKU             string   `json:"sku,omitempty"`
	Name            string   `json:"name,omitempty"`
	CurrentStock    *float64 `json:"currentStock,omitempty"`
	UnitsOrdered    *float64 `json:"unitsOrdered,omitempty"`
	DemandForecast  *float64 `json:"demandForecast,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	IsHoliday       *bool    `json:"isHoliday,omitempty"`
	CompetitorPrice *float64 `json:"competitorPrice,omitempty"`
	ProductID       *string  `json:"productId,omitempty"`
	Category        *string  `json:"category,omitempty"`
	Seasonality     *string  `json:"seasonality,omitempty"`
}

// SalesPrediction is the regressor output for one item plus the derived restocking fields
type SalesPrediction struct {
	SKU               string  `json:"sku"`
	Name              string  `json:"name"`
	PredictedSales    float64 `json:"predictedSales"`
	CurrentStock      float64 `json:"currentStock"`
	DaysUntilStockout int     `json:"daysUntilStockout"`
	RecommendedOrder  int     `json:"recommendedOrder"`
	Error             string  `json:"error,omitempty"`
}

// ModelInfo describes the loaded regression model
type ModelInfo struct {
	Loaded    bool     `json:"loaded"`
	Type      string   `json:"type"`
	ModelPath string   `json:"model_path"`
	Features  []string `json:"features,omitempty"`
	NFeatures int      `json:"n_features"`
}

// SalesForecast is the response to a raw feature-vector prediction
type SalesForecast struct {
	Prediction float64   `json:"prediction"`
	Timestamp  time.Time `json:"timestamp"`
}

// InventoryForecast is the response to a batch of inventory items
type InventoryForecast struct {
	Predictions []SalesPrediction `json:"predictions"`
	Timestamp   time.Time         `json:"timestamp"`
}
