package domain

import "encoding/json"

// Match types reported by the classification matcher
const (
	MatchTypeNameExact   = "name_exact"
	MatchTypeNamePartial = "name_partial"
)

// ClassificationMatch is an inventory item that survived the classification
// matcher. It serializes as the item's own fields merged with the match metadata.
type ClassificationMatch struct {
	Item           InventoryItem
	MatchType      string
	MatchScore     float64 // (30, 100]
	PredictedClass string
	Confidence     float64
}

// MarshalJSON flattens the item fields and the match metadata into one object
func (m ClassificationMatch) MarshalJSON() ([]byte, error) {
	merged := m.Item.Clone()
	if merged == nil {
		merged = InventoryItem{}
	}
	merged["match_type"] = m.MatchType
	merged["match_score"] = m.MatchScore
	merged["predicted_class"] = m.PredictedClass
	merged["confidence"] = m.Confidence
	return json.Marshal(map[string]any(merged))
}

// MatchResult is the ranked outcome of matching one classification against an inventory
type MatchResult struct {
	Prediction   *ClassificationPrediction `json:"prediction,omitempty"`
	MatchedItems []ClassificationMatch     `json:"matched_items"`
	BestMatch    *ClassificationMatch      `json:"best_match"`
	TotalMatches int                       `json:"total_matches"`
}

// DetectionMatch is a detection annotated with its best inventory candidate
type DetectionMatch struct {
	Detection
	MatchedInventory InventoryItem `json:"matched_inventory"`
	MatchConfidence  int           `json:"match_confidence"`
	IsMatched        bool          `json:"is_matched"`
}
