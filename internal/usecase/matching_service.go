package usecase

import (
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/aims/backend/internal/domain"
)

// Classification matching scores
const (
	exactMatchScore       = 100.0 // Prediction and item name contain one another
	partialMatchThreshold = 30.0  // Word-overlap score must exceed this to survive
)

// Detection matching points
const (
	skuMatchPoints          = 50 // Item SKU appears in OCR text
	barcodeMatchPoints      = 50 // Item barcode appears in OCR text
	nameWordMatchPoints     = 10 // Per qualifying name word found in OCR text
	minNameWordRunes        = 4  // Name words shorter than this are ignored
	detectionMatchThreshold = 30 // Best score must exceed this for is_matched
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	EnableDebugLogging bool
}

// MatchingService reconciles raw model output against a caller-supplied inventory
type MatchingService struct {
	enableDebugLogging bool
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	return &MatchingService{
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// MatchClassification ranks the inventory items whose names agree with the
// predicted class. Items matching neither the substring rule nor the
// word-overlap rule are left out. The inventory is never modified.
func (s *MatchingService) MatchClassification(
	prediction *domain.ClassificationPrediction,
	inventory []domain.InventoryItem,
) *domain.MatchResult {
	result := &domain.MatchResult{
		Prediction:   prediction,
		MatchedItems: []domain.ClassificationMatch{},
	}
	if prediction == nil {
		return result
	}

	predicted := normalizeLabel(prediction.PredictedClass)

	if s.enableDebugLogging {
		log.Printf("[MATCH] Classification %q (normalized %q) against %d items",
			prediction.PredictedClass, predicted, len(inventory))
	}

	for _, item := range inventory {
		itemName := strings.ToLower(item.Name())

		matchType, score, ok := scoreClassification(predicted, itemName)

		if s.enableDebugLogging {
			log.Printf("[MATCH] Item: %q | Type: %s | Score: %.1f", itemName, matchType, score)
		}

		if !ok {
			continue
		}

		result.MatchedItems = append(result.MatchedItems, domain.ClassificationMatch{
			Item:           item.Clone(),
			MatchType:      matchType,
			MatchScore:     score,
			PredictedClass: prediction.PredictedClass,
			Confidence:     prediction.Confidence,
		})
	}

	// Stable so equal scores keep inventory order
	sort.SliceStable(result.MatchedItems, func(i, j int) bool {
		return result.MatchedItems[i].MatchScore > result.MatchedItems[j].MatchScore
	})

	result.TotalMatches = len(result.MatchedItems)
	if result.TotalMatches > 0 {
		best := result.MatchedItems[0]
		result.BestMatch = &best
	}

	return result
}

// MatchDetections pairs every detection with the inventory item whose SKU,
// barcode or name words best appear in the detection's OCR text. Every
// detection is returned, matched or not.
func (s *MatchingService) MatchDetections(
	detections []domain.Detection,
	inventory []domain.InventoryItem,
) []domain.DetectionMatch {
	matched := make([]domain.DetectionMatch, 0, len(detections))

	for _, detection := range detections {
		text := strings.ToLower(detection.DetectedText)

		var bestItem domain.InventoryItem
		bestScore := 0

		for _, item := range inventory {
			score := scoreDetection(text, item)

			// Strictly greater: the first item to reach a score keeps it
			if score > bestScore {
				bestScore = score
				bestItem = item
			}
		}

		if s.enableDebugLogging {
			log.Printf("[MATCH] Detection %d text %q | Best: %q | Score: %d",
				detection.ID, detection.DetectedText, bestItem.Name(), bestScore)
		}

		matched = append(matched, domain.DetectionMatch{
			Detection:        detection,
			MatchedInventory: bestItem.Clone(),
			MatchConfidence:  bestScore,
			IsMatched:        bestScore > detectionMatchThreshold,
		})
	}

	return matched
}

// scoreClassification applies the substring rule, then the word-overlap rule.
// It reports whether the item survives. An empty name is a substring of any
// prediction, so nameless items always match exactly.
func scoreClassification(predicted, itemName string) (string, float64, bool) {
	if strings.Contains(itemName, predicted) || strings.Contains(predicted, itemName) {
		return domain.MatchTypeNameExact, exactMatchScore, true
	}

	predWords := wordSet(predicted)
	itemWords := wordSet(itemName)

	common := 0
	for word := range predWords {
		if itemWords[word] {
			common++
		}
	}
	if common == 0 {
		return "", 0, false
	}

	score := float64(common) / float64(max(len(predWords), len(itemWords))) * 100
	if score > partialMatchThreshold {
		return domain.MatchTypeNamePartial, score, true
	}

	return "", score, false
}

// scoreDetection sums the SKU, barcode and name-word points for one item.
// text must already be lowercased.
func scoreDetection(text string, item domain.InventoryItem) int {
	score := 0

	if sku := strings.ToLower(item.SKU()); sku != "" && strings.Contains(text, sku) {
		score += skuMatchPoints
	}

	if barcode := strings.ToLower(item.Barcode()); barcode != "" && strings.Contains(text, barcode) {
		score += barcodeMatchPoints
	}

	// Each occurrence of a repeated word scores again
	for _, word := range strings.Fields(strings.ToLower(item.Name())) {
		if utf8.RuneCountInString(word) >= minNameWordRunes && strings.Contains(text, word) {
			score += nameWordMatchPoints
		}
	}

	return score
}

// normalizeLabel lowercases a class label and turns hyphens into spaces
func normalizeLabel(label string) string {
	return strings.ReplaceAll(strings.ToLower(label), "-", " ")
}

// wordSet splits s on whitespace into a set of words
func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(s) {
		set[word] = true
	}
	return set
}
