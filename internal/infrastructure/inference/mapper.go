package inference

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aims/backend/internal/domain"
)

// classifyResponse is the model runtime's classification payload
type classifyResponse struct {
	Predictions []rawClass `json:"predictions"`
}

type rawClass struct {
	ClassID    int     `json:"class_id"`
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
}

// detectResponse is the model runtime's detection payload
type detectResponse struct {
	Detections []rawDetection `json:"detections"`
}

type rawDetection struct {
	BBox       []float64 `json:"bbox"` // x1, y1, x2, y2
	Confidence float64   `json:"confidence"`
	Class      string    `json:"class"`
	OCR        []rawOCR  `json:"ocr"`
}

type rawOCR struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	BBox       [][]float64 `json:"bbox"`
}

// MapClassification converts the runtime's class scores into a ranked prediction
// keeping at most topK entries. The best entry becomes the predicted class.
func MapClassification(raw *classifyResponse, topK int) (*domain.ClassificationPrediction, error) {
	if raw == nil || len(raw.Predictions) == 0 {
		return nil, fmt.Errorf("%w: empty classification", domain.ErrInferenceFailure)
	}

	ranked := make([]rawClass, len(raw.Predictions))
	copy(ranked, raw.Predictions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	top := make([]domain.ClassPrediction, 0, len(ranked))
	for _, r := range ranked {
		top = append(top, domain.ClassPrediction{
			ClassID:       r.ClassID,
			ClassName:     r.ClassName,
			Confidence:    r.Confidence,
			ConfidencePct: FormatConfidencePct(r.Confidence),
		})
	}

	return &domain.ClassificationPrediction{
		PredictedClass: top[0].ClassName,
		Confidence:     top[0].Confidence,
		TopPredictions: top,
	}, nil
}

// MapDetections converts runtime boxes into detections, dropping boxes below
// threshold and joining each region's OCR strings into detected_text.
// Detection IDs are assigned in output order.
func MapDetections(raw *detectResponse, threshold float64) []domain.Detection {
	detections := []domain.Detection{}
	if raw == nil {
		return detections
	}

	for _, d := range raw.Detections {
		if d.Confidence < threshold || len(d.BBox) != 4 {
			continue
		}

		texts := make([]string, 0, len(d.OCR))
		details := make([]domain.OCRDetail, 0, len(d.OCR))
		for _, o := range d.OCR {
			texts = append(texts, o.Text)
			details = append(details, domain.OCRDetail{
				Text:       o.Text,
				Confidence: o.Confidence,
				BBox:       o.BBox,
			})
		}

		detections = append(detections, domain.Detection{
			ID: len(detections),
			// Truncate toward zero like the runtime's integer crop coordinates
			BBox:         [4]int{int(d.BBox[0]), int(d.BBox[1]), int(d.BBox[2]), int(d.BBox[3])},
			Confidence:   d.Confidence,
			Class:        d.Class,
			DetectedText: strings.Join(texts, " "),
			OCRDetails:   details,
		})
	}

	return detections
}

// FormatConfidencePct renders a 0-1 confidence as a percentage with two decimals
func FormatConfidencePct(confidence float64) string {
	return fmt.Sprintf("%.2f%%", confidence*100)
}
