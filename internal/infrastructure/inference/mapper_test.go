package inference

import (
	"testing"

	"github.com/aims/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapClassification(t *testing.T) {
	t.Run("ranks and trims to top K", func(t *testing.T) {
		raw := &classifyResponse{Predictions: []rawClass{
			{ClassID: 0, ClassName: "Apple", Confidence: 0.05},
			{ClassID: 1, ClassName: "Banana", Confidence: 0.60},
			{ClassID: 2, ClassName: "Cherry", Confidence: 0.25},
			{ClassID: 3, ClassName: "Date", Confidence: 0.10},
		}}

		prediction, err := MapClassification(raw, 2)

		require.NoError(t, err)
		assert.Equal(t, "Banana", prediction.PredictedClass)
		assert.Equal(t, 0.60, prediction.Confidence)
		require.Len(t, prediction.TopPredictions, 2)
		assert.Equal(t, "Cherry", prediction.TopPredictions[1].ClassName)
		assert.Equal(t, 2, prediction.TopPredictions[1].ClassID)
		assert.Equal(t, "25.00%", prediction.TopPredictions[1].ConfidencePct)
	})

	t.Run("does not reorder the raw payload", func(t *testing.T) {
		raw := &classifyResponse{Predictions: []rawClass{
			{ClassName: "Low", Confidence: 0.1},
			{ClassName: "High", Confidence: 0.9},
		}}

		_, err := MapClassification(raw, 5)

		require.NoError(t, err)
		assert.Equal(t, "Low", raw.Predictions[0].ClassName)
	})

	t.Run("empty payload is an inference failure", func(t *testing.T) {
		_, err := MapClassification(&classifyResponse{}, 5)
		assert.ErrorIs(t, err, domain.ErrInferenceFailure)

		_, err = MapClassification(nil, 5)
		assert.ErrorIs(t, err, domain.ErrInferenceFailure)
	})
}

func TestMapDetections(t *testing.T) {
	raw := &detectResponse{Detections: []rawDetection{
		{BBox: []float64{0, 0, 10, 10}, Confidence: 0.1, Class: "weak"},
		{
			BBox:       []float64{5.9, 6.1, 50.5, 60.99},
			Confidence: 0.8,
			Class:      "box",
			OCR: []rawOCR{
				{Text: "ITEM 42", Confidence: 0.9, BBox: [][]float64{{1, 1}, {9, 1}, {9, 4}, {1, 4}}},
				{Text: "Cereal", Confidence: 0.7},
			},
		},
		{BBox: []float64{1, 2, 3}, Confidence: 0.9, Class: "malformed"},
		{BBox: []float64{1, 2, 3, 4}, Confidence: 0.3, Class: "bottle"},
	}}

	detections := MapDetections(raw, 0.25)

	require.Len(t, detections, 2)

	first := detections[0]
	assert.Equal(t, 0, first.ID)
	assert.Equal(t, [4]int{5, 6, 50, 60}, first.BBox)
	assert.Equal(t, "box", first.Class)
	assert.Equal(t, "ITEM 42 Cereal", first.DetectedText)
	require.Len(t, first.OCRDetails, 2)
	assert.Len(t, first.OCRDetails[0].BBox, 4)

	second := detections[1]
	assert.Equal(t, 1, second.ID)
	assert.Equal(t, "", second.DetectedText)
	assert.NotNil(t, second.OCRDetails)
}

func TestMapDetections_Nil(t *testing.T) {
	detections := MapDetections(nil, 0.5)
	assert.NotNil(t, detections)
	assert.Empty(t, detections)
}

func TestFormatConfidencePct(t *testing.T) {
	assert.Equal(t, "92.00%", FormatConfidencePct(0.92))
	assert.Equal(t, "0.00%", FormatConfidencePct(0))
	assert.Equal(t, "100.00%", FormatConfidencePct(1))
}
