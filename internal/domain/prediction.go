package domain

// ClassPrediction is one entry of a classifier's ranked top-K output
type ClassPrediction struct {
	ClassID       int     `json:"class_id"`
	ClassName     string  `json:"class_name"`
	Confidence    float64 `json:"confidence"`
	ConfidencePct string  `json:"confidence_pct,omitempty"`
}

// ClassificationPrediction is the output of the image classifier for a single product image
type ClassificationPrediction struct {
	ImageID        string            `json:"image_id,omitempty"`
	PredictedClass string            `json:"predicted_class"`
	Confidence     float64           `json:"confidence"` // 0-1
	TopPredictions []ClassPrediction `json:"top_predictions"`
}

// OCRDetail is a single text region read inside a detection
type OCRDetail struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	BBox       [][]float64 `json:"bbox,omitempty"` // polygon corners
}

// Detection is one detected region with its OCR text
type Detection struct {
	ID           int         `json:"id"`
	BBox         [4]int      `json:"bbox"` // x1, y1, x2, y2 in pixels
	Confidence   float64     `json:"confidence"`
	Class        string      `json:"class"`
	DetectedText string      `json:"detected_text"`
	OCRDetails   []OCRDetail `json:"ocr_details"`
}

// ImageUpload is an uploaded image held in memory
type ImageUpload struct {
	Filename string
	Data     []byte
}
