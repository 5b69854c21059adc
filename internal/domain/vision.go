package domain

import "time"

// Prediction modes
const (
	ModeClassification = "classification"
	ModeDetection      = "detection"
)

// ClassifyResponse is returned for a single classified image.
// Matched is nil when no inventory was supplied.
type ClassifyResponse struct {
	Success    bool                      `json:"success"`
	Mode       string                    `json:"mode"`
	Prediction *ClassificationPrediction `json:"prediction"`
	Matched    *MatchResult              `json:"matched"`
	ImageID    string                    `json:"image_id"`
	Timestamp  time.Time                 `json:"timestamp"`
}

// DetectResponse is returned for a single shelf image
type DetectResponse struct {
	Success         bool             `json:"success"`
	Mode            string           `json:"mode"`
	TotalDetections int              `json:"total_detections"`
	MatchedCount    int              `json:"matched_count"`
	Detections      []DetectionMatch `json:"detections"`
	MatchedProducts []DetectionMatch `json:"matched_products"`
	ImageID         string           `json:"image_id"`
	Timestamp       time.Time        `json:"timestamp"`
}

// BatchItemResult is the outcome for one file of a batch. Count fields are
// only set on success; Error only on failure.
type BatchItemResult struct {
	Filename        string           `json:"filename"`
	Success         bool             `json:"success"`
	TotalDetections *int             `json:"total_detections,omitempty"`
	MatchedCount    *int             `json:"matched_count,omitempty"`
	Detections      []DetectionMatch `json:"detections,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// BatchResponse is returned for a multi-file detection request
type BatchResponse struct {
	Success   bool              `json:"success"`
	Processed int               `json:"processed"`
	Results   []BatchItemResult `json:"results"`
}

// TrainingInfo reports the state of the local training image set
type TrainingInfo struct {
	TrainingImagesCount int    `json:"training_images_count"`
	TrainingDataPath    string `json:"training_data_path"`
	ModelType           string `json:"model_type"`
	CanTrainCustom      bool   `json:"can_train_custom"`
	Message             string `json:"message"`
}
