package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrNoFile is returned when an upload request carries no image file
	ErrNoFile = errors.New("no file provided")

	// ErrUnsupportedFile is returned when the uploaded file extension is not an allowed image type
	ErrUnsupportedFile = errors.New("invalid file type")

	// ErrFileTooLarge is returned when the uploaded file exceeds the configured size limit
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")

	// ErrModelNotLoaded is returned when a model handle is missing or was closed
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrInferenceFailure is returned when the model runtime request fails
	ErrInferenceFailure = errors.New("model runtime request failed")

	// ErrFeatureMismatch is returned when a feature vector does not fit the model input
	ErrFeatureMismatch = errors.New("feature vector length does not match model input")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
