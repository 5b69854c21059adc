package usecase

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aims/backend/internal/domain"
)

// MinCustomTrainingImages is the image count needed before a custom model is worth training
const MinCustomTrainingImages = 100

var trainingImageExtensions = []string{".jpg", ".jpeg", ".png"}

// TrainingInfo counts the labelled images in dir. A missing directory counts as empty.
func TrainingInfo(dir, modelType string) (*domain.TrainingInfo, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve training dir: %w", err)
	}

	entries, err := os.ReadDir(absDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read training dir: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		for _, ext := range trainingImageExtensions {
			if strings.HasSuffix(name, ext) {
				count++
				break
			}
		}
	}

	return &domain.TrainingInfo{
		TrainingImagesCount: count,
		TrainingDataPath:    absDir,
		ModelType:           modelType,
		CanTrainCustom:      count >= MinCustomTrainingImages,
		Message:             fmt.Sprintf("Add images to %s to train a custom model", absDir),
	}, nil
}
