package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainingInfo(t *testing.T) {
	t.Run("counts image files only", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "notes.txt", "d.webp"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
		}
		require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.jpg"), 0o755))

		info, err := TrainingInfo(dir, "detection")

		require.NoError(t, err)
		assert.Equal(t, 3, info.TrainingImagesCount)
		assert.Equal(t, dir, info.TrainingDataPath)
		assert.Equal(t, "detection", info.ModelType)
		assert.False(t, info.CanTrainCustom)
	})

	t.Run("enough images to train", func(t *testing.T) {
		dir := t.TempDir()
		for i := 0; i < MinCustomTrainingImages; i++ {
			require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("img%03d.png", i)), []byte("x"), 0o644))
		}

		info, err := TrainingInfo(dir, "classification")

		require.NoError(t, err)
		assert.True(t, info.CanTrainCustom)
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		info, err := TrainingInfo(filepath.Join(t.TempDir(), "missing"), "detection")

		require.NoError(t, err)
		assert.Zero(t, info.TrainingImagesCount)
	})
}
