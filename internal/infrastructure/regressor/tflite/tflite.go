// Package tflite runs a sales-units regressor exported as a TensorFlow Lite
// model with a single [1, N] float32 input and a scalar output.
package tflite

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"

	"github.com/aims/backend/internal/domain"
	"github.com/tphakala/go-tflite"
)

// Type identifies this backend in configuration
const Type = "tflite"

// Model wraps a TFLite interpreter. The interpreter is not safe for
// concurrent use so every call holds mu.
type Model struct {
	mu           sync.Mutex
	model        *tflite.Model
	interpreter  *tflite.Interpreter
	path         string
	nFeatures    int
	featureNames []string
}

// Load reads the model at path and allocates its tensors
func Load(path string, threads int, featureNames []string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}

	model := tflite.NewModel(data)
	if model == nil {
		return nil, fmt.Errorf("cannot load TensorFlow Lite model %s", path)
	}

	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(threads)
	options.SetErrorReporter(func(msg string, user_data any) {
		log.Printf("[TFLITE] %s", msg)
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		model.Delete()
		return nil, fmt.Errorf("cannot create interpreter")
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		model.Delete()
		return nil, fmt.Errorf("tensor allocation failed: %v", status)
	}

	input := interpreter.GetInputTensor(0)
	if input == nil {
		interpreter.Delete()
		model.Delete()
		return nil, fmt.Errorf("cannot get input tensor")
	}
	nFeatures := input.Dim(input.NumDims() - 1)

	if len(featureNames) > 0 && len(featureNames) != nFeatures {
		interpreter.Delete()
		model.Delete()
		return nil, fmt.Errorf("model expects %d features, %d names given", nFeatures, len(featureNames))
	}

	log.Printf("[TFLITE] Loaded %s with %d input features on %d threads", path, nFeatures, threads)

	return &Model{
		model:        model,
		interpreter:  interpreter,
		path:         path,
		nFeatures:    nFeatures,
		featureNames: append([]string(nil), featureNames...),
	}, nil
}

// Predict runs one inference
func (m *Model) Predict(ctx context.Context, features []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.interpreter == nil {
		return 0, domain.ErrModelNotLoaded
	}
	if len(features) != m.nFeatures {
		return 0, fmt.Errorf("%w: got %d, want %d", domain.ErrFeatureMismatch, len(features), m.nFeatures)
	}

	input := m.interpreter.GetInputTensor(0)
	if input == nil {
		return 0, fmt.Errorf("%w: cannot get input tensor", domain.ErrInferenceFailure)
	}
	buf := input.Float32s()
	for i, v := range features {
		buf[i] = float32(v)
	}

	if status := m.interpreter.Invoke(); status != tflite.OK {
		return 0, fmt.Errorf("%w: tensor invoke failed: %v", domain.ErrInferenceFailure, status)
	}

	out := m.interpreter.GetOutputTensor(0).Float32s()
	if len(out) == 0 {
		return 0, fmt.Errorf("%w: empty output tensor", domain.ErrInferenceFailure)
	}
	return float64(out[0]), nil
}

// Info describes the loaded model
func (m *Model) Info() domain.ModelInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	return domain.ModelInfo{
		Loaded:    m.interpreter != nil,
		Type:      "TFLite",
		ModelPath: m.path,
		Features:  append([]string(nil), m.featureNames...),
		NFeatures: m.nFeatures,
	}
}

// Close releases the interpreter and model
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.interpreter != nil {
		m.interpreter.Delete()
		m.interpreter = nil
	}
	if m.model != nil {
		m.model.Delete()
		m.model = nil
	}
	return nil
}
