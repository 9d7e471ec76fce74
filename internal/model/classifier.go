package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Classifier is a trained model that maps a feature vector to a class index.
type Classifier interface {
	// Format names the artifact type, e.g. "onnx" or "linear/logistic".
	Format() string
	// NumClasses returns K, or 0 if the artifact does not declare it.
	NumClasses() int
	Classify(features []float64) (int, error)
	Close() error
}

// ProbabilityEstimator is implemented by classifiers that can produce a
// class-probability vector. Not every classifier can.
type ProbabilityEstimator interface {
	PredictProba(features []float64) ([]float64, error)
}

// loaderFunc opens a classifier artifact.
type loaderFunc func(path string, o *options) (Classifier, error)

// loaders is keyed by lower-case file extension. It is read-only.
var loaders = map[string]loaderFunc{
	".onnx": loadONNX,
	".json": loadLinear,
	".yaml": loadLinear,
	".yml":  loadLinear,
}

func loaderFor(path string) (loaderFunc, error) {
	ext := strings.ToLower(filepath.Ext(path))
	fn, ok := loaders[ext]
	if !ok {
		return nil, fmt.Errorf("no loader for model format %q", ext)
	}
	return fn, nil
}

type options struct {
	onnxLibrary string
	numClasses  int
}

// Option configures Load.
type Option func(*options)

// WithONNXLibrary sets the onnxruntime shared library path.
func WithONNXLibrary(path string) Option {
	return func(o *options) { o.onnxLibrary = path }
}

// argmax returns the first index holding the largest value.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
