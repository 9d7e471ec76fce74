package model

import (
	"fmt"
	"math"
	"slices"

	"github.com/Brownie44l1/croprec-api/internal/apperr"
)

// probSumTolerance absorbs float32 rounding in backend probability rows.
const probSumTolerance = 1e-5

// Store owns the classifier and its label codec. It is built once at startup
// and never mutated afterwards, so it is safe to share between goroutines.
type Store struct {
	clf   Classifier
	codec *LabelCodec

	// proba is nil when the classifier cannot estimate probabilities.
	proba         ProbabilityEstimator
	supportsProba bool
}

// NewStore pairs a classifier with its codec. The probability capability is
// resolved here, once.
func NewStore(clf Classifier, codec *LabelCodec) (*Store, error) {
	if clf == nil || codec == nil {
		return nil, fmt.Errorf("model store needs a classifier and a label codec")
	}
	if k := clf.NumClasses(); k > 0 && k != codec.Len() {
		return nil, fmt.Errorf("classifier has %d classes but label codec has %d", k, codec.Len())
	}
	s := &Store{clf: clf, codec: codec}
	s.proba, s.supportsProba = clf.(ProbabilityEstimator)
	return s, nil
}

// Load reads the label codec and the classifier artifact. Any failure is an
// *apperr.ArtifactLoadError and the caller must not serve.
func Load(modelPath, codecPath string, opts ...Option) (*Store, error) {
	codec, err := LoadLabelCodec(codecPath)
	if err != nil {
		return nil, err
	}

	o := &options{numClasses: codec.Len()}
	for _, opt := range opts {
		opt(o)
	}
	load, err := loaderFor(modelPath)
	if err != nil {
		return nil, apperr.ArtifactLoad(modelPath, err)
	}
	clf, err := load(modelPath, o)
	if err != nil {
		return nil, apperr.ArtifactLoad(modelPath, err)
	}

	s, err := NewStore(clf, codec)
	if err != nil {
		clf.Close()
		return nil, apperr.ArtifactLoad(modelPath, err)
	}
	logger.Logf("", "loaded %s model from %s (%d classes, probabilities=%t)",
		clf.Format(), modelPath, codec.Len(), s.supportsProba)
	return s, nil
}

// Predict returns the class-probability vector for features.
func (s *Store) Predict(features []float64) ([]float64, error) {
	if !s.supportsProba {
		return nil, apperr.ErrNoProbabilities
	}
	probs, err := s.proba.PredictProba(features)
	if err != nil {
		return nil, err
	}
	if len(probs) != s.codec.Len() {
		return nil, fmt.Errorf("classifier returned %d probabilities for %d labels", len(probs), s.codec.Len())
	}
	if err := CheckDistribution(probs); err != nil {
		return nil, err
	}
	return probs, nil
}

// CheckDistribution rejects vectors that are not probabilities: non-finite or
// negative entries, or a total above one.
func CheckDistribution(probs []float64) error {
	var sum float64
	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1+probSumTolerance {
			return fmt.Errorf("classifier returned invalid probability %v for class %d", p, i)
		}
		sum += p
	}
	if sum > 1+probSumTolerance {
		return fmt.Errorf("classifier probabilities sum to %v", sum)
	}
	return nil
}

// Classify returns the single most likely class index. It works for every
// classifier, including those without probability support.
func (s *Store) Classify(features []float64) (int, error) {
	return s.clf.Classify(features)
}

func (s *Store) DecodeLabel(index int) (string, error) {
	return s.codec.Decode(index)
}

func (s *Store) NumClasses() int { return s.codec.Len() }

func (s *Store) SupportsProbabilities() bool { return s.supportsProba }

func (s *Store) Info() Info {
	return Info{
		Format:                s.clf.Format(),
		Features:              slices.Clone(FeatureNames[:]),
		Classes:               s.codec.Names(),
		SupportsProbabilities: s.supportsProba,
	}
}

func (s *Store) Close() {
	if s.clf != nil {
		if err := s.clf.Close(); err != nil {
			logger.Logf("", "failed to release model: %v", err)
		}
	}
}
