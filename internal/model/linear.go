package model

import (
	"errors"
	"fmt"
	"math"
)

// Linear artifact kinds.
const (
	KindLogistic = "logistic"
	KindSVM      = "svm"
)

// linearArtifact is a standard-scaler followed by a linear layer:
//
//	z_k = bias_k + sum_j weights[k][j] * (x_j - mean_j) / scale_j
//
// "logistic" artifacts turn z into probabilities with softmax; "svm"
// artifacts only expose the argmax decision.
type linearArtifact struct {
	Kind    string      `json:"kind" yaml:"kind"`
	Classes int         `json:"classes,omitempty" yaml:"classes,omitempty"`
	Scaler  *scaler     `json:"scaler,omitempty" yaml:"scaler,omitempty"`
	Weights [][]float64 `json:"weights" yaml:"weights"`
	Bias    []float64   `json:"bias,omitempty" yaml:"bias,omitempty"`
}

type scaler struct {
	Mean  []float64 `json:"mean" yaml:"mean"`
	Scale []float64 `json:"scale" yaml:"scale"`
}

// linearModel decides by argmax over the decision scores.
type linearModel struct {
	kind    string
	mean    []float64
	scale   []float64
	weights [][]float64
	bias    []float64
}

// logisticModel adds softmax probability estimates.
type logisticModel struct {
	*linearModel
}

func loadLinear(path string, _ *options) (Classifier, error) {
	var a linearArtifact
	if err := decodeFile(path, &a); err != nil {
		return nil, err
	}
	m, err := newLinearModel(a)
	if err != nil {
		return nil, err
	}
	if m.kind == KindLogistic {
		return &logisticModel{m}, nil
	}
	return m, nil
}

func newLinearModel(a linearArtifact) (*linearModel, error) {
	if a.Kind != KindLogistic && a.Kind != KindSVM {
		return nil, fmt.Errorf("unknown linear model kind %q", a.Kind)
	}
	k := len(a.Weights)
	if k == 0 {
		return nil, errors.New("linear model has no weights")
	}
	if a.Classes != 0 && a.Classes != k {
		return nil, fmt.Errorf("linear model declares %d classes but has %d weight rows", a.Classes, k)
	}
	for i, row := range a.Weights {
		if len(row) != NumFeatures {
			return nil, fmt.Errorf("weight row %d has %d values, want %d", i, len(row), NumFeatures)
		}
	}
	bias := a.Bias
	if len(bias) == 0 {
		bias = make([]float64, k)
	}
	if len(bias) != k {
		return nil, fmt.Errorf("bias has %d values, want %d", len(bias), k)
	}

	mean := make([]float64, NumFeatures)
	scale := make([]float64, NumFeatures)
	for j := range scale {
		scale[j] = 1
	}
	if a.Scaler != nil {
		if len(a.Scaler.Mean) != NumFeatures || len(a.Scaler.Scale) != NumFeatures {
			return nil, fmt.Errorf("scaler must have %d means and scales", NumFeatures)
		}
		for j, s := range a.Scaler.Scale {
			if s == 0 {
				return nil, fmt.Errorf("scaler scale for %s is zero", FeatureNames[j])
			}
		}
		copy(mean, a.Scaler.Mean)
		copy(scale, a.Scaler.Scale)
	}

	return &linearModel{
		kind:    a.Kind,
		mean:    mean,
		scale:   scale,
		weights: a.Weights,
		bias:    bias,
	}, nil
}

func (m *linearModel) Format() string  { return "linear/" + m.kind }
func (m *linearModel) NumClasses() int { return len(m.weights) }
func (m *linearModel) Close() error    { return nil }

func (m *linearModel) scores(features []float64) ([]float64, error) {
	if len(features) != NumFeatures {
		return nil, fmt.Errorf("expected %d features, got %d", NumFeatures, len(features))
	}
	z := make([]float64, len(m.weights))
	for k, row := range m.weights {
		s := m.bias[k]
		for j, w := range row {
			s += w * (features[j] - m.mean[j]) / m.scale[j]
		}
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("decision score for class %d overflowed", k)
		}
		z[k] = s
	}
	return z, nil
}

func (m *linearModel) Classify(features []float64) (int, error) {
	z, err := m.scores(features)
	if err != nil {
		return 0, err
	}
	return argmax(z), nil
}

func (m *logisticModel) PredictProba(features []float64) ([]float64, error) {
	z, err := m.scores(features)
	if err != nil {
		return nil, err
	}
	return softmax(z), nil
}

func softmax(z []float64) []float64 {
	maxZ := z[argmax(z)]
	out := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - maxZ)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

