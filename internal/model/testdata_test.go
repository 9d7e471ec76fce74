package model

import (
	"os"
	"path/filepath"
	"testing"
)

// threeCrops is a logistic artifact whose decision depends mostly on rainfall:
// low rainfall favours chickpea, medium maize and high rice.
const threeCropsLogistic = `{
  "kind": "logistic",
  "classes": 3,
  "scaler": {
    "mean":  [50, 50, 50, 25, 70, 6.5, 100],
    "scale": [30, 30, 30, 5, 20, 1, 60]
  },
  "weights": [
    [0, 0, 0, 0, 0, 0, -2],
    [0.2, 0, 0, 0.1, 0, 0, 0],
    [0, 0, 0, 0, 0.5, 0, 2]
  ],
  "bias": [0, 0.1, 0]
}`

const threeCropsSVM = `kind: svm
weights:
  - [0, 0, 0, 0, 0, 0, -2]
  - [0.2, 0, 0, 0.1, 0, 0, 0]
  - [0, 0, 0, 0, 0.5, 0, 2]
`

const threeCropsCodec = `{"classes": ["chickpea", "maize", "rice"]}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

// fakeClassifier is a hand-rolled Classifier for store tests.
type fakeClassifier struct {
	classes   int
	ClassifyF func([]float64) (int, error)
	closed    bool
}

func (f *fakeClassifier) Format() string  { return "fake" }
func (f *fakeClassifier) NumClasses() int { return f.classes }
func (f *fakeClassifier) Close() error    { f.closed = true; return nil }
func (f *fakeClassifier) Classify(x []float64) (int, error) {
	if f.ClassifyF != nil {
		return f.ClassifyF(x)
	}
	return 0, nil
}

type fakeProbClassifier struct {
	fakeClassifier
	ProbaF func([]float64) ([]float64, error)
}

func (f *fakeProbClassifier) PredictProba(x []float64) ([]float64, error) {
	return f.ProbaF(x)
}
