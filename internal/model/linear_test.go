package model

import (
	"math"
	"strings"
	"testing"
)

func TestLoadLinear_Logistic(t *testing.T) {
	p := writeFile(t, t.TempDir(), "model.json", threeCropsLogistic)
	clf, err := loadLinear(p, &options{})
	if err != nil {
		t.Fatalf("loadLinear: %v", err)
	}
	if clf.Format() != "linear/logistic" {
		t.Fatalf("Format = %q", clf.Format())
	}
	if clf.NumClasses() != 3 {
		t.Fatalf("NumClasses = %d, want 3", clf.NumClasses())
	}
	est, ok := clf.(ProbabilityEstimator)
	if !ok {
		t.Fatalf("logistic model must estimate probabilities")
	}

	wet := []float64{90, 42, 43, 20.8, 82, 6.5, 202.9}
	probs, err := est.PredictProba(wet)
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	var sum float64
	for _, p := range probs {
		if p < 0 || p > 1 {
			t.Fatalf("probability out of range: %v", probs)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("probabilities sum to %v, want 1", sum)
	}
	idx, err := clf.Classify(wet)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if idx != 2 || argmax(probs) != 2 {
		t.Fatalf("expected rice (2) for wet input, got Classify=%d argmax=%d probs=%v", idx, argmax(probs), probs)
	}

	dry := []float64{40, 67, 80, 18, 16, 7, 40}
	if idx, _ := clf.Classify(dry); idx != 0 {
		t.Fatalf("expected chickpea (0) for dry input, got %d", idx)
	}
}

func TestLoadLinear_SVMHasNoProbabilities(t *testing.T) {
	p := writeFile(t, t.TempDir(), "model.yaml", threeCropsSVM)
	clf, err := loadLinear(p, &options{})
	if err != nil {
		t.Fatalf("loadLinear: %v", err)
	}
	if _, ok := clf.(ProbabilityEstimator); ok {
		t.Fatalf("svm model must not estimate probabilities")
	}
	if _, err := clf.Classify([]float64{1, 2, 3, 4, 5, 6, 7}); err != nil {
		t.Fatalf("Classify: %v", err)
	}
}

func TestLoadLinear_Invalid(t *testing.T) {
	row := "[0, 0, 0, 0, 0, 0, 1]"
	tcs := []struct {
		name    string
		content string
		wantErr string
	}{
		{"kind", `{"kind": "tree", "weights": [` + row + `]}`, "unknown linear model kind"},
		{"no weights", `{"kind": "svm", "weights": []}`, "no weights"},
		{"class count", `{"kind": "svm", "classes": 2, "weights": [` + row + `]}`, "declares 2 classes"},
		{"row width", `{"kind": "svm", "weights": [[1, 2]]}`, "weight row 0"},
		{"bias", `{"kind": "svm", "weights": [` + row + `], "bias": [1, 2]}`, "bias has 2"},
		{"scaler len", `{"kind": "svm", "weights": [` + row + `], "scaler": {"mean": [1], "scale": [1]}}`, "scaler must have"},
		{"scaler zero", `{"kind": "svm", "weights": [` + row + `], "scaler": {"mean": [0,0,0,0,0,0,0], "scale": [1,1,1,1,1,0,1]}}`, "scale for ph is zero"},
	}
	dir := t.TempDir()
	for _, tc := range tcs {
		p := writeFile(t, dir, strings.ReplaceAll(tc.name, " ", "_")+".json", tc.content)
		_, err := loadLinear(p, &options{})
		if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Fatalf("%s: err = %v, want containing %q", tc.name, err, tc.wantErr)
		}
	}
}

func TestLinear_WrongFeatureCount(t *testing.T) {
	p := writeFile(t, t.TempDir(), "model.json", threeCropsLogistic)
	clf, _ := loadLinear(p, &options{})
	if _, err := clf.(ProbabilityEstimator).PredictProba([]float64{1, 2}); err == nil {
		t.Fatalf("expected error for short feature vector")
	}
}

func TestSoftmax_StableForLargeScores(t *testing.T) {
	got := softmax([]float64{1000, 1000, -1000})
	if math.IsNaN(got[0]) || math.Abs(got[0]-0.5) > 1e-12 || got[2] != 0 {
		t.Fatalf("softmax = %v", got)
	}
}

func TestArgmax_FirstWinsTies(t *testing.T) {
	if got := argmax([]float64{0.2, 0.4, 0.4}); got != 1 {
		t.Fatalf("argmax = %d, want 1", got)
	}
}
