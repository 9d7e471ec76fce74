package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Brownie44l1/croprec-api/internal/model"
)

const (
	logisticArtifact = `{"kind": "logistic", "weights": [
  [0, 0, 0, 0, 0, 0, -0.02],
  [0.01, 0, 0, 0.05, 0, 0, 0],
  [0, 0, 0, 0, 0.02, 0, 0.02]
]}`
	svmArtifact = `kind: svm
weights:
  - [0, 0, 0, 0, 0, 0, -0.02]
  - [0.01, 0, 0, 0.05, 0, 0, 0]
  - [0, 0, 0, 0, 0.02, 0, 0.02]
`
	codecFile   = `["chickpea", "maize", "rice"]`
	requestBody = `{"nitrogen":90,"phosphorous":42,"potassium":43,"temperature":20.8,"humidity":82.0,"ph":6.5,"rainfall":202.9}`
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"PORT", "CROPREC_MODEL_PATH", "CROPREC_MODEL_CODEC"} {
		t.Setenv(k, "")
	}
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return out.String(), err
}

func TestPredictCmd_Stdin(t *testing.T) {
	dir := t.TempDir()
	m := writeTemp(t, dir, "model.json", logisticArtifact)
	c := writeTemp(t, dir, "codec.json", codecFile)

	out, err := runCLI(t, requestBody, "predict", "--model", m, "--codec", c)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	var resp model.PredictionResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if len(resp.TopCrops) != 3 || resp.TopCrops[0].Crop != "rice" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestPredictCmd_FileAndClientError(t *testing.T) {
	dir := t.TempDir()
	m := writeTemp(t, dir, "model.json", logisticArtifact)
	c := writeTemp(t, dir, "codec.json", codecFile)
	req := writeTemp(t, dir, "req.json", `{"nitrogen":90,"phosphorous":42,"potassium":43,"temperature":20.8,"humidity":82.0}`)

	out, err := runCLI(t, "", "predict", req, "--model", m, "--codec", c)
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("err = %v, want status 400", err)
	}
	if !strings.Contains(out, "Missing fields: ph, rainfall") {
		t.Fatalf("output = %q", out)
	}
}

func TestPredictCmd_UnsupportedProbabilities(t *testing.T) {
	dir := t.TempDir()
	m := writeTemp(t, dir, "model.yaml", svmArtifact)
	c := writeTemp(t, dir, "codec.json", codecFile)

	out, err := runCLI(t, requestBody, "predict", "--model", m, "--codec", c)
	if err == nil {
		t.Fatalf("expected failure for svm artifact")
	}
	if !strings.Contains(out, "Model does not support confidence probabilities") {
		t.Fatalf("output = %q", out)
	}

	out, err = runCLI(t, requestBody, "predict", "--decision", "--model", m, "--codec", c)
	if err != nil {
		t.Fatalf("predict --decision: %v", err)
	}
	if !strings.Contains(out, `"crop": "rice"`) {
		t.Fatalf("output = %q", out)
	}
}

func TestPredictCmd_ScoreOverflowPrintsError(t *testing.T) {
	dir := t.TempDir()
	m := writeTemp(t, dir, "model.json", `{"kind": "logistic", "weights": [[10,0,0,0,0,0,0], [0,0,0,0,0,0,0], [-10,0,0,0,0,0,0]]}`)
	c := writeTemp(t, dir, "codec.json", codecFile)
	body := `{"nitrogen":1e308,"phosphorous":1e308,"potassium":1e308,"temperature":1e308,"humidity":1e308,"ph":1e308,"rainfall":1e308}`

	out, err := runCLI(t, body, "predict", "--model", m, "--codec", c)
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("err = %v, want status 500", err)
	}
	var resp model.ErrorResponse
	if jerr := json.Unmarshal([]byte(out), &resp); jerr != nil || resp.Error == "" {
		t.Fatalf("output = %q, want JSON error", out)
	}
}

func TestPredictCmd_LoadFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	c := writeTemp(t, dir, "codec.json", codecFile)

	_, err := runCLI(t, requestBody, "predict", "--model", filepath.Join(dir, "missing.onnx"), "--codec", c)
	if err == nil || !strings.Contains(err.Error(), "failed to initialize model store") {
		t.Fatalf("err = %v", err)
	}
}

func TestServeCmd_LoadFailureDoesNotListen(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, "", "serve", "--addr", "127.0.0.1:0",
		"--model", filepath.Join(dir, "missing.json"), "--codec", filepath.Join(dir, "missing-codec.json"))
	if err == nil || !strings.Contains(err.Error(), "failed to initialize model store") {
		t.Fatalf("err = %v", err)
	}
}
