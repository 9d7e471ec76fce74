package model

import (
	"errors"
	"fmt"
	"os"

	ort "github.com/yalue/onnxruntime_go"
)

// skl2onnx names used when a model's outputs cannot be listed.
const (
	sklearnInput = "float_input"
	sklearnLabel = "output_label"
)

// onnxLayout is the subset of a model's outputs the service understands.
type onnxLayout struct {
	input   string
	label   string // int64 tensor [N]
	proba   string // float tensor [N, K]
	classes int64
	zipMap  bool
}

// onnxModel runs a session whose tensors are allocated per call, so a single
// session is safe for concurrent use.
type onnxModel struct {
	session *ort.DynamicAdvancedSession
	layout  onnxLayout
	ownsEnv bool
}

// onnxProbModel is an onnxModel with a usable probability output.
type onnxProbModel struct {
	*onnxModel
}

func loadONNX(path string, o *options) (Classifier, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}

	ownsEnv := false
	if !ort.IsInitialized() {
		if o.onnxLibrary != "" {
			ort.SetSharedLibraryPath(o.onnxLibrary)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
		ownsEnv = true
	}
	fail := func(err error) (Classifier, error) {
		if ownsEnv {
			ort.DestroyEnvironment()
		}
		return nil, err
	}

	var (
		layout onnxLayout
		err    error
	)
	inputs, outputs, inspectErr := ort.GetInputOutputInfo(path)
	if inspectErr != nil {
		// Listing fails when an output is not a tensor, which is how ZipMap
		// probability outputs show up. Fall back to the label alone.
		layout = onnxLayout{input: sklearnInput, label: sklearnLabel, zipMap: true}
	} else {
		layout, err = inspectONNX(inputs, outputs)
		if err != nil {
			return fail(err)
		}
	}
	if layout.classes <= 0 {
		layout.classes = int64(o.numClasses)
	}
	if layout.proba != "" && layout.classes <= 0 {
		return fail(errors.New("cannot determine class count of probability output"))
	}
	if layout.zipMap {
		logger.Logf("", "model %s exposes probabilities as a ZipMap; re-export with zipmap=False to enable confidences", path)
	}

	var names []string
	if layout.label != "" {
		names = append(names, layout.label)
	}
	if layout.proba != "" {
		names = append(names, layout.proba)
	}
	session, err := ort.NewDynamicAdvancedSession(path, []string{layout.input}, names, nil)
	if err != nil {
		return fail(errors.Join(fmt.Errorf("failed to create ONNX session: %w", err), inspectErr))
	}

	m := &onnxModel{session: session, layout: layout, ownsEnv: ownsEnv}
	if layout.proba != "" {
		return &onnxProbModel{m}, nil
	}
	return m, nil
}

// inspectONNX picks the feature input and the label/probability outputs. A
// model without a float [N, K] output has no usable probabilities; when it
// still declares extra outputs those are assumed to be a ZipMap.
func inspectONNX(inputs, outputs []ort.InputOutputInfo) (onnxLayout, error) {
	var l onnxLayout
	if len(inputs) != 1 {
		return l, fmt.Errorf("expected 1 model input, got %d", len(inputs))
	}
	in := inputs[0]
	if in.DataType != ort.TensorElementDataTypeFloat {
		return l, fmt.Errorf("input %q must be a float tensor", in.Name)
	}
	if n := len(in.Dimensions); n == 0 || (in.Dimensions[n-1] != int64(NumFeatures) && in.Dimensions[n-1] > 0) {
		return l, fmt.Errorf("input %q has shape %v, want [N, %d]", in.Name, in.Dimensions, NumFeatures)
	}
	l.input = in.Name

	unused := 0
	for _, out := range outputs {
		switch {
		case out.DataType == ort.TensorElementDataTypeInt64 && l.label == "":
			l.label = out.Name
		case out.DataType == ort.TensorElementDataTypeFloat && len(out.Dimensions) == 2 && l.proba == "":
			l.proba = out.Name
			l.classes = out.Dimensions[1]
		default:
			unused++
		}
	}
	if l.label == "" && l.proba == "" {
		return l, errors.New("model has no int64 label output and no float probability output")
	}
	l.zipMap = l.proba == "" && unused > 0
	return l, nil
}

func (m *onnxModel) Format() string  { return "onnx" }
func (m *onnxModel) NumClasses() int { return int(m.layout.classes) }

// run executes the session once and returns the label (or -1) and the
// probability row (or nil).
func (m *onnxModel) run(features []float64) (int64, []float32, error) {
	if len(features) != NumFeatures {
		return 0, nil, fmt.Errorf("expected %d features, got %d", NumFeatures, len(features))
	}
	data := make([]float32, NumFeatures)
	for i, f := range features {
		data[i] = float32(f)
	}
	input, err := ort.NewTensor(ort.NewShape(1, int64(NumFeatures)), data)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	var (
		outs  []ort.ArbitraryTensor
		label *ort.Tensor[int64]
		proba *ort.Tensor[float32]
	)
	if m.layout.label != "" {
		label, err = ort.NewEmptyTensor[int64](ort.NewShape(1))
		if err != nil {
			return 0, nil, fmt.Errorf("failed to create label tensor: %w", err)
		}
		defer label.Destroy()
		outs = append(outs, label)
	}
	if m.layout.proba != "" {
		proba, err = ort.NewEmptyTensor[float32](ort.NewShape(1, m.layout.classes))
		if err != nil {
			return 0, nil, fmt.Errorf("failed to create output tensor: %w", err)
		}
		defer proba.Destroy()
		outs = append(outs, proba)
	}

	if err := m.session.Run([]ort.ArbitraryTensor{input}, outs); err != nil {
		return 0, nil, fmt.Errorf("inference failed: %w", err)
	}

	idx := int64(-1)
	if label != nil {
		idx = label.GetData()[0]
	}
	var row []float32
	if proba != nil {
		row = append(row, proba.GetData()...)
	}
	return idx, row, nil
}

func (m *onnxModel) Classify(features []float64) (int, error) {
	idx, row, err := m.run(features)
	if err != nil {
		return 0, err
	}
	if idx >= 0 {
		return int(idx), nil
	}
	return argmax(widen(row)), nil
}

func (m *onnxProbModel) PredictProba(features []float64) ([]float64, error) {
	_, row, err := m.run(features)
	if err != nil {
		return nil, err
	}
	return widen(row), nil
}

func (m *onnxModel) Close() error {
	var err error
	if m.session != nil {
		err = m.session.Destroy()
	}
	if m.ownsEnv {
		err = errors.Join(err, ort.DestroyEnvironment())
	}
	return err
}

func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
