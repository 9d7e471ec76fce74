package handlers

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/Brownie44l1/croprec-api/internal/apperr"
	"github.com/Brownie44l1/croprec-api/internal/model"
)

// TopK is the maximum number of crops returned per prediction.
const TopK = 5

// Predictor is the part of the model store the inference path needs.
type Predictor interface {
	Predict(features []float64) ([]float64, error)
	DecodeLabel(index int) (string, error)
}

// Inferer turns a raw request body into a status code and a JSON-ready
// payload. It holds no per-request state.
type Inferer struct {
	store Predictor
}

func NewInferer(store Predictor) *Inferer {
	return &Inferer{store: store}
}

// Infer runs one request end to end. It never panics: unexpected failures are
// reported as 500 with the raw error message.
func (in *Inferer) Infer(body []byte) (status int, payload any) {
	resp, err := in.run(body)
	if err != nil {
		return apperr.StatusCode(err), model.ErrorResponse{Error: err.Error()}
	}
	return http.StatusOK, resp
}

func (in *Inferer) run(body []byte) (resp *model.PredictionResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("%v", r)
		}
	}()

	features, err := Features(body)
	if err != nil {
		return nil, err
	}
	probs, err := in.store.Predict(features)
	if err != nil {
		return nil, err
	}
	if err := model.CheckDistribution(probs); err != nil {
		return nil, err
	}
	return in.assemble(probs, rank(probs, TopK))
}

// Features parses, validates and coerces a request body into a feature
// vector in model.FeatureNames order.
func Features(body []byte) ([]float64, error) {
	payload, err := parsePayload(body)
	if err != nil {
		return nil, err
	}
	if err := validate(payload); err != nil {
		return nil, err
	}
	return coerce(payload)
}

// parsePayload decodes body into a generic key/value object.
func parsePayload(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &apperr.MalformedPayloadError{Err: errors.New("empty body")}
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &apperr.MalformedPayloadError{Err: err}
	}
	if dec.More() {
		return nil, &apperr.MalformedPayloadError{Err: errors.New("trailing data after JSON object")}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &apperr.MalformedPayloadError{Err: fmt.Errorf("expected a JSON object, got %s", jsonKind(v))}
	}
	return obj, nil
}

// validate reports every required field missing from payload, in feature
// order. Unknown fields are ignored.
func validate(payload map[string]any) error {
	var missing []string
	for _, name := range model.FeatureNames {
		if _, ok := payload[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &apperr.MissingFieldsError{Fields: missing}
	}
	return nil
}

// coerce builds the feature vector in model.FeatureNames order.
func coerce(payload map[string]any) ([]float64, error) {
	features := make([]float64, model.NumFeatures)
	for i, name := range model.FeatureNames {
		f, ok := toFloat64(payload[name])
		if !ok {
			return nil, &apperr.InvalidFieldTypeError{Field: name, Value: payload[name]}
		}
		features[i] = f
	}
	return features, nil
}

// toFloat64 accepts JSON numbers and numeric strings. Non-finite values are
// rejected.
func toFloat64(v any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch val := v.(type) {
	case json.Number:
		f, err = val.Float64()
	case float64:
		f = val
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(val), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// rank returns the indices of the k largest probabilities, largest first.
// Equal probabilities keep ascending index order.
func rank(probs []float64, k int) []int {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(probs[b], probs[a])
	})
	return idx[:min(k, len(idx))]
}

func (in *Inferer) assemble(probs []float64, top []int) (*model.PredictionResponse, error) {
	crops := make([]model.CropScore, 0, len(top))
	for _, i := range top {
		name, err := in.store.DecodeLabel(i)
		if err != nil {
			return nil, err
		}
		crops = append(crops, model.CropScore{Crop: name, Confidence: probs[i]})
	}
	return &model.PredictionResponse{TopCrops: crops}, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
