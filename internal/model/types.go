package model

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// FeatureNames is the column order the classifier was trained on.
var FeatureNames = [...]string{
	"nitrogen",
	"phosphorous",
	"potassium",
	"temperature",
	"humidity",
	"ph",
	"rainfall",
}

// NumFeatures is the length of every feature vector.
const NumFeatures = len(FeatureNames)

// Metadata is the on-disk label codec. The file holds either a bare list of
// crop names or an object with a "classes" key; the optional "features" list,
// when present, must equal FeatureNames.
type Metadata struct {
	Classes  []string `json:"classes" yaml:"classes"`
	Features []string `json:"features,omitempty" yaml:"features,omitempty"`
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		m.Classes = list
		return nil
	}
	type plain Metadata
	return json.Unmarshal(data, (*plain)(m))
}

func (m *Metadata) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		return n.Decode(&m.Classes)
	}
	type plain Metadata
	return n.Decode((*plain)(m))
}

// Info describes the loaded model for the /model endpoint.
type Info struct {
	Format                string   `json:"format"`
	Features              []string `json:"features"`
	Classes               []string `json:"classes"`
	SupportsProbabilities bool     `json:"supports_probabilities"`
}

type CropScore struct {
	Crop       string  `json:"crop"`
	Confidence float64 `json:"confidence"`
}

type PredictionResponse struct {
	TopCrops []CropScore `json:"top_crops"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
