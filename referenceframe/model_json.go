package referenceframe

import (
	"encoding/json"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/scenekit/armcore/spatialmath"
	"github.com/scenekit/armcore/utils"
)

// ModelConfig represents all supported fields in a kinematics model JSON file.
// Lengths are in the scene's length units (meters for the bundled models) and
// angles are in radians unless AngleUnits says "degrees", in which case alpha,
// the joint limits, and the home pose are converted on parse.
type ModelConfig struct {
	Name         string          `json:"name"`
	KinParamType string          `json:"kinematic_param_type,omitempty"`
	AngleUnits   string          `json:"angle_units,omitempty"`
	DHParams     []DHParamConfig `json:"dhParams"`
	Home         []float64       `json:"home"`
	EndEffector  r3.Vector       `json:"endEffector"`
}

// DHParamConfig describes one joint of a chain using standard
// Denavit-Hartenberg parameters plus its angular limits and solver weight.
type DHParamConfig struct {
	ID     string  `json:"id"`
	D      float64 `json:"d"`
	A      float64 `json:"a"`
	Alpha  float64 `json:"alpha"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Weight float64 `json:"weight,omitempty"`
}

// UnmarshalModelJSON parses the given JSON data into a kinematics model.
// modelName sets the name of the model, or the name from the JSON if empty.
func UnmarshalModelJSON(jsonData []byte, modelName string) (*SimpleModel, error) {
	// empty data probably means the component has no model information
	if len(jsonData) == 0 {
		return nil, ErrNoModelInformation
	}
	cfg := &ModelConfig{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}
	return cfg.ParseConfig(modelName)
}

// ParseModelJSONFile will read a given file and then parse the contained JSON data.
func ParseModelJSONFile(filename, modelName string) (*SimpleModel, error) {
	//nolint:gosec
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalModelJSON(jsonData, modelName)
}

// ParseConfig converts the ModelConfig into a full model named modelName.
// All malformed-chain conditions (no joints, min > max, home length or range
// mismatches) are reported here, at construction, never at evaluation time.
func (cfg *ModelConfig) ParseConfig(modelName string) (*SimpleModel, error) {
	if modelName == "" {
		modelName = cfg.Name
	}
	if cfg.KinParamType != "" && cfg.KinParamType != "DH" {
		return nil, errors.Errorf("unsupported param type: %s, only DH is supported", cfg.KinParamType)
	}
	var degrees bool
	switch cfg.AngleUnits {
	case "", "radians":
	case "degrees":
		degrees = true
	default:
		return nil, errors.Errorf("unsupported angle units: %s", cfg.AngleUnits)
	}

	var errAll error
	transforms := make([]Frame, 0, 2*len(cfg.DHParams)+1)
	weights := make([]float64, 0, len(cfg.DHParams))
	for _, dh := range cfg.DHParams {
		alpha, min, max := dh.Alpha, dh.Min, dh.Max
		if degrees {
			alpha = utils.DegToRad(alpha)
			min = utils.DegToRad(min)
			max = utils.DegToRad(max)
		}
		joint, err := NewRevoluteFrame(dh.ID, Limit{Min: min, Max: max})
		if err != nil {
			multierr.AppendInto(&errAll, err)
			continue
		}
		transforms = append(transforms, joint)
		transforms = append(transforms, NewStaticFrame(dh.ID+"_link", spatialmath.NewPoseFromDH(dh.A, dh.D, alpha)))
		weight := dh.Weight
		if weight == 0 {
			weight = 1.0
		}
		weights = append(weights, weight)
	}
	if errAll != nil {
		return nil, errAll
	}
	transforms = append(transforms, NewOffsetFrame("end_effector", cfg.EndEffector))

	home := cfg.Home
	if degrees {
		home = make([]float64, len(cfg.Home))
		for i, h := range cfg.Home {
			home[i] = utils.DegToRad(h)
		}
	}
	return NewSimpleModel(modelName, transforms, FloatsToInputs(home), weights)
}
