package referenceframe

import (
	"github.com/scenekit/armcore/spatialmath"
	"github.com/scenekit/armcore/utils"
)

// A Model is a frame composed of an entire kinematic chain: it transforms a
// full set of joint inputs into the end-effector pose, and additionally knows
// its home configuration and per-joint solver weights.
type Model interface {
	Frame

	// HomePosition returns the chain's configured rest configuration.
	HomePosition() []Input

	// SolveWeights returns one weight per degree of freedom, scaling how
	// aggressively an IK solver may move each joint.
	SolveWeights() []float64
}

// SimpleModel is a serial chain of frames ordered base to tip. Revolute frames
// consume one input each; static frames consume none.
type SimpleModel struct {
	name string
	// ordTransforms is ordered from base to tip, joint and link frames
	// interleaved, ending with the end-effector offset.
	ordTransforms []Frame
	limits        []Limit
	home          []Input
	weights       []float64
}

// NewSimpleModel constructs a model from an ordered list of frames. The home
// configuration and weights must each have one entry per moving frame.
func NewSimpleModel(name string, ordTransforms []Frame, home []Input, weights []float64) (*SimpleModel, error) {
	m := &SimpleModel{name: name, ordTransforms: ordTransforms}
	for _, tf := range ordTransforms {
		m.limits = append(m.limits, tf.DoF()...)
	}
	if len(m.limits) == 0 {
		return nil, ErrNoJoints
	}
	if len(home) != len(m.limits) {
		return nil, NewIncorrectDoFError(len(home), len(m.limits))
	}
	if len(weights) != len(m.limits) {
		return nil, NewIncorrectDoFError(len(weights), len(m.limits))
	}
	for i, h := range home {
		if h.Value < m.limits[i].Min || h.Value > m.limits[i].Max {
			return nil, NewHomeOutOfRangeError(i, h.Value, m.limits[i])
		}
	}
	m.home = home
	m.weights = weights
	return m, nil
}

// Name returns the name of the model.
func (m *SimpleModel) Name() string {
	return m.name
}

// Transform computes the pose of the chain tip for the given joint inputs by
// composing every frame transform in order. Out-of-bounds joint values are
// still computed; the composed pose is returned alongside the first
// out-of-bounds error encountered.
func (m *SimpleModel) Transform(inputs []Input) (spatialmath.Pose, error) {
	if len(inputs) != len(m.limits) {
		return spatialmath.NewZeroPose(), NewIncorrectDoFError(len(inputs), len(m.limits))
	}
	var errAll error
	composed := spatialmath.NewZeroPose()
	posIdx := 0
	for _, tf := range m.ordTransforms {
		dof := len(tf.DoF())
		pose, err := tf.Transform(inputs[posIdx : posIdx+dof])
		if err != nil && errAll == nil {
			errAll = err
		}
		posIdx += dof
		composed = spatialmath.Compose(composed, pose)
	}
	return composed, errAll
}

// DoF returns the movement limits of every joint, base to tip.
func (m *SimpleModel) DoF() []Limit {
	return m.limits
}

// HomePosition returns a copy of the chain's rest configuration.
func (m *SimpleModel) HomePosition() []Input {
	home := make([]Input, len(m.home))
	copy(home, m.home)
	return home
}

// SolveWeights returns a copy of the per-joint solver weights.
func (m *SimpleModel) SolveWeights() []float64 {
	weights := make([]float64, len(m.weights))
	copy(weights, m.weights)
	return weights
}

// ClampToLimits returns a copy of the given inputs with every value saturated
// to the corresponding joint limit. It panics if the lengths mismatch, as that
// is a programming error rather than a runtime condition.
func ClampToLimits(m Model, inputs []Input) []Input {
	limits := m.DoF()
	if len(inputs) != len(limits) {
		panic(NewIncorrectDoFError(len(inputs), len(limits)))
	}
	clamped := make([]Input, len(inputs))
	for i, in := range inputs {
		clamped[i] = Input{utils.Clamp(in.Value, limits[i].Min, limits[i].Max)}
	}
	return clamped
}
