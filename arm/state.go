// Package arm owns the mutable state of a controlled arm: the authoritative
// joint configuration written by manual commands or the IK solver, and the
// smoothed configuration handed to the renderer.
package arm

import (
	"github.com/scenekit/armcore/referenceframe"
	"github.com/scenekit/armcore/spatialmath"
	"github.com/scenekit/armcore/utils"
)

// Discrete rotation increments for keyboard-driven control, in radians.
// Positive always rotates the same direction for every joint in the chain.
const (
	CoarseStep = 0.1
	FineStep   = 0.02
)

// State is the joint state manager for one arm. It is the single owner of the
// authoritative joint configuration: every write path clamps to the joint
// limits, so a stored angle is never out of range, even transiently.
//
// State is not safe for concurrent use. The control loop is frame-driven and
// single-threaded; each State belongs to exactly one loop.
type State struct {
	model    referenceframe.Model
	joints   []float64
	lower    []float64
	upper    []float64
	selected int
}

// NewState creates a state manager for the given chain, set to its home pose
// with the base joint selected.
func NewState(model referenceframe.Model) *State {
	s := &State{model: model}
	for _, limit := range model.DoF() {
		s.lower = append(s.lower, limit.Min)
		s.upper = append(s.upper, limit.Max)
	}
	s.joints = make([]float64, len(s.lower))
	s.ResetAll()
	return s
}

// Model returns the chain this state is managing.
func (s *State) Model() referenceframe.Model {
	return s.model
}

// Selected returns the index of the joint currently under manual control.
func (s *State) Selected() int {
	return s.selected
}

// SelectJoint changes which joint manual rotation applies to. An out-of-range
// index is a no-op: the previous selection is retained.
func (s *State) SelectJoint(index int) {
	if index < 0 || index >= len(s.joints) {
		return
	}
	s.selected = index
}

// RotateSelected adds delta radians to the selected joint, saturating at the
// joint's limit rather than rejecting the command.
func (s *State) RotateSelected(delta float64) {
	i := s.selected
	s.joints[i] = utils.Clamp(s.joints[i]+delta, s.lower[i], s.upper[i])
}

// ResetAll restores the chain's home pose and selects the base joint.
func (s *State) ResetAll() {
	for i, in := range s.model.HomePosition() {
		s.joints[i] = in.Value
	}
	s.selected = 0
}

// SetFromSolver stores a solved configuration as the authoritative one. Every
// incoming angle is clamped even though the solver already clamps; the
// manager does not trust its callers with the limit invariant.
func (s *State) SetFromSolver(solved []referenceframe.Input) error {
	if len(solved) != len(s.joints) {
		return referenceframe.NewIncorrectDoFError(len(solved), len(s.joints))
	}
	for i, in := range solved {
		s.joints[i] = utils.Clamp(in.Value, s.lower[i], s.upper[i])
	}
	return nil
}

// Joints returns a copy of the authoritative joint configuration.
func (s *State) Joints() []referenceframe.Input {
	return referenceframe.FloatsToInputs(s.joints)
}

// EndEffector computes the current world-space pose of the end effector.
func (s *State) EndEffector() (spatialmath.Pose, error) {
	return s.model.Transform(s.Joints())
}
