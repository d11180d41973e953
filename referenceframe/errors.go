package referenceframe

import "github.com/pkg/errors"

// ErrNoJoints is returned when a chain is built without any moving frames.
var ErrNoJoints = errors.New("kinematic chain has no degrees of freedom")

// ErrNoModelInformation is used when there is no model information.
var ErrNoModelInformation = errors.New("no model information")

// NewIncorrectDoFError returns an error describing a mismatch between the
// length of an input slice and the degrees of freedom of a chain.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match frame DoF, expected %d but got %d", expected, actual)
}

// NewHomeOutOfRangeError returns an error for a configured home angle that
// falls outside its joint's limits.
func NewHomeOutOfRangeError(joint int, value float64, limit Limit) error {
	return errors.Errorf("home angle %f for joint %d outside limits [%f, %f]", value, joint, limit.Min, limit.Max)
}
