// Package referenceframe describes serial kinematic chains as data: an ordered
// list of frames, each a fixed transform or a revolute joint, so the same
// FK/IK machinery works for any chain length.
package referenceframe

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/scenekit/armcore/spatialmath"
)

// OOBErrString is contained in all out-of-bounds errors so they can be told
// apart from other Transform errors.
const OOBErrString = "input out of bounds"

// Limit represents the allowed range of motion of a joint, in radians.
type Limit struct {
	Min float64
	Max float64
}

// A Frame is one element of a kinematic chain.
type Frame interface {
	// Name returns the name of the frame.
	Name() string

	// Transform returns the pose that goes from this frame to its parent,
	// given one input per degree of freedom. Out-of-bounds inputs still
	// produce a valid pose alongside a non-nil error containing OOBErrString.
	Transform([]Input) (spatialmath.Pose, error)

	// DoF returns the movement limits of the frame, one per degree of
	// freedom. Fixed frames return an empty slice.
	DoF() []Limit
}

// a staticFrame is a fixed transform to its parent, such as a DH link or the
// end-effector offset.
type staticFrame struct {
	name      string
	transform spatialmath.Pose
}

// NewStaticFrame creates a frame with a fixed pose relative to its parent.
func NewStaticFrame(name string, pose spatialmath.Pose) Frame {
	return &staticFrame{name, pose}
}

// NewOffsetFrame creates a fixed frame translated by the given vector, used
// for the flange-to-tool offset at the end of a chain.
func NewOffsetFrame(name string, offset r3.Vector) Frame {
	return &staticFrame{name, spatialmath.NewPoseFromPoint(offset)}
}

func (sf *staticFrame) Name() string {
	return sf.name
}

func (sf *staticFrame) Transform(input []Input) (spatialmath.Pose, error) {
	if len(input) != 0 {
		return spatialmath.NewZeroPose(), fmt.Errorf("given input length %d does not match frame DoF 0", len(input))
	}
	return sf.transform, nil
}

func (sf *staticFrame) DoF() []Limit {
	return []Limit{}
}

// a revoluteFrame is a single-DoF joint rotating about its local Z axis, per
// the DH convention.
type revoluteFrame struct {
	name  string
	limit Limit
}

// NewRevoluteFrame creates a revolute joint frame with the given angular limit
// in radians.
func NewRevoluteFrame(name string, limit Limit) (Frame, error) {
	if limit.Min > limit.Max {
		return nil, errors.Errorf("joint %q has impossible limits: min %f > max %f", name, limit.Min, limit.Max)
	}
	return &revoluteFrame{name, limit}, nil
}

func (rf *revoluteFrame) Name() string {
	return rf.name
}

// Transform returns a rotation about Z by the given angle. Out-of-bounds
// angles are still computed, but flagged with an error.
func (rf *revoluteFrame) Transform(input []Input) (spatialmath.Pose, error) {
	if len(input) != 1 {
		return spatialmath.NewZeroPose(), fmt.Errorf("given input length %d does not match frame DoF 1", len(input))
	}
	var err error
	if input[0].Value < rf.limit.Min || input[0].Value > rf.limit.Max {
		err = fmt.Errorf("%.5f %s %v", input[0].Value, OOBErrString, rf.limit)
	}
	return spatialmath.NewPoseFromAxisAngle(r3.Vector{Z: 1}, input[0].Value), err
}

func (rf *revoluteFrame) DoF() []Limit {
	return []Limit{rf.limit}
}
