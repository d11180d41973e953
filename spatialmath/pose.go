// Package spatialmath defines the rigid-transform math used by the kinematic core.
//
// Poses are represented as unit dual quaternions. They are plain values: composing
// two of them allocates nothing, which matters because forward kinematics is
// evaluated once per Jacobian column inside the IK loop.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/scenekit/armcore/utils"
)

// Pose is a rigid transform in 3D space: a rotation followed by a translation
// in the parent frame.
type Pose struct {
	q dualquat.Number
}

// NewZeroPose returns the identity transform. The real part of a dual quaternion
// must be a unit quaternion, so this should be used instead of Pose{}.
func NewZeroPose() Pose {
	return Pose{dualquat.Number{
		Real: quat.Number{Real: 1},
	}}
}

// NewPoseFromPoint returns a pure translation by the given point.
func NewPoseFromPoint(pt r3.Vector) Pose {
	return Pose{dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{Imag: pt.X / 2, Jmag: pt.Y / 2, Kmag: pt.Z / 2},
	}}
}

// NewPoseFromAxisAngle returns a pure rotation of theta radians about the given
// axis. The axis must be of unit length.
func NewPoseFromAxisAngle(axis r3.Vector, theta float64) Pose {
	s, c := math.Sincos(theta / 2)
	return Pose{dualquat.Number{
		Real: quat.Number{Real: c, Imag: s * axis.X, Jmag: s * axis.Y, Kmag: s * axis.Z},
	}}
}

// NewPoseFromDH returns the fixed link portion of a standard
// Denavit-Hartenberg transform: a translation by (a, 0, d) followed by a
// rotation of alpha about X. Composed after the joint's RotZ rotation it yields
// the full DH transform RotZ(theta)*TransZ(d)*TransX(a)*RotX(alpha).
func NewPoseFromDH(a, d, alpha float64) Pose {
	s, c := math.Sincos(alpha / 2)
	rot := quat.Number{Real: c, Imag: s}
	trans := quat.Number{Imag: a / 2, Kmag: d / 2}
	return Pose{dualquat.Number{
		Real: rot,
		Dual: quat.Mul(trans, rot),
	}}
}

// Compose returns the pose equivalent to applying b in the frame of a, the same
// order as multiplying homogeneous transform matrices a*b.
func Compose(a, b Pose) Pose {
	return Pose{dualquat.Mul(a.q, b.q)}
}

// Point returns the translation component of the pose.
func (p Pose) Point() r3.Vector {
	// Multiplying by the dual quaternion conjugate cancels the rotation and
	// leaves exactly the translation in the dual part.
	t := dualquat.Mul(p.q, dualquat.Conj(p.q)).Dual
	return r3.Vector{X: t.Imag, Y: t.Jmag, Z: t.Kmag}
}

// Orientation returns the rotation component of the pose as a unit quaternion.
func (p Pose) Orientation() quat.Number {
	return p.q.Real
}

// PoseAlmostCoincident checks whether the translations of two poses are within
// epsilon of each other. Orientation is disregarded.
func PoseAlmostCoincident(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon)
}

// R3VectorAlmostEqual compares two vectors component-wise with a tolerance.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return utils.Float64AlmostEqual(a.X, b.X, epsilon) &&
		utils.Float64AlmostEqual(a.Y, b.Y, epsilon) &&
		utils.Float64AlmostEqual(a.Z, b.Z, epsilon)
}
