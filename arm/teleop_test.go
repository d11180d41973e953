package arm

import (
	"math"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/scenekit/armcore/kinematics"
	"github.com/scenekit/armcore/referenceframe"
)

func pandaTeleop(t *testing.T) (*Teleop, *State) {
	t.Helper()
	logger := golog.NewTestLogger(t)
	model := loadPanda(t)
	state := NewState(model)
	solver, err := kinematics.CreateGradientIKSolver(model, logger, nil)
	test.That(t, err, test.ShouldBeNil)
	teleop, err := NewTeleop(state, solver, TeleopConfig{}, logger)
	test.That(t, err, test.ShouldBeNil)
	return teleop, state
}

func TestTeleopConfigDefaults(t *testing.T) {
	cfg := TeleopConfig{}
	cfg.fillDefaults()
	test.That(t, cfg.SmoothingFactor, test.ShouldEqual, defaultSmoothingFactor)
	test.That(t, cfg.BufferWindow, test.ShouldEqual, defaultBufferWindow)
	test.That(t, cfg.GripThreshold, test.ShouldEqual, defaultGripThreshold)

	cfg = TeleopConfig{SmoothingFactor: 0.5}
	cfg.fillDefaults()
	test.That(t, cfg.SmoothingFactor, test.ShouldEqual, 0.5)
	test.That(t, cfg.BufferWindow, test.ShouldEqual, defaultBufferWindow)
	test.That(t, cfg.MinHeight, test.ShouldEqual, defaultMinHeight)
}

func TestAxisLocksPinTarget(t *testing.T) {
	teleop, state := pandaTeleop(t)
	teleop.SetAxisLock(0, true)
	teleop.SetAxisLock(1, true)
	test.That(t, teleop.AxisLocks(), test.ShouldResemble, [3]bool{true, true, false})

	pose, err := state.EndEffector()
	test.That(t, err, test.ShouldBeNil)
	cur := pose.Point()

	got := teleop.constrainTarget(r3.Vector{X: 0.1, Y: 0.3, Z: 0.4})
	test.That(t, got.X, test.ShouldEqual, cur.X)
	test.That(t, got.Y, test.ShouldEqual, cur.Y)
	test.That(t, got.Z, test.ShouldEqual, 0.4)

	// Out-of-range axes are ignored.
	teleop.SetAxisLock(3, true)
	teleop.SetAxisLock(-1, true)
	test.That(t, teleop.AxisLocks(), test.ShouldResemble, [3]bool{true, true, false})
}

func TestAllAxesLockedHoldsPosition(t *testing.T) {
	teleop, state := pandaTeleop(t)
	for axis := 0; axis < 3; axis++ {
		teleop.SetAxisLock(axis, true)
	}
	home := state.Model().HomePosition()

	// With every axis pinned the effective target is the current end-effector
	// position, so the solve converges immediately and the arm stays put.
	teleop.OnRawTarget(TargetPose{Position: r3.Vector{X: 0.1, Y: 0.3, Z: 0.4}})
	teleop.Tick()
	test.That(t, state.Joints(), test.ShouldResemble, home)
}

func TestMinHeightClampsTarget(t *testing.T) {
	teleop, _ := pandaTeleop(t)
	got := teleop.constrainTarget(r3.Vector{X: 0.3, Z: -0.2})
	test.That(t, got.Z, test.ShouldEqual, defaultMinHeight)

	logger := golog.NewTestLogger(t)
	model := loadPanda(t)
	state := NewState(model)
	solver, err := kinematics.CreateGradientIKSolver(model, logger, nil)
	test.That(t, err, test.ShouldBeNil)
	raised, err := NewTeleop(state, solver, TeleopConfig{MinHeight: 0.1}, logger)
	test.That(t, err, test.ShouldBeNil)
	got = raised.constrainTarget(r3.Vector{X: 0.3, Z: 0.05})
	test.That(t, got.Z, test.ShouldEqual, 0.1)
}

func TestFilteredTargetMeansRecentSamples(t *testing.T) {
	teleop, _ := pandaTeleop(t)

	_, ok := teleop.FilteredTarget()
	test.That(t, ok, test.ShouldBeFalse)

	teleop.OnRawTarget(TargetPose{Position: r3.Vector{X: 0.3, Z: 0.4}})
	got, ok := teleop.FilteredTarget()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got, test.ShouldResemble, r3.Vector{X: 0.3, Z: 0.4})

	// Four samples in a window of three: the first must age out.
	teleop.OnRawTarget(TargetPose{Position: r3.Vector{X: 0.3, Z: 0.5}})
	teleop.OnRawTarget(TargetPose{Position: r3.Vector{X: 0.3, Z: 0.6}})
	teleop.OnRawTarget(TargetPose{Position: r3.Vector{X: 0.3, Z: 0.7}})
	got, ok = teleop.FilteredTarget()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got.X, test.ShouldAlmostEqual, 0.3, 1e-12)
	test.That(t, got.Y, test.ShouldEqual, 0)
	test.That(t, got.Z, test.ShouldAlmostEqual, 0.6, 1e-12)
}

func TestTickWithoutTargets(t *testing.T) {
	teleop, state := pandaTeleop(t)
	home := state.Model().HomePosition()

	visual := teleop.Tick()
	test.That(t, visual, test.ShouldResemble, home)
	test.That(t, state.Joints(), test.ShouldResemble, home)
}

func TestTickSolvesAndSmooths(t *testing.T) {
	teleop, state := pandaTeleop(t)
	home := state.Model().HomePosition()

	teleop.OnRawTarget(TargetPose{Position: r3.Vector{X: 0.3, Z: 0.5}})
	visual := teleop.Tick()

	solved := state.Joints()
	pose, err := state.EndEffector()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r3.Vector{X: 0.3, Z: 0.5}.Sub(pose.Point()).Norm(), test.ShouldBeLessThan, 0.002)

	// After one tick the displayed configuration has moved a fixed fraction of
	// the way from home toward the solved configuration.
	for i := range visual {
		want := home[i].Value + (solved[i].Value-home[i].Value)*defaultSmoothingFactor
		test.That(t, visual[i].Value, test.ShouldAlmostEqual, want, 1e-12)
	}
}

func TestVisualConvergesAfterTargetsStop(t *testing.T) {
	teleop, state := pandaTeleop(t)

	teleop.OnRawTarget(TargetPose{Position: r3.Vector{X: 0.3, Z: 0.5}})
	teleop.Tick()

	gap := make([]float64, 0)
	solved := state.Joints()
	for i, v := range teleop.Visual() {
		gap = append(gap, math.Abs(solved[i].Value-v.Value))
	}

	// No further raw samples. Fifteen more ticks shrink the remaining gap by
	// 0.65 each, to under 0.2% of where it started.
	for i := 0; i < 15; i++ {
		teleop.Tick()
	}
	test.That(t, state.Joints(), test.ShouldResemble, solved)
	for i, v := range teleop.Visual() {
		test.That(t, math.Abs(solved[i].Value-v.Value), test.ShouldBeLessThanOrEqualTo, 0.002*gap[i]+1e-12)
	}
}

func TestTickWarmStartsFromCurrentState(t *testing.T) {
	teleop, state := pandaTeleop(t)

	teleop.OnRawTarget(TargetPose{Position: r3.Vector{X: 0.3, Z: 0.5}})
	teleop.Tick()
	first := state.Joints()

	// A nearby target solved from the previous solution should land close to
	// it in joint space, keeping the motion continuous.
	teleop.OnRawTarget(TargetPose{Position: r3.Vector{X: 0.3, Z: 0.5}})
	teleop.OnRawTarget(TargetPose{Position: r3.Vector{X: 0.3, Z: 0.5}})
	teleop.OnRawTarget(TargetPose{Position: r3.Vector{X: 0.31, Z: 0.5}})
	teleop.Tick()
	second := state.Joints()

	for i := range first {
		test.That(t, math.Abs(second[i].Value-first[i].Value), test.ShouldBeLessThan, 0.2)
	}
}

func TestGripperThreshold(t *testing.T) {
	teleop, _ := pandaTeleop(t)
	test.That(t, teleop.GripperClosed(), test.ShouldBeFalse)

	teleop.OnRawTarget(TargetPose{Gripper: 0.49})
	test.That(t, teleop.GripperClosed(), test.ShouldBeFalse)
	test.That(t, teleop.Gripper(), test.ShouldEqual, 0.49)

	teleop.OnRawTarget(TargetPose{Gripper: 0.5})
	test.That(t, teleop.GripperClosed(), test.ShouldBeTrue)

	teleop.OnRawTarget(TargetPose{Gripper: 0.9})
	test.That(t, teleop.GripperClosed(), test.ShouldBeTrue)
}

func TestTeleopReset(t *testing.T) {
	teleop, state := pandaTeleop(t)

	teleop.OnRawTarget(TargetPose{Position: r3.Vector{X: 0.3, Z: 0.5}, Gripper: 0.8})
	teleop.Tick()

	teleop.Reset()
	_, ok := teleop.FilteredTarget()
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, teleop.GripperClosed(), test.ShouldBeFalse)
	test.That(t, teleop.Visual(), test.ShouldResemble, state.Joints())
}

func TestNewTeleopChainMismatch(t *testing.T) {
	logger := golog.NewTestLogger(t)
	panda := loadPanda(t)
	solver, err := kinematics.CreateGradientIKSolver(panda, logger, nil)
	test.That(t, err, test.ShouldBeNil)

	twoJoint := referenceframe.ModelConfig{
		Name:         "twojoint",
		KinParamType: "DH",
		DHParams: []referenceframe.DHParamConfig{
			{ID: "joint1", A: 0.3, Min: -1, Max: 1},
			{ID: "joint2", A: 0.3, Min: -1, Max: 1},
		},
		Home: []float64{0, 0},
	}
	other, err := twoJoint.ParseConfig("")
	test.That(t, err, test.ShouldBeNil)

	_, err = NewTeleop(NewState(other), solver, TeleopConfig{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
}
