package arm

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/scenekit/armcore/kinematics"
	"github.com/scenekit/armcore/referenceframe"
)

// TargetPose is one raw sample from an external pose source: a position in
// the scene's coordinate space plus a continuous grip signal in [0, 1].
type TargetPose struct {
	Position r3.Vector
	Gripper  float64
}

// TeleopConfig configures the smoothing adapter. Zero fields are filled with
// the corresponding defaults.
type TeleopConfig struct {
	// SmoothingFactor is the per-tick exponential interpolation factor
	// moving the displayed configuration toward the solved one.
	SmoothingFactor float64 `json:"smoothing_factor"`

	// BufferWindow is how many raw target samples are averaged to suppress
	// single-frame jitter from the upstream pose estimator. The window is
	// deliberately short to keep added latency low.
	BufferWindow int `json:"buffer_window"`

	// GripThreshold is the grip scalar at or above which the gripper is
	// considered closed.
	GripThreshold float64 `json:"grip_threshold"`

	// AxisLocks pins the corresponding target axes (X, Y, Z) to the arm's
	// current end-effector position, constraining motion to a plane or line.
	// Locks can also be toggled at runtime with SetAxisLock.
	AxisLocks [3]bool `json:"axis_locks,omitempty"`

	// MinHeight is the lowest Z a filtered target may request, keeping the
	// end effector above the work surface.
	MinHeight float64 `json:"min_height,omitempty"`
}

const (
	defaultSmoothingFactor = 0.35
	defaultBufferWindow    = 3
	defaultGripThreshold   = 0.5
	defaultMinHeight       = 0.02
)

func (c *TeleopConfig) fillDefaults() {
	if c.SmoothingFactor <= 0 {
		c.SmoothingFactor = defaultSmoothingFactor
	}
	if c.BufferWindow <= 0 {
		c.BufferWindow = defaultBufferWindow
	}
	if c.GripThreshold <= 0 {
		c.GripThreshold = defaultGripThreshold
	}
	if c.MinHeight <= 0 {
		c.MinHeight = defaultMinHeight
	}
}

// Teleop turns a stream of raw target poses into a continuous joint
// trajectory for one arm. Raw samples arrive at whatever rate the upstream
// estimator manages; Tick runs once per rendered frame. The adapter keeps two
// configurations: the authoritative one owned by the State and solved once
// per tick, and a displayed one that exponentially trails it so motion stays
// smooth even when pose updates arrive slower than the display refresh.
type Teleop struct {
	state  *State
	solver kinematics.InverseKinematics
	cfg    TeleopConfig
	logger golog.Logger

	buffer     []r3.Vector
	hasTarget  bool
	gripScalar float64
	locks      [3]bool
	visual     []referenceframe.Input
}

// NewTeleop creates an adapter feeding the given state through the given
// solver. The solver must have been built for the same chain as the state.
func NewTeleop(state *State, solver kinematics.InverseKinematics, cfg TeleopConfig, logger golog.Logger) (*Teleop, error) {
	if len(solver.Model().DoF()) != len(state.Model().DoF()) {
		return nil, errors.New("solver and state describe different chains")
	}
	cfg.fillDefaults()
	return &Teleop{
		state:  state,
		solver: solver,
		cfg:    cfg,
		logger: logger,
		buffer: make([]r3.Vector, 0, cfg.BufferWindow),
		locks:  cfg.AxisLocks,
		visual: state.Joints(),
	}, nil
}

// SetAxisLock pins or releases one target axis. Axis is 0, 1 or 2 for
// X, Y, Z; anything else is a no-op.
func (t *Teleop) SetAxisLock(axis int, locked bool) {
	if axis < 0 || axis >= len(t.locks) {
		return
	}
	t.locks[axis] = locked
}

// AxisLocks returns which target axes are currently pinned.
func (t *Teleop) AxisLocks() [3]bool {
	return t.locks
}

// OnRawTarget buffers one raw sample from the pose source. Only the most
// recent BufferWindow positions are retained.
func (t *Teleop) OnRawTarget(pose TargetPose) {
	if len(t.buffer) == t.cfg.BufferWindow {
		copy(t.buffer, t.buffer[1:])
		t.buffer = t.buffer[:len(t.buffer)-1]
	}
	t.buffer = append(t.buffer, pose.Position)
	t.gripScalar = pose.Gripper
	t.hasTarget = true
}

// FilteredTarget returns the arithmetic mean of the buffered raw positions,
// or false if no sample has arrived yet.
func (t *Teleop) FilteredTarget() (r3.Vector, bool) {
	if !t.hasTarget {
		return r3.Vector{}, false
	}
	var sum r3.Vector
	for _, p := range t.buffer {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(t.buffer))), true
}

// Tick advances the adapter by one display frame: solve IK against the
// filtered target (warm-started from the previous authoritative
// configuration, so the solution stays continuous across ticks), then move
// the displayed configuration a fixed fraction toward the solved one. The
// smoothing step runs whether or not a new raw sample arrived this tick.
// It returns the displayed configuration for the renderer.
func (t *Teleop) Tick() []referenceframe.Input {
	if target, ok := t.FilteredTarget(); ok {
		target = t.constrainTarget(target)
		solved, err := t.solver.Solve(target, t.state.Joints())
		if err != nil {
			t.logger.Errorw("ik solve failed", "error", err)
		} else if err := t.state.SetFromSolver(solved); err != nil {
			t.logger.Errorw("could not store solved configuration", "error", err)
		}
	}
	t.visual = referenceframe.InterpolateInputs(t.visual, t.state.Joints(), t.cfg.SmoothingFactor)
	out := make([]referenceframe.Input, len(t.visual))
	copy(out, t.visual)
	return out
}

// constrainTarget applies the axis locks and the height floor to a filtered
// target. A locked axis follows the current end-effector position instead of
// the raw target, so motion stays on the unlocked axes.
func (t *Teleop) constrainTarget(target r3.Vector) r3.Vector {
	if t.locks[0] || t.locks[1] || t.locks[2] {
		if pose, err := t.state.EndEffector(); err == nil {
			cur := pose.Point()
			if t.locks[0] {
				target.X = cur.X
			}
			if t.locks[1] {
				target.Y = cur.Y
			}
			if t.locks[2] {
				target.Z = cur.Z
			}
		}
	}
	if target.Z < t.cfg.MinHeight {
		target.Z = t.cfg.MinHeight
	}
	return target
}

// Visual returns the current displayed configuration without advancing a tick.
func (t *Teleop) Visual() []referenceframe.Input {
	out := make([]referenceframe.Input, len(t.visual))
	copy(out, t.visual)
	return out
}

// Gripper returns the most recent raw grip scalar.
func (t *Teleop) Gripper() float64 {
	return t.gripScalar
}

// GripperClosed reports the binary open/closed state derived from the grip
// scalar. The pinch-distance interpretation happens upstream; this only
// thresholds the already-computed scalar.
func (t *Teleop) GripperClosed() bool {
	return t.gripScalar >= t.cfg.GripThreshold
}

// Reset drops any buffered targets and snaps the displayed configuration to
// the authoritative one, e.g. when teleoperation is re-entered after manual
// control.
func (t *Teleop) Reset() {
	t.buffer = t.buffer[:0]
	t.hasTarget = false
	t.gripScalar = 0
	t.visual = t.state.Joints()
}
