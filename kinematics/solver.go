// Package kinematics solves for joint configurations of serial chains.
//
// The solver is numerical: it estimates a Jacobian by finite differences of
// the chain's forward kinematics, so it works for any chain described by DH
// parameters rather than only chains with known closed-form solutions.
package kinematics

import (
	"github.com/golang/geo/r3"

	"github.com/scenekit/armcore/referenceframe"
)

// InverseKinematics solves for a joint configuration placing the chain's end
// effector at a target position.
type InverseKinematics interface {
	// Solve returns joint angles that drive the end effector toward target,
	// starting from the seed configuration. It always returns a within-limits
	// configuration: if the target is unreachable, the result is the best
	// effort found within the iteration cap, and no error is raised for it.
	Solve(target r3.Vector, seed []referenceframe.Input) ([]referenceframe.Input, error)

	// Model returns the chain this solver was built for.
	Model() referenceframe.Model
}

// SolverOptions configures the iterative solve. Zero fields are filled with
// the corresponding defaults.
type SolverOptions struct {
	// MaxIterations caps the work done per solve. It doubles as the
	// real-time budget: a solve can never stall a frame longer than this
	// many FK+Jacobian evaluations.
	MaxIterations int `json:"max_iterations"`

	// ConvergenceEpsilon is the positional error, in the chain's length
	// units, below which a solve stops early.
	ConvergenceEpsilon float64 `json:"convergence_epsilon"`

	// MaxStep bounds how far any single joint may move in one iteration,
	// in radians.
	MaxStep float64 `json:"max_step"`

	// Damping stabilizes the update near singular configurations. The
	// effective damping scales with the current error magnitude, so the
	// solver decelerates as it approaches the target.
	Damping float64 `json:"damping"`

	// Perturbation is the angular delta used for the finite-difference
	// Jacobian estimate.
	Perturbation float64 `json:"perturbation"`
}

const (
	defaultMaxIterations = 20
	defaultEpsilon       = 0.002
	defaultMaxStep       = 0.15
	defaultDamping       = 0.5
	defaultPerturbation  = 1e-4
)

// DefaultSolverOptions returns the options used by the teleoperation loop.
func DefaultSolverOptions() *SolverOptions {
	return &SolverOptions{
		MaxIterations:      defaultMaxIterations,
		ConvergenceEpsilon: defaultEpsilon,
		MaxStep:            defaultMaxStep,
		Damping:            defaultDamping,
		Perturbation:       defaultPerturbation,
	}
}

func (o *SolverOptions) fillDefaults() {
	def := DefaultSolverOptions()
	if o.MaxIterations <= 0 {
		o.MaxIterations = def.MaxIterations
	}
	if o.ConvergenceEpsilon <= 0 {
		o.ConvergenceEpsilon = def.ConvergenceEpsilon
	}
	if o.MaxStep <= 0 {
		o.MaxStep = def.MaxStep
	}
	if o.Damping <= 0 {
		o.Damping = def.Damping
	}
	if o.Perturbation <= 0 {
		o.Perturbation = def.Perturbation
	}
}
