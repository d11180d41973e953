package kinematics

import (
	"strings"

	"github.com/edaniels/golog"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/scenekit/armcore/referenceframe"
	"github.com/scenekit/armcore/utils"
)

// GradientIK is a damped least-squares solver over a numerically estimated
// Jacobian. Each iteration perturbs every joint to estimate how the end
// effector moves, solves a damped 3x3 system for the update direction, and
// clamps the result to the joint limits.
//
// Given identical inputs the solve is bit-for-bit reproducible: there is no
// randomness and no concurrency anywhere in the loop.
type GradientIK struct {
	model      referenceframe.Model
	opts       SolverOptions
	lowerBound []float64
	upperBound []float64
	weights    []float64
	logger     golog.Logger

	// scratch buffers, reused across iterations to keep the per-tick solve
	// allocation-light
	inputs []referenceframe.Input
	jac    []r3.Vector
}

// CreateGradientIKSolver builds a solver for the given chain. A nil opts uses
// DefaultSolverOptions; zero fields within opts are likewise defaulted.
func CreateGradientIKSolver(model referenceframe.Model, logger golog.Logger, opts *SolverOptions) (*GradientIK, error) {
	if model == nil {
		return nil, errors.New("solver needs a kinematic model")
	}
	if opts == nil {
		opts = DefaultSolverOptions()
	}
	o := *opts
	o.fillDefaults()

	ik := &GradientIK{model: model, opts: o, logger: logger}
	for _, limit := range model.DoF() {
		ik.lowerBound = append(ik.lowerBound, limit.Min)
		ik.upperBound = append(ik.upperBound, limit.Max)
	}
	if len(ik.lowerBound) == 0 {
		return nil, errors.New("cannot solve for a chain with no degrees of freedom")
	}
	ik.weights = model.SolveWeights()
	if len(ik.weights) != len(ik.lowerBound) {
		return nil, referenceframe.NewIncorrectDoFError(len(ik.weights), len(ik.lowerBound))
	}
	ik.inputs = make([]referenceframe.Input, len(ik.lowerBound))
	ik.jac = make([]r3.Vector, len(ik.lowerBound))
	ik.logger.Debugw("created gradient IK solver", "model", model.Name(), "dof", len(ik.lowerBound))
	return ik, nil
}

// Model returns the chain this solver was built for.
func (ik *GradientIK) Model() referenceframe.Model {
	return ik.model
}

// Solve iterates toward the target from the seed configuration. The returned
// configuration is always within joint limits. Unreachable targets are not an
// error; the solve simply returns the closest configuration found when the
// iteration cap is hit.
func (ik *GradientIK) Solve(target r3.Vector, seed []referenceframe.Input) ([]referenceframe.Input, error) {
	dof := len(ik.lowerBound)
	if len(seed) != dof {
		return nil, referenceframe.NewIncorrectDoFError(len(seed), dof)
	}

	q := make([]float64, dof)
	for i, s := range seed {
		q[i] = utils.Clamp(s.Value, ik.lowerBound[i], ik.upperBound[i])
	}

	for iter := 0; iter < ik.opts.MaxIterations; iter++ {
		cur, err := ik.evaluate(q)
		if err != nil {
			return nil, err
		}
		errVec := target.Sub(cur)
		mag := errVec.Norm()
		if mag < ik.opts.ConvergenceEpsilon {
			break
		}

		// Estimate the Jacobian column for each joint by finite differences.
		// At the upper limit the perturbation is flipped downward so the
		// probe stays within bounds.
		for j := 0; j < dof; j++ {
			qj := q[j]
			jump := ik.opts.Perturbation
			flip := false
			if qj+jump > ik.upperBound[j] {
				flip = true
				q[j] = qj - jump
			} else {
				q[j] = qj + jump
			}
			perturbed, err := ik.evaluate(q)
			q[j] = qj
			if err != nil {
				return nil, err
			}
			col := perturbed.Sub(cur).Mul(1 / jump)
			if flip {
				col = col.Mul(-1)
			}
			ik.jac[j] = col
		}

		// Solve (J W J^T + lambda I) f = error for the update direction.
		// Damping proportional to the error magnitude makes large errors
		// move boldly and small errors settle without oscillation.
		lambda := ik.opts.Damping * ik.opts.Damping * mag
		var axx, axy, axz, ayy, ayz, azz float64
		for j, col := range ik.jac {
			w := ik.weights[j]
			axx += w * col.X * col.X
			axy += w * col.X * col.Y
			axz += w * col.X * col.Z
			ayy += w * col.Y * col.Y
			ayz += w * col.Y * col.Z
			azz += w * col.Z * col.Z
		}
		a := mgl64.Mat3{
			axx + lambda, axy, axz,
			axy, ayy + lambda, ayz,
			axz, ayz, azz + lambda,
		}
		fv := a.Inv().Mul3x1(mgl64.Vec3{errVec.X, errVec.Y, errVec.Z})
		f := r3.Vector{X: fv.X(), Y: fv.Y(), Z: fv.Z()}

		// Per-joint update: project the direction through each Jacobian
		// column, weight it, bound it to MaxStep, and clamp to limits so an
		// out-of-range angle never survives an iteration.
		for j := 0; j < dof; j++ {
			g := ik.weights[j] * ik.jac[j].Dot(f)
			if g > ik.opts.MaxStep {
				g = ik.opts.MaxStep
			} else if g < -ik.opts.MaxStep {
				g = -ik.opts.MaxStep
			}
			q[j] = utils.Clamp(q[j]+g, ik.lowerBound[j], ik.upperBound[j])
		}
	}

	return referenceframe.FloatsToInputs(q), nil
}

// evaluate runs FK at the given angles. Out-of-bounds errors are tolerated
// here: the probe angles are always within a perturbation of the limits, and
// the resulting pose is still well defined.
func (ik *GradientIK) evaluate(q []float64) (r3.Vector, error) {
	for i, v := range q {
		ik.inputs[i] = referenceframe.Input{Value: v}
	}
	pose, err := ik.model.Transform(ik.inputs)
	if err != nil && !strings.Contains(err.Error(), referenceframe.OOBErrString) {
		return r3.Vector{}, err
	}
	return pose.Point(), nil
}
