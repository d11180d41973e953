package kinematics

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/scenekit/armcore/referenceframe"
	"github.com/scenekit/armcore/utils"
)

func pandaSolver(t *testing.T) *GradientIK {
	t.Helper()
	logger := golog.NewTestLogger(t)
	m, err := referenceframe.ParseModelJSONFile(utils.ResolveFile("models/panda.json"), "")
	test.That(t, err, test.ShouldBeNil)
	ik, err := CreateGradientIKSolver(m, logger, nil)
	test.That(t, err, test.ShouldBeNil)
	return ik
}

func solveError(t *testing.T, ik *GradientIK, target r3.Vector, solution []referenceframe.Input) float64 {
	t.Helper()
	pose, err := ik.Model().Transform(solution)
	test.That(t, err, test.ShouldBeNil)
	return target.Sub(pose.Point()).Norm()
}

func assertWithinLimits(t *testing.T, ik *GradientIK, solution []referenceframe.Input) {
	t.Helper()
	for i, limit := range ik.Model().DoF() {
		test.That(t, solution[i].Value, test.ShouldBeBetweenOrEqual, limit.Min, limit.Max)
	}
}

func TestSolveReachableTarget(t *testing.T) {
	ik := pandaSolver(t)
	target := r3.Vector{X: 0.3, Y: 0, Z: 0.5}
	solution, err := ik.Solve(target, ik.Model().HomePosition())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solveError(t, ik, target, solution), test.ShouldBeLessThan, 0.002)
	assertWithinLimits(t, ik, solution)
}

func TestSolveRoundTrip(t *testing.T) {
	ik := pandaSolver(t)
	model := ik.Model()
	home := model.HomePosition()

	goal := referenceframe.ClampToLimits(model, referenceframe.FloatsToInputs(
		[]float64{0.3, -0.2, 0.1, -1.32, -0.3, 1.77, 0.1}))
	pose, err := model.Transform(goal)
	test.That(t, err, test.ShouldBeNil)
	target := pose.Point()

	// Seeding with the goal itself converges immediately and returns it.
	solution, err := ik.Solve(target, goal)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solution, test.ShouldResemble, goal)

	// Seeding from home still reaches the same position.
	solution, err = ik.Solve(target, home)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solveError(t, ik, target, solution), test.ShouldBeLessThan, 0.002)
	assertWithinLimits(t, ik, solution)
}

func TestSolveDeterminism(t *testing.T) {
	ik := pandaSolver(t)
	target := r3.Vector{X: 0.1, Y: -0.4, Z: 0.3}
	seed := ik.Model().HomePosition()

	first, err := ik.Solve(target, seed)
	test.That(t, err, test.ShouldBeNil)
	second, err := ik.Solve(target, seed)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, second, test.ShouldResemble, first)
}

func TestSolveUnreachableTarget(t *testing.T) {
	ik := pandaSolver(t)
	// Roughly 100x the chain's maximum reach. The solve must still return a
	// within-limits best effort without error.
	target := r3.Vector{X: 100, Y: 0, Z: 0}
	solution, err := ik.Solve(target, ik.Model().HomePosition())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solution, test.ShouldHaveLength, 7)
	assertWithinLimits(t, ik, solution)
}

func TestSolveClampsSeed(t *testing.T) {
	ik := pandaSolver(t)
	seed := referenceframe.FloatsToInputs([]float64{10, 10, 10, 10, 10, 10, 10})
	solution, err := ik.Solve(r3.Vector{X: 0.3, Y: 0, Z: 0.5}, seed)
	test.That(t, err, test.ShouldBeNil)
	assertWithinLimits(t, ik, solution)
}

func TestSolveSeedMismatch(t *testing.T) {
	ik := pandaSolver(t)
	_, err := ik.Solve(r3.Vector{}, referenceframe.FloatsToInputs([]float64{0, 0}))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSolverOptionsDefaults(t *testing.T) {
	opts := &SolverOptions{MaxIterations: 50}
	opts.fillDefaults()
	test.That(t, opts.MaxIterations, test.ShouldEqual, 50)
	test.That(t, opts.ConvergenceEpsilon, test.ShouldEqual, defaultEpsilon)
	test.That(t, opts.MaxStep, test.ShouldEqual, defaultMaxStep)
	test.That(t, opts.Damping, test.ShouldEqual, defaultDamping)
	test.That(t, opts.Perturbation, test.ShouldEqual, defaultPerturbation)
}

func TestCreateSolverValidation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	_, err := CreateGradientIKSolver(nil, logger, nil)
	test.That(t, err, test.ShouldNotBeNil)
}
