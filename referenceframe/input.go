package referenceframe

// Input wraps the variable of a mutable frame, e.g. a joint angle in radians.
type Input struct {
	Value float64
}

// FloatsToInputs wraps a slice of floats in Inputs.
func FloatsToInputs(floats []float64) []Input {
	inputs := make([]Input, len(floats))
	for i, f := range floats {
		inputs[i] = Input{f}
	}
	return inputs
}

// InputsToFloats unwraps Inputs to raw floats.
func InputsToFloats(inputs []Input) []float64 {
	floats := make([]float64, len(inputs))
	for i, f := range inputs {
		floats[i] = f.Value
	}
	return floats
}

// InterpolateInputs returns a set of inputs that are the specified percent
// between the two given sets. A by of 0.5 returns the positions halfway
// between from and to.
func InterpolateInputs(from, to []Input, by float64) []Input {
	interp := make([]Input, 0, len(from))
	for i, j1 := range from {
		interp = append(interp, Input{j1.Value + ((to[i].Value - j1.Value) * by)})
	}
	return interp
}
