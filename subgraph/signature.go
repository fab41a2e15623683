package subgraph

import (
	"slices"

	"github.com/gomlx/encdec/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
)

// ValueInfo describes one declared input or output of a subgraph: its name, element
// type and declared shape. The shape may contain symbolic dimensions
// (shapes.DynamicDim) for axes only resolved when the graph is fed.
type ValueInfo struct {
	Name  string
	DType dtypes.DType
	Shape shapes.Shape
}

// Signature is the declared input/output signature of a subgraph, in declaration order.
// It is immutable once captured: the accessors below return copies.
type Signature struct {
	inputs  []ValueInfo
	outputs []ValueInfo
}

// MakeSignature captures a subgraph signature from its ordered input and output
// descriptors. The slices are copied.
func MakeSignature(inputs, outputs []ValueInfo) Signature {
	return Signature{
		inputs:  slices.Clone(inputs),
		outputs: slices.Clone(outputs),
	}
}

// NumInputs returns the number of declared inputs.
func (sig Signature) NumInputs() int { return len(sig.inputs) }

// NumOutputs returns the number of declared outputs.
func (sig Signature) NumOutputs() int { return len(sig.outputs) }

// Input returns the descriptor of the input at the given position.
func (sig Signature) Input(position int) ValueInfo { return sig.inputs[position] }

// Output returns the descriptor of the output at the given position.
func (sig Signature) Output(position int) ValueInfo { return sig.outputs[position] }

// Inputs returns a copy of the ordered input descriptors.
func (sig Signature) Inputs() []ValueInfo { return slices.Clone(sig.inputs) }

// Outputs returns a copy of the ordered output descriptors.
func (sig Signature) Outputs() []ValueInfo { return slices.Clone(sig.outputs) }
