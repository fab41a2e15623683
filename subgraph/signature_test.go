package subgraph

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureAccessors(t *testing.T) {
	// Accessors work on a plain Signature value, including directly on a
	// function-call result.
	require.Equal(t, 3, makeContractSignature(1, dtypes.Float32).NumInputs())
	require.Equal(t, 6, makeContractSignature(1, dtypes.Float32).NumOutputs())
	inputs := makeContractSignature(1, dtypes.Float32).Inputs()
	outputs := makeContractSignature(1, dtypes.Float32).Outputs()
	require.Len(t, inputs, 3)
	require.Len(t, outputs, 6)
}

func TestSignatureImmutable(t *testing.T) {
	sig := makeContractSignature(1, dtypes.Float32)

	// The accessors return copies: mutating them doesn't touch the signature.
	inputs := sig.Inputs()
	inputs[0].Name = "changed"
	assert.Equal(t, "encoder_input_ids", sig.Input(0).Name)

	// MakeSignature copies its arguments too.
	original := []ValueInfo{{Name: "encoder_input_ids", DType: dtypes.Int32}}
	sig2 := MakeSignature(original, nil)
	original[0].Name = "changed"
	assert.Equal(t, "encoder_input_ids", sig2.Input(0).Name)
}
