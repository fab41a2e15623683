package subgraph

import (
	"fmt"
	"testing"

	"github.com/gomlx/encdec/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeContractSignature builds a signature that satisfies the contract for the given
// number of decoder layers, with 8 heads of size 64 (hidden 512) and the given logits
// element type.
func makeContractSignature(numLayers int, logitsDType dtypes.DType) Signature {
	inputs := []ValueInfo{
		{Name: "encoder_input_ids", DType: dtypes.Int32, Shape: shapes.MakeDynamic(dtypes.Int32, -1, -1)},
		{Name: "encoder_attention_mask", DType: dtypes.Int32, Shape: shapes.MakeDynamic(dtypes.Int32, -1, -1)},
		{Name: "decoder_input_ids", DType: dtypes.Int32, Shape: shapes.MakeDynamic(dtypes.Int32, -1, 1)},
	}
	hiddenDType := logitsDType
	outputs := []ValueInfo{
		{Name: "logits", DType: logitsDType, Shape: shapes.MakeDynamic(logitsDType, -1, -1, 512)},
		{Name: "encoder_hidden_states", DType: hiddenDType, Shape: shapes.MakeDynamic(hiddenDType, -1, -1, 512)},
	}
	for layer := range numLayers {
		for _, kind := range []string{"key_self", "value_self", "key_cross", "value_cross"} {
			outputs = append(outputs, ValueInfo{
				Name:  fmt.Sprintf("present_%s_%d", kind, layer),
				DType: hiddenDType,
				Shape: shapes.MakeDynamic(hiddenDType, -1, 8, -1, 64),
			})
		}
	}
	return MakeSignature(inputs, outputs)
}

func TestValidate(t *testing.T) {
	for numLayers := 1; numLayers <= 4; numLayers++ {
		sg := New(fmt.Sprintf("encdec-%d", numLayers), makeContractSignature(numLayers, dtypes.Float32))
		require.Equal(t, StateUnvalidated, sg.State())
		params, err := sg.Validate()
		require.NoError(t, err)
		assert.Equal(t, numLayers, params.NumLayers)
		assert.Equal(t, 8, params.NumHeads)
		assert.Equal(t, 64, params.HeadSize)
		assert.Equal(t, 512, params.HiddenSize)
		assert.False(t, params.OutputLowPrecision)
		assert.Equal(t, StateValidated, sg.State())
		assert.Equal(t, params, sg.Parameters())
	}
}

func TestValidateLowPrecision(t *testing.T) {
	for _, dtype := range []dtypes.DType{dtypes.Float16, dtypes.BFloat16} {
		sg := New("encdec", makeContractSignature(2, dtype))
		params, err := sg.Validate()
		require.NoError(t, err)
		assert.True(t, params.OutputLowPrecision)
	}
}

func TestValidateCounts(t *testing.T) {
	// Missing input.
	sig := makeContractSignature(1, dtypes.Float32)
	sg := New("encdec", MakeSignature(sig.Inputs()[:2], sig.Outputs()))
	_, err := sg.Validate()
	require.ErrorIs(t, err, ErrWrongInputCount)

	// Fewer outputs than a single layer requires.
	sg = New("encdec", MakeSignature(sig.Inputs(), sig.Outputs()[:5]))
	_, err = sg.Validate()
	require.ErrorIs(t, err, ErrWrongOutputCount)

	// An output count that doesn't decompose as 2 + 4*layers.
	sig = makeContractSignature(2, dtypes.Float32)
	sg = New("encdec", MakeSignature(sig.Inputs(), sig.Outputs()[:7]))
	_, err = sg.Validate()
	require.ErrorIs(t, err, ErrWrongOutputCount)
}

func TestValidateNames(t *testing.T) {
	inputs := makeContractSignature(1, dtypes.Float32).Inputs()
	outputs := makeContractSignature(1, dtypes.Float32).Outputs()

	renamedInputs := append([]ValueInfo{}, inputs...)
	renamedInputs[1].Name = "attention_mask"
	sg := New("encdec", MakeSignature(renamedInputs, outputs))
	_, err := sg.Validate()
	require.ErrorIs(t, err, ErrNameMismatch)
	assert.Contains(t, err.Error(), "input 1")
	assert.Contains(t, err.Error(), `"encoder_attention_mask"`)
	assert.Contains(t, err.Error(), `"attention_mask"`)

	renamedOutputs := append([]ValueInfo{}, outputs...)
	renamedOutputs[2].Name = "present_key_0"
	sg = New("encdec", MakeSignature(inputs, renamedOutputs))
	_, err = sg.Validate()
	require.ErrorIs(t, err, ErrNameMismatch)
	assert.Contains(t, err.Error(), "output 2")
	assert.Contains(t, err.Error(), `"present_key_self_0"`)
}

func TestValidateDataTypes(t *testing.T) {
	sig := makeContractSignature(1, dtypes.Float32)

	// Inputs must be int32.
	inputs := sig.Inputs()
	inputs[2].DType = dtypes.Int64
	sg := New("encdec", MakeSignature(inputs, sig.Outputs()))
	_, err := sg.Validate()
	require.ErrorIs(t, err, ErrUnsupportedDataType)
	assert.Contains(t, err.Error(), "decoder_input_ids")

	// Logits must be a supported float type.
	outputs := sig.Outputs()
	outputs[0].DType = dtypes.Float64
	sg = New("encdec", MakeSignature(sig.Inputs(), outputs))
	_, err = sg.Validate()
	require.ErrorIs(t, err, ErrUnsupportedDataType)
	assert.Contains(t, err.Error(), "logits")
}

func TestValidateTwicePanics(t *testing.T) {
	sg := New("encdec", makeContractSignature(1, dtypes.Float32))
	_, err := sg.Validate()
	require.NoError(t, err)
	require.Panics(t, func() { _, _ = sg.Validate() })
}

func TestParametersBeforeValidatePanics(t *testing.T) {
	sg := New("encdec", makeContractSignature(1, dtypes.Float32))
	require.Panics(t, func() { _ = sg.Parameters() })
}

func TestNumLayersForOutputCount(t *testing.T) {
	for _, test := range []struct {
		numOutputs, numLayers int
		ok                    bool
	}{
		{6, 1, true},
		{10, 2, true},
		{26, 6, true},
		{5, 0, false},
		{0, 0, false},
		{8, 0, false},
	} {
		numLayers, err := NumLayersForOutputCount(test.numOutputs)
		if test.ok {
			require.NoError(t, err)
			assert.Equal(t, test.numLayers, numLayers)
		} else {
			require.ErrorIs(t, err, ErrWrongOutputCount)
		}
	}
}
