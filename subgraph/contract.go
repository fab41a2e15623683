package subgraph

import "github.com/pkg/errors"

// The structural contract an encoder-decoder generation subgraph must satisfy.
//
// Inputs, in order: encoder_input_ids, encoder_attention_mask, decoder_input_ids,
// all int32.
//
// Outputs, in order: logits (float32, float16 or bfloat16), encoder_hidden_states,
// present_key_self_0, present_value_self_0, then 4 more cache outputs per additional
// layer (present key/value, self/cross); so output count is 2 + 4*num_layers.
const (
	// NumInputs is the exact number of inputs the subgraph must declare.
	NumInputs = 3

	// MinOutputs is the minimum number of outputs: 2 non-cache outputs plus the
	// 4 cache outputs of a single layer.
	MinOutputs = 6

	// NumNonCacheOutputs are logits and encoder_hidden_states.
	NumNonCacheOutputs = 2

	// OutputsPerLayer is the number of cache outputs each decoder layer contributes:
	// present key/value for both self- and cross-attention.
	OutputsPerLayer = 4
)

// inputNames are the required names of the subgraph inputs, by position.
var inputNames = [NumInputs]string{
	"encoder_input_ids",
	"encoder_attention_mask",
	"decoder_input_ids",
}

// outputNames are the required names of the first subgraph outputs, by position.
// Cache outputs beyond position 3 are not name-checked: their per-layer ordering is
// model-dependent.
var outputNames = [4]string{
	"logits",
	"encoder_hidden_states",
	"present_key_self_0",
	"present_value_self_0",
}

// NumLayersForOutputCount returns the number of decoder layers implied by the output
// count, or ErrWrongOutputCount if the count doesn't fit the contract.
func NumLayersForOutputCount(numOutputs int) (int, error) {
	if numOutputs < MinOutputs {
		return 0, errors.Wrapf(ErrWrongOutputCount, "expect >=%d outputs, got %d", MinOutputs, numOutputs)
	}
	if (numOutputs-NumNonCacheOutputs)%OutputsPerLayer != 0 {
		return 0, errors.Wrapf(ErrWrongOutputCount, "number of outputs expected to be %d + %d*layers, got %d",
			NumNonCacheOutputs, OutputsPerLayer, numOutputs)
	}
	return (numOutputs - NumNonCacheOutputs) / OutputsPerLayer, nil
}
