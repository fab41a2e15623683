package subgraph

import "github.com/pkg/errors"

// Validation and feed-building errors. They are wrapped (see errors.Wrapf) with the
// offending position, expected and actual values; use errors.Is to discriminate the class.
//
// Contract violations (wrong counts, names or dtypes) are model-authoring defects and
// are never retryable. ErrShapeInference means the declared shapes are inconsistent or
// leave a required dimension symbolic. ErrNotInitialized flags an ordering violation:
// CreateInitialFeeds called before Setup.
var (
	ErrWrongInputCount     = errors.New("wrong number of subgraph inputs")
	ErrWrongOutputCount    = errors.New("wrong number of subgraph outputs")
	ErrNameMismatch        = errors.New("subgraph input/output name mismatch")
	ErrUnsupportedDataType = errors.New("unsupported data type")
	ErrShapeInference      = errors.New("cannot infer model parameters from declared shapes")
	ErrNotInitialized      = errors.New("subgraph is not set up: call Validate and Setup before building feeds")
)
