// Package subgraph validates the structural contract of encoder-decoder generation
// subgraphs and builds the tensor feeds for their first decoding step.
//
// A Subgraph is created from the declared Signature of a computation subgraph that an
// external executor will run once per decoding step of a beam search: an encoder
// producing cross-attention state consumed by a decoder with per-layer key/value caches.
//
// The lifecycle is staged and explicit:
//
//  1. Validate checks the signature against the fixed contract (see contract.go) and
//     derives the ModelParameters (layer count from the output count, heads/head-size
//     from declared shapes). It runs exactly once, at model-load time.
//  2. Setup binds the execution resources: the backends.Provider that will run the
//     subgraph and the DeviceHooks used to materialize tensors on its devices.
//  3. CreateInitialFeeds runs once per generation request and assembles the ordered
//     feed list for the first invocation.
//
// Violating this ordering is a programming error: Validate and Setup panic when called
// out of order (see github.com/gomlx/exceptions), while CreateInitialFeeds returns
// ErrNotInitialized, since it is the one operation reachable from per-request paths.
//
// The package performs no tensor math and never touches devices directly: allocation
// and device placement are delegated to the backends package and the DeviceHooks.
package subgraph

import (
	"sync/atomic"

	"github.com/gomlx/encdec/backends"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// State of a Subgraph in its staged lifecycle.
type State int

//go:generate enumer -type=State -trimprefix=State subgraph.go

const (
	// StateUnvalidated is the initial state, before Validate succeeded.
	StateUnvalidated State = iota

	// StateValidated means Validate succeeded and ModelParameters are fixed.
	StateValidated

	// StateReady means Setup bound a provider and hooks; feeds can be built.
	StateReady

	// StateFeedsBuilt means at least one generation request had its initial
	// feeds built.
	StateFeedsBuilt
)

// Subgraph owns the declared signature of one encoder-decoder generation subgraph, the
// model parameters derived from it, and the execution resources bound to it.
//
// After Validate and Setup complete, a Subgraph is read-only except for the atomic
// Ready to FeedsBuilt transition: concurrent generation requests may call
// CreateInitialFeeds on the same instance.
type Subgraph struct {
	name string
	sig  Signature

	// state holds a State value; atomic because CreateInitialFeeds transitions it
	// from concurrent per-request calls.
	state atomic.Int32

	params ModelParameters

	provider backends.Provider
	hooks    DeviceHooks
}

// New creates a Subgraph from its declared signature, in state StateUnvalidated.
// The name is used only for error messages and logging.
func New(name string, sig Signature) *Subgraph {
	return &Subgraph{name: name, sig: sig}
}

// Name of the subgraph, set at construction.
func (s *Subgraph) Name() string { return s.name }

// State returns the current lifecycle state.
func (s *Subgraph) State() State { return State(s.state.Load()) }

// Signature returns the captured signature.
func (s *Subgraph) Signature() Signature { return s.sig }

// Parameters returns the model parameters derived by Validate. It panics if the
// subgraph was not validated yet.
func (s *Subgraph) Parameters() ModelParameters {
	if s.State() == StateUnvalidated {
		exceptions.Panicf("Subgraph %q: Parameters called before Validate", s.name)
	}
	return s.params
}

// Validate checks the subgraph's declared signature against the structural contract
// and, on success, derives and stores the ModelParameters and moves the subgraph to
// StateValidated.
//
// It must run exactly once, before Setup; calling it on an already validated subgraph
// panics. A failed Validate leaves the subgraph in StateUnvalidated and aborts model
// loading: the errors are model-authoring defects (see errors.go) and not retryable.
func (s *Subgraph) Validate() (ModelParameters, error) {
	if state := s.State(); state != StateUnvalidated {
		exceptions.Panicf("Subgraph %q: Validate called in state %s, it must run exactly once before Setup", s.name, state)
	}

	// Counts.
	if s.sig.NumInputs() != NumInputs {
		return ModelParameters{}, errors.Wrapf(ErrWrongInputCount, "subgraph %q: expect %d inputs, got %d",
			s.name, NumInputs, s.sig.NumInputs())
	}
	numLayers, err := NumLayersForOutputCount(s.sig.NumOutputs())
	if err != nil {
		return ModelParameters{}, errors.WithMessagef(err, "subgraph %q", s.name)
	}

	// Fixed-position names.
	for position, want := range inputNames {
		if got := s.sig.Input(position).Name; got != want {
			return ModelParameters{}, errors.Wrapf(ErrNameMismatch, "subgraph %q: input %d shall be named %q, got %q",
				s.name, position, want, got)
		}
	}
	for position, want := range outputNames {
		if got := s.sig.Output(position).Name; got != want {
			return ModelParameters{}, errors.Wrapf(ErrNameMismatch, "subgraph %q: output %d shall be named %q, got %q",
				s.name, position, want, got)
		}
	}

	// Element types.
	for position := range NumInputs {
		if dtype := s.sig.Input(position).DType; dtype != dtypes.Int32 {
			return ModelParameters{}, errors.Wrapf(ErrUnsupportedDataType, "subgraph %q: input %d (%s) shall have int32 element type, got %s",
				s.name, position, inputNames[position], dtype)
		}
	}
	logitsDType := s.sig.Output(0).DType
	switch logitsDType {
	case dtypes.Float32, dtypes.Float16, dtypes.BFloat16:
	default:
		return ModelParameters{}, errors.Wrapf(ErrUnsupportedDataType, "subgraph %q: output 0 (logits) shall be float32, float16 or bfloat16, got %s",
			s.name, logitsDType)
	}

	// Shape-derived parameters: first self-attention cache and logits.
	numHeads, headSize, hiddenSize, err := extractParameters(s.sig.Output(2).Shape, s.sig.Output(0).Shape)
	if err != nil {
		return ModelParameters{}, errors.WithMessagef(err, "subgraph %q", s.name)
	}

	s.params = ModelParameters{
		NumLayers:          numLayers,
		NumHeads:           numHeads,
		HeadSize:           headSize,
		HiddenSize:         hiddenSize,
		OutputLowPrecision: logitsDType == dtypes.Float16 || logitsDType == dtypes.BFloat16,
	}
	s.state.Store(int32(StateValidated))
	klog.V(1).Infof("subgraph %q validated: layers=%d, heads=%d, head_size=%d, hidden=%d, low_precision=%v",
		s.name, numLayers, numHeads, headSize, hiddenSize, s.params.OutputLowPrecision)
	return s.params, nil
}

// Setup binds the execution resources the feed builder needs: the provider the feeds
// are assembled for, and the device hooks used to materialize tensors on its devices.
// It moves the subgraph from StateValidated to StateReady.
//
// It panics if called before Validate succeeded, or with nil resources: both are
// programming errors, not runtime data errors.
func (s *Subgraph) Setup(provider backends.Provider, hooks DeviceHooks) {
	if state := s.State(); state != StateValidated {
		exceptions.Panicf("Subgraph %q: Setup called in state %s, Validate must succeed first", s.name, state)
	}
	if provider == nil || hooks == nil {
		exceptions.Panicf("Subgraph %q: Setup requires a non-nil provider and hooks", s.name)
	}
	s.provider = provider
	s.hooks = hooks
	s.state.Store(int32(StateReady))
}
