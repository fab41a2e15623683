package subgraph

import (
	"github.com/gomlx/encdec/backends"
	"github.com/gomlx/encdec/types/tensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// BeamExpansionRequest carries the per-request generation settings the feed builder
// needs: how many beams each batch entry is expanded to and the special token ids of
// the model's vocabulary.
type BeamExpansionRequest struct {
	// NumBeams each input sequence is replicated into; must be >= 1 (1 means greedy
	// search, no expansion).
	NumBeams int

	// PadTokenID marks padding positions in the input ids; attention masks are 0 there.
	PadTokenID int32

	// StartTokenID is the decoder start token the first decoding step is seeded with.
	StartTokenID int32
}

// DeviceHooks materialize the beam-expanded input tensors on the devices of a provider
// and place them into the feed list. They isolate the feed builder from device-specific
// allocation, copies and staging: HostHooks (see hostfeeds.go) implements them for
// host-resident tensors, accelerator backends provide their own.
type DeviceHooks interface {
	// CreateEncoderInputs builds the three beam-expanded subgraph inputs from the
	// original [batch, sequence] encoder input ids:
	//
	//   - ids: the input ids replicated per beam, [batch*beams, sequence];
	//   - mask: the attention mask over ids, 1 for real tokens and 0 for padding;
	//   - decoderIDs: [batch*beams, 1], every row seeded with startTokenID.
	//
	// It also fills sequenceLengths (len batch*beams, pre-allocated by the caller)
	// with the non-padding token count of each expanded row. All three tensors are
	// allocated through the given allocator.
	CreateEncoderInputs(encoderInputIDs *tensors.Tensor, numBeams int, padTokenID, startTokenID int32,
		sequenceLengths []int32, allocator backends.Allocator) (ids, mask, decoderIDs *tensors.Tensor, err error)

	// AddToFeeds places the three expanded inputs into the feed list, in contract
	// order, staging or copying them as the provider requires. It may grow and return
	// a scratch buffer reused across calls for staging copies; hooks that need no
	// staging return scratch unchanged.
	AddToFeeds(provider backends.Provider, ids, mask, decoderIDs *tensors.Tensor,
		feeds []*tensors.Tensor, scratch []byte) ([]*tensors.Tensor, []byte, error)
}

// CreateInitialFeeds assembles the ordered feed list for the first decoding step of one
// generation request: the three beam-expanded subgraph inputs followed by the implicit
// inputs (captured outer-scope values), in their given order.
//
// It also returns the per-row sequence lengths (len batch*beams). The scratch buffer is
// passed through to the hooks, which may grow it for staging copies; the (possibly
// grown) buffer is returned so callers can pass it back in on subsequent requests. A
// nil scratch is fine; hooks that need no staging return it unchanged.
//
// It requires Setup to have completed and returns ErrNotInitialized otherwise. Once set
// up, it is safe for concurrent use: each call works on its own buffers and the
// FeedsBuilt transition is a single atomic operation.
func (s *Subgraph) CreateInitialFeeds(encoderInputIDs *tensors.Tensor, implicitInputs []*tensors.Tensor,
	req BeamExpansionRequest, scratch []byte) ([]*tensors.Tensor, []int32, []byte, error) {
	if state := s.State(); state != StateReady && state != StateFeedsBuilt {
		return nil, nil, scratch, errors.Wrapf(ErrNotInitialized, "subgraph %q in state %s", s.name, state)
	}
	if req.NumBeams < 1 {
		return nil, nil, scratch, errors.Errorf("subgraph %q: NumBeams must be >= 1, got %d", s.name, req.NumBeams)
	}
	if encoderInputIDs == nil || encoderInputIDs.Rank() != 2 {
		return nil, nil, scratch, errors.Errorf("subgraph %q: encoder input ids must be a [batch, sequence] tensor", s.name)
	}

	// Feeds are built on the device holding the encoder input ids.
	location := encoderInputIDs.Location()
	allocator, err := s.provider.AllocatorForLocation(location)
	if err != nil {
		return nil, nil, scratch, errors.WithMessagef(err, "subgraph %q: resolving allocator for location %s", s.name, location)
	}

	batchSize := encoderInputIDs.Shape().Dim(0)
	sequenceLengths := make([]int32, batchSize*req.NumBeams)
	ids, mask, decoderIDs, err := s.hooks.CreateEncoderInputs(encoderInputIDs, req.NumBeams,
		req.PadTokenID, req.StartTokenID, sequenceLengths, allocator)
	if err != nil {
		return nil, nil, scratch, errors.WithMessagef(err, "subgraph %q: expanding encoder inputs to %d beams", s.name, req.NumBeams)
	}

	feeds := make([]*tensors.Tensor, 0, NumInputs+len(implicitInputs))
	feeds, scratch, err = s.hooks.AddToFeeds(s.provider, ids, mask, decoderIDs, feeds, scratch)
	if err != nil {
		return nil, nil, scratch, errors.WithMessagef(err, "subgraph %q: staging expanded inputs", s.name)
	}
	feeds = append(feeds, implicitInputs...)

	s.state.CompareAndSwap(int32(StateReady), int32(StateFeedsBuilt))
	klog.V(1).Infof("subgraph %q: built initial feeds for batch=%d, beams=%d: %d feeds (%d implicit)",
		s.name, batchSize, req.NumBeams, len(feeds), len(implicitInputs))
	return feeds, sequenceLengths, scratch, nil
}
