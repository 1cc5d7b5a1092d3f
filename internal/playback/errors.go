package playback

import (
	"errors"
	"fmt"

	"cuegrid/internal/output"
)

// Operator-facing playback failures. All are non-fatal: they are
// reported through the event sink and the channel that caused them is
// left untouched.
var (
	ErrAssetNotFound     = errors.New("media file missing or unreadable")
	ErrDecodeFailure     = errors.New("media file cannot be played")
	ErrDuplicateAudio    = errors.New("audio file already playing in another channel")
	ErrAmbiguousTrigger  = errors.New("trigger column has two slots of the same kind")
	ErrInconsistentState = errors.New("playback state out of sync with outputs")
)

// classifyLoadError maps an output-port load failure onto the operator
// taxonomy, keeping the port's detail in the chain.
func classifyLoadError(err error) error {
	switch {
	case errors.Is(err, output.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrAssetNotFound, err)
	case errors.Is(err, output.ErrDecode):
		return fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	default:
		return fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
}
