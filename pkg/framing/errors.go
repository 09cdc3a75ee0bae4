package framing

import "fmt"

// CodecError reports that one of the framing codecs rejected its input or
// detected an uncorrectable error in encoded data. The dispatch loop treats
// any CodecError as a CODEC-kind failure: log, skip the current sink, move
// on.
type CodecError struct {
	Codec  string
	Reason string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("framing: %s codec: %s", e.Codec, e.Reason)
}

func errCodec(codec, reason string) error {
	return &CodecError{Codec: codec, Reason: reason}
}
