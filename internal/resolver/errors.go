package resolver

import (
	"fmt"
	"strings"
)

type FailKind int

const (
	// Unavailable covers extractor errors and empty results: the video or
	// playlist cannot be fetched right now.
	Unavailable FailKind = iota
	// RateLimited means the extractor was throttled by the source.
	RateLimited
	// Malformed means the reference itself is not a usable URL or ID.
	Malformed
	// NoAudioFormat means metadata resolved but no audio-only track was
	// found in the format list.
	NoAudioFormat
)

func (k FailKind) String() string {
	switch k {
	case Unavailable:
		return "unavailable"
	case RateLimited:
		return "rate_limited"
	case Malformed:
		return "malformed"
	case NoAudioFormat:
		return "no_audio_format"
	}
	return "unknown"
}

// Failure is the typed error value every resolver operation returns on
// trouble. The volatile extractor call is wrapped here and nowhere else.
type Failure struct {
	Kind FailKind
	Ref  string
	Err  error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("resolve %s (%s): %v", f.Ref, f.Kind, f.Err)
	}
	return fmt.Sprintf("resolve %s: %s", f.Ref, f.Kind)
}

func (f *Failure) Unwrap() error { return f.Err }

func failure(ref string, err error) *Failure {
	return &Failure{Kind: classify(err), Ref: ref, Err: err}
}

func classify(err error) FailKind {
	if err == nil {
		return Unavailable
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate-limit") || strings.Contains(msg, "too many requests"):
		return RateLimited
	case strings.Contains(msg, "unsupported url") || strings.Contains(msg, "is not a valid url"):
		return Malformed
	default:
		return Unavailable
	}
}
