package external

import "errors"

// ErrUpstreamUnavailable marks a remote provider or model endpoint failure.
// Handlers translate it to 502 so callers can tell "service down" apart
// from bad input or a nonsense model reply.
var ErrUpstreamUnavailable = errors.New("upstream provider unavailable")
