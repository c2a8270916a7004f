package pods

import "errors"

var (
	// ErrNoGPU is returned by GPU hooks when no session is attached.
	ErrNoGPU = errors.New("gpu unavailable (no session attached)")

	ErrUnknownPod = errors.New("unknown pod")
)
