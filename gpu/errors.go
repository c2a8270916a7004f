package gpu

import "errors"

var (
	// ErrNoAdapterFound is returned when enumeration yields no adapter at all.
	ErrNoAdapterFound = errors.New("no gpu adapter found")
	// ErrDeviceRequestFailed is returned when the adapter refuses to give us a usable device.
	ErrDeviceRequestFailed = errors.New("device request failed")
	// ErrUnsupportedElementKind is returned before any device work for kinds outside u32/i32/f32.
	ErrUnsupportedElementKind = errors.New("unsupported element kind")
	// ErrMapFailure is returned when the readback buffer could not be mapped for reading.
	ErrMapFailure = errors.New("readback map failed")
	// ErrSessionClosed is returned when sorting on a session after Close.
	ErrSessionClosed = errors.New("session closed")
)
