package gpu

import (
	"fmt"
	"strings"
)

// Kind is the closed set of element types the rank sort kernel is compiled for.
type Kind int

const (
	KindUint32 Kind = iota
	KindInt32
	KindFloat32
)

// Kinds lists every supported kind in declaration order.
var Kinds = []Kind{KindUint32, KindInt32, KindFloat32}

// Element is the set of Go types that map onto a Kind.
type Element interface {
	uint32 | int32 | float32
}

// String returns the WGSL scalar token for the kind.
func (k Kind) String() string {
	switch k {
	case KindUint32:
		return "u32"
	case KindInt32:
		return "i32"
	case KindFloat32:
		return "f32"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Size is the byte width of one element.
func (k Kind) Size() int { return 4 }

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindUint32, KindInt32, KindFloat32:
		return true
	}
	return false
}

// ParseKind accepts the WGSL token or the Go type name of a kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "u32", "uint32":
		return KindUint32, nil
	case "i32", "int32":
		return KindInt32, nil
	case "f32", "float32":
		return KindFloat32, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedElementKind, s)
}

// KindOf resolves the kind of T at the call boundary.
func KindOf[T Element]() Kind {
	var zero T
	switch any(zero).(type) {
	case uint32:
		return KindUint32
	case int32:
		return KindInt32
	default:
		return KindFloat32
	}
}
