package gpu

// WorkgroupSize is the lane count of one rank sort workgroup. It must match
// @workgroup_size in the kernel template.
const WorkgroupSize = 64

// copyAlignment is the granularity wgpu requires for buffer sizes and copies.
const copyAlignment = 4

// Layout is the sizing of one job's device buffers.
//
// LogicalSize is the byte length of the real elements. PaddedSize rounds it up
// to the device's storage alignment; the bytes in between are zero and never
// read back as data. The element count travels separately in the length buffer.
type Layout struct {
	Kind         Kind
	Count        int
	LogicalSize  uint64
	PaddedSize   uint64
	PaddingBytes uint64
	Workgroups   uint32
}

// PlanLayout sizes buffers for count elements of kind under the given
// minimum storage buffer alignment. Alignments below the copy granularity
// are raised to it.
func PlanLayout(kind Kind, count int, alignment uint64) Layout {
	if alignment < copyAlignment {
		alignment = copyAlignment
	}
	logical := uint64(count) * uint64(kind.Size())
	padded := divCeil(logical, alignment) * alignment
	return Layout{
		Kind:         kind,
		Count:        count,
		LogicalSize:  logical,
		PaddedSize:   padded,
		PaddingBytes: padded - logical,
		Workgroups:   uint32(divCeil(uint64(count), WorkgroupSize)),
	}
}

// Empty reports whether the job has nothing to sort.
func (l Layout) Empty() bool { return l.Count == 0 }

// Pad copies raw into a zero-filled buffer of PaddedSize bytes.
// raw must be exactly LogicalSize bytes.
func (l Layout) Pad(raw []byte) []byte {
	out := make([]byte, l.PaddedSize)
	copy(out, raw[:l.LogicalSize])
	return out
}

// Trim cuts a padded readback down to the logical bytes.
func (l Layout) Trim(padded []byte) []byte {
	return padded[:l.LogicalSize]
}

func divCeil(a, b uint64) uint64 {
	return (a + b - 1) / b
}
