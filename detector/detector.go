package detector

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/openfluke/webgpu/wgpu"
)

/* ---------- public API ---------- */

// Report is a portable summary of one adapter's identity and caps.
type Report struct {
	Index       int      `json:"index"`
	Runtime     string   `json:"runtime"` // "native" or "wasm" (best-effort)
	Backend     string   `json:"backend"`
	AdapterType string   `json:"adapter_type"`
	VendorID    string   `json:"vendor_id_hex"`
	DeviceID    string   `json:"device_id_hex"`
	Name        string   `json:"name"`
	Vendor      string   `json:"vendor"`
	Driver      string   `json:"driver"`
	Limits      Limits   `json:"limits"`
	Features    []string `json:"features"`
	Selected    bool     `json:"selected"`
}

type Limits struct {
	MaxComputeInvocationsPerWorkgroup uint32 `json:"max_compute_invocations_per_workgroup"`
	MaxComputeWorkgroupSizeX          uint32 `json:"max_compute_workgroup_size_x"`
	MaxComputeWorkgroupsPerDimension  uint32 `json:"max_compute_workgroups_per_dimension"`
	MaxStorageBufferBindingSize       uint64 `json:"max_storage_buffer_binding_size"`
	MaxBufferSize                     uint64 `json:"max_buffer_size"`
	MinStorageBufferOffsetAlignment   uint32 `json:"min_storage_buffer_offset_alignment"`
}

// Describe builds a report for a single adapter. It does not request a device.
func Describe(index int, adapter *wgpu.Adapter) Report {
	info := adapter.GetInfo()

	var feats []string
	for _, f := range adapter.EnumerateFeatures() {
		feats = append(feats, featureName(f))
	}

	return Report{
		Index:       index,
		Runtime:     Runtime(),
		Backend:     backendName(info.BackendType),
		AdapterType: adapterTypeName(info.AdapterType),
		VendorID:    fmt.Sprintf("0x%04x", info.VendorId),
		DeviceID:    fmt.Sprintf("0x%04x", info.DeviceId),
		Name:        strings.TrimSpace(info.Name),
		Vendor:      strings.TrimSpace(info.VendorName),
		Driver:      strings.TrimSpace(info.DriverDescription),
		Limits:      LimitsOf(adapter.GetLimits()),
		Features:    feats,
	}
}

// LimitsOf copies the fields the sorter cares about out of a wgpu limits struct.
func LimitsOf(l wgpu.SupportedLimits) Limits {
	return Limits{
		MaxComputeInvocationsPerWorkgroup: l.Limits.MaxComputeInvocationsPerWorkgroup,
		MaxComputeWorkgroupSizeX:          l.Limits.MaxComputeWorkgroupSizeX,
		MaxComputeWorkgroupsPerDimension:  l.Limits.MaxComputeWorkgroupsPerDimension,
		MaxStorageBufferBindingSize:       l.Limits.MaxStorageBufferBindingSize,
		MaxBufferSize:                     l.Limits.MaxBufferSize,
		MinStorageBufferOffsetAlignment:   l.Limits.MinStorageBufferOffsetAlignment,
	}
}

// Survey describes every adapter in enumeration order.
func Survey(adapters []*wgpu.Adapter) []Report {
	out := make([]Report, 0, len(adapters))
	for i, a := range adapters {
		out = append(out, Describe(i, a))
	}
	return out
}

// JSON renders reports as indented JSON.
func JSON(reports []Report) (string, error) {
	b, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// String is the one-line form used in logs and the devices listing.
func (r Report) String() string {
	return fmt.Sprintf("#%d %s (vendor: %s, backend: %s, type: %s, device: %s)",
		r.Index, r.Name, r.Vendor, r.Backend, r.AdapterType, r.DeviceID)
}

/* ---------- helpers ---------- */

func featureName(f wgpu.FeatureName) string     { return f.String() }
func backendName(b wgpu.BackendType) string     { return b.String() }
func adapterTypeName(t wgpu.AdapterType) string { return t.String() }

// Runtime reports whether this build runs natively or under js/wasm.
func Runtime() string {
	if runtime.GOOS == "js" {
		return "wasm"
	}
	return "native"
}
