package gpu

import (
	"github.com/openfluke/ranksort/detector"
	"github.com/openfluke/ranksort/logging"
	"github.com/openfluke/webgpu/wgpu"
)

// Adapter is the device chosen by SelectAdapter together with its report.
type Adapter struct {
	handle *wgpu.Adapter
	Report detector.Report
}

// Release frees the adapter handle. Sessions created from it keep working.
func (a *Adapter) Release() {
	if a.handle != nil {
		a.handle.Release()
		a.handle = nil
	}
}

// SelectAdapter enumerates every adapter on every backend and picks one:
// a discrete GPU, else an integrated GPU, else whatever came first.
// Every adapter found is logged. Adapters not picked are released.
func SelectAdapter(inst *wgpu.Instance) (*Adapter, error) {
	adapters := inst.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		logging.Warnf("No adapters found!")
		return nil, ErrNoAdapterFound
	}

	reports := detector.Survey(adapters)
	types := make([]wgpu.AdapterType, len(adapters))
	for i, a := range adapters {
		logging.Infof("Adapter %s", reports[i])
		types[i] = a.GetInfo().AdapterType
	}

	idx, preferred := PickAdapter(types)
	if !preferred {
		logging.Warnf("No discrete or integrated GPU found. Falling back to %s", reports[idx].Name)
	}
	for i, a := range adapters {
		if i != idx {
			a.Release()
		}
	}

	rep := reports[idx]
	rep.Selected = true
	return &Adapter{handle: adapters[idx], Report: rep}, nil
}

// PickAdapter returns the index to use and whether it was a preferred GPU type.
// types must not be empty.
func PickAdapter(types []wgpu.AdapterType) (int, bool) {
	for _, want := range []wgpu.AdapterType{wgpu.AdapterTypeDiscreteGPU, wgpu.AdapterTypeIntegratedGPU} {
		for i, t := range types {
			if t == want {
				return i, true
			}
		}
	}
	return 0, false
}
