package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/openfluke/ranksort/config"
	"github.com/openfluke/ranksort/detector"
	"github.com/openfluke/ranksort/gpu"
	"github.com/openfluke/ranksort/pods"
	"github.com/openfluke/webgpu/wgpu"
)

// One session serves every call from the host process. Opening it is lazy;
// when it fails, sorts run on the CPU.
var (
	mu      sync.Mutex
	session *gpu.Session
	opened  bool
)

func sharedSession() *gpu.Session {
	mu.Lock()
	defer mu.Unlock()
	if !opened {
		s, err := gpu.Open()
		if err == nil {
			session = s
		}
		opened = true
	}
	return session
}

func closeShared() {
	mu.Lock()
	defer mu.Unlock()
	if session != nil {
		session.Close()
	}
	session = nil
	opened = false
}

func errJSON(err error) string {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(b)
}

func asJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return errJSON(err)
	}
	return string(b)
}

func openJSON() string {
	s := sharedSession()
	if s == nil {
		return asJSON(map[string]any{"status": "success", "gpu": false})
	}
	return asJSON(map[string]any{"status": "success", "gpu": true, "adapter": s.Adapter})
}

// sortJSON sorts data in place and reports where it ran.
func sortJSON[T gpu.Element](data []T) string {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultConfig().Sort.Timeout)
	defer cancel()

	x := pods.NewContext(ctx).WithSession(sharedSession())
	res, err := pods.Run(x, "sort/rank", pods.SortIn{Values: data})
	if err != nil {
		return errJSON(err)
	}
	out := res.(pods.SortOut)
	sorted, ok := out.Values.([]T)
	if !ok || len(sorted) != len(data) {
		return errJSON(fmt.Errorf("unexpected sort result %T", out.Values))
	}
	copy(data, sorted)
	device := "cpu"
	if out.OnGPU {
		device = x.Device()
	}
	return asJSON(map[string]any{"status": "success", "n": len(data), "gpu": out.OnGPU, "device": device})
}

func devicesJSON() string {
	inst := wgpu.CreateInstance(nil)
	if inst == nil {
		return errJSON(gpu.ErrNoAdapterFound)
	}
	defer inst.Release()

	adapters := inst.EnumerateAdapters(nil)
	defer func() {
		for _, a := range adapters {
			a.Release()
		}
	}()
	js, err := detector.JSON(detector.Survey(adapters))
	if err != nil {
		return errJSON(err)
	}
	return js
}
