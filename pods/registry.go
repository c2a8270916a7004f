package pods

import (
	"fmt"
	"slices"
	"sync"
)

var (
	regMu    sync.RWMutex
	registry = map[string]Pod{}
)

func init() {
	Register(RankSortPod{})
	Register(VerifyPod{})
}

// Register adds p under p.Name(), replacing any pod of the same name.
func Register(p Pod) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[p.Name()] = p
}

// Lookup returns the pod registered as name.
func Lookup(name string) (Pod, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	p, ok := registry[name]
	return p, ok
}

// Names lists registered pods in lexical order.
func Names() []string {
	regMu.RLock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	regMu.RUnlock()
	slices.Sort(out)
	return out
}

func Run(x *ExecContext, name string, in any) (any, error) {
	p, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPod, name)
	}
	return p.Run(x, in)
}
