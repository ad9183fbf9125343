package descriptor

import (
	"reflect"
	"sync"
)

// Resolver inspects types and caches their member descriptors. Descriptors
// are derived once per type and shared; the cache is safe for concurrent use.
type Resolver struct {
	mu    sync.RWMutex
	infos map[reflect.Type]*Info
}

// NewResolver creates an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{infos: make(map[reflect.Type]*Info)}
}

// Describe returns the cached Info for t, building it on first use.
// Pointer types are described through their element type.
func (r *Resolver) Describe(t reflect.Type) *Info {
	t = Base(t)
	if t == nil {
		return &Info{Kind: KindUnknown}
	}

	r.mu.RLock()
	info, ok := r.infos[t]
	r.mu.RUnlock()

	if ok {
		return info
	}

	built := describe(t)

	r.mu.Lock()
	// Another goroutine may have raced us here; keep the first published copy.
	if prior, ok := r.infos[t]; ok {
		r.mu.Unlock()
		return prior
	}

	r.infos[t] = built
	r.mu.Unlock()

	return built
}

// describe enumerates the structural members of t.
func describe(t reflect.Type) *Info {
	info := &Info{Type: t, Kind: Classify(t)}
	if info.Kind != KindStruct {
		return info
	}

	seen := make(map[string]bool)

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		info.Members = append(info.Members, Member{
			Name:        f.Name,
			Type:        f.Type,
			FieldIndex:  f.Index,
			MethodIndex: -1,
			Readable:    true,
			Writable:    true,
		})
		seen[f.Name] = true
	}

	// Zero-argument single-result methods act as readable members. They are
	// enumerated on the pointer type so value and pointer receivers both
	// appear; a method shadowed by a field name is skipped.
	ptr := reflect.PointerTo(t)
	for i := 0; i < ptr.NumMethod(); i++ {
		m := ptr.Method(i)
		if !m.IsExported() || seen[m.Name] {
			continue
		}

		// Receiver counts as the first input on method values from Type.Method.
		if m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
			continue
		}

		info.Members = append(info.Members, Member{
			Name:        m.Name,
			Type:        m.Type.Out(0),
			MethodIndex: m.Index,
			Readable:    true,
		})
	}

	return info
}
