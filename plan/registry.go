package plan

import (
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"morph/descriptor"
)

// Registry stores one plan per ordered type pair. Registration happens at
// configuration time; lookups are concurrent and read-only, and implicit
// creation of plans for unseen pairs is made atomic through singleflight so
// racing callers share a single construction.
type Registry struct {
	mu    sync.RWMutex
	plans map[Pair]*TypePlan
	order []*TypePlan

	group singleflight.Group
	types *descriptor.Resolver
}

// NewRegistry creates an empty Registry over a shared descriptor cache.
func NewRegistry(types *descriptor.Resolver) *Registry {
	if types == nil {
		types = descriptor.NewResolver()
	}

	return &Registry{
		plans: make(map[Pair]*TypePlan),
		types: types,
	}
}

// Types returns the registry's descriptor cache.
func (r *Registry) Types() *descriptor.Resolver {
	return r.types
}

// normalize strips pointers so *Order -> OrderDto and Order -> OrderDto
// share one plan.
func normalize(src, dst reflect.Type) Pair {
	return Pair{Source: descriptor.Base(src), Dest: descriptor.Base(dst)}
}

// pairKey builds a collision-free singleflight key for a pair.
func pairKey(p Pair) string {
	return fullName(p.Source) + "->" + fullName(p.Dest)
}

func fullName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}

	return t.String()
}

// Lookup returns the plan for a pair, or nil when none is registered.
func (r *Registry) Lookup(src, dst reflect.Type) *TypePlan {
	pair := normalize(src, dst)

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.plans[pair]
}

// Register stores a plan, overwriting any previous plan for the same pair.
// A replaced plan keeps its original position in iteration order.
func (r *Registry) Register(p *TypePlan) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prior, ok := r.plans[p.Pair]; ok {
		for i := range r.order {
			if r.order[i] == prior {
				r.order[i] = p
				break
			}
		}
	} else {
		r.order = append(r.order, p)
	}

	r.plans[p.Pair] = p
}

// GetOrCreate returns the plan for a pair, building it by convention on
// first use. Concurrent first uses of the same pair construct one plan.
func (r *Registry) GetOrCreate(src, dst reflect.Type) *TypePlan {
	pair := normalize(src, dst)

	if p := r.Lookup(src, dst); p != nil {
		return p
	}

	v, _, _ := r.group.Do(pairKey(pair), func() (any, error) {
		if p := r.Lookup(src, dst); p != nil {
			return p, nil
		}

		p := BuildPlan(r.types, pair.Source, pair.Dest)
		r.Register(p)

		return p, nil
	})

	return v.(*TypePlan)
}

// All returns the registered plans in registration order.
func (r *Registry) All() []*TypePlan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*TypePlan, len(r.order))
	copy(out, r.order)

	return out
}
