package plan

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morph/descriptor"
)

func TestRegistryLookupNormalizesPointers(t *testing.T) {
	r := NewRegistry(nil)
	p := BuildPlan(r.Types(), reflect.TypeOf((*order)(nil)).Elem(), reflect.TypeOf((*orderDto)(nil)).Elem())
	r.Register(p)

	assert.Same(t, p, r.Lookup(reflect.TypeOf((*order)(nil)).Elem(), reflect.TypeOf((*orderDto)(nil)).Elem()))
	assert.Same(t, p, r.Lookup(reflect.TypeOf((**order)(nil)).Elem(), reflect.TypeOf((**orderDto)(nil)).Elem()))
	assert.Nil(t, r.Lookup(reflect.TypeOf((*orderDto)(nil)).Elem(), reflect.TypeOf((*order)(nil)).Elem()))
}

func TestRegistryRegisterOverwriteKeepsOrder(t *testing.T) {
	r := NewRegistry(nil)

	first := BuildPlan(r.Types(), reflect.TypeOf((*order)(nil)).Elem(), reflect.TypeOf((*orderDto)(nil)).Elem())
	r.Register(first)

	second := BuildPlan(r.Types(), reflect.TypeOf((*customer)(nil)).Elem(), reflect.TypeOf((*address)(nil)).Elem())
	r.Register(second)

	replacement := BuildPlan(r.Types(), reflect.TypeOf((*order)(nil)).Elem(), reflect.TypeOf((*orderDto)(nil)).Elem())
	r.Register(replacement)

	all := r.All()
	require.Len(t, all, 2)
	assert.Same(t, replacement, all[0])
	assert.Same(t, second, all[1])
}

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry(nil)

	p := r.GetOrCreate(reflect.TypeOf((*order)(nil)).Elem(), reflect.TypeOf((*orderDto)(nil)).Elem())
	require.NotNil(t, p)

	// Second call returns the same plan instance.
	assert.Same(t, p, r.GetOrCreate(reflect.TypeOf((**order)(nil)).Elem(), reflect.TypeOf((*orderDto)(nil)).Elem()))
}

func TestRegistryGetOrCreateConcurrent(t *testing.T) {
	r := NewRegistry(nil)

	const goroutines = 16

	plans := make([]*TypePlan, goroutines)

	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		i := i

		wg.Add(1)

		go func() {
			defer wg.Done()

			plans[i] = r.GetOrCreate(reflect.TypeOf((*order)(nil)).Elem(), reflect.TypeOf((*orderDto)(nil)).Elem())
		}()
	}

	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, plans[0], plans[i])
	}

	assert.Len(t, r.All(), 1)
}

func TestPairKeyDisambiguatesPackages(t *testing.T) {
	a := descriptor.Base(reflect.TypeOf((*order)(nil)).Elem())

	key := pairKey(Pair{Source: a, Dest: a})
	assert.Contains(t, key, "morph/plan.order")
}
