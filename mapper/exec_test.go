package mapper_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morph/descriptor"
	"morph/mapper"
	"morph/plan"
)

type src struct {
	Name  string
	Count int
	Tags  []string
}

type dst struct {
	Name  string
	Count int64
	Tags  []string
	Extra string
}

// recordingSink captures field faults for assertions.
type recordingSink struct {
	mu     sync.Mutex
	faults []string
}

func (s *recordingSink) FieldFault(typePair, field string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.faults = append(s.faults, field+": "+err.Error())
}

func newMapper(t *testing.T, configure func(*plan.Builder)) (*mapper.Mapper, *recordingSink) {
	t.Helper()

	cfg := plan.NewConfig()

	b := plan.MapTypes[src, dst](cfg)
	if configure != nil {
		configure(b)
	}

	sink := &recordingSink{}

	return mapper.New(cfg, mapper.WithSink(sink)), sink
}

func TestGuardShortCircuits(t *testing.T) {
	var hookRan bool

	m, _ := newMapper(t, func(b *plan.Builder) {
		b.Ignore("Extra").
			Guard(func(s any) bool { return s.(src).Count > 0 }).
			Before(func(_, _ any) { hookRan = true })
	})

	out := mapper.Map[dst](m, src{Name: "skipped", Count: 0})

	// A false guard yields the defaulted destination; neither rules nor
	// hooks run.
	assert.Equal(t, dst{}, out)
	assert.False(t, hookRan)

	out = mapper.Map[dst](m, src{Name: "mapped", Count: 2})
	assert.Equal(t, "mapped", out.Name)
	assert.True(t, hookRan)
}

func TestGuardWithPointerDestination(t *testing.T) {
	m, _ := newMapper(t, func(b *plan.Builder) {
		b.Guard(func(any) bool { return false })
	})

	out := mapper.Map[*dst](m, src{Name: "x"})

	// Pointer destinations still materialize a zeroed instance.
	require.NotNil(t, out)
	assert.Equal(t, dst{}, *out)
}

func TestMapIntoGuardFalseLeavesDestination(t *testing.T) {
	var hookRan bool

	m, _ := newMapper(t, func(b *plan.Builder) {
		b.Guard(func(any) bool { return false }).
			Before(func(_, _ any) { hookRan = true }).
			After(func(_, _ any) { hookRan = true })
	})

	existing := dst{Name: "kept", Count: 7, Extra: "kept too"}
	require.NoError(t, m.MapInto(src{Name: "ignored", Count: 99}, &existing))

	// In-place mapping with a false guard leaves every field as it was
	// and never reaches the hooks.
	assert.Equal(t, dst{Name: "kept", Count: 7, Extra: "kept too"}, existing)
	assert.False(t, hookRan)
}

func TestConstructOverride(t *testing.T) {
	m, _ := newMapper(t, func(b *plan.Builder) {
		b.ConstructWith(func(any) any {
			return dst{Name: "from ctor", Extra: "kept"}
		})
	})

	out := mapper.Map[dst](m, src{Name: "from rule"})

	// Field rules overwrite constructed values; only fields without a
	// resolvable rule keep what the constructor set.
	assert.Equal(t, "from rule", out.Name)
	assert.Equal(t, "kept", out.Extra)
}

func TestHookOrder(t *testing.T) {
	var calls []string

	m, _ := newMapper(t, func(b *plan.Builder) {
		b.Before(func(_, _ any) { calls = append(calls, "before1") }).
			Before(func(_, _ any) { calls = append(calls, "before2") }).
			After(func(_, _ any) { calls = append(calls, "after") })
	})

	mapper.Map[dst](m, src{})

	assert.Equal(t, []string{"before1", "before2", "after"}, calls)
}

func TestAfterHookSeesMappedDestination(t *testing.T) {
	var seen string

	m, _ := newMapper(t, func(b *plan.Builder) {
		b.After(func(_, d any) { seen = d.(*dst).Name })
	})

	mapper.Map[dst](m, src{Name: "visible"})

	assert.Equal(t, "visible", seen)
}

type suffixResolver struct {
	suffix string
}

func (r suffixResolver) Resolve(s, _, current any) (any, error) {
	return s.(src).Name + r.suffix + current.(string), nil
}

func TestValueResolverSeesCurrentValue(t *testing.T) {
	m, _ := newMapper(t, func(b *plan.Builder) {
		b.ConstructWith(func(any) any { return dst{Extra: "!"} }).
			UseResolver("Extra", suffixResolver{suffix: "-r"})
	})

	out := mapper.Map[dst](m, src{Name: "n"})

	assert.Equal(t, "n-r!", out.Extra)
}

func TestConditionSkipsRule(t *testing.T) {
	m, _ := newMapper(t, func(b *plan.Builder) {
		b.Condition("Name", func(s any) bool { return s.(src).Count > 0 })
	})

	out := mapper.Map[dst](m, src{Name: "hidden", Count: 0})
	assert.Equal(t, "", out.Name)

	out = mapper.Map[dst](m, src{Name: "shown", Count: 1})
	assert.Equal(t, "shown", out.Name)
}

func TestConditionValueGatesOnResolved(t *testing.T) {
	m, _ := newMapper(t, func(b *plan.Builder) {
		b.ConditionValue("Name", func(_, _, value any) bool {
			return value != nil && !strings.HasPrefix(value.(string), "tmp-")
		})
	})

	out := mapper.Map[dst](m, src{Name: "tmp-scratch"})
	assert.Equal(t, "", out.Name)

	out = mapper.Map[dst](m, src{Name: "durable"})
	assert.Equal(t, "durable", out.Name)
}

func TestNullSubstitute(t *testing.T) {
	m, _ := newMapper(t, func(b *plan.Builder) {
		b.MapFrom("Tags", func(any) (any, error) { return []string(nil), nil }).
			NullSubstitute("Tags", []string{"default"})
	})

	out := mapper.Map[dst](m, src{})

	assert.Equal(t, []string{"default"}, out.Tags)
}

func TestPreserveOnEmpty(t *testing.T) {
	m, _ := newMapper(t, func(b *plan.Builder) {
		b.MapFrom("Tags", func(any) (any, error) { return nil, nil }).
			PreserveOnEmpty("Tags")
	})

	existing := dst{Tags: []string{"old"}}

	require.NoError(t, m.MapInto(src{Name: "n"}, &existing))

	assert.Equal(t, []string{"old"}, existing.Tags)
	assert.Equal(t, "n", existing.Name)
}

func TestEmptyWithoutPreserveZeroes(t *testing.T) {
	m, _ := newMapper(t, func(b *plan.Builder) {
		b.MapFrom("Tags", func(any) (any, error) { return nil, nil })
	})

	existing := dst{Tags: []string{"old"}}

	require.NoError(t, m.MapInto(src{}, &existing))

	assert.Nil(t, existing.Tags)
}

func TestFieldErrorGoesToSink(t *testing.T) {
	m, sink := newMapper(t, func(b *plan.Builder) {
		b.MapFrom("Extra", func(any) (any, error) { return nil, errors.New("lookup failed") })
	})

	out := mapper.Map[dst](m, src{Name: "still mapped"})

	// The faulted field stays zero; the rest of the pass completes.
	assert.Equal(t, "still mapped", out.Name)
	assert.Equal(t, "", out.Extra)

	require.Len(t, sink.faults, 1)
	assert.Contains(t, sink.faults[0], "Extra")
	assert.Contains(t, sink.faults[0], "lookup failed")
}

func TestFieldPanicAbsorbed(t *testing.T) {
	m, sink := newMapper(t, func(b *plan.Builder) {
		b.MapFrom("Extra", func(any) (any, error) { panic("boom") })
	})

	out := mapper.Map[dst](m, src{Name: "survives"})

	assert.Equal(t, "survives", out.Name)
	require.Len(t, sink.faults, 1)
	assert.Contains(t, sink.faults[0], "boom")
}

func TestFlattenDepthCap(t *testing.T) {
	m, sink := newMapper(t, func(b *plan.Builder) {
		b.ForAllRules(func(r *plan.FieldRule) {
			if r.Dest.Name == "Extra" {
				r.Mode = plan.ModeFlattened
				r.Path = make([]descriptor.Member, mapper.MaxFlattenDepth+1)
			}
		})
	})

	out := mapper.Map[dst](m, src{Name: "n"})

	// An over-deep path is rejected up front, never walked.
	assert.Equal(t, "", out.Extra)
	require.Len(t, sink.faults, 1)
	assert.Contains(t, sink.faults[0], "depth")
}

type elemSrc struct {
	V int
}

type elemDst struct {
	V int
}

type listSrc struct {
	Items []*elemSrc
	Codes []int
	Grid  [][]int
}

type listDst struct {
	Items []*elemDst
	Codes []string
	Grid  [][]int64
}

func TestCollectionMapping(t *testing.T) {
	cfg := plan.NewConfig()
	plan.MapTypes[listSrc, listDst](cfg)

	m := mapper.New(cfg)

	out := mapper.Map[listDst](m, listSrc{
		Items: []*elemSrc{{V: 1}, nil, {V: 3}},
		Codes: []int{7, 8},
		Grid:  [][]int{{1, 2}, {3}},
	})

	// Nil elements propagate as nil, never as zero-valued instances.
	require.Len(t, out.Items, 3)
	assert.Equal(t, &elemDst{V: 1}, out.Items[0])
	assert.Nil(t, out.Items[1])
	assert.Equal(t, &elemDst{V: 3}, out.Items[2])

	assert.Equal(t, []string{"7", "8"}, out.Codes)
	assert.Equal(t, [][]int64{{1, 2}, {3}}, out.Grid)
}

func TestEmptyAndNilCollections(t *testing.T) {
	cfg := plan.NewConfig()
	plan.MapTypes[listSrc, listDst](cfg)

	m := mapper.New(cfg)

	out := mapper.Map[listDst](m, listSrc{Codes: []int{}})
	assert.Nil(t, out.Items)
	assert.NotNil(t, out.Codes)
	assert.Empty(t, out.Codes)
}

func TestMapSliceDirectly(t *testing.T) {
	cfg := plan.NewConfig()
	m := mapper.New(cfg)

	out := mapper.Map[[]*elemDst](m, []*elemSrc{{V: 4}, nil})

	require.Len(t, out, 2)
	assert.Equal(t, 4, out[0].V)
	assert.Nil(t, out[1])
}

func TestMapScalarFallback(t *testing.T) {
	cfg := plan.NewConfig()
	m := mapper.New(cfg)

	// Non-struct roots fall through to plain coercion.
	assert.Equal(t, int64(5), mapper.Map[int64](m, 5))
	assert.Equal(t, "5", mapper.Map[string](m, 5))
}
