package profile

import (
	"fmt"
	"reflect"
	"sync"

	"morph/internal/diagnostic"
	"morph/plan"
)

// TypeTable resolves profile type names to Go types. Names use the short
// package-qualified form reflect reports, e.g. "store.Order".
type TypeTable struct {
	mu     sync.RWMutex
	byName map[string]reflect.Type
}

// NewTypeTable creates an empty TypeTable.
func NewTypeTable() *TypeTable {
	return &TypeTable{byName: make(map[string]reflect.Type)}
}

// Register adds types by example value; pointer samples register their
// element type.
func (t *TypeTable) Register(samples ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range samples {
		rt := reflect.TypeOf(s)
		for rt != nil && rt.Kind() == reflect.Ptr {
			rt = rt.Elem()
		}

		if rt == nil || rt.Name() == "" {
			continue
		}

		t.byName[rt.String()] = rt
	}
}

// Lookup resolves a registered type name, or nil.
func (t *TypeTable) Lookup(name string) reflect.Type {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.byName[name]
}

// Apply registers every mapping the profile declares into cfg. Unknown type
// names and structural problems are errors; per-field configuration issues
// surface later through cfg.Validate. Each registration leaves an info
// diagnostic tracing it back to the profile.
func Apply(cfg *plan.Config, table *TypeTable, f *File) error {
	if errs := f.Lint(); len(errs) > 0 {
		return fmt.Errorf("invalid profile: %w", errs[0])
	}

	var notes diagnostic.Diagnostics

	for _, tm := range f.Mappings {
		src := table.Lookup(tm.Source)
		if src == nil {
			return fmt.Errorf("unknown source type %q", tm.Source)
		}

		dst := table.Lookup(tm.Target)
		if dst == nil {
			return fmt.Errorf("unknown target type %q", tm.Target)
		}

		b := cfg.CreateMap(src, dst)

		for _, name := range tm.Ignore {
			b.Ignore(name)
		}

		for _, fm := range tm.Fields {
			applyField(b, fm)
		}

		if tm.Reverse {
			b.Reverse()
		}

		notes.AddInfo("profile_mapping",
			fmt.Sprintf("registered from profile (reverse=%v)", tm.Reverse),
			b.Plan().Pair.String(), "")
	}

	cfg.Diagnostics().Merge(notes)

	return nil
}

func applyField(b *plan.Builder, fm FieldMapping) {
	switch {
	case fm.Expr != "":
		b.MapExpr(fm.Target, fm.Expr)
	case fm.Source != "":
		b.FromField(fm.Target, fm.Source)
	}

	if fm.NullSubstitute != nil {
		b.NullSubstitute(fm.Target, fm.NullSubstitute)
	}

	if fm.Preserve {
		b.PreserveOnEmpty(fm.Target)
	}
}
