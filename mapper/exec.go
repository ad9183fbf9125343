package mapper

import (
	"fmt"
	"reflect"

	"morph/coerce"
	"morph/descriptor"
	"morph/plan"
)

// mapValue is the core interpreter entry: it maps a source value to a value
// of dstType, dispatching between collection mapping, plan execution and
// plain coercion.
func (m *Mapper) mapValue(src reflect.Value, dstType reflect.Type, call *callState) reflect.Value {
	if isNil(src) {
		return reflect.Zero(dstType)
	}

	if src.Kind() == reflect.Interface {
		src = src.Elem()
	}

	if descriptor.IsEnumerable(src.Type()) && descriptor.IsEnumerable(dstType) {
		return m.mapCollection(src, dstType, call)
	}

	dstBase := descriptor.Base(dstType)
	if dstBase.Kind() != reflect.Struct || descriptor.Base(src.Type()).Kind() != reflect.Struct {
		if out, ok := coerce.Value(src, dstType); ok {
			return out
		}

		return reflect.Zero(dstType)
	}

	p := m.registry.GetOrCreate(src.Type(), dstType)
	srcIface := src.Interface()

	if p.Guard != nil && !p.Guard(srcIface) {
		return defaultedDest(dstType)
	}

	dstPtr := reflect.New(dstBase)

	if p.Construct != nil {
		applyConstructed(dstPtr, p.Construct(srcIface))
	}

	m.applyRules(p, src, srcIface, dstPtr, call)

	if dstType.Kind() == reflect.Ptr {
		return dstPtr
	}

	return dstPtr.Elem()
}

// defaultedDest builds the zeroed destination a false plan guard yields.
func defaultedDest(dstType reflect.Type) reflect.Value {
	if dstType.Kind() == reflect.Ptr {
		return reflect.New(dstType.Elem())
	}

	return reflect.Zero(dstType)
}

// applyConstructed copies a construct-override result into the destination.
func applyConstructed(dstPtr reflect.Value, constructed any) {
	v := reflect.ValueOf(constructed)
	if !v.IsValid() {
		return
	}

	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return
		}

		v = v.Elem()
	}

	if v.Type().AssignableTo(dstPtr.Elem().Type()) {
		dstPtr.Elem().Set(v)
	}
}

// applyRules runs the plan's linear pass over one source/destination pair:
// before-hooks, the field loop, after-hooks. A fault in one field never
// stops the loop.
func (m *Mapper) applyRules(p *plan.TypePlan, src reflect.Value, srcIface any, dstPtr reflect.Value, call *callState) {
	srcStruct := deref(src)
	dstIface := dstPtr.Interface()

	for _, hook := range p.BeforeHooks {
		hook(srcIface, dstIface)
	}

	for i := range p.Rules {
		rule := &p.Rules[i]

		if call.ignored(rule.Dest.Name) {
			continue
		}

		if rule.Mode == plan.ModeIgnored || !rule.Resolvable() {
			continue
		}

		if rule.CondSrc != nil && !rule.CondSrc(srcIface) {
			continue
		}

		if rule.CondSrcDst != nil && !rule.CondSrcDst(srcIface, dstIface) {
			continue
		}

		if err := m.assignField(p, rule, srcStruct, srcIface, dstPtr); err != nil {
			m.sink.FieldFault(p.Pair.String(), rule.Dest.Name, err)
		}
	}

	for _, hook := range p.AfterHooks {
		hook(srcIface, dstIface)
	}
}

// assignField resolves and writes a single field. Any panic during
// resolution or assignment is recovered into an error; the field keeps its
// current value and mapping continues.
func (m *Mapper) assignField(p *plan.TypePlan, rule *plan.FieldRule, srcStruct reflect.Value, srcIface any, dstPtr reflect.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("field %s: %v", rule.Dest.Name, r)
		}
	}()

	dstStruct := dstPtr.Elem()

	raw, err := m.resolveRule(rule, srcStruct, srcIface, dstPtr)
	if err != nil {
		return err
	}

	if rule.CondValue != nil && !rule.CondValue(srcIface, dstPtr.Interface(), ifaceOrNil(raw)) {
		return nil
	}

	empty := coerce.IsEmpty(raw)

	if empty && rule.HasNullSubstitute {
		raw = reflect.ValueOf(rule.NullSubstitute)
		empty = coerce.IsEmpty(raw)
	}

	if empty && rule.PreserveExistingOnEmpty {
		return nil
	}

	m.writeValue(rule, dstStruct, raw, empty)

	return nil
}

// resolveRule produces the raw value for a rule per its resolution mode.
func (m *Mapper) resolveRule(rule *plan.FieldRule, srcStruct reflect.Value, srcIface any, dstPtr reflect.Value) (reflect.Value, error) {
	switch rule.Mode {
	case plan.ModeResolver:
		current := ifaceOrNil(rule.Dest.Read(dstPtr.Elem()))

		out, err := rule.Resolver.Resolve(srcIface, dstPtr.Interface(), current)
		if err != nil {
			return reflect.Value{}, err
		}

		return reflect.ValueOf(out), nil

	case plan.ModeFunc:
		out, err := rule.Func(srcIface)
		if err != nil {
			return reflect.Value{}, err
		}

		return reflect.ValueOf(out), nil

	case plan.ModeExpr:
		return m.eval.Eval(rule.Expr, srcIface), nil

	case plan.ModeDirect:
		if !srcStruct.IsValid() {
			return reflect.Value{}, nil
		}

		return rule.Source.Read(srcStruct), nil

	case plan.ModeFlattened:
		if len(rule.Path) > MaxFlattenDepth {
			return reflect.Value{}, fmt.Errorf("flattened path exceeds depth %d, not traversed", MaxFlattenDepth)
		}

		return walkPath(rule.Path, srcStruct), nil

	default:
		return reflect.Value{}, nil
	}
}

// writeValue coerces raw into the destination field and assigns it. Nested
// complex values route back through mapValue; a value that resists coercion
// is written as-is, letting the per-field recovery absorb the mismatch.
func (m *Mapper) writeValue(rule *plan.FieldRule, dstStruct reflect.Value, raw reflect.Value, empty bool) {
	dt := rule.Dest.Type

	if empty {
		rule.Dest.Write(dstStruct, reflect.Zero(dt))
		return
	}

	if raw.Kind() == reflect.Interface {
		raw = raw.Elem()
	}

	if raw.Type().AssignableTo(dt) {
		rule.Dest.Write(dstStruct, raw)
		return
	}

	if descriptor.IsEnumerable(raw.Type()) && descriptor.IsEnumerable(dt) {
		rule.Dest.Write(dstStruct, m.mapCollection(raw, dt, nil))
		return
	}

	// A non-assignable value headed for a complex field is a nested object,
	// not a scalar: map it through its own plan.
	if descriptor.IsComplex(dt) {
		rule.Dest.Write(dstStruct, m.mapValue(raw, dt, nil))
		return
	}

	if converted, ok := coerce.Value(raw, dt); ok {
		rule.Dest.Write(dstStruct, converted)
		return
	}

	rule.Dest.Write(dstStruct, raw)
}

// mapCollection maps a source collection element-wise into the destination
// collection shape. Nil source elements propagate as nil destination
// elements; an element pair without a plan gets one registered on demand.
func (m *Mapper) mapCollection(src reflect.Value, dstType reflect.Type, call *callState) reflect.Value {
	if src.Kind() == reflect.Interface {
		src = src.Elem()
	}

	n := src.Len()
	dstElem := dstType.Elem()

	var out reflect.Value

	switch dstType.Kind() {
	case reflect.Slice:
		out = reflect.MakeSlice(dstType, n, n)
	case reflect.Array:
		out = reflect.New(dstType).Elem()
		if out.Len() < n {
			n = out.Len()
		}
	default:
		return reflect.Zero(dstType)
	}

	for i := 0; i < n; i++ {
		e := src.Index(i)
		if isNil(e) {
			continue
		}

		out.Index(i).Set(m.mapElement(e, dstElem, call))
	}

	return out
}

// mapElement maps one collection element: pass-through when assignable,
// plan-mapped when both sides are complex, scalar-coerced otherwise.
func (m *Mapper) mapElement(e reflect.Value, dstElem reflect.Type, call *callState) reflect.Value {
	if e.Kind() == reflect.Interface {
		e = e.Elem()
	}

	if e.Type().AssignableTo(dstElem) {
		return e
	}

	if descriptor.IsComplex(e.Type()) && descriptor.IsComplex(dstElem) {
		return m.mapValue(e, dstElem, call)
	}

	if descriptor.IsEnumerable(e.Type()) && descriptor.IsEnumerable(dstElem) {
		return m.mapCollection(e, dstElem, call)
	}

	if converted, ok := coerce.Value(e, dstElem); ok {
		return converted
	}

	return reflect.Zero(dstElem)
}

// walkPath traverses a flattened source path segment by segment, stopping
// with an empty result the instant an intermediate value is nil.
func walkPath(path []descriptor.Member, acc reflect.Value) reflect.Value {
	for i := range path {
		acc = deref(acc)
		if !acc.IsValid() || acc.Kind() != reflect.Struct {
			return reflect.Value{}
		}

		acc = path[i].Read(acc)
	}

	return acc
}

// deref strips pointers and interfaces; nil becomes an invalid value.
func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}

		v = v.Elem()
	}

	return v
}

// ifaceOrNil converts a possibly-invalid value to its interface form.
func ifaceOrNil(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}

	return v.Interface()
}
