package projection

import (
	"reflect"

	"morph/chain"
	"morph/coerce"
	"morph/descriptor"
)

// Projection is a compiled mapping expression for one type pair,
// parameterized by a single source symbol.
type Projection struct {
	// Source and Dest identify the projected pair.
	Source reflect.Type
	Dest   reflect.Type
	// Body is the construct-and-initialize expression over Dest.
	Body *Construct

	eval *chain.Evaluator
}

// Func returns the projection as a plain function for deferred execution.
func (p *Projection) Func() func(any) any {
	return func(src any) any {
		out := p.apply(reflect.ValueOf(src))
		if !out.IsValid() {
			out = reflect.Zero(p.Dest)
		}

		return out.Interface()
	}
}

// apply evaluates the projection body against one source value.
func (p *Projection) apply(src reflect.Value) reflect.Value {
	out := p.evalNode(p.Body, src)
	if out.IsValid() && p.Dest.Kind() == reflect.Ptr && out.Kind() != reflect.Ptr {
		ptr := reflect.New(out.Type())
		ptr.Elem().Set(out)
		out = ptr
	}

	return out
}

// evalNode interprets an expression node against the bound source symbol.
func (p *Projection) evalNode(n Node, param reflect.Value) reflect.Value {
	switch v := n.(type) {
	case *Param:
		return param

	case *Member:
		x := strip(p.evalNode(v.X, param))
		if !x.IsValid() {
			return reflect.Value{}
		}

		return v.M.Read(x)

	case *IsNil:
		x := p.evalNode(v.X, param)

		return reflect.ValueOf(coerce.IsEmpty(x))

	case *Cond:
		test := p.evalNode(v.If, param)
		if test.IsValid() && test.Kind() == reflect.Bool && test.Bool() {
			return p.evalNode(v.Then, param)
		}

		return p.evalNode(v.Else, param)

	case *Literal:
		if v.Value == nil {
			return reflect.Zero(v.Type)
		}

		return reflect.ValueOf(v.Value)

	case *Convert:
		x := p.evalNode(v.X, param)
		if !x.IsValid() {
			return reflect.Zero(v.To)
		}

		out, ok := coerce.Value(x, v.To)
		if !ok {
			return reflect.Zero(v.To)
		}

		return out

	case *Select:
		return p.evalSelect(v, param)

	case *ExprRule:
		input := p.evalNode(v.X, param)
		if !input.IsValid() || !input.CanInterface() {
			return reflect.Zero(v.Want)
		}

		out := p.eval.EvalAs(v.Program, input.Interface(), v.Want)
		if !out.IsValid() {
			return reflect.Zero(v.Want)
		}

		return out

	case *Apply:
		input := p.evalNode(v.X, param)
		if !input.IsValid() || !input.CanInterface() {
			return reflect.Zero(v.Want)
		}

		out, err := v.Fn(input.Interface())
		if err != nil {
			return reflect.Zero(v.Want)
		}

		converted, ok := coerce.Value(reflect.ValueOf(out), v.Want)
		if !ok {
			return reflect.Zero(v.Want)
		}

		return converted

	case *Construct:
		out := reflect.New(descriptor.Base(v.Type)).Elem()

		for _, b := range v.Bindings {
			val := p.evalNode(b.Value, param)
			if !val.IsValid() {
				continue
			}

			if val.Kind() == reflect.Interface {
				val = val.Elem()
			}

			if !val.IsValid() {
				continue
			}

			if val.Type().AssignableTo(b.Member.Type) {
				b.Member.Write(out, val)
				continue
			}

			if converted, ok := coerce.Value(val, b.Member.Type); ok {
				b.Member.Write(out, converted)
			}
		}

		return out

	default:
		return reflect.Value{}
	}
}

// evalSelect materializes an element-wise projection over a collection.
func (p *Projection) evalSelect(sel *Select, param reflect.Value) reflect.Value {
	seq := strip(p.evalNode(sel.X, param))
	if !seq.IsValid() {
		return reflect.Zero(sel.Shape)
	}

	n := seq.Len()
	elemType := sel.Shape.Elem()

	var out reflect.Value

	switch sel.Shape.Kind() {
	case reflect.Slice:
		out = reflect.MakeSlice(sel.Shape, n, n)
	case reflect.Array:
		out = reflect.New(sel.Shape).Elem()
		if out.Len() < n {
			n = out.Len()
		}
	default:
		return reflect.Zero(sel.Shape)
	}

	for i := 0; i < n; i++ {
		e := seq.Index(i)
		if coerce.IsEmpty(e) {
			continue
		}

		if sel.Elem == nil {
			if converted, ok := coerce.Value(e, elemType); ok {
				out.Index(i).Set(converted)
			}

			continue
		}

		mapped := sel.Elem.apply(e)
		if !mapped.IsValid() {
			continue
		}

		if converted, ok := coerce.Value(mapped, elemType); ok {
			out.Index(i).Set(converted)
		}
	}

	return out
}

// strip removes pointer and interface wrappers; nil becomes invalid.
func strip(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}

		v = v.Elem()
	}

	return v
}
