package chain

import (
	"reflect"
	"strings"

	"github.com/expr-lang/expr"

	"morph/coerce"
	"morph/descriptor"
)

// Evaluator walks compiled chains against concrete values.
type Evaluator struct {
	types *descriptor.Resolver
}

// NewEvaluator creates an Evaluator over a shared descriptor cache.
func NewEvaluator(types *descriptor.Resolver) *Evaluator {
	if types == nil {
		types = descriptor.NewResolver()
	}

	return &Evaluator{types: types}
}

// Eval evaluates p against source. The result is an invalid reflect.Value
// when any link of the chain was absent or the evaluation faulted.
func (e *Evaluator) Eval(p *Program, source any) reflect.Value {
	if p == nil {
		return reflect.Value{}
	}

	if p.IsChain() {
		return e.walk(p.steps, reflect.ValueOf(source))
	}

	return runExpr(p, source)
}

// EvalAs evaluates p and coerces the result to want. Coercion failure is an
// empty result, not an error.
func (e *Evaluator) EvalAs(p *Program, source any, want reflect.Type) reflect.Value {
	out := e.Eval(p, source)
	if coerce.IsEmpty(out) {
		return reflect.Value{}
	}

	converted, ok := coerce.Value(out, want)
	if !ok {
		return reflect.Value{}
	}

	return converted
}

// walk applies the chain steps to an accumulator, starting at source.
func (e *Evaluator) walk(steps []step, acc reflect.Value) reflect.Value {
	for _, s := range steps {
		acc = unwrap(acc)
		if !acc.IsValid() {
			return reflect.Value{}
		}

		if s.call {
			acc = e.invoke(acc, s.name)
			continue
		}

		acc = e.member(acc, s.name)
	}

	if coerce.IsEmpty(acc) {
		return reflect.Value{}
	}

	return acc
}

// member resolves a named member (field or getter) on acc.
func (e *Evaluator) member(acc reflect.Value, name string) reflect.Value {
	if acc.Kind() != reflect.Struct {
		return reflect.Value{}
	}

	m := e.types.Describe(acc.Type()).Member(name)
	if m == nil || !m.Readable {
		return reflect.Value{}
	}

	return m.Read(acc)
}

// invoke calls a nullary method on acc, absorbing panics and trailing
// errors (e.g. aggregates over an empty sequence) into an empty result.
func (e *Evaluator) invoke(acc reflect.Value, name string) (out reflect.Value) {
	defer func() {
		if recover() != nil {
			out = reflect.Value{}
		}
	}()

	fn := findMethod(acc, name)
	if !fn.IsValid() || fn.Type().NumIn() != 0 || fn.Type().NumOut() == 0 {
		return reflect.Value{}
	}

	results := fn.Call(nil)
	if len(results) > 1 {
		if err, ok := results[len(results)-1].Interface().(error); ok && err != nil {
			return reflect.Value{}
		}
	}

	return results[0]
}

// findMethod locates a method by case-insensitive name on the value or its
// address.
func findMethod(acc reflect.Value, name string) reflect.Value {
	candidates := []reflect.Value{acc}

	if acc.CanAddr() {
		candidates = append(candidates, acc.Addr())
	} else if acc.Kind() == reflect.Struct {
		ptr := reflect.New(acc.Type())
		ptr.Elem().Set(acc)
		candidates = append(candidates, ptr)
	}

	for _, c := range candidates {
		t := c.Type()
		for i := 0; i < t.NumMethod(); i++ {
			if strings.EqualFold(t.Method(i).Name, name) {
				return c.Method(i)
			}
		}
	}

	return reflect.Value{}
}

// unwrap strips pointers and interfaces; nil links become invalid.
func unwrap(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}

		v = v.Elem()
	}

	return v
}

// runExpr executes the expr fallback, suppressing any runtime error.
func runExpr(p *Program, source any) reflect.Value {
	out, err := expr.Run(p.prog, source)
	if err != nil || out == nil {
		return reflect.Value{}
	}

	return reflect.ValueOf(out)
}
