package projection

import (
	"fmt"
	"reflect"
	"sync"

	"morph/chain"
	"morph/descriptor"
	"morph/plan"
)

// Compiler turns mapping plans into projections. Compiled projections are
// cached per type pair; nested pairs compile recursively through the same
// cache, and a pair that recurses into itself is a configuration error
// rather than an infinite inline.
type Compiler struct {
	registry *plan.Registry
	types    *descriptor.Resolver
	eval     *chain.Evaluator

	mu    sync.Mutex
	cache map[plan.Pair]*cacheEntry
}

type cacheEntry struct {
	proj     *Projection
	building bool
}

// NewCompiler creates a Compiler over a configuration's plan registry.
func NewCompiler(cfg *plan.Config) *Compiler {
	types := cfg.Registry().Types()

	return &Compiler{
		registry: cfg.Registry(),
		types:    types,
		eval:     chain.NewEvaluator(types),
		cache:    make(map[plan.Pair]*cacheEntry),
	}
}

// Compile produces the projection for a type pair, building the plan by
// convention when none is registered. Unlike the runtime interpreter, a
// missing element plan for a differing nested-collection pair is an error:
// silently skipping it would surface as a cast failure deep inside query
// execution instead of a clear configuration problem.
func (c *Compiler) Compile(src, dst reflect.Type) (*Projection, error) {
	return c.compilePair(src, dst)
}

func (c *Compiler) compilePair(src, dst reflect.Type) (*Projection, error) {
	pair := plan.Pair{Source: descriptor.Base(src), Dest: descriptor.Base(dst)}

	c.mu.Lock()

	if e, ok := c.cache[pair]; ok {
		building := e.building
		proj := e.proj
		c.mu.Unlock()

		if building {
			return nil, plan.ConfigError{
				TypePair: pair.String(),
				Reason:   "cyclic nested projection cannot be inlined",
			}
		}

		return proj, nil
	}

	entry := &cacheEntry{building: true}
	c.cache[pair] = entry
	c.mu.Unlock()

	proj, err := c.build(pair)

	c.mu.Lock()
	if err != nil {
		delete(c.cache, pair)
	} else {
		entry.proj = proj
		entry.building = false
	}
	c.mu.Unlock()

	return proj, err
}

// build emits the construct-and-initialize expression for one pair.
func (c *Compiler) build(pair plan.Pair) (*Projection, error) {
	p := c.registry.GetOrCreate(pair.Source, pair.Dest)
	param := &Param{Type: pair.Source}
	cons := &Construct{Type: pair.Dest}

	for i := range p.Rules {
		rule := &p.Rules[i]

		var node Node

		switch rule.Mode {
		case plan.ModeIgnored, plan.ModeUnresolved, plan.ModeResolver:
			// Ignored and unresolved fields are omitted entirely. Resolver
			// instances take the live destination as input, which has no
			// expression form, so they are omitted from projections too.
			continue

		case plan.ModeExpr:
			node = &ExprRule{X: param, Program: rule.Expr, Want: rule.Dest.Type}

		case plan.ModeFunc:
			node = &Apply{X: param, Fn: rule.Func, Want: rule.Dest.Type}

		case plan.ModeDirect:
			adjusted, err := c.adjust(&Member{X: param, M: *rule.Source}, rule.Dest, pair)
			if err != nil {
				return nil, err
			}

			node = adjusted

		case plan.ModeFlattened:
			adjusted, err := c.adjust(flattenNode(param, rule.Path), rule.Dest, pair)
			if err != nil {
				return nil, err
			}

			node = adjusted
		}

		if node == nil {
			continue
		}

		cons.Bindings = append(cons.Bindings, Binding{Member: rule.Dest, Value: node})
	}

	return &Projection{
		Source: pair.Source,
		Dest:   pair.Dest,
		Body:   cons,
		eval:   c.eval,
	}, nil
}

// adjust reconciles a computed expression's static type with the destination
// member's type: accept, convert, project element-wise, inline a nested
// projection, or skip the field when no expression form exists.
func (c *Compiler) adjust(x Node, dest descriptor.Member, pair plan.Pair) (Node, error) {
	st := staticType(x)
	dt := dest.Type

	if st == nil {
		return nil, nil
	}

	if st.AssignableTo(dt) {
		return x, nil
	}

	srcEnum := descriptor.IsEnumerable(st)
	dstEnum := descriptor.IsEnumerable(dt)

	if srcEnum && dstEnum {
		return c.adjustCollection(x, st, dt, dest, pair)
	}

	// A collection on one side only has no projectable counterpart.
	if srcEnum || dstEnum {
		return nil, nil
	}

	if descriptor.IsComplex(descriptor.Base(st)) && descriptor.IsComplex(descriptor.Base(dt)) {
		return c.inlineNested(x, st, dt)
	}

	// Numeric widening, nullable unwrap, enum lookup, or a last-resort cast.
	return &Convert{X: x, To: dt}, nil
}

// adjustCollection wraps a member access in a select-then-materialize
// combinator over the element pair's projection.
func (c *Compiler) adjustCollection(x Node, st, dt reflect.Type, dest descriptor.Member, pair plan.Pair) (Node, error) {
	srcElem := st.Elem()
	dstElem := dt.Elem()

	if srcElem.AssignableTo(dstElem) || !descriptor.IsComplex(descriptor.Base(dstElem)) {
		// Element pass-through or scalar coercion; no element plan involved.
		return &Select{X: x, Shape: dt}, nil
	}

	if descriptor.Base(srcElem) != descriptor.Base(dstElem) && c.registry.Lookup(srcElem, dstElem) == nil {
		return nil, plan.ConfigError{
			TypePair: pair.String(),
			Field:    dest.Name,
			Reason: fmt.Sprintf("no mapping plan registered for collection elements %s -> %s",
				srcElem, dstElem),
		}
	}

	elemProj, err := c.compilePair(srcElem, dstElem)
	if err != nil {
		return nil, err
	}

	return &Select{X: x, Elem: elemProj, Shape: dt}, nil
}

// inlineNested compiles the nested pair's projection and splices its body
// into the parent expression, guarded against an absent parent value.
func (c *Compiler) inlineNested(x Node, st, dt reflect.Type) (Node, error) {
	nested, err := c.compilePair(st, dt)
	if err != nil {
		return nil, err
	}

	body := substituteParam(nested.Body, x)

	var guarded Node = &Cond{
		If:   &IsNil{X: x},
		Then: &Literal{Type: staticType(body)},
		Else: body,
	}

	if dt.Kind() == reflect.Ptr {
		guarded = &Convert{X: guarded, To: dt}
	}

	return guarded, nil
}

// flattenNode builds the guarded access chain for a flattened source path:
// each nullable intermediate link gets an explicit nil check yielding the
// chain's zero value instead of a fault.
func flattenNode(param Node, path []descriptor.Member) Node {
	var build func(x Node, i int) Node

	build = func(x Node, i int) Node {
		if i == len(path) {
			return x
		}

		access := &Member{X: x, M: path[i]}
		rest := build(access, i+1)

		if i < len(path)-1 && nullable(path[i].Type) {
			return &Cond{
				If:   &IsNil{X: access},
				Then: &Literal{Type: staticType(rest)},
				Else: rest,
			}
		}

		return rest
	}

	return build(param, 0)
}

// nullable reports whether a link of type t can be absent at runtime.
func nullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	default:
		return false
	}
}
