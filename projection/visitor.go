package projection

// Rewrite applies fn to every node bottom-up, rebuilding parents whose
// children changed. It is the substitution mechanism behind inlining: a
// nested projection's body is spliced into its parent by rewriting the
// nested Param into the parent's member-access expression.
func Rewrite(n Node, fn func(Node) Node) Node {
	switch v := n.(type) {
	case *Member:
		if x := Rewrite(v.X, fn); x != v.X {
			n = &Member{X: x, M: v.M}
		}
	case *IsNil:
		if x := Rewrite(v.X, fn); x != v.X {
			n = &IsNil{X: x}
		}
	case *Cond:
		cond := Rewrite(v.If, fn)
		then := Rewrite(v.Then, fn)
		els := Rewrite(v.Else, fn)

		if cond != v.If || then != v.Then || els != v.Else {
			n = &Cond{If: cond, Then: then, Else: els}
		}
	case *Convert:
		if x := Rewrite(v.X, fn); x != v.X {
			n = &Convert{X: x, To: v.To}
		}
	case *Select:
		if x := Rewrite(v.X, fn); x != v.X {
			n = &Select{X: x, Elem: v.Elem, Shape: v.Shape}
		}
	case *ExprRule:
		if x := Rewrite(v.X, fn); x != v.X {
			n = &ExprRule{X: x, Program: v.Program, Want: v.Want}
		}
	case *Apply:
		if x := Rewrite(v.X, fn); x != v.X {
			n = &Apply{X: x, Fn: v.Fn, Want: v.Want}
		}
	case *Construct:
		changed := false
		bindings := make([]Binding, len(v.Bindings))

		for i, b := range v.Bindings {
			bindings[i] = Binding{Member: b.Member, Value: Rewrite(b.Value, fn)}
			if bindings[i].Value != b.Value {
				changed = true
			}
		}

		if changed {
			n = &Construct{Type: v.Type, Bindings: bindings}
		}
	}

	return fn(n)
}

// substituteParam replaces every Param in n with repl.
func substituteParam(n Node, repl Node) Node {
	return Rewrite(n, func(x Node) Node {
		if _, ok := x.(*Param); ok {
			return repl
		}

		return x
	})
}
