// Package projection compiles mapping plans into composable, side-effect-free
// expression trees. A compiled Projection maps one element to another the
// same way the runtime interpreter would, but as a deferred, inlinable
// expression suitable for query-style execution.
package projection

import (
	"reflect"

	"morph/chain"
	"morph/descriptor"
	"morph/plan"
)

// Node is one expression-tree node. The tree is language-neutral: member
// access, conditionals, construction-with-bindings and a select combinator,
// with no host-specific opcodes.
type Node interface {
	isNode()
}

// Param is the shared source symbol every projection is parameterized by.
type Param struct {
	Type reflect.Type
}

// Member accesses a named member on the value of X.
type Member struct {
	X Node
	M descriptor.Member
}

// IsNil tests whether X evaluates to an absent value.
type IsNil struct {
	X Node
}

// Cond is a conditional expression.
type Cond struct {
	If   Node
	Then Node
	Else Node
}

// Literal is a constant. A nil Value stands for the zero value of Type.
type Literal struct {
	Value any
	Type  reflect.Type
}

// Convert coerces X to another type using the scalar coercion rules.
type Convert struct {
	X  Node
	To reflect.Type
}

// Select maps a source collection element-wise through Elem and materializes
// the result in the destination collection Shape. A nil Elem coerces
// elements instead of projecting them.
type Select struct {
	X     Node
	Elem  *Projection
	Shape reflect.Type
}

// ExprRule evaluates a custom access-chain expression null-safely against
// the value of X. X starts as the pair's Param; inlining rebinds it to the
// parent's member access.
type ExprRule struct {
	X       Node
	Program *chain.Program
	Want    reflect.Type
}

// Apply invokes a custom mapping function on the value of X. X starts as the
// pair's Param; inlining rebinds it to the parent's member access.
type Apply struct {
	X    Node
	Fn   plan.MapFunc
	Want reflect.Type
}

// Construct builds a destination instance and initializes its members.
type Construct struct {
	Type     reflect.Type
	Bindings []Binding
}

// Binding assigns the value of an expression to one destination member.
type Binding struct {
	Member descriptor.Member
	Value  Node
}

func (*Param) isNode()     {}
func (*Member) isNode()    {}
func (*IsNil) isNode()     {}
func (*Cond) isNode()      {}
func (*Literal) isNode()   {}
func (*Convert) isNode()   {}
func (*Select) isNode()    {}
func (*ExprRule) isNode()  {}
func (*Apply) isNode()     {}
func (*Construct) isNode() {}

// staticType reports the declared result type of a node.
func staticType(n Node) reflect.Type {
	switch v := n.(type) {
	case *Param:
		return v.Type
	case *Member:
		return v.M.Type
	case *IsNil:
		return reflect.TypeOf((*bool)(nil)).Elem()
	case *Cond:
		return staticType(v.Then)
	case *Literal:
		return v.Type
	case *Convert:
		return v.To
	case *Select:
		return v.Shape
	case *ExprRule:
		return v.Want
	case *Apply:
		return v.Want
	case *Construct:
		return v.Type
	default:
		return nil
	}
}
