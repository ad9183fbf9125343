// Package plan builds and stores per-type-pair mapping plans: the ordered
// field rules, hooks and guards that drive both the runtime interpreter and
// the projection compiler.
package plan

import (
	"reflect"
	"strings"

	"morph/chain"
	"morph/descriptor"
)

// Pair identifies an ordered (source, destination) type pair.
type Pair struct {
	Source reflect.Type
	Dest   reflect.Type
}

// String returns a human-readable representation of the pair.
func (p Pair) String() string {
	return typeName(p.Source) + "->" + typeName(p.Dest)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	return t.String()
}

// ResolutionMode tells how a destination field obtains its value. Modes are
// mutually exclusive; the declared order is the priority order used when a
// rule could satisfy several.
type ResolutionMode int

const (
	// ModeUnresolved - no source was found; a configuration error if not ignored.
	ModeUnresolved ResolutionMode = iota
	// ModeIgnored - the field is deliberately skipped.
	ModeIgnored
	// ModeResolver - a ValueResolver instance produces the value.
	ModeResolver
	// ModeFunc - a plain function of the source produces the value.
	ModeFunc
	// ModeExpr - a compiled access-chain expression produces the value.
	ModeExpr
	// ModeDirect - a same-name source member supplies the value.
	ModeDirect
	// ModeFlattened - a multi-segment path into nested source objects supplies the value.
	ModeFlattened
)

// String returns a human-readable mode name.
func (m ResolutionMode) String() string {
	switch m {
	case ModeUnresolved:
		return "unresolved"
	case ModeIgnored:
		return "ignored"
	case ModeResolver:
		return "resolver"
	case ModeFunc:
		return "func"
	case ModeExpr:
		return "expr"
	case ModeDirect:
		return "direct"
	case ModeFlattened:
		return "flattened"
	default:
		return "unknown"
	}
}

// ValueResolver produces a destination field value with full access to the
// source, the destination under construction, and the field's current value.
type ValueResolver interface {
	Resolve(src, dst, current any) (any, error)
}

// MapFunc produces a destination field value from the source instance.
type MapFunc func(src any) (any, error)

// Hook runs around field resolution. dst is a pointer to the destination.
type Hook func(src, dst any)

// FieldRule describes how one writable destination member is populated.
type FieldRule struct {
	// Dest is the destination member this rule assigns.
	Dest descriptor.Member
	// Mode is the rule's resolution mode.
	Mode ResolutionMode
	// Source is the matched source member for ModeDirect.
	Source *descriptor.Member
	// Path is the source member chain for ModeFlattened, outermost first.
	Path []descriptor.Member
	// Resolver is set for ModeResolver.
	Resolver ValueResolver
	// Func is set for ModeFunc.
	Func MapFunc
	// Expr is set for ModeExpr.
	Expr *chain.Program

	// CondSrc gates the rule on the source alone.
	CondSrc func(src any) bool
	// CondSrcDst gates the rule on source and destination.
	CondSrcDst func(src, dst any) bool
	// CondValue gates the rule on source, destination and the resolved value.
	CondValue func(src, dst, value any) bool

	// NullSubstitute replaces an empty resolved value before assignment.
	NullSubstitute any
	// HasNullSubstitute distinguishes a configured nil substitute from none.
	HasNullSubstitute bool
	// PreserveExistingOnEmpty leaves the destination's current value in
	// place when the resolved value is empty.
	PreserveExistingOnEmpty bool
}

// Resolvable reports whether the rule can produce a value at all.
func (r *FieldRule) Resolvable() bool {
	switch r.Mode {
	case ModeResolver, ModeFunc, ModeExpr, ModeDirect, ModeFlattened:
		return true
	default:
		return false
	}
}

// TypePlan is the resolved mapping plan for one ordered type pair. Plans are
// immutable once configuration completes; execution never mutates them.
type TypePlan struct {
	// Pair is the plan's identity in the registry.
	Pair Pair
	// SourceInfo and DestInfo are the member descriptors the plan was built from.
	SourceInfo *descriptor.Info
	DestInfo   *descriptor.Info
	// Rules holds one FieldRule per writable destination member, in
	// declaration order. Configuration edits entries; it never adds or
	// removes them.
	Rules []FieldRule
	// Construct replaces zero-value construction of the destination.
	// Field rules still run afterwards and overwrite what they resolve.
	Construct func(src any) any
	// Guard short-circuits the whole plan to a defaulted destination.
	Guard func(src any) bool
	// BeforeHooks and AfterHooks run around the field loop, in order.
	BeforeHooks []Hook
	AfterHooks  []Hook
	// HasReverse records that an inverse plan was derived from this one.
	HasReverse bool
}

// Rule returns the rule for a destination field name, matched
// case-insensitively, or nil when the plan has no such field.
func (p *TypePlan) Rule(name string) *FieldRule {
	for i := range p.Rules {
		if strings.EqualFold(p.Rules[i].Dest.Name, name) {
			return &p.Rules[i]
		}
	}

	return nil
}
