package plan

import (
	"fmt"
	"strings"

	"morph/chain"
	"morph/descriptor"
	"morph/internal/naming"
)

// Builder customizes a freshly registered plan. Every method edits the rule
// for an existing destination field; a name that matches no field records a
// diagnostic instead of adding one, since the rule set is fixed at
// construction from the destination type's writable members.
type Builder struct {
	config *Config
	plan   *TypePlan
}

// Plan returns the plan under construction.
func (b *Builder) Plan() *TypePlan {
	return b.plan
}

// rule fetches the field rule to edit, recording a diagnostic when missing.
func (b *Builder) rule(name string) *FieldRule {
	r := b.plan.Rule(name)
	if r == nil {
		msg := fmt.Sprintf("destination field %q does not exist", name)
		if s := suggestField(b.plan, name); s != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", s)
		}

		b.config.diags.AddError("unknown_field", msg, b.plan.Pair.String(), name)
	}

	return r
}

// suggestField proposes the destination field sharing the most name tokens
// with the requested one, for typo diagnostics.
func suggestField(p *TypePlan, name string) string {
	want := make(map[string]bool)
	for _, tok := range naming.Tokenize(name) {
		want[strings.ToLower(tok)] = true
	}

	var (
		best  string
		score int
	)

	for i := range p.Rules {
		overlap := 0

		for _, tok := range naming.Tokenize(p.Rules[i].Dest.Name) {
			if want[strings.ToLower(tok)] {
				overlap++
			}
		}

		if overlap > score {
			best, score = p.Rules[i].Dest.Name, overlap
		}
	}

	return best
}

// Ignore marks a destination field as deliberately skipped.
func (b *Builder) Ignore(name string) *Builder {
	if r := b.rule(name); r != nil {
		r.Mode = ModeIgnored
	}

	return b
}

// MapFrom resolves a destination field through a function of the source.
func (b *Builder) MapFrom(name string, fn MapFunc) *Builder {
	if r := b.rule(name); r != nil {
		r.Mode = ModeFunc
		r.Func = fn
	}

	return b
}

// MapExpr resolves a destination field through an access-chain expression
// evaluated null-safely against the source. A malformed expression is a
// configuration error surfaced by Validate, and the rule keeps its
// convention-resolved mode.
func (b *Builder) MapExpr(name, source string) *Builder {
	r := b.rule(name)
	if r == nil {
		return b
	}

	prog, err := chain.Compile(source)
	if err != nil {
		b.config.diags.AddError("bad_expression", err.Error(), b.plan.Pair.String(), name)
		return b
	}

	r.Mode = ModeExpr
	r.Expr = prog

	return b
}

// UseResolver resolves a destination field through a ValueResolver instance.
func (b *Builder) UseResolver(name string, resolver ValueResolver) *Builder {
	if r := b.rule(name); r != nil {
		r.Mode = ModeResolver
		r.Resolver = resolver
	}

	return b
}

// FromField resolves a destination field from an explicit source member or
// dotted path into nested source objects, overriding convention discovery.
func (b *Builder) FromField(name, sourcePath string) *Builder {
	r := b.rule(name)
	if r == nil {
		return b
	}

	segments := strings.Split(sourcePath, ".")
	info := b.plan.SourceInfo

	var path []descriptor.Member

	for i, seg := range segments {
		m := info.Member(seg)
		if m == nil || !m.Readable {
			b.config.diags.AddError("unknown_source_member",
				fmt.Sprintf("source path %q: member %q not found", sourcePath, seg),
				b.plan.Pair.String(), name)

			return b
		}

		path = append(path, *m)

		if i < len(segments)-1 {
			info = b.config.types.Describe(descriptor.Base(m.Type))
		}
	}

	if len(path) == 1 {
		r.Mode = ModeDirect
		r.Source = &path[0]
		r.Path = nil
	} else {
		r.Mode = ModeFlattened
		r.Source = nil
		r.Path = path
	}

	return b
}

// Condition gates a field rule on the source alone.
func (b *Builder) Condition(name string, cond func(src any) bool) *Builder {
	if r := b.rule(name); r != nil {
		r.CondSrc = cond
	}

	return b
}

// ConditionWith gates a field rule on source and destination.
func (b *Builder) ConditionWith(name string, cond func(src, dst any) bool) *Builder {
	if r := b.rule(name); r != nil {
		r.CondSrcDst = cond
	}

	return b
}

// ConditionValue gates a field rule on source, destination and the resolved
// source value.
func (b *Builder) ConditionValue(name string, cond func(src, dst, value any) bool) *Builder {
	if r := b.rule(name); r != nil {
		r.CondValue = cond
	}

	return b
}

// NullSubstitute replaces an empty resolved value with a literal before
// assignment.
func (b *Builder) NullSubstitute(name string, value any) *Builder {
	if r := b.rule(name); r != nil {
		r.NullSubstitute = value
		r.HasNullSubstitute = true
	}

	return b
}

// PreserveOnEmpty leaves the destination's current value untouched when the
// resolved value is empty.
func (b *Builder) PreserveOnEmpty(name string) *Builder {
	if r := b.rule(name); r != nil {
		r.PreserveExistingOnEmpty = true
	}

	return b
}

// ConstructWith replaces zero-value construction of the destination. Field
// rules still run against the constructed instance and overwrite whatever
// they resolve; a constructor-set field survives only when its rule is
// ignored or unresolvable. That overwrite order is a deliberate contract.
func (b *Builder) ConstructWith(fn func(src any) any) *Builder {
	b.plan.Construct = fn

	return b
}

// Guard short-circuits the whole plan to a defaulted destination when the
// predicate is false. Neither field rules nor hooks run for guarded-off
// sources.
func (b *Builder) Guard(fn func(src any) bool) *Builder {
	b.plan.Guard = fn

	return b
}

// Before appends a hook that runs before the field loop.
func (b *Builder) Before(fn Hook) *Builder {
	b.plan.BeforeHooks = append(b.plan.BeforeHooks, fn)

	return b
}

// After appends a hook that runs after the field loop.
func (b *Builder) After(fn Hook) *Builder {
	b.plan.AfterHooks = append(b.plan.AfterHooks, fn)

	return b
}

// ForAllRules runs a rule-mutating function over every current field rule.
func (b *Builder) ForAllRules(fn func(*FieldRule)) *Builder {
	for i := range b.plan.Rules {
		fn(&b.plan.Rules[i])
	}

	return b
}

// Reverse derives and registers the inverse pair's plan by convention and
// returns its builder. The reverse plan is fully independent of this one;
// only the HasReverse marker ties them for diagnostics.
func (b *Builder) Reverse() *Builder {
	b.plan.HasReverse = true

	return b.config.CreateMap(b.plan.Pair.Dest, b.plan.Pair.Source)
}
