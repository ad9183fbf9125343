package plan

import (
	"reflect"

	"morph/descriptor"
	"morph/internal/naming"
)

// BuildPlan constructs the default mapping plan for a type pair purely by
// name convention: case-insensitive exact matches first, then flattening
// discovery into nested source objects. Unmatched destination members stay
// unresolved for Validate to report.
func BuildPlan(types *descriptor.Resolver, src, dst reflect.Type) *TypePlan {
	srcInfo := types.Describe(src)
	dstInfo := types.Describe(dst)

	p := &TypePlan{
		Pair:       Pair{Source: descriptor.Base(src), Dest: descriptor.Base(dst)},
		SourceInfo: srcInfo,
		DestInfo:   dstInfo,
	}

	for _, d := range dstInfo.Writable() {
		rule := FieldRule{Dest: d, Mode: ModeUnresolved}

		path := DiscoverPath(types, srcInfo, d.Name)
		switch len(path) {
		case 0:
		case 1:
			rule.Mode = ModeDirect
			rule.Source = &path[0]
		default:
			rule.Mode = ModeFlattened
			rule.Path = path
		}

		p.Rules = append(p.Rules, rule)
	}

	return p
}

// DiscoverPath finds the source member path for a destination member name.
// It returns a single-element path for a direct (case-insensitive exact)
// match, a longer path when the name flattens into nested source objects,
// and nil when nothing matches.
//
// Flattening splits the name by member-name prefix: for "CustomerAddressCity"
// a source member "Customer" claims the prefix and the remainder
// "AddressCity" recurses into Customer's type. Ties go to the first match in
// member declaration order; when both "Customer" and "CustomerAddress" exist
// as members, declaration order decides which one claims the prefix.
func DiscoverPath(types *descriptor.Resolver, info *descriptor.Info, name string) []descriptor.Member {
	if m := info.Member(name); m != nil && m.Readable {
		return []descriptor.Member{*m}
	}

	for _, s := range info.Readable() {
		if !naming.HasPrefixFold(name, s.Name) {
			continue
		}

		rest := naming.TrimPrefixFold(name, s.Name)
		if rest == "" {
			return []descriptor.Member{s}
		}

		child := types.Describe(descriptor.Base(s.Type))
		if child.Kind != descriptor.KindStruct {
			continue
		}

		if sub := DiscoverPath(types, child, rest); sub != nil {
			return append([]descriptor.Member{s}, sub...)
		}
	}

	return nil
}
