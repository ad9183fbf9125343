package coerce

import (
	"reflect"
	"strings"
	"sync"
)

// Go keeps no reflective link between enum constants and their names, so
// string-to-enum coercion works off explicitly registered tables.
var enums = struct {
	sync.RWMutex
	byType map[reflect.Type]map[string]reflect.Value
}{byType: make(map[reflect.Type]map[string]reflect.Value)}

// RegisterEnum registers the name table for an enum-like named type. names
// maps each string spelling to its constant; lookups are case-insensitive.
// Values must all share one type or RegisterEnum panics, since a mixed table
// is a programming error, not input.
func RegisterEnum(names map[string]any) {
	var t reflect.Type

	table := make(map[string]reflect.Value, len(names))

	for name, value := range names {
		v := reflect.ValueOf(value)
		if t == nil {
			t = v.Type()
		} else if v.Type() != t {
			panic("coerce: enum table mixes value types " + t.String() + " and " + v.Type().String())
		}

		table[strings.ToLower(name)] = v
	}

	if t == nil {
		return
	}

	enums.Lock()
	enums.byType[t] = table
	enums.Unlock()
}

// enumFromString looks up a registered enum constant for s. A registered
// type with no matching name yields the type's zero value rather than an
// error; an unregistered type reports no match at all.
func enumFromString(s string, to reflect.Type) (reflect.Value, bool) {
	enums.RLock()
	table, ok := enums.byType[to]
	enums.RUnlock()

	if !ok {
		return reflect.Value{}, false
	}

	if v, ok := table[strings.ToLower(s)]; ok {
		return v, true
	}

	return reflect.Zero(to), true
}
