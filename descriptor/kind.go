package descriptor

import "reflect"

// Kind classifies a type for mapping purposes.
type Kind int

const (
	KindUnknown   Kind = iota
	KindBasic          // numbers, strings, bools and named types over them
	KindStruct         // struct type
	KindPointer        // pointer to another type
	KindSlice          // slice of another type
	KindArray          // array of another type
	KindMap            // map type
	KindInterface      // interface type
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindStruct:
		return "struct"
	case KindPointer:
		return "pointer"
	case KindSlice:
		return "slice"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindInterface:
		return "interface"
	default:
		return "unknown"
	}
}

// Classify reports the mapping Kind of a reflect type.
func Classify(t reflect.Type) Kind {
	if t == nil {
		return KindUnknown
	}

	switch t.Kind() {
	case reflect.Ptr:
		return KindPointer
	case reflect.Struct:
		return KindStruct
	case reflect.Slice:
		return KindSlice
	case reflect.Array:
		return KindArray
	case reflect.Map:
		return KindMap
	case reflect.Interface:
		return KindInterface
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return KindBasic
	default:
		return KindUnknown
	}
}

// IsEnumerable reports whether t is an element-wise mappable collection.
// Strings are basic values, not enumerables, even though Go lets you range them.
func IsEnumerable(t reflect.Type) bool {
	k := Classify(t)
	return k == KindSlice || k == KindArray
}

// IsComplex reports whether t is a nested-object type: a struct, or a
// pointer to one. Complex destination fields are mapped recursively rather
// than coerced.
func IsComplex(t reflect.Type) bool {
	switch Classify(t) {
	case KindStruct:
		return true
	case KindPointer:
		return t.Elem().Kind() == reflect.Struct
	default:
		return false
	}
}

// Base strips pointer indirections and returns the final element type.
func Base(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t
}
