package wire

import "reflect"

// IsClonable reports whether v is recursively composed of primitives, plain
// maps/slices whose elements are themselves clonable. Anything else —
// functions, channels, structs other than via their exported methods,
// errors, pointers into such types — is not clonable and must be
// sub-channeled (spec §4.4, §9).
//
// This mirrors the source behaviour called out in spec §9: "any value not
// having the canonical object/array prototype is non-clonable". In Go terms
// that means only the built-in composite kinds (map, slice, array) built out
// of clonable leaves, plus the usual JSON-safe scalars, are clonable; a
// concrete struct type (the Go analogue of "a class instance") is not,
// precisely so that it gets sub-channeled and its methods remain reachable.
func IsClonable(v interface{}) bool {
	return isClonable(v, map[uintptr]bool{})
}

func isClonable(v interface{}, seen map[uintptr]bool) bool {
	if v == nil {
		return true
	}
	return clonableValue(reflect.ValueOf(v), seen)
}

func clonableValue(rv reflect.Value, seen map[uintptr]bool) bool {
	switch rv.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	case reflect.Ptr:
		if rv.IsNil() {
			return true
		}
		if seen[rv.Pointer()] {
			// Already visiting this container in this wrap invocation: treat
			// the cycle as closed rather than recursing forever.
			return true
		}
		seen[rv.Pointer()] = true
		defer delete(seen, rv.Pointer())
		return clonableValue(rv.Elem(), seen)
	case reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return clonableValue(rv.Elem(), seen)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return true
		}
		if rv.Kind() == reflect.Slice {
			ptr := rv.Pointer()
			if seen[ptr] {
				return true
			}
			seen[ptr] = true
			defer delete(seen, ptr)
		}
		for i := 0; i < rv.Len(); i++ {
			if !clonableValue(rv.Index(i), seen) {
				return false
			}
		}
		return true
	case reflect.Map:
		if rv.IsNil() {
			return true
		}
		ptr := rv.Pointer()
		if seen[ptr] {
			return true
		}
		seen[ptr] = true
		defer delete(seen, ptr)
		if rv.Type().Key().Kind() != reflect.String {
			return false
		}
		iter := rv.MapRange()
		for iter.Next() {
			if !clonableValue(iter.Value(), seen) {
				return false
			}
		}
		return true
	default:
		// Structs, funcs, chans, complex numbers, unsafe pointers, and any
		// concrete type with methods worth calling remotely: never clonable.
		// This is the deliberate safety net against prototype-pollution-like
		// surprises described in spec §9, reproduced exactly.
		return false
	}
}
