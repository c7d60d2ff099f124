package provider

import (
	"reflect"

	"github.com/remobj/remobj-go/internal/wire"
)

// resolved is the outcome of walking a property path down from the root: the
// value found, the parent that holds it (needed for `set`), and the final
// path segment used to reach it from that parent.
type resolved struct {
	value        interface{}
	parent       interface{}
	lastSegment  string
	parentIsRoot bool
}

// resolvePath walks segments from root, following map indexing and exported
// struct field access at each step (spec §4.2: "ordinary property lookup").
// An empty path resolves to the root itself.
func resolvePath(root interface{}, segments []string) (resolved, error) {
	if len(segments) == 0 {
		return resolved{value: root, parentIsRoot: true}, nil
	}

	current := root
	var parent interface{}
	for i, seg := range segments {
		parent = current
		next, err := lookupProperty(current, seg)
		if err != nil {
			return resolved{}, newError(KindResolutionFailed, "resolving %q: %v", wire.JoinPath(segments[:i+1]), err)
		}
		current = next
	}

	return resolved{
		value:        current,
		parent:       parent,
		lastSegment:  segments[len(segments)-1],
		parentIsRoot: len(segments) == 1,
	}, nil
}

// lookupProperty resolves a single segment against container, supporting
// map[string]interface{} indexing and exported struct field/method access.
func lookupProperty(container interface{}, segment string) (interface{}, error) {
	if container == nil {
		return nil, errNilContainer
	}

	v := reflect.ValueOf(container)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, errNilContainer
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, errNotIndexable
		}
		mv := v.MapIndex(reflect.ValueOf(segment).Convert(v.Type().Key()))
		if !mv.IsValid() {
			return nil, errPropertyNotFound
		}
		return mv.Interface(), nil

	case reflect.Struct:
		if field := v.FieldByName(segment); field.IsValid() && field.CanInterface() {
			return field.Interface(), nil
		}
		// Fall back to a method bound to the original (possibly pointer)
		// receiver so remote calls can mutate the exposed instance.
		orig := reflect.ValueOf(container)
		if m := orig.MethodByName(segment); m.IsValid() {
			if funcType := reflect.TypeOf(Func(nil)); m.Type().ConvertibleTo(funcType) {
				return m.Convert(funcType).Interface(), nil
			}
			return m.Interface(), nil
		}
		return nil, errPropertyNotFound

	default:
		return nil, errNotIndexable
	}
}

// setProperty assigns value onto the final segment of parent, supporting
// map[string]interface{} assignment and exported, addressable struct fields.
func setProperty(parent interface{}, segment string, value interface{}) error {
	v := reflect.ValueOf(parent)
	for v.Kind() == reflect.Interface {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return errNotIndexable
		}
		if v.IsNil() {
			return errNotIndexable
		}
		val := reflect.ValueOf(value)
		if !val.IsValid() {
			val = reflect.Zero(v.Type().Elem())
		} else if val.Type() != v.Type().Elem() && val.Type().ConvertibleTo(v.Type().Elem()) {
			val = val.Convert(v.Type().Elem())
		}
		v.SetMapIndex(reflect.ValueOf(segment).Convert(v.Type().Key()), val)
		return nil

	case reflect.Ptr:
		elem := v.Elem()
		if elem.Kind() != reflect.Struct {
			return errNotIndexable
		}
		field := elem.FieldByName(segment)
		if !field.IsValid() || !field.CanSet() {
			return errNotAssignable
		}
		val := reflect.ValueOf(value)
		if val.IsValid() && val.Type() != field.Type() && val.Type().ConvertibleTo(field.Type()) {
			val = val.Convert(field.Type())
		}
		field.Set(val)
		return nil

	default:
		return errNotAssignable
	}
}
