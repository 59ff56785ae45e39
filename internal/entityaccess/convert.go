package entityaccess

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"neo-ogm/internal/metadata"
)

var timeType = reflect.TypeOf(time.Time{})

// Convert adapts a graph value to the Go type of a member: numeric widening
// and narrowing, named types, pointers to values, element-wise slices and
// RFC 3339 strings into time.Time.
func Convert(value any, target reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(target), nil
	}
	return convertValue(reflect.ValueOf(value), target)
}

func convertValue(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(target), nil
		}
		v = v.Elem()
	}
	if v.Type().AssignableTo(target) {
		return v, nil
	}

	switch target.Kind() {
	case reflect.Ptr:
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return reflect.Zero(target), nil
			}
			v = v.Elem()
		}
		elem, err := convertValue(v, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(target.Elem())
		p.Elem().Set(elem)
		return p, nil
	case reflect.Slice:
		if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
			out := reflect.MakeSlice(target, v.Len(), v.Len())
			for i := 0; i < v.Len(); i++ {
				elem, err := convertValue(v.Index(i), target.Elem())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
				}
				out.Index(i).Set(elem)
			}
			return out, nil
		}
	}

	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Zero(target), nil
		}
		return convertValue(v.Elem(), target)
	}
	if target == timeType && v.Kind() == reflect.String {
		t, err := time.Parse(time.RFC3339Nano, v.String())
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(t), nil
	}
	if convertible(v, target) {
		return v.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", v.Type(), target)
}

func convertible(v reflect.Value, to reflect.Type) bool {
	from := v.Type()
	if !from.ConvertibleTo(to) {
		return false
	}
	fk, tk := from.Kind(), to.Kind()
	switch {
	case isInt(fk) && isInt(tk):
		return !reflect.Zero(to).OverflowInt(v.Int())
	case isUint(fk) && isInt(tk):
		return v.Uint() <= 1<<63-1 && !reflect.Zero(to).OverflowInt(int64(v.Uint()))
	case isInt(fk) && isUint(tk):
		return v.Int() >= 0 && !reflect.Zero(to).OverflowUint(uint64(v.Int()))
	case isUint(fk) && isUint(tk):
		return !reflect.Zero(to).OverflowUint(v.Uint())
	case isFloat(fk) && isInt(tk):
		f := v.Float()
		return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 && !reflect.Zero(to).OverflowInt(int64(f))
	case isFloat(fk) && isUint(tk):
		f := v.Float()
		return f == math.Trunc(f) && f >= 0 && f < math.MaxUint64 && !reflect.Zero(to).OverflowUint(uint64(f))
	case isFloat(fk) && isFloat(tk):
		return !reflect.Zero(to).OverflowFloat(v.Float())
	case isNumber(fk) && isNumber(tk):
		// integers into floats
		return true
	case fk == tk:
		// named strings and bools, and structs such as driver temporal types
		return true
	}
	return false
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumber(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || isFloat(k)
}

// Merge unions the current collection with incoming values into a new value
// of collectionType: current elements first, then the incoming ones the
// current collection does not already hold. Incoming values are otherwise
// kept as given, repeats included. Entities are compared by pointer
// identity, other values by deep equality.
func Merge(collectionType reflect.Type, incoming, current any) (any, error) {
	if !metadata.IsCollectionType(collectionType) {
		return nil, fmt.Errorf("cannot merge into non-collection type %s", collectionType)
	}
	elemType := collectionType.Elem()
	out := reflect.MakeSlice(collectionType, 0, 0)

	for _, v := range elementsOf(current) {
		cv, err := convertValue(v, elemType)
		if err != nil {
			return nil, fmt.Errorf("merge into %s: %w", collectionType, err)
		}
		out = reflect.Append(out, cv)
	}
	held := out.Len()

	for _, v := range elementsOf(incoming) {
		cv, err := convertValue(v, elemType)
		if err != nil {
			return nil, fmt.Errorf("merge into %s: %w", collectionType, err)
		}
		if !holds(out, held, cv) {
			out = reflect.Append(out, cv)
		}
	}
	return out.Interface(), nil
}

// holds reports whether one of the first n elements of s is v
func holds(s reflect.Value, n int, v reflect.Value) bool {
	for i := 0; i < n; i++ {
		if sameElement(s.Index(i), v) {
			return true
		}
	}
	return false
}

func elementsOf(value any) []reflect.Value {
	if value == nil {
		return nil
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return []reflect.Value{v}
	}
	out := make([]reflect.Value, v.Len())
	for i := range out {
		out[i] = v.Index(i)
	}
	return out
}

func sameElement(a, b reflect.Value) bool {
	a, b = unwrapInterface(a), unwrapInterface(b)
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}
	switch a.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	}
	return reflect.DeepEqual(a.Interface(), b.Interface())
}

func unwrapInterface(v reflect.Value) reflect.Value {
	if v.Kind() != reflect.Interface {
		return v
	}
	if v.IsNil() {
		return reflect.Value{}
	}
	return v.Elem()
}
