package codec

import (
	"fmt"
	"reflect"
	"time"
)

// ToValue converts a plain Go value into the Value universe Marshal/Encode
// understands. It is the boundary the spec's dynamic-value-universe design
// note calls for: any host-type inspection happens here, once, rather than
// inside the encoder's recursive walk.
//
// Recognized inputs: nil, Value (passed through), bool, every signed/
// unsigned integer kind, float32/float64, string, time.Time, []byte (bin),
// any other slice or array (ordered sequence — per §4.2 "other typed
// numeric arrays" are themselves just arrays of numbers once converted),
// map[string]T, and struct values (exported fields only, tag name via a
// `msgpack:"name"` struct tag, `msgpack:"-"` to skip a field, falling back
// to the field name — the same convention encoding/json uses, which is
// also how the teacher's service layer shapes its JSON payloads).
//
// When v is none of the above, opts.InvalidTypeReplacement is consulted
// once; its return value is encoded as-is, not itself re-converted.
func ToValue(v any, opts EncodeOptions) (Value, error) {
	if v == nil {
		return Nil, nil
	}
	if val, ok := v.(Value); ok {
		return val, nil
	}
	if t, ok := v.(time.Time); ok {
		return DateValue(t), nil
	}
	if b, ok := v.([]byte); ok {
		return BinValue(b), nil
	}

	switch x := v.(type) {
	case bool:
		return BoolValue(x), nil
	case string:
		return StringValue(x), nil
	case int:
		return IntValue(int64(x)), nil
	case int8:
		return IntValue(int64(x)), nil
	case int16:
		return IntValue(int64(x)), nil
	case int32:
		return IntValue(int64(x)), nil
	case int64:
		return IntValue(x), nil
	case uint:
		return IntValue(int64(x)), nil
	case uint8:
		return IntValue(int64(x)), nil
	case uint16:
		return IntValue(int64(x)), nil
	case uint32:
		return IntValue(int64(x)), nil
	case uint64:
		return IntValue(int64(x)), nil
	case float32:
		return FloatValue(float64(x)), nil
	case float64:
		return FloatValue(x), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Nil, nil
		}
		return ToValue(rv.Elem().Interface(), opts)
	case reflect.Slice, reflect.Array:
		return toValueSlice(rv, opts)
	case reflect.Map:
		return toValueMap(rv, opts)
	case reflect.Struct:
		return toValueStruct(rv, opts)
	}

	if opts.InvalidTypeReplacement != nil {
		if replacement, ok := opts.InvalidTypeReplacement(v); ok {
			return replacement, nil
		}
	}
	return Value{}, fmt.Errorf("codec: cannot encode value of type %T", v)
}

func toValueSlice(rv reflect.Value, opts EncodeOptions) (Value, error) {
	n := rv.Len()
	items := make([]Value, n)
	for i := 0; i < n; i++ {
		item, err := ToValue(rv.Index(i).Interface(), opts)
		if err != nil {
			return Value{}, err
		}
		items[i] = item
	}
	return ArrayValue(items), nil
}

func toValueMap(rv reflect.Value, opts EncodeOptions) (Value, error) {
	if rv.Type().Key().Kind() != reflect.String {
		if opts.InvalidTypeReplacement != nil {
			if replacement, ok := opts.InvalidTypeReplacement(rv.Interface()); ok {
				return replacement, nil
			}
		}
		return Value{}, fmt.Errorf("codec: map keys must be strings, got %s", rv.Type().Key())
	}
	m := make(map[string]Value, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		val, err := ToValue(iter.Value().Interface(), opts)
		if err != nil {
			return Value{}, err
		}
		m[iter.Key().String()] = val
	}
	return MapValue(m), nil
}

func toValueStruct(rv reflect.Value, opts EncodeOptions) (Value, error) {
	t := rv.Type()
	m := make(map[string]Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("msgpack"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		val, err := ToValue(rv.Field(i).Interface(), opts)
		if err != nil {
			return Value{}, err
		}
		m[name] = val
	}
	return MapValue(m), nil
}
