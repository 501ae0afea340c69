package stdlib

import "github.com/asteria-lang/asteria/internal/value"

// toGo converts an Asteria Value into a plain Go value suitable for
// yaml.Marshal or a database/sql driver argument -- the inverse of
// fromGo. Functions and opaque handles have no Go-native counterpart
// and convert to nil.
func toGo(v value.Value) any {
	switch v.Kind {
	case value.KNull:
		return nil
	case value.KBoolean:
		return v.AsBoolean()
	case value.KInteger:
		return v.AsInteger()
	case value.KReal:
		return v.AsReal()
	case value.KString:
		return v.AsString()
	case value.KArray:
		arr := v.AsArray()
		out := make([]any, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			out[i] = toGo(arr.Get(i))
		}
		return out
	case value.KObject:
		obj := v.AsObject()
		out := make(map[string]any)
		for _, k := range obj.Keys {
			ov, _ := obj.Get(k)
			out[k] = toGo(ov)
		}
		return out
	default:
		return nil
	}
}

// fromGo converts a decoded Go value (as produced by yaml.Unmarshal
// into an `any`, or read back from a database/sql row) into an
// Asteria Value.
func fromGo(x any) value.Value {
	switch t := x.(type) {
	case nil:
		return value.Null
	case bool:
		return value.Bool(t)
	case int:
		return value.Int(int64(t))
	case int32:
		return value.Int(int64(t))
	case int64:
		return value.Int(t)
	case float32:
		return value.Real(float64(t))
	case float64:
		return value.Real(t)
	case string:
		return value.Str(t)
	case []byte:
		return value.Bytes(t)
	case []any:
		elems := make([]value.Value, len(t))
		for i, e := range t {
			elems[i] = fromGo(e)
		}
		return value.Array(elems)
	case map[string]any:
		keys := make([]string, 0, len(t))
		vals := make(map[string]value.Value, len(t))
		for k, e := range t {
			keys = append(keys, k)
			vals[k] = fromGo(e)
		}
		return value.Object(keys, vals)
	case map[any]any:
		keys := make([]string, 0, len(t))
		vals := make(map[string]value.Value, len(t))
		for k, e := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			keys = append(keys, ks)
			vals[ks] = fromGo(e)
		}
		return value.Object(keys, vals)
	default:
		return value.Null
	}
}
