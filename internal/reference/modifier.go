package reference

import "github.com/asteria-lang/asteria/internal/exception"
import "github.com/asteria-lang/asteria/internal/value"

// DereferenceReadonly walks the modifier chain applying reads (§4.3).
// Missing array indices (including negative indices wrapping past the
// start) and missing object keys read as null; indexing into a
// non-container is a type_mismatch error.
func (r *Reference) DereferenceReadonly(prng PRNG) (value.Value, *exception.Error) {
	cur, _, err := r.rootValue()
	if err != nil {
		return value.Null, err
	}
	for _, m := range r.modifiers {
		cur, err = applyReadModifier(cur, m, prng)
		if err != nil {
			return value.Null, err
		}
	}
	return cur, nil
}

func applyReadModifier(v value.Value, m Modifier, prng PRNG) (value.Value, *exception.Error) {
	switch m.Kind {
	case MObjectKey:
		if v.IsNull() {
			return value.Null, nil
		}
		if !v.IsObject() {
			return value.Null, exception.Newf(exception.TypeMismatch, "cannot index non-object with key %q", m.Key)
		}
		got, ok := v.AsObject().Get(m.Key)
		if !ok {
			return value.Null, nil
		}
		return got, nil
	default:
		if v.IsNull() {
			return value.Null, nil
		}
		if !v.IsArray() {
			return value.Null, exception.Newf(exception.TypeMismatch, "cannot index non-array with an array modifier")
		}
		arr := v.AsArray()
		idx, ok := resolveArrayIndex(arr.Len(), m, prng)
		if !ok {
			return value.Null, nil
		}
		return arr.Get(idx), nil
	}
}

// DereferenceMutable walks the chain, materializing intermediate
// containers as needed, and yields the writable Variable slot the
// chain addresses (§4.3). Fails if the root is a temporary with no
// modifiers (nothing to write through) or the addressed Variable is
// immutable.
func (r *Reference) DereferenceMutable(prng PRNG) (*value.Variable, *exception.Error) {
	if len(r.modifiers) == 0 {
		switch r.kind {
		case KVariable:
			if r.variable.IsImmutable() {
				return nil, exception.Newf(exception.ImmutableWrite, "write to immutable variable")
			}
			return r.variable, nil
		case KTemporary:
			return nil, exception.Newf(exception.TypeMismatch, "cannot write through a temporary reference")
		default:
			return nil, exception.Newf(exception.BadCall, "reference is not dereferenceable")
		}
	}

	cur, _, err := r.rootValue()
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(r.modifiers)-1; i++ {
		cur, err = materializeElement(cur, r.modifiers[i], prng)
		if err != nil {
			return nil, err
		}
	}
	last := r.modifiers[len(r.modifiers)-1]
	return materializeSlot(cur, last, prng)
}

// materializeElement resolves one non-terminal step of a mutable
// chain, auto-vivifying the addressed element (but not its container)
// if missing, and returns the element's current Value for the next
// step to descend into.
func materializeElement(v value.Value, m Modifier, prng PRNG) (value.Value, *exception.Error) {
	slot, err := materializeSlot(v, m, prng)
	if err != nil {
		return value.Null, err
	}
	return slot.Get(), nil
}

// materializeSlot resolves the terminal step of a mutable chain: the
// Variable slot the modifier addresses, creating it if the container
// allows (object: auto-create the key with null; array: extend with
// nulls up to the index).
func materializeSlot(v value.Value, m Modifier, prng PRNG) (*value.Variable, *exception.Error) {
	switch m.Kind {
	case MObjectKey:
		if !v.IsObject() {
			return nil, exception.Newf(exception.TypeMismatch, "cannot index non-object with key %q", m.Key)
		}
		obj := v.AsObject()
		if slot, ok := obj.Vals[m.Key]; ok {
			return slot, nil
		}
		obj.Set(m.Key, value.Null)
		return obj.Vals[m.Key], nil
	default:
		if !v.IsArray() {
			return nil, exception.Newf(exception.TypeMismatch, "cannot index non-array with an array modifier")
		}
		arr := v.AsArray()
		idx, err := resolveArrayIndexForWrite(arr, m, prng)
		if err != nil {
			return nil, err
		}
		for arr.Len() <= idx {
			arr.Append(value.Null)
		}
		return arr.Slots[idx], nil
	}
}

// resolveArrayIndex resolves a read-position index; ok is false for
// any out-of-range access (read as null per §4.3).
func resolveArrayIndex(length int, m Modifier, prng PRNG) (int, bool) {
	switch m.Kind {
	case MArrayHead:
		if length == 0 {
			return 0, false
		}
		return 0, true
	case MArrayTail:
		if length == 0 {
			return 0, false
		}
		return length - 1, true
	case MArrayRandom:
		if length == 0 || prng == nil {
			return 0, false
		}
		return prng.Intn(length), true
	default:
		idx := m.Index
		if idx < 0 {
			idx += int64(length)
		}
		if idx < 0 || idx >= int64(length) {
			return 0, false
		}
		return int(idx), true
	}
}

// resolveArrayIndexForWrite resolves a write-position index; negative
// indices past the beginning (after wrap) are an out_of_range error
// per §4.3 ("beyond `-len` for write is an error", §8 boundary
// behaviors). A non-negative index past the end is allowed -- the
// caller extends the array to fit.
func resolveArrayIndexForWrite(arr *value.ArrayData, m Modifier, prng PRNG) (int, *exception.Error) {
	length := arr.Len()
	switch m.Kind {
	case MArrayHead:
		return 0, nil
	case MArrayTail:
		if length == 0 {
			return 0, nil
		}
		return length - 1, nil
	case MArrayRandom:
		if length == 0 || prng == nil {
			return 0, nil
		}
		return prng.Intn(length), nil
	default:
		idx := m.Index
		if idx < 0 {
			idx += int64(length)
		}
		if idx < 0 {
			return 0, exception.Newf(exception.OutOfRange, "array index %d out of range for write", m.Index)
		}
		return int(idx), nil
	}
}

// DereferenceUnset removes the element the chain's last modifier
// addresses (§4.3): an array element is erased and the tail shifts
// left; an object key is removed. Returns the prior value, or null if
// absent. Fails if the parent is neither an array nor an object.
func (r *Reference) DereferenceUnset(prng PRNG) (value.Value, *exception.Error) {
	if len(r.modifiers) == 0 {
		return value.Null, exception.Newf(exception.BadCall, "dereference_unset requires at least one modifier")
	}
	cur, _, err := r.rootValue()
	if err != nil {
		return value.Null, err
	}
	for i := 0; i < len(r.modifiers)-1; i++ {
		cur, err = applyReadModifier(cur, r.modifiers[i], prng)
		if err != nil {
			return value.Null, err
		}
	}
	last := r.modifiers[len(r.modifiers)-1]
	switch last.Kind {
	case MObjectKey:
		if !cur.IsObject() {
			return value.Null, exception.Newf(exception.TypeMismatch, "cannot unset a key on a non-object")
		}
		prev, _ := cur.AsObject().Delete(last.Key)
		return prev, nil
	default:
		if !cur.IsArray() {
			return value.Null, exception.Newf(exception.TypeMismatch, "cannot unset an index on a non-array")
		}
		arr := cur.AsArray()
		idx, ok := resolveArrayIndex(arr.Len(), last, prng)
		if !ok {
			return value.Null, nil
		}
		prev := arr.Slots[idx].Get()
		arr.Slots[idx].Release()
		arr.Slots = append(arr.Slots[:idx], arr.Slots[idx+1:]...)
		return prev, nil
	}
}
