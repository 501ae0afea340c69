// std_uuid.go backs the `std.uuid` namespace: opaque UUID values
// riding in through the Argument Reader's Opaque() slot exactly as
// §6 describes ("gRPC clients, sqlite handles, uuid values all ride
// in as Opaque"). Grounded on the module loader's own internal use of
// github.com/google/uuid (internal/modules/loader.go) for its session
// tag, surfaced here as a small language-visible UUID library.
package stdlib

import (
	"github.com/google/uuid"

	"github.com/asteria-lang/asteria/internal/argreader"
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/value"
)

// uuidHandle is the Opaque payload a uuid-producing builtin returns.
type uuidHandle struct{ id uuid.UUID }

func (u *uuidHandle) OpaqueTypeName() string { return "uuid.UUID" }

// UUID returns the `std.uuid` namespace's members.
func UUID() map[string]value.Value {
	return map[string]value.Value{
		"v4":        fn("v4", uuidV4),
		"nil":       fn("nil", uuidNil),
		"parse":     fn("parse", uuidParse),
		"to_string": fn("to_string", uuidToString),
	}
}

func uuidV4(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("v4", args)
	r.StartOverload()
	if !r.EndOverload() {
		return value.Value{}, r.ThrowNoMatchingFunctionCall()
	}
	return value.OpaqueVal(&uuidHandle{id: uuid.New()}), nil
}

func uuidNil(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("nil", args)
	r.StartOverload()
	if !r.EndOverload() {
		return value.Value{}, r.ThrowNoMatchingFunctionCall()
	}
	return value.OpaqueVal(&uuidHandle{id: uuid.Nil}), nil
}

func uuidParse(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("parse", args)
	r.StartOverload()
	var s string
	if r.RequiredString(&s) && r.EndOverload() {
		id, err := uuid.Parse(s)
		if err != nil {
			return value.Value{}, exception.Newf(exception.TypeMismatch, "invalid uuid %q: %v", s, err)
		}
		return value.OpaqueVal(&uuidHandle{id: id}), nil
	}
	return value.Value{}, r.ThrowNoMatchingFunctionCall()
}

func uuidToString(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("to_string", args)
	r.StartOverload()
	var ov value.Opaque
	if r.RequiredOpaque(&ov) && r.EndOverload() {
		h, ok := ov.(*uuidHandle)
		if !ok {
			return value.Value{}, exception.Newf(exception.TypeMismatch, "to_string expects a uuid handle")
		}
		return value.Str(h.id.String()), nil
	}
	return value.Value{}, r.ThrowNoMatchingFunctionCall()
}
