// Package stdlib wires Asteria's standard library namespaces (io,
// uuid, rpc, data, db) as value.Function host bindings, the concrete
// "std.io.log"-style surface §6's Argument Reader and Opaque slot
// exist to support. Grounded on the shape of the teacher's
// lib/*Builtins() maps (internal/evaluator/builtins_io.go,
// builtins_grpc.go, builtins_yaml.go): one map of name -> callable per
// namespace, assembled here into nested Asteria objects instead of the
// teacher's package-scoped "lib/io" import namespace, since Asteria's
// import() (§6) returns a module's own top-level bindings rather than
// naming a virtual standard-library package path.
package stdlib

import "github.com/asteria-lang/asteria/internal/value"

// nativeFn adapts a plain Go function to value.Function, the contract
// every builtin across std_io.go/std_uuid.go/std_rpc.go/std_data.go/
// std_db.go implements.
type nativeFn struct {
	name string
	fn   func(global any, args []value.Value) (value.Value, error)
}

func (n *nativeFn) Name() string { return n.name }

func (n *nativeFn) Invoke(self *value.Ref, global any, args []value.Value) error {
	v, err := n.fn(global, args)
	if err != nil {
		return err
	}
	self.Set(v)
	return nil
}

func fn(name string, f func(global any, args []value.Value) (value.Value, error)) value.Value {
	return value.Func(&nativeFn{name: name, fn: f})
}

// namespace builds an Asteria object value out of a name->Value map,
// the shape `std.io`, `std.uuid` etc each are (§6's "richest
// host-supplied object" surface, one level up from a single Opaque).
func namespace(members map[string]value.Value) value.Value {
	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	return value.Object(keys, members)
}

// Std assembles the top-level `std` namespace object: std.io, std.uuid,
// std.rpc, std.data, std.db.
func Std() value.Value {
	return namespace(map[string]value.Value{
		"io":   namespace(IO()),
		"uuid": namespace(UUID()),
		"rpc":  namespace(RPC()),
		"data": namespace(Data()),
		"db":   namespace(DB()),
	})
}
