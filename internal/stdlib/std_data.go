// std_data.go backs the `std.data` namespace: Asteria Value <-> YAML
// conversion, via gopkg.in/yaml.v3. Grounded on the teacher's
// internal/evaluator/builtins_yaml.go (parseYAML/toYAML over the same
// library), generalized through the shared toGo/fromGo converters
// instead of one bespoke recursive-switch copy per direction.
package stdlib

import (
	"gopkg.in/yaml.v3"

	"github.com/asteria-lang/asteria/internal/argreader"
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/value"
)

// Data returns the `std.data` namespace's members.
func Data() map[string]value.Value {
	return map[string]value.Value{
		"parse_yaml": fn("parse_yaml", dataParseYAML),
		"to_yaml":    fn("to_yaml", dataToYAML),
	}
}

func dataParseYAML(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("parse_yaml", args)
	r.StartOverload()
	var s string
	if r.RequiredString(&s) && r.EndOverload() {
		var decoded any
		if err := yaml.Unmarshal([]byte(s), &decoded); err != nil {
			return value.Value{}, exception.Newf(exception.TypeMismatch, "parse_yaml: %v", err)
		}
		return fromGo(normalizeYAML(decoded)), nil
	}
	return value.Value{}, r.ThrowNoMatchingFunctionCall()
}

// normalizeYAML rewrites the map[string]interface{} / map[interface{}]
// interface{} mix yaml.v3 can produce into plain Go maps/slices so
// fromGo's type switch only has to handle one map shape.
func normalizeYAML(x any) any {
	switch t := x.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = normalizeYAML(v)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			if ks, ok := k.(string); ok {
				out[ks] = normalizeYAML(v)
			}
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = normalizeYAML(v)
		}
		return out
	default:
		return t
	}
}

func dataToYAML(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("to_yaml", args)
	r.StartOverload()
	var v value.Value
	if r.RequiredValue(&v) && r.EndOverload() {
		out, err := yaml.Marshal(toGo(v))
		if err != nil {
			return value.Value{}, exception.Newf(exception.TypeMismatch, "to_yaml: %v", err)
		}
		return value.Str(string(out)), nil
	}
	return value.Value{}, r.ThrowNoMatchingFunctionCall()
}
