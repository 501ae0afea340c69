// std_rpc.go backs the `std.rpc` namespace: a gRPC reflection-free
// dynamic client built on jhump/protoreflect's descriptor/dynamic-
// message machinery, the "richest host-supplied object" the stdlib
// layer exercises (§6). Grounded directly on the teacher's
// internal/evaluator/builtins_grpc.go: a package-level proto-file
// descriptor registry populated by protoparse, method lookup by
// "package.Service/Method" path, and dynamic.Message request/response
// construction -- generalized through argreader/toGo/fromGo instead of
// the teacher's bespoke Record/Map field-walking helpers.
package stdlib

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/asteria-lang/asteria/internal/argreader"
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/value"
)

var (
	protoRegistry      = make(map[string]*desc.FileDescriptor)
	protoRegistryMutex sync.RWMutex
)

type rpcConnHandle struct{ conn *grpc.ClientConn }

func (h *rpcConnHandle) OpaqueTypeName() string { return "rpc.Conn" }

// RPC returns the `std.rpc` namespace's members.
func RPC() map[string]value.Value {
	return map[string]value.Value{
		"load_proto": fn("load_proto", rpcLoadProto),
		"dial":       fn("dial", rpcDial),
		"invoke":     fn("invoke", rpcInvoke),
		"close":      fn("close", rpcClose),
	}
}

// load_proto(path) parses a .proto file and registers its message and
// service descriptors so later invoke() calls can resolve a method by
// name.
func rpcLoadProto(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("load_proto", args)
	r.StartOverload()
	var path string
	if r.RequiredString(&path) && r.EndOverload() {
		parser := protoparse.Parser{ImportPaths: []string{"."}}
		fds, err := parser.ParseFiles(path)
		if err != nil {
			return value.Value{}, exception.Newf(exception.IOError, "load_proto %q: %v", path, err)
		}
		protoRegistryMutex.Lock()
		for _, fd := range fds {
			protoRegistry[fd.GetName()] = fd
		}
		protoRegistryMutex.Unlock()
		return value.Null, nil
	}
	return value.Value{}, r.ThrowNoMatchingFunctionCall()
}

func rpcDial(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("dial", args)
	r.StartOverload()
	var addr string
	if r.RequiredString(&addr) && r.EndOverload() {
		conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return value.Value{}, exception.Newf(exception.IOError, "rpc.dial %q: %v", addr, err)
		}
		return value.OpaqueVal(&rpcConnHandle{conn: conn}), nil
	}
	return value.Value{}, r.ThrowNoMatchingFunctionCall()
}

func rpcClose(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("close", args)
	r.StartOverload()
	var ov value.Opaque
	if r.RequiredOpaque(&ov) && r.EndOverload() {
		h, ok := ov.(*rpcConnHandle)
		if !ok {
			return value.Value{}, exception.Newf(exception.TypeMismatch, "rpc.close expects a connection")
		}
		if err := h.conn.Close(); err != nil {
			return value.Value{}, exception.Newf(exception.IOError, "rpc.close: %v", err)
		}
		return value.Null, nil
	}
	return value.Value{}, r.ThrowNoMatchingFunctionCall()
}

// invoke(conn, "package.Service/Method", requestObject) builds a
// request dynamic.Message from requestObject's fields, invokes the
// method over conn, and converts the response message back to an
// Asteria object.
func rpcInvoke(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("invoke", args)
	r.StartOverload()
	var connOv value.Opaque
	var method string
	var req value.Value
	if r.RequiredOpaque(&connOv) && r.RequiredString(&method) && r.RequiredValue(&req) && r.EndOverload() {
		connHandle, ok := connOv.(*rpcConnHandle)
		if !ok {
			return value.Value{}, exception.Newf(exception.TypeMismatch, "rpc.invoke expects a connection as first argument")
		}
		md, err := findMethodDescriptor(method)
		if err != nil {
			return value.Value{}, exception.Newf(exception.BadCall, "rpc.invoke: %v", err)
		}
		reqMsg := dynamic.NewMessage(md.GetInputType())
		if err := objectToDynamicMessage(req, reqMsg); err != nil {
			return value.Value{}, exception.Newf(exception.TypeMismatch, "rpc.invoke: %v", err)
		}
		respMsg := dynamic.NewMessage(md.GetOutputType())

		fullMethod := method
		if !strings.HasPrefix(fullMethod, "/") {
			fullMethod = "/" + fullMethod
		}
		if err := connHandle.conn.Invoke(context.Background(), fullMethod, reqMsg, respMsg); err != nil {
			return value.Value{}, exception.Newf(exception.IOError, "rpc.invoke %s: %v", method, err)
		}
		return dynamicMessageToValue(respMsg), nil
	}
	return value.Value{}, r.ThrowNoMatchingFunctionCall()
}

func findMethodDescriptor(path string) (*desc.MethodDescriptor, error) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return nil, fmt.Errorf("invalid method path %q, expected package.Service/Method", path)
	}
	serviceName, methodName := path[:idx], path[idx+1:]

	protoRegistryMutex.RLock()
	defer protoRegistryMutex.RUnlock()
	for _, fd := range protoRegistry {
		if svc := fd.FindService(serviceName); svc != nil {
			if method := svc.FindMethodByName(methodName); method != nil {
				return method, nil
			}
		}
	}
	return nil, fmt.Errorf("method %q not found (call load_proto first)", path)
}

// objectToDynamicMessage copies an Asteria object's fields into msg by
// name, coercing each field's Go-native form (via toGo) into whatever
// the corresponding proto field accepts. Unknown fields are ignored,
// matching the teacher's own lenient behavior.
func objectToDynamicMessage(v value.Value, msg *dynamic.Message) error {
	if !v.IsObject() {
		return fmt.Errorf("expected an object request payload, got %s", v.TypeOf())
	}
	obj := v.AsObject()
	for _, key := range obj.Keys {
		fv, _ := obj.Get(key)
		fd := msg.GetMessageDescriptor().FindFieldByName(key)
		if fd == nil {
			continue
		}
		if err := msg.TrySetField(fd, toGo(fv)); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}
	return nil
}

// dynamicMessageToValue converts a response dynamic.Message into an
// Asteria object, one field per proto field.
func dynamicMessageToValue(msg *dynamic.Message) value.Value {
	fds := msg.GetMessageDescriptor().GetFields()
	keys := make([]string, len(fds))
	vals := make(map[string]value.Value, len(fds))
	for i, fd := range fds {
		name := fd.GetName()
		keys[i] = name
		vals[name] = fromGo(msg.GetField(fd))
	}
	return value.Object(keys, vals)
}
