// std_db.go backs the `std.db` namespace: a minimal SQL surface over
// modernc.org/sqlite's database/sql driver, connection handles riding
// in as Opaque the same way the teacher's GrpcConnObject does for its
// own host connection (internal/evaluator/builtins_grpc.go). The module
// loader does not use this package; its module cache is an in-memory
// map in internal/modules that lives as long as the Loader.
package stdlib

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/asteria-lang/asteria/internal/argreader"
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/value"
)

type dbHandle struct{ conn *sql.DB }

func (h *dbHandle) OpaqueTypeName() string { return "db.Conn" }

// DB returns the `std.db` namespace's members.
func DB() map[string]value.Value {
	return map[string]value.Value{
		"open":  fn("open", dbOpen),
		"close": fn("close", dbClose),
		"exec":  fn("exec", dbExec),
		"query": fn("query", dbQuery),
	}
}

func dbOpen(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("open", args)
	r.StartOverload()
	var path string
	if r.RequiredString(&path) && r.EndOverload() {
		conn, err := sql.Open("sqlite", path)
		if err != nil {
			return value.Value{}, exception.Newf(exception.IOError, "db.open %q: %v", path, err)
		}
		if err := conn.Ping(); err != nil {
			return value.Value{}, exception.Newf(exception.IOError, "db.open %q: %v", path, err)
		}
		return value.OpaqueVal(&dbHandle{conn: conn}), nil
	}
	return value.Value{}, r.ThrowNoMatchingFunctionCall()
}

func dbClose(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("close", args)
	r.StartOverload()
	var ov value.Opaque
	if r.RequiredOpaque(&ov) && r.EndOverload() {
		h, ok := ov.(*dbHandle)
		if !ok {
			return value.Value{}, exception.Newf(exception.TypeMismatch, "db.close expects a db connection")
		}
		if err := h.conn.Close(); err != nil {
			return value.Value{}, exception.Newf(exception.IOError, "db.close: %v", err)
		}
		return value.Null, nil
	}
	return value.Value{}, r.ThrowNoMatchingFunctionCall()
}

func dbExec(_ any, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return value.Value{}, exception.Newf(exception.BadCall, "db.exec expects (conn, sql, ...params)")
	}
	conn, ok := asDBHandle(args[0])
	if !ok {
		return value.Value{}, exception.Newf(exception.TypeMismatch, "db.exec expects a db connection as first argument")
	}
	query, ok := asString(args[1])
	if !ok {
		return value.Value{}, exception.Newf(exception.TypeMismatch, "db.exec expects a sql string as second argument")
	}
	params := make([]any, len(args)-2)
	for i, a := range args[2:] {
		params[i] = toGo(a)
	}
	res, err := conn.conn.Exec(query, params...)
	if err != nil {
		return value.Value{}, exception.Newf(exception.IOError, "db.exec: %v", err)
	}
	affected, _ := res.RowsAffected()
	return value.Int(affected), nil
}

func dbQuery(_ any, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return value.Value{}, exception.Newf(exception.BadCall, "db.query expects (conn, sql, ...params)")
	}
	conn, ok := asDBHandle(args[0])
	if !ok {
		return value.Value{}, exception.Newf(exception.TypeMismatch, "db.query expects a db connection as first argument")
	}
	query, ok := asString(args[1])
	if !ok {
		return value.Value{}, exception.Newf(exception.TypeMismatch, "db.query expects a sql string as second argument")
	}
	params := make([]any, len(args)-2)
	for i, a := range args[2:] {
		params[i] = toGo(a)
	}
	rows, err := conn.conn.Query(query, params...)
	if err != nil {
		return value.Value{}, exception.Newf(exception.IOError, "db.query: %v", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return value.Value{}, exception.Newf(exception.IOError, "db.query: %v", err)
	}

	var out []value.Value
	for rows.Next() {
		scanTargets := make([]any, len(cols))
		scanVals := make([]any, len(cols))
		for i := range scanTargets {
			scanTargets[i] = &scanVals[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return value.Value{}, exception.Newf(exception.IOError, "db.query: %v", err)
		}
		fields := make(map[string]value.Value, len(cols))
		for i, c := range cols {
			fields[c] = fromGo(scanVals[i])
		}
		out = append(out, value.Object(cols, fields))
	}
	return value.Array(out), nil
}

func asDBHandle(v value.Value) (*dbHandle, bool) {
	if !v.IsOpaque() {
		return nil, false
	}
	h, ok := v.AsOpaque().(*dbHandle)
	return h, ok
}

func asString(v value.Value) (string, bool) {
	if !v.IsString() {
		return "", false
	}
	return v.AsString(), true
}
