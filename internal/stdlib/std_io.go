// std_io.go backs the `std.io` namespace: stdout logging plus basic
// file I/O, the surface spec.md §8 scenario 4's literal
// `std.io.log("A")` call exercises. Grounded on the teacher's
// internal/evaluator/builtins_io.go (readLine/readAll/fileRead/
// fileWrite family), generalized onto argreader instead of one
// hand-rolled `len(args) != N` check per builtin.
package stdlib

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/asteria-lang/asteria/internal/argreader"
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/value"
)

var (
	stdinReader     *bufio.Reader
	stdinReaderOnce sync.Once
)

func getStdinReader() *bufio.Reader {
	stdinReaderOnce.Do(func() { stdinReader = bufio.NewReader(os.Stdin) })
	return stdinReader
}

// IO returns the `std.io` namespace's members.
func IO() map[string]value.Value {
	return map[string]value.Value{
		"log":        fn("log", ioLog),
		"write":      fn("write", ioWrite),
		"read_line":  fn("read_line", ioReadLine),
		"read_all":   fn("read_all", ioReadAll),
		"file_read":  fn("file_read", ioFileRead),
		"file_write": fn("file_write", ioFileWrite),
		"file_exists": fn("file_exists", ioFileExists),
	}
}

// log(...) writes each argument's display form space-separated,
// followed by a newline, to stdout -- deliberately variadic and
// untyped (any number of any-typed arguments), so it needs no overload
// resolution through argreader at all.
func ioLog(_ any, args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		if a.IsString() {
			parts[i] = a.AsString()
		} else {
			parts[i] = a.Inspect(false)
		}
	}
	fmt.Fprintln(os.Stdout, strings.Join(parts, " "))
	return value.Null, nil
}

// write(s) writes s to stdout with no trailing newline.
func ioWrite(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("write", args)
	r.StartOverload()
	var s string
	if r.RequiredString(&s) && r.EndOverload() {
		fmt.Fprint(os.Stdout, s)
		return value.Null, nil
	}
	return value.Value{}, r.ThrowNoMatchingFunctionCall()
}

// read_line() reads one line from stdin, returning null at EOF.
func ioReadLine(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("read_line", args)
	r.StartOverload()
	if !r.EndOverload() {
		return value.Value{}, r.ThrowNoMatchingFunctionCall()
	}
	line, err := getStdinReader().ReadString('\n')
	if err != nil && line == "" {
		return value.Null, nil
	}
	return value.Str(strings.TrimRight(line, "\r\n")), nil
}

func ioReadAll(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("read_all", args)
	r.StartOverload()
	if !r.EndOverload() {
		return value.Value{}, r.ThrowNoMatchingFunctionCall()
	}
	var sb strings.Builder
	buf := make([]byte, 4096)
	in := getStdinReader()
	for {
		n, err := in.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	return value.Str(sb.String()), nil
}

func ioFileRead(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("file_read", args)
	r.StartOverload()
	var path string
	if r.RequiredString(&path) && r.EndOverload() {
		data, err := os.ReadFile(path)
		if err != nil {
			return value.Value{}, exception.Newf(exception.IOError, "file_read %q: %v", path, err)
		}
		return value.Str(string(data)), nil
	}
	return value.Value{}, r.ThrowNoMatchingFunctionCall()
}

func ioFileWrite(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("file_write", args)
	r.StartOverload()
	var path, data string
	if r.RequiredString(&path) && r.RequiredString(&data) && r.EndOverload() {
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			return value.Value{}, exception.Newf(exception.IOError, "file_write %q: %v", path, err)
		}
		return value.Null, nil
	}
	return value.Value{}, r.ThrowNoMatchingFunctionCall()
}

func ioFileExists(_ any, args []value.Value) (value.Value, error) {
	r := argreader.New("file_exists", args)
	r.StartOverload()
	var path string
	if r.RequiredString(&path) && r.EndOverload() {
		_, err := os.Stat(path)
		return value.Bool(err == nil), nil
	}
	return value.Value{}, r.ThrowNoMatchingFunctionCall()
}
