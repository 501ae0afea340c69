// Package modules implements Asteria's Module Loader (§2, §6): it
// resolves an import() path to a source file, compiles it through the
// same lexer/parser/Optimizer/Solidify pipeline cmd/asteria drives the
// top-level script through, runs it once, and caches the resulting
// exported namespace object so a later import() of the same resolved
// path is a cache hit rather than a re-run.
//
// Grounded on the teacher's internal/modules/loader.go: a
// `Processing map[string]bool` in-flight set guards against import
// cycles (renamed `loading` here), and a completed-module cache
// deduplicates repeat imports, re-expressed against spec.md's
// recursive_import/io_error error kinds instead of the teacher's own
// error type.
package modules

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/asteria-lang/asteria/internal/air"
	"github.com/asteria-lang/asteria/internal/avmc"
	"github.com/asteria-lang/asteria/internal/context"
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/lexer"
	"github.com/asteria-lang/asteria/internal/parser"
	"github.com/asteria-lang/asteria/internal/value"
)

// Loader resolves, compiles and caches imported modules. Satisfies
// air.ModuleLoader structurally (Load(path string) (value.Value,
// *exception.Error)); install it on context.Global.Loader before
// running a script that may call import().
type Loader struct {
	baseDir string
	global  *context.Global

	loading map[string]bool
	cache   map[string]value.Value

	// sessionID is a per-Loader identifier (never surfaced to Asteria
	// code) generated once by New and returned by SessionID; Load does
	// not attach it to individual loads or include it in its errors.
	sessionID uuid.UUID
}

// New returns a Loader resolving relative import paths against
// baseDir (typically the directory containing the entry script),
// running loaded modules against global.
func New(baseDir string, global *context.Global) *Loader {
	return &Loader{
		baseDir:   baseDir,
		global:    global,
		loading:   make(map[string]bool),
		cache:     make(map[string]value.Value),
		sessionID: uuid.New(),
	}
}

// SessionID returns the load session's internal identifier.
func (l *Loader) SessionID() uuid.UUID { return l.sessionID }

func (l *Loader) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(l.baseDir, path))
}

// Load resolves path, compiling and running it the first time it is
// seen and returning a cached export object on every subsequent call
// for the same resolved path. A path still mid-load on the current
// call stack (an import cycle) raises recursive_import; a read
// failure raises io_error.
func (l *Loader) Load(path string) (value.Value, *exception.Error) {
	abs := l.resolve(path)

	if l.loading[abs] {
		return value.Value{}, exception.Newf(exception.RecursiveImport, "recursive import of %q", path)
	}
	if v, ok := l.cache[abs]; ok {
		return v, nil
	}

	src, err := os.ReadFile(abs)
	if err != nil {
		return value.Value{}, exception.Newf(exception.IOError, "cannot read module %q: %v", path, err)
	}

	l.loading[abs] = true
	defer delete(l.loading, abs)

	exports, cerr := l.compileAndRun(abs, string(src))
	if cerr != nil {
		return value.Value{}, cerr
	}
	l.cache[abs] = exports
	return exports, nil
}

// compileAndRun lexes, parses, rebinds and solidifies a module's
// source, runs its top-level body once in a fresh root
// ExecutiveContext, and packages the body's own top-level bindings
// into an Object value -- the module's exported namespace.
func (l *Loader) compileAndRun(absPath, src string) (value.Value, *exception.Error) {
	lx := lexer.New(src)
	p := parser.New(lx)
	prog := p.ParseProgram()
	if len(p.Errors) > 0 {
		return value.Value{}, exception.Newf(exception.IOError, "%s: %s", absPath, p.Errors[0])
	}

	opt := &air.Optimizer{}
	root := opt.Reload(prog)

	q := avmc.NewQueue()
	air.Solidify(root, q, false)
	q.Finalize()

	ctx := context.NewExecutiveRoot(l.global)
	if _, rerr := q.Run(ctx); rerr != nil {
		return value.Value{}, rerr
	}

	keys := ctx.OwnNames()
	vals := make(map[string]value.Value, len(keys))
	for _, name := range keys {
		ref, ok := ctx.Named(name)
		if !ok {
			continue
		}
		v, derr := ref.DereferenceReadonly(l.global.PRNG)
		if derr != nil {
			return value.Value{}, derr
		}
		vals[name] = v
	}
	return value.Object(keys, vals), nil
}
