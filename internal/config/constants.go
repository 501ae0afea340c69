package config

// SourceFileExt is the canonical Asteria source extension.
const SourceFileExt = ".as"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".as", ".asteria"}

// IsTestMode indicates if the program is running in test mode.
var IsTestMode = false

// MaxRecursionDepth bounds the engine's call-frame recursion sentry (§5).
const MaxRecursionDepth = 4096

// MaxArrayLength bounds array growth from a single operator (overflow guard).
const MaxArrayLength = 1 << 31

// TrimSourceExt strips a recognized source extension from a display path.
func TrimSourceExt(path string) string {
	for _, ext := range SourceFileExtensions {
		if len(path) > len(ext) && path[len(path)-len(ext):] == ext {
			return path[:len(path)-len(ext)]
		}
	}
	return path
}
