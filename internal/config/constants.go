// Package config holds process-wide, ambient constants: recognized source
// file extensions and the built-in names the rest of the pipeline treats
// specially. None of this is AST shape — it's the small pile of "what do we
// call things" knowledge every pass needs a copy of.
package config

// SourceFileExt is the canonical extension for this language's source files.
const SourceFileExt = ".circuit"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".circuit", ".cct"}

// TrimSourceExt removes any recognized source extension from a filename.
// Returns the original string unchanged if no extension matches.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt returns true if path ends with any recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// CorePathPrefix is the first path segment reserved for built-in modules.
const CorePathPrefix = "core"

// Built-in core record names, reachable as core.unstable.<Name>.
const (
	CoreBlake2sRecord = "blake2s"
)

// Built-in core member (associated function) names.
const (
	CoreHashMember = "hash"
)

// CoreMappingBlake2s is the core-mapping identifier tagged onto the
// synthesized blake2s record.
const CoreMappingBlake2s = "blake2s"

// Magnitude width limits, in bits, for the unsigned "magnitude" types
// (U8, U16, U32) permitted as Pow exponents and Shift right-operands.
const (
	MagnitudeU8  = 8
	MagnitudeU16 = 16
	MagnitudeU32 = 32
)

// ReservedAccountTypeNames and ReservedAlgorithmTypeNames are the built-in
// type-name sets a user record may never collide with (core_type_name_conflict).
var (
	ReservedAccountTypeNames   = []string{"Address", "Signature", "PrivateKey", "ViewKey"}
	ReservedAlgorithmTypeNames = []string{"BHP256", "BHP512", "BHP768", "BHP1024", "Poseidon2", "Poseidon4", "Poseidon8", "Keccak256", "SHA3_256"}
)
