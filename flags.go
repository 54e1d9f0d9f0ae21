package cyext

import "strings"

// Environment variables consumed by DeriveFlags.
const (
	// EnvCxxFlags holds a space-separated list of extra compiler flags.
	EnvCxxFlags = "FOLLY_PYTHON_CXX_FLAGS"

	// EnvCondaPrefix points at a conda installation whose include/ and
	// lib/ directories are added to the search paths.
	EnvCondaPrefix = "CONDA_PREFIX"

	// EnvSanitizer enables AddressSanitizer instrumentation when set to
	// any non-empty value. The value itself is ignored.
	EnvSanitizer = "CXX_SANITIZER"
)

// baseLibraries are linked into every extension module.
var baseLibraries = []string{"glog", "folly", "folly_python_cpp"}

// FlagSet is the compiler and linker configuration derived from the
// environment. It feeds Extension construction; see StandardExtensions.
type FlagSet struct {
	CompileArgs []string // Extra compiler flags
	IncludeDirs []string // Header search paths
	LibraryDirs []string // Library search paths
	Libraries   []string // Native libraries to link
}

// SplitFlags tokenizes a space-separated flag string.
//
// The string is split on single spaces and empty tokens are dropped, so
// runs of spaces and leading/trailing whitespace do not produce empty
// flags: " -O2  -g " yields ["-O2", "-g"].
func SplitFlags(s string) []string {
	var flags []string
	for _, f := range strings.Split(s, " ") {
		if f != "" {
			flags = append(flags, f)
		}
	}
	return flags
}

// DeriveFlags computes the FlagSet for the current environment.
//
// The getenv parameter is the environment accessor, normally os.Getenv.
// Taking it as a parameter keeps the derivation a pure function of the
// environment: calling DeriveFlags twice with the same environment yields
// identical flag lists, with no hidden accumulation across invocations.
//
// Derivation rules:
//   - FOLLY_PYTHON_CXX_FLAGS is tokenized via SplitFlags into CompileArgs.
//   - CONDA_PREFIX, when set, contributes <prefix>/include to IncludeDirs
//     and <prefix>/lib to LibraryDirs.
//   - The library list always starts from glog, folly, folly_python_cpp.
//   - CXX_SANITIZER, when set to any non-empty value, appends
//     -fsanitize=address and -fno-omit-frame-pointer to CompileArgs and
//     asan to Libraries.
func DeriveFlags(getenv func(string) string) *FlagSet {
	fs := &FlagSet{
		CompileArgs: SplitFlags(getenv(EnvCxxFlags)),
		Libraries:   append([]string{}, baseLibraries...),
	}

	if conda := getenv(EnvCondaPrefix); conda != "" {
		fs.IncludeDirs = append(fs.IncludeDirs, conda+"/include")
		fs.LibraryDirs = append(fs.LibraryDirs, conda+"/lib")
	}

	if getenv(EnvSanitizer) != "" {
		fs.CompileArgs = append(fs.CompileArgs, "-fsanitize=address", "-fno-omit-frame-pointer")
		fs.Libraries = append(fs.Libraries, "asan")
	}

	return fs
}

// StandardExtensions returns the two standard binding targets, folly.iobuf
// and folly.executor, configured from the given FlagSet.
//
// The target list always contains exactly these two entries regardless of
// environment state; the environment only affects their flags.
func StandardExtensions(fs *FlagSet) []Extension {
	targets := []struct {
		name   string
		source string
	}{
		{"folly.iobuf", "folly/iobuf.pyx"},
		{"folly.executor", "folly/executor.pyx"},
	}

	extensions := make([]Extension, 0, len(targets))
	for _, t := range targets {
		extensions = append(extensions, Extension{
			Name:        t.name,
			Source:      t.source,
			Libraries:   append([]string{}, fs.Libraries...),
			LibraryDirs: append([]string{}, fs.LibraryDirs...),
			IncludeDirs: append([]string{}, fs.IncludeDirs...),
			CompileArgs: append([]string{}, fs.CompileArgs...),
		})
	}
	return extensions
}
