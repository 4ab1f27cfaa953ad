package config

const SourceFileExt = ".mc"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".mc", ".minicc"}

// EntryFuncName is the synthetic function collecting top-level statements
// for immediate execution.
const EntryFuncName = "_start"

// PrintFuncName is the extern pre-registered into the engine's symbol
// namespace: print(double) -> double.
const PrintFuncName = "print"

// DefaultEngine selects the execution engine when none is configured.
const DefaultEngine = "interp"
