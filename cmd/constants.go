package cmd

// DefaultProjectConfigFilename describes the default config filename for a given project folder.
const DefaultProjectConfigFilename = "ccompile.json"

// DefaultCompilationPlatform describes the compilation platform used when no project configuration file is found
// and none was forced via --compile-force-framework. The CLI does not auto-detect the target's platform.
const DefaultCompilationPlatform = "solc"

// TargetFlagDescription is shared between the compile and export commands, both of which accept a compilation
// target positional argument with identical semantics.
const TargetFlagDescription = "directory, source file, export archive, or chain-prefixed contract address to compile"
