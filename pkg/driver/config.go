package driver

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Options controls one compilation: where the output goes, which phases to
// dump, and how noisy the driver's own logging is. CLI flags always win
// over a loaded project file.
type Options struct {
	Output string `toml:"output"`

	DumpTokens  bool `toml:"dump_tokens"`
	DumpAST     bool `toml:"dump_ast"`
	DumpSymbols bool `toml:"dump_symbols"`
	DumpCode    bool `toml:"dump_code"`

	Optimize bool `toml:"optimize"` // reserved, accepted, no effect
	WarnLevel int `toml:"warn_level"`
}

// DefaultOptions returns the driver's baseline settings: output path
// out.xc, no dump flags, warning level 0.
func DefaultOptions() Options {
	return Options{Output: "out.xc", WarnLevel: 0}
}

// projectConfigName is the project file the driver looks for in the
// current directory, mirroring the itsfuad-Ferret-Compiler pack's
// .ferret.toml convention.
const projectConfigName = ".xinuc.toml"

// LoadProjectConfig reads projectConfigName if it exists and merges it
// into base, returning the merged Options. A missing file is not an
// error; base is returned unchanged. Any field set on the command line
// must be applied by the caller after LoadProjectConfig returns, since
// this function has no way to distinguish an explicit CLI flag from an
// Options zero value.
func LoadProjectConfig(base Options) (Options, error) {
	data, err := os.ReadFile(projectConfigName)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, errors.WithMessage(err, "reading project config")
	}

	merged := base
	if _, err := toml.Decode(string(data), &merged); err != nil {
		return base, errors.WithMessage(err, "parsing "+projectConfigName)
	}
	return merged, nil
}
