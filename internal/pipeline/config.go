package pipeline

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/circuitlang/midend/internal/ast"
	"github.com/circuitlang/midend/internal/diagnostics"
	"github.com/circuitlang/midend/internal/modules"
)

// FileConfig is the on-disk shape of a pass-driver configuration file:
// which diagnostic mode to run in, and whether to resolve `core.*`
// imports at all. It's kept separate from
// Config so callers embedding the driver in a larger tool can construct a
// Config directly without ever touching YAML.
type FileConfig struct {
	Mode           string `yaml:"mode"`            // "accumulate" or "fail_fast"
	ResolveImports bool   `yaml:"resolve_imports"`
}

// ParseFileConfig decodes a pass-driver config file. An empty or
// unrecognized Mode defaults to ModeAccumulate.
func ParseFileConfig(data []byte) (*FileConfig, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}

// DiagnosticsMode translates the textual mode field into a diagnostics.Mode.
func (fc *FileConfig) DiagnosticsMode() diagnostics.Mode {
	if fc.Mode == "fail_fast" {
		return diagnostics.ModeFailFast
	}
	return diagnostics.ModeAccumulate
}

// ToConfig builds a pipeline Config from fc. When ResolveImports is false,
// fallback is discarded in favor of a NullResolver, so `core.*` imports
// (and everything else) fail to resolve rather than reach fallback.
func (fc *FileConfig) ToConfig(fallback modules.Resolver) Config {
	resolver := fallback
	if !fc.ResolveImports {
		resolver = modules.NullResolver{}
	}
	return Config{Mode: fc.DiagnosticsMode(), Resolver: resolver}
}

// RunFile parses a YAML pass-driver config, builds a Config from it around
// fallback (used only when the file asks for import resolution), and runs
// the pipeline, rendering any halting diagnostics to out.
func RunFile(prog *ast.Program, configYAML []byte, fallback modules.Resolver, out io.Writer) (*Result, *diagnostics.Handler, error) {
	fc, err := ParseFileConfig(configYAML)
	if err != nil {
		return nil, nil, err
	}
	cfg := fc.ToConfig(fallback)
	cfg.Render = out
	result, diags := Run(prog, cfg)
	return result, diags, nil
}
