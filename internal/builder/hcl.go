package builder

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/qobs-build/cppgen/internal/msg"
	"github.com/qobs-build/cppgen/project"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// EvalContext exposes the environment to HCL expressions
func (env ConfigEnv) EvalContext() *hcl.EvalContext {
	environ := cty.MapValEmpty(cty.String)
	if len(env.Environ) > 0 {
		vals := make(map[string]cty.Value, len(env.Environ))
		for k, v := range env.Environ {
			vals[k] = cty.StringVal(v)
		}
		environ = cty.MapVal(vals)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"target_os":   cty.StringVal(env.TargetOS),
			"target_arch": cty.StringVal(env.TargetArch),
			"env":         environ,
			"builddir":    cty.StringVal(env.BuildDir),
			"prefix":      cty.StringVal(env.Prefix),
		},
		Functions: map[string]function.Function{
			"concat": stdlib.ConcatFunc,
			"upper":  stdlib.UpperFunc,
			"lower":  stdlib.LowerFunc,
			"format": stdlib.FormatFunc,
			"join":   stdlib.JoinFunc,
			"file":   env.fileFunc(),
		},
	}
}

// fileFunc is ReadFile as an HCL function
func (env ConfigEnv) fileFunc() function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "path", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			contents, err := env.ReadFile(args[0].AsString())
			if err != nil {
				return cty.NilVal, err
			}
			return cty.StringVal(contents), nil
		},
	})
}

// ParseHCLConfig decodes an HCL project description
func ParseHCLConfig(src []byte, filename string, env ConfigEnv) (*Description, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", filename, diags.Error())
	}

	var desc Description
	diags = gohcl.DecodeBody(file.Body, env.EvalContext(), &desc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %s", filename, diags.Error())
	}

	msg.Debug("decoded %s: %d targets, %d header groups", filename, len(desc.Targets), len(desc.InstallHeaders))
	return &desc, nil
}

type hclLoader struct {
	path string
	env  ConfigEnv
}

func (l *hclLoader) Load(toolchain project.Toolchain) (*project.Project, error) {
	src, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}
	desc, err := ParseHCLConfig(src, l.path, l.env)
	if err != nil {
		return nil, err
	}
	return desc.Evaluate(toolchain, l.env)
}

func (l *hclLoader) Sources() []string { return l.env.Sources() }
