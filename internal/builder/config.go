package builder

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/pelletier/go-toml/v2"
	"github.com/qobs-build/cppgen/project"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// mergeStructs merges the fields of the src struct into the dst struct
func mergeStructs(dst, src any) error {
	dstVal := reflect.ValueOf(dst)
	if dstVal.Kind() != reflect.Pointer || dstVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dst must be a pointer to a struct")
	}

	dstElem := dstVal.Elem()
	srcVal := reflect.ValueOf(src)

	if srcVal.Kind() == reflect.Pointer {
		srcVal = srcVal.Elem()
	}

	if srcVal.Kind() != reflect.Struct {
		return fmt.Errorf("src must be a struct or a pointer to a struct")
	}

	if dstElem.Type() != srcVal.Type() {
		return fmt.Errorf("dst and src must be of the same struct type")
	}

	for i := 0; i < srcVal.NumField(); i++ {
		srcField := srcVal.Field(i)
		dstField := dstElem.Field(i)

		if !dstField.CanSet() {
			continue
		}

		switch dstField.Kind() {
		case reflect.Slice:
			if !srcField.IsNil() {
				dstField.Set(reflect.AppendSlice(dstField, srcField))
			}
		case reflect.Bool:
			dstField.SetBool(dstField.Bool() || srcField.Bool())
		default:
			if !srcField.IsZero() {
				dstField.Set(srcField)
			}
		}
	}

	return nil
}

// decodeStrict re-encodes a raw table and decodes it into dst, rejecting unknown keys
func decodeStrict(data any, dst any) error {
	b, err := toml.Marshal(data)
	if err != nil {
		return err
	}
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return errors.New(serr.String())
		}
		return err
	}
	return nil
}

// decodeConditional decodes a table into dst. Sub-tables keyed by a boolean expression are
// merged on top of the base fields when the expression is true, in sorted key order.
func decodeConditional[T any](table map[string]any, name string, dst *T, env ConfigEnv) error {
	baseFields := make(map[string]any)
	conditionalFields := make(map[string]map[string]any)

	for key, val := range table {
		if subMap, ok := val.(map[string]any); ok {
			_, err := expr.Compile(key, expr.Env(env), expr.AsBool())
			if err == nil {
				conditionalFields[key] = subMap
				continue
			}
		}
		baseFields[key] = val
	}

	if len(baseFields) > 0 {
		if err := decodeStrict(baseFields, dst); err != nil {
			return fmt.Errorf("failed to parse [%s] section: %w", name, err)
		}
	}

	expressions := make([]string, 0, len(conditionalFields))
	for expression := range conditionalFields {
		expressions = append(expressions, expression)
	}
	slices.Sort(expressions)

	for _, expression := range expressions {
		program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
		if err != nil {
			return fmt.Errorf("failed to compile expression for [%s.%q]: %w", name, expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return fmt.Errorf("failed to run expression for [%s.%q]: %w", name, expression, err)
		}

		if matched, ok := result.(bool); !ok || !matched {
			continue
		}

		var condSection T
		if err := decodeStrict(conditionalFields[expression], &condSection); err != nil {
			return fmt.Errorf("failed to parse conditional section [%s.%q]: %w", name, expression, err)
		}
		if err := mergeStructs(dst, condSection); err != nil {
			return fmt.Errorf("failed to merge conditional section [%s.%q]: %w", name, expression, err)
		}
	}

	return nil
}

// unmarshalConditionalSection decodes the optional table rawCfg[name]
func unmarshalConditionalSection[T any](rawCfg map[string]any, name string, env ConfigEnv) (*T, error) {
	sectionData, ok := rawCfg[name]
	if !ok {
		return nil, nil
	}

	sectionMap, ok := sectionData.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid [%s] section format: expected a table", name)
	}

	dst := new(T)
	if err := decodeConditional(sectionMap, name, dst, env); err != nil {
		return nil, err
	}
	return dst, nil
}

// unmarshalConditionalArray decodes the optional array of tables rawCfg[name]
func unmarshalConditionalArray[T any](rawCfg map[string]any, name string, env ConfigEnv) ([]T, error) {
	arrayData, ok := rawCfg[name]
	if !ok {
		return nil, nil
	}

	items, ok := arrayData.([]any)
	if !ok {
		return nil, fmt.Errorf("invalid [[%s]] format: expected an array of tables", name)
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		table, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid [[%s]] entry #%d: expected a table", name, i+1)
		}
		var dst T
		if err := decodeConditional(table, fmt.Sprintf("%s#%d", name, i+1), &dst, env); err != nil {
			return nil, err
		}
		out = append(out, dst)
	}
	return out, nil
}

var knownSections = []string{"compiler", "project", "target", "install-headers"}

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// evaluateString finds and evaluates all {{...}} expressions in a string
func evaluateString(s string, env ConfigEnv) (string, error) {
	matches := exprRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var builder strings.Builder
	lastIndex := 0

	for _, matchIndexes := range matches {
		fullMatchStart := matchIndexes[0]
		fullMatchEnd := matchIndexes[1]
		expressionStart := matchIndexes[2]
		expressionEnd := matchIndexes[3]

		builder.WriteString(s[lastIndex:fullMatchStart])

		expression := strings.TrimSpace(s[expressionStart:expressionEnd])
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return "", fmt.Errorf("failed to compile expression %q: %w", expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return "", fmt.Errorf("failed to run expression %q: %w", expression, err)
		}

		builder.WriteString(fmt.Sprintf("%v", result))
		lastIndex = fullMatchEnd
	}

	builder.WriteString(s[lastIndex:])

	return builder.String(), nil
}

// processExpressions recursively walks the parsed data and evaluates expressions in strings
func processExpressions(data any, env ConfigEnv) (any, error) {
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			processedVal, err := processExpressions(val, env)
			if err != nil {
				return nil, err
			}
			v[key] = processedVal
		}
		return v, nil
	case []any:
		for i, item := range v {
			processedItem, err := processExpressions(item, env)
			if err != nil {
				return nil, err
			}
			v[i] = processedItem
		}
		return v, nil
	case string:
		return evaluateString(v, env)
	default:
		return data, nil
	}
}

// stringifyNumbers rewrites numeric values of keys as strings, in table and in its
// conditional sub-tables, so `standard = 17` reads like `standard = "17"`.
func stringifyNumbers(table map[string]any, keys ...string) {
	for key, val := range table {
		switch v := val.(type) {
		case map[string]any:
			stringifyNumbers(v, keys...)
		case int, int64, uint64, float64:
			if slices.Contains(keys, key) {
				table[key] = fmt.Sprint(v)
			}
		}
	}
}

// decodeDescription turns a raw table tree (from TOML or YAML) into a Description
func decodeDescription(rawConfig map[string]any, env ConfigEnv) (*Description, error) {
	for key := range rawConfig {
		if !slices.Contains(knownSections, key) {
			return nil, fmt.Errorf("unknown section [%s], expected one of: %s", key, strings.Join(knownSections, ", "))
		}
	}

	processedConfig, err := processExpressions(rawConfig, env)
	if err != nil {
		return nil, fmt.Errorf("error processing expressions in config: %w", err)
	}
	rawConfig = processedConfig.(map[string]any)

	if compiler, ok := rawConfig["compiler"].(map[string]any); ok {
		stringifyNumbers(compiler, "standard")
	}

	desc := new(Description)
	if desc.Compiler, err = unmarshalConditionalSection[CompilerSection](rawConfig, "compiler", env); err != nil {
		return nil, err
	}
	if desc.Project, err = unmarshalConditionalSection[ProjectSection](rawConfig, "project", env); err != nil {
		return nil, err
	}
	if desc.Targets, err = unmarshalConditionalArray[TargetSection](rawConfig, "target", env); err != nil {
		return nil, err
	}
	if desc.InstallHeaders, err = unmarshalConditionalArray[InstallHeadersSection](rawConfig, "install-headers", env); err != nil {
		return nil, err
	}

	return desc, nil
}

func ParseConfig(rdr io.Reader, env ConfigEnv) (*Description, error) {
	var rawConfig map[string]any
	dec := toml.NewDecoder(rdr)
	if err := dec.Decode(&rawConfig); err != nil {
		if derr, ok := err.(*toml.DecodeError); ok {
			return nil, errors.New(derr.String())
		}
		return nil, err
	}
	return decodeDescription(rawConfig, env)
}

// ParseConfigFromFile parses a TOML project description from a filepath
func ParseConfigFromFile(path string, env ConfigEnv) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseConfig(bufio.NewReader(f), env)
}

type tomlLoader struct {
	path string
	env  ConfigEnv
}

func (l *tomlLoader) Load(toolchain project.Toolchain) (*project.Project, error) {
	desc, err := ParseConfigFromFile(l.path, l.env)
	if err != nil {
		return nil, err
	}
	return desc.Evaluate(toolchain, l.env)
}

func (l *tomlLoader) Sources() []string { return l.env.Sources() }

//
// expr-lang helpers
//

// dependencies collects the files an expression read, shared by every copy of a ConfigEnv
type dependencies struct {
	files []string
}

func (d *dependencies) add(path string) {
	if !slices.Contains(d.files, path) {
		d.files = append(d.files, path)
	}
}

type ConfigEnv struct {
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	Environ    map[string]string `expr:"environ"`
	BuildDir   string            `expr:"builddir"`
	Prefix     string            `expr:"prefix"`
	basedir    string
	deps       *dependencies
}

func NewConfigEnv(basedir string) ConfigEnv {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if i := strings.Index(e, "="); i >= 0 {
			environ[e[:i]] = e[i+1:]
		}
	}

	return ConfigEnv{
		TargetOS:   runtime.GOOS,
		TargetArch: runtime.GOARCH,
		Environ:    environ,
		BuildDir:   project.BuildDir(),
		Prefix:     project.InstallationPrefix(),
		basedir:    basedir,
		deps:       &dependencies{},
	}
}

// Sources lists the root-relative files read through ReadFile, sorted
func (env ConfigEnv) Sources() []string {
	if env.deps == nil {
		return nil
	}
	files := slices.Clone(env.deps.files)
	slices.Sort(files)
	return files
}

// resolve maps a description-relative path into the package directory
func (env ConfigEnv) resolve(path string) (string, string, error) {
	fullPath := filepath.Join(env.basedir, path)
	rel, err := filepath.Rel(env.basedir, fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("path %q is outside of package directory %q", path, env.basedir)
	}
	return fullPath, filepath.ToSlash(rel), nil
}

func (env ConfigEnv) Patch(path, patchText string) (bool, error) {
	fullPath, _, err := env.resolve(path)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return false, err
	}
	origText := string(data)

	dmp := diffmatchpatch.New()
	patches, err := dmp.PatchFromText(patchText)
	if err != nil {
		return false, err
	}
	patchedText, results := dmp.PatchApply(patches, origText)
	if !slices.Contains(results, true) {
		return false, nil // nothing was applied, nothing to write
	}

	if err := os.WriteFile(fullPath, []byte(patchedText), 0644); err != nil {
		return false, err
	}
	return true, nil
}

// ReadFile returns the contents of a file in the package directory and makes the
// generated graph depend on it.
func (env ConfigEnv) ReadFile(path string) (string, error) {
	fullPath, rel, err := env.resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", err
	}
	if env.deps != nil {
		env.deps.add(rel)
	}

	return strings.TrimRight(string(data), "\r\n"), nil
}
