package models

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"gopkg.in/yaml.v3"
)

// scriptDefinitionFunc is the function a model.go descriptor must declare.
// It returns the descriptor as a map with the same keys as model.yaml.
const scriptDefinitionFunc = "ModelDefinition"

// loadScriptDescriptor interprets model.go and converts the returned map
// into a Descriptor through the YAML decoder.
func loadScriptDescriptor(path string) (Descriptor, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, err
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return Descriptor{}, fmt.Errorf("file %s is empty", path)
	}
	// No symbols are exported to the interpreter: descriptors can only build
	// values, not reach the filesystem, network or process.
	i := interp.New(interp.Options{})
	if _, err := i.EvalPath(path); err != nil {
		return Descriptor{}, fmt.Errorf("interpret %s: %w", path, err)
	}
	fn, err := i.Eval(scriptDefinitionFunc)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%s must define %s() (map[string]any, error): %w", path, scriptDefinitionFunc, err)
	}
	def, err := invokeDefinition(fn)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%s: %w", path, err)
	}
	payload, err := yaml.Marshal(def)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%s: %w", path, err)
	}
	return parseDescriptorBytes(payload, path)
}

func invokeDefinition(fn reflect.Value) (map[string]any, error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", scriptDefinitionFunc)
	}
	if fn.Type().NumIn() != 0 {
		return nil, fmt.Errorf("%s must not take arguments", scriptDefinitionFunc)
	}
	results := fn.Call(nil)
	if len(results) == 0 || len(results) > 2 {
		return nil, fmt.Errorf("%s must return (map[string]any[, error])", scriptDefinitionFunc)
	}
	if len(results) == 2 && !results[1].IsNil() {
		if e, ok := results[1].Interface().(error); ok {
			return nil, e
		}
		return nil, fmt.Errorf("%s returned non-error second value", scriptDefinitionFunc)
	}
	def, ok := results[0].Interface().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must return map[string]any, got %s", scriptDefinitionFunc, results[0].Type())
	}
	return def, nil
}
