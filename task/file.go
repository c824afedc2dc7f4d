package task

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/scriptkit/go/errors"
	"github.com/scriptkit/go/shell"
)

// taskFile is the on-disk shape of a YAML task file:
//
//	tasks:
//	  - target: dist/app
//	    deps: [main.c]
//	    run:
//	      - cc -o $@ $<
type taskFile struct {
	Tasks []taskSpec `yaml:"tasks"`
}

type taskSpec struct {
	Target string   `yaml:"target"`
	Deps   []string `yaml:"deps"`
	Run    []string `yaml:"run"`
}

// LoadFile reads a YAML task file from the registry's filesystem and
// registers one rule per task. Actions are the task's run lines, executed
// through "sh -c" with make-style automatic variables expanded: $@ is the
// target, $< the first dependency and $^ all dependencies.
func (r *Registry) LoadFile(path string) error {
	data, err := r.fs.ReadFile(path)
	if err != nil {
		return err
	}
	return r.Load(data)
}

// Load registers the rules of a YAML task file given its content.
func (r *Registry) Load(data []byte) error {
	var file taskFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "failed to parse task file")
	}
	if len(file.Tasks) == 0 {
		return errors.New(errors.CodeInvalidConfig, "task file defines no tasks")
	}
	for _, spec := range file.Tasks {
		if spec.Target == "" {
			return errors.New(errors.CodeInvalidConfig, "task is missing a target")
		}
		if _, err := r.Rule(spec.Target, spec.Deps, r.script(spec.Run)); err != nil {
			return err
		}
	}
	return nil
}

// script returns an Action running each line through the shell.
func (r *Registry) script(lines []string) Action {
	return func(target string, deps []string) error {
		sh, err := shell.Resolve("sh")
		if err != nil {
			return err
		}
		for _, line := range lines {
			expanded := expandAutomatic(line, target, deps)
			if err := sh.Run(shell.Args("-c", expanded), shell.Logger(r.logger)); err != nil {
				return err
			}
		}
		return nil
	}
}

// expandAutomatic substitutes make's automatic variables into a command line.
func expandAutomatic(line, target string, deps []string) string {
	line = strings.ReplaceAll(line, "$@", target)
	line = strings.ReplaceAll(line, "$^", strings.Join(deps, " "))
	if len(deps) > 0 {
		line = strings.ReplaceAll(line, "$<", deps[0])
	}
	return line
}
