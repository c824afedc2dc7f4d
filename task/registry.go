package task

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/scriptkit/go/coreutils"
	"github.com/scriptkit/go/errors"
)

// Action builds a target from its dependencies. The target and dependency
// paths are the concrete values after wildcard substitution.
type Action func(target string, deps []string) error

// Rule maps a target pattern to its dependencies and the action that builds it.
type Rule struct {
	target  string
	deps    []string
	action  Action
	pattern *regexp.Regexp
}

// Target returns the rule's target pattern.
func (r *Rule) Target() string {
	return r.target
}

// Registry holds an ordered set of rules. Targets are matched against rules
// in registration order, so more specific rules should be registered first.
type Registry struct {
	fs     *coreutils.FS
	logger *slog.Logger
	rules  []*Rule
}

// Option configures a Registry.
type Option func(*Registry)

// WithFS sets the filesystem used for existence and staleness checks.
// The default is the local filesystem.
func WithFS(fs *coreutils.FS) Option {
	return func(r *Registry) {
		r.fs = fs
	}
}

// WithLogger sets the logger used for progress reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty rule registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		fs:     coreutils.NewLocal(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rule registers a rule for the given target pattern. Dependencies may
// contain "*" wildcards, which are substituted with the captures of the
// target pattern when the rule runs.
func (r *Registry) Rule(target string, deps []string, action Action) (*Rule, error) {
	if target == "" {
		return nil, errors.New(errors.CodeInvalidInput, "rule target must not be empty")
	}
	if action == nil {
		return nil, errors.Newf(errors.CodeInvalidInput, "rule %s has no action", target)
	}
	pattern, err := regexp.Compile("^" + translate(target) + "$")
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidInput, "invalid target pattern %s", target)
	}
	rule := &Rule{
		target:  target,
		deps:    deps,
		action:  action,
		pattern: pattern,
	}
	r.rules = append(r.rules, rule)
	return rule, nil
}

// Targets returns the target patterns of all registered rules in
// registration order.
func (r *Registry) Targets() []string {
	targets := make([]string, len(r.rules))
	for i, rule := range r.rules {
		targets[i] = rule.target
	}
	return targets
}

// Run brings the given target up to date, first bringing its rule-provided
// dependencies up to date recursively. An empty target runs the first
// registered rule, mirroring make's default-goal convention. Targets whose
// file already exists and is newer than every dependency are skipped.
func (r *Registry) Run(target string) error {
	if target == "" {
		if len(r.rules) == 0 {
			return errors.New(errors.CodeInvalidConfig, "no rules registered")
		}
		_, err := r.run(r.rules[0], r.rules[0].target)
		return err
	}
	rule := r.find(target)
	if rule == nil {
		return errors.Newf(errors.CodeNotFound, "no rule matches target: %s", target)
	}
	_, err := r.run(rule, target)
	return err
}

// find returns the first registered rule whose pattern matches the target.
func (r *Registry) find(target string) *Rule {
	for _, rule := range r.rules {
		if rule.pattern.MatchString(target) {
			return rule
		}
	}
	return nil
}

// run executes the rule for a concrete target if it is out of date and
// reports whether the action ran.
func (r *Registry) run(rule *Rule, target string) (bool, error) {
	match := rule.pattern.FindStringSubmatch(target)
	if match == nil {
		return false, errors.Newf(errors.CodeInternal, "rule %s does not match target %s", rule.target, target)
	}
	captures := match[1:]

	deps := make([]string, len(rule.deps))
	for i, dep := range rule.deps {
		resolved, err := substitute(dep, captures)
		if err != nil {
			return false, errors.Wrapf(err, errors.CodeInvalidConfig, "rule %s has invalid dependency %s", rule.target, dep)
		}
		deps[i] = resolved
	}

	stale, err := r.outdated(target, deps)
	if err != nil {
		return false, err
	}
	if !stale {
		return false, nil
	}

	r.logger.Info("make target", slog.String("target", target))
	if err := rule.action(target, deps); err != nil {
		return false, errors.Wrapf(err, errors.CodeTaskFailed, "failed to make %s", target)
	}
	return true, nil
}

// outdated brings rule-provided dependencies up to date and reports whether
// the target needs rebuilding. A dependency that neither matches a rule nor
// exists as a file is an error.
func (r *Registry) outdated(target string, deps []string) (bool, error) {
	exists := r.fs.Exists(target)
	stale := !exists
	for _, dep := range deps {
		switch rule := r.find(dep); {
		case rule != nil:
			ran, err := r.run(rule, dep)
			if err != nil {
				return false, err
			}
			stale = stale || ran
		case r.fs.Exists(dep):
			if exists && !stale {
				newer, err := r.newer(dep, target)
				if err != nil {
					return false, err
				}
				stale = newer
			}
		default:
			return false, errors.Newf(errors.CodeNotFound, "no rule or file provides %s, needed by %s", dep, target)
		}
	}
	return stale, nil
}

// newer reports whether file1 was modified after file2.
func (r *Registry) newer(file1, file2 string) (bool, error) {
	t1, err := r.fs.ModTime(file1)
	if err != nil {
		return false, err
	}
	t2, err := r.fs.ModTime(file2)
	if err != nil {
		return false, err
	}
	return t1.After(t2), nil
}

// regexSpecials are the characters escaped by translate. "*" is absent on
// purpose: it is the wildcard.
const regexSpecials = `.^$+?{}[]\|()`

// translate converts a target pattern into a regular expression body where
// each "*" becomes a capture group.
func translate(pattern string) string {
	var sb strings.Builder
	for _, c := range pattern {
		switch {
		case c == '*':
			sb.WriteString("(.*)")
		case strings.ContainsRune(regexSpecials, c):
			sb.WriteByte('\\')
			sb.WriteRune(c)
		default:
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// substitute replaces each "*" in a dependency pattern with the
// corresponding target capture.
func substitute(dep string, captures []string) (string, error) {
	parts := strings.Split(dep, "*")
	if len(parts)-1 > len(captures) {
		return "", errors.Newf(errors.CodeInvalidInput, "dependency %s needs %d captures, target provides %d", dep, len(parts)-1, len(captures))
	}
	var sb strings.Builder
	for i, part := range parts {
		if i > 0 {
			sb.WriteString(captures[i-1])
		}
		sb.WriteString(part)
	}
	return sb.String(), nil
}
