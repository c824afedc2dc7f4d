package task

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/stretchr/testify/require"

	"github.com/scriptkit/go/coreutils"
	"github.com/scriptkit/go/errors"
)

func TestRunBuildsMissingTarget(t *testing.T) {
	fs := coreutils.NewMemory()
	reg := NewRegistry(WithFS(fs))

	_, err := reg.Rule("out.txt", nil, func(target string, deps []string) error {
		return fs.WriteFileString(target, "built")
	})
	require.NoError(t, err)

	require.NoError(t, reg.Run("out.txt"))

	content, err := fs.ReadFileString("out.txt")
	require.NoError(t, err)
	require.Equal(t, "built", content)
}

func TestRunSkipsUpToDateTarget(t *testing.T) {
	dir := t.TempDir()
	fs := coreutils.New(osfs.New(dir))
	reg := NewRegistry(WithFS(fs))

	require.NoError(t, fs.WriteFileString("dep", "d"))
	require.NoError(t, fs.WriteFileString("target", "t"))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "dep"), old, old))

	ran := 0
	_, err := reg.Rule("target", []string{"dep"}, func(string, []string) error {
		ran++
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, reg.Run("target"))
	require.Zero(t, ran)
}

func TestRunRebuildsStaleTarget(t *testing.T) {
	dir := t.TempDir()
	fs := coreutils.New(osfs.New(dir))
	reg := NewRegistry(WithFS(fs))

	require.NoError(t, fs.WriteFileString("dep", "d"))
	require.NoError(t, fs.WriteFileString("target", "t"))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "target"), old, old))

	ran := 0
	_, err := reg.Rule("target", []string{"dep"}, func(string, []string) error {
		ran++
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, reg.Run("target"))
	require.Equal(t, 1, ran)
}

func TestRunBuildsDependencyRulesFirst(t *testing.T) {
	fs := coreutils.NewMemory()
	reg := NewRegistry(WithFS(fs))

	var order []string
	_, err := reg.Rule("final", []string{"mid"}, func(target string, deps []string) error {
		order = append(order, target)
		return fs.WriteFileString(target, "")
	})
	require.NoError(t, err)
	_, err = reg.Rule("mid", nil, func(target string, deps []string) error {
		order = append(order, target)
		return fs.WriteFileString(target, "")
	})
	require.NoError(t, err)

	require.NoError(t, reg.Run("final"))
	require.Equal(t, []string{"mid", "final"}, order)
}

func TestWildcardCaptures(t *testing.T) {
	fs := coreutils.NewMemory()
	require.NoError(t, fs.WriteFileString("foo.c", "int main;"))
	reg := NewRegistry(WithFS(fs))

	var gotTarget string
	var gotDeps []string
	_, err := reg.Rule("*.o", []string{"*.c"}, func(target string, deps []string) error {
		gotTarget = target
		gotDeps = deps
		return fs.WriteFileString(target, "")
	})
	require.NoError(t, err)

	require.NoError(t, reg.Run("foo.o"))
	require.Equal(t, "foo.o", gotTarget)
	require.Equal(t, []string{"foo.c"}, gotDeps)
}

func TestPatternSpecialsAreLiteral(t *testing.T) {
	fs := coreutils.NewMemory()
	reg := NewRegistry(WithFS(fs))

	_, err := reg.Rule("a.b", nil, func(string, []string) error { return nil })
	require.NoError(t, err)

	// "." must not act as a regex wildcard.
	err = reg.Run("aXb")
	require.Error(t, err)
	require.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestMissingDependency(t *testing.T) {
	fs := coreutils.NewMemory()
	reg := NewRegistry(WithFS(fs))

	_, err := reg.Rule("out", []string{"nowhere"}, func(string, []string) error { return nil })
	require.NoError(t, err)

	err = reg.Run("out")
	require.Error(t, err)
	require.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	require.Contains(t, err.Error(), "nowhere")
}

func TestNoRuleForTarget(t *testing.T) {
	reg := NewRegistry(WithFS(coreutils.NewMemory()))

	err := reg.Run("mystery")
	require.Error(t, err)
	require.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestEmptyTargetRunsFirstRule(t *testing.T) {
	fs := coreutils.NewMemory()
	reg := NewRegistry(WithFS(fs))

	ran := ""
	_, err := reg.Rule("first", nil, func(target string, _ []string) error {
		ran = target
		return fs.WriteFileString(target, "")
	})
	require.NoError(t, err)
	_, err = reg.Rule("second", nil, func(string, []string) error {
		t.Fatal("second rule should not run")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, reg.Run(""))
	require.Equal(t, "first", ran)
}

func TestActionFailureIsWrapped(t *testing.T) {
	fs := coreutils.NewMemory()
	reg := NewRegistry(WithFS(fs))

	_, err := reg.Rule("out", nil, func(string, []string) error {
		return errors.New(errors.CodeInternal, "kaboom")
	})
	require.NoError(t, err)

	err = reg.Run("out")
	require.Error(t, err)
	require.Equal(t, errors.CodeTaskFailed, errors.GetCode(err))
}

func TestRuleValidation(t *testing.T) {
	reg := NewRegistry(WithFS(coreutils.NewMemory()))

	_, err := reg.Rule("", nil, func(string, []string) error { return nil })
	require.Error(t, err)
	require.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = reg.Rule("out", nil, nil)
	require.Error(t, err)
	require.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestTargets(t *testing.T) {
	reg := NewRegistry(WithFS(coreutils.NewMemory()))

	noop := func(string, []string) error { return nil }
	_, err := reg.Rule("a", nil, noop)
	require.NoError(t, err)
	_, err = reg.Rule("b/*", nil, noop)
	require.NoError(t, err)

	require.Equal(t, []string{"a", "b/*"}, reg.Targets())
}

func TestSubstitute(t *testing.T) {
	resolved, err := substitute("src/*.c", []string{"foo"})
	require.NoError(t, err)
	require.Equal(t, "src/foo.c", resolved)

	resolved, err = substitute("*/*.h", []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, "a/b.h", resolved)

	_, err = substitute("*.c", nil)
	require.Error(t, err)
	require.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
