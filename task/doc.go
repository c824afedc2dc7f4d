// Package task provides a make-style rule runner for build and maintenance
// scripts.
//
// Rules are registered on an explicit Registry and map a target path to the
// dependencies it is built from and the action that builds it:
//
//	reg := task.NewRegistry()
//	reg.Rule("dist/app", []string{"src/main.c"}, func(target string, deps []string) error {
//		return cc.Run(shell.Opt("o", target), shell.Args(deps[0]))
//	})
//	if err := reg.Run("dist/app"); err != nil {
//		log.Fatal(err)
//	}
//
// Targets may contain "*" wildcards; each wildcard captures part of the
// requested target, and "*" in a dependency is replaced by the corresponding
// capture. A rule runs only when its target is missing or older than one of
// its dependencies, and dependencies that match another rule are brought up
// to date first.
//
// Rules can also be loaded from a YAML task file whose actions are shell
// command lines; see Registry.LoadFile.
package task
