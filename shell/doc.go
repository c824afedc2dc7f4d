// Package shell runs external commands as first-class values with lazily
// consumable output.
//
// A Command is resolved once from the executable search path and can then be
// launched any number of times. Launching returns a RunningCommand that owns
// the child process and both of its output pipes; the command runs
// concurrently with the caller from the moment Start returns. Output can be
// consumed line by line, all at once, or reduced to a success check, and every
// consumption path drains both pipes through the same multiplex loop so that
// neither stream can stall the child.
//
// # Basic Usage
//
// Resolve a command and read its output:
//
//	ls, err := shell.Resolve("ls")
//	if err != nil {
//		log.Fatal(err)
//	}
//	out, err := ls.Output(shell.Flag("l", true), shell.Args("/tmp"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Print(out)
//
// Iterate output lazily while the command is still producing it:
//
//	rc, err := ps.Start(shell.Opt("o", "pid,comm"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer rc.Close()
//	for line, err := range rc.Lines() {
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(line)
//	}
//
// # Disposal
//
// Every RunningCommand must be closed: by exhausting Lines, by calling Text,
// Bytes, Ok, Wait or Parse, or by a deferred Close. A RunningCommand that
// becomes unreachable while still open is reaped by a best-effort cleanup
// which logs the command's real failure if it had one, or a loud
// discarded-without-waiting diagnostic if it did not. The cleanup is a safety
// net, not the contract: rely on Close.
//
// # Failure model
//
// An exit code of 0 is success. Exit by SIGTERM or SIGINT is treated as
// caller-directed shutdown and reported as success. Any other non-zero exit
// produces an error carrying the fully captured stderr text, surfaced at the
// first point the caller forces evaluation and never eagerly at launch time.
// Ok is the exception: it reports false for a failed command without
// returning an error.
package shell
