package procpool

import (
	"github.com/flywheel-systems/procpool/internal/blobstore"
	"github.com/flywheel-systems/procpool/internal/namedcache"
)

// ProcessSpec is the full description of a worker a caller wants
// acquired: everything that, if it changed, would require a fresh
// worker instead of reusing one already running. spec.md §3 describes
// this as "the process description" whose digesting is assumed stable
// and out of scope; ProcessSpec is the concrete struct that description
// takes in this module.
type ProcessSpec struct {
	// Name identifies the worker kind for logging and fingerprinting
	// (e.g. a description of the JVM/classpath combination).
	Name string

	// Executable is argv[0]; Args is the remaining argv.
	Executable string
	Args       []string

	// Env is the child's environment. The child inherits nothing from
	// the pool process beyond this (spec.md §6).
	Env map[string]string

	// InputFiles is materialized into the workdir before spawn.
	InputFiles blobstore.Tree

	// NamedCaches are mounted into the workdir before spawn, alongside
	// InputFiles.
	NamedCaches []namedcache.Mount

	// StartupOptions are any other options that affect server identity
	// without appearing in Args (e.g. a JDK version selector).
	StartupOptions []string
}

// argv returns the full argv, executable included, for spawning. The
// fingerprint takes Executable and Args as separate inputs instead.
func (s ProcessSpec) argv() []string {
	argv := make([]string, 0, len(s.Args)+1)
	argv = append(argv, s.Executable)
	argv = append(argv, s.Args...)
	return argv
}
