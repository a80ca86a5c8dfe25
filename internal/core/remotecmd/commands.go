// Package remotecmd builds the argument lists executed on deployment hosts.
// This is part of the Functional Core - all functions are pure with no I/O.
//
// Commands are passed to a remote shell which joins arguments with spaces,
// so redirections and join operators appear as plain tokens.
package remotecmd

// JoinOp is the operator placed between chained commands.
type JoinOp string

const (
	// OpAlways sequences commands unconditionally: later commands run
	// regardless of earlier exit status.
	OpAlways JoinOp = ";"
	// OpAndThen short-circuits: later commands run only on success.
	OpAndThen JoinOp = "&&"
)

// Chain joins the given commands into one composite command with op between
// each pair.
func Chain(cmds [][]string, op JoinOp) []string {
	var out []string
	for i, cmd := range cmds {
		if i > 0 {
			out = append(out, string(op))
		}
		out = append(out, cmd...)
	}
	return out
}

// CommandExists probes whether an executable is on the remote PATH.
// A non-zero exit means the command is absent, which is the documented
// trigger for a conditional install, not a failure.
func CommandExists(name string) []string {
	return []string{"command", "-v", name, ">/dev/null", "2>&1"}
}

// =============================================================================
// Package Manager
// =============================================================================

// AptGetInstall installs the named packages non-interactively.
func AptGetInstall(pkgs ...string) []string {
	return append([]string{"apt-get", "install", "-y"}, pkgs...)
}

// =============================================================================
// Container Runtime
// =============================================================================

// InstallDocker installs the Docker engine via the upstream convenience
// script.
func InstallDocker() []string {
	return Chain([][]string{
		{"curl", "-fsSL", "https://get.docker.com", "-o", "/tmp/get-docker.sh"},
		{"sh", "/tmp/get-docker.sh"},
	}, OpAndThen)
}

// ComposeBuild builds the service images declared in the compose file.
func ComposeBuild(composePath string) []string {
	return []string{"docker", "compose", "-f", composePath, "build"}
}

// ComposeUp brings the compose stack up detached.
func ComposeUp(composePath string) []string {
	return []string{"docker", "compose", "-f", composePath, "up", "-d"}
}

// ComposeDown brings the compose stack down.
func ComposeDown(composePath string) []string {
	return []string{"docker", "compose", "-f", composePath, "down"}
}

// =============================================================================
// System Services
// =============================================================================

// ServiceStart starts a system service.
func ServiceStart(name string) []string {
	return []string{"service", name, "start"}
}

// ServiceReload reloads a system service's configuration.
func ServiceReload(name string) []string {
	return []string{"service", name, "reload"}
}

// Remove deletes the given remote paths.
func Remove(paths ...string) []string {
	return append([]string{"rm", "-f"}, paths...)
}

// CopyRecursive copies src into dst on the remote host.
func CopyRecursive(src, dst string) []string {
	return []string{"cp", "-r", src, dst}
}
