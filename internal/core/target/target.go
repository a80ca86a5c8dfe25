// Package target contains the core domain types for deployable targets.
// This is part of the Functional Core - all functions are pure with no I/O.
package target

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// Name validation errors
	ErrNameRequired     = errors.New("target name is required")
	ErrNameInvalidChars = errors.New("target name can only contain lowercase alphanumeric characters and hyphens")

	// Layout validation errors
	ErrSourceDirRequired     = errors.New("source dir is required")
	ErrBuildDirRequired      = errors.New("build dir is required")
	ErrDeploymentDirRequired = errors.New("deployment dir must be an absolute remote path")

	// Network validation errors
	ErrDomainInvalid          = errors.New("domain name is not a valid DNS name")
	ErrApplicationPortInvalid = errors.New("application port must be between 1 and 65535")
	ErrPortOutOfRange         = errors.New("port must be between 1 and 65535")
	ErrNoPorts                = errors.New("at least one port binding is required")

	// Contact validation errors
	ErrEmailRequired = errors.New("owner email is required for certificate issuance")
)

// ValidationError wraps a validation failure with the offending target name.
type ValidationError struct {
	Target string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("target %q: %v", e.Target, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Target
// =============================================================================

// PortBinding maps a host port to a container port.
// Bindings are ordered; the order is preserved through the compose document.
type PortBinding struct {
	Host      int
	Container int
}

// String returns the binding in compose "host:container" form.
func (p PortBinding) String() string {
	return strconv.Itoa(p.Host) + ":" + strconv.Itoa(p.Container)
}

// Target describes one deployable unit: where its source lives, where it is
// built, and where and how it runs on the remote host.
type Target struct {
	Name            string
	SourceDir       string // local target root (requirements.txt, Dockerfile, src/, docker-compose.yaml)
	BuildDir        string // local artifact output directory
	DeploymentDir   string // absolute path on the remote host
	Domain          string // DNS name the target is served under
	Email           string // owner contact, used for certificate issuance
	ApplicationPort int    // port the application binds inside the container
	Ports           []PortBinding
}

// AppBuildDir returns the build subdirectory holding the copied source tree.
func (t *Target) AppBuildDir() string {
	return filepath.Join(t.BuildDir, "app")
}

// ComposePath returns the compose document path inside the build directory.
func (t *Target) ComposePath() string {
	return filepath.Join(t.BuildDir, "docker-compose.yaml")
}

// NginxBuildDir returns the rendered reverse-proxy config directory inside
// the build directory.
func (t *Target) NginxBuildDir() string {
	return filepath.Join(t.BuildDir, "nginx_config")
}

// DeployedComposePath returns the compose document path on the remote host.
// Remote paths are always POSIX.
func (t *Target) DeployedComposePath() string {
	return path.Join(t.DeploymentDir, "docker-compose.yaml")
}

// DeployedNginxDir returns the uploaded reverse-proxy config directory on
// the remote host.
func (t *Target) DeployedNginxDir() string {
	return path.Join(t.DeploymentDir, "nginx_config")
}

// =============================================================================
// Validation
// =============================================================================

var (
	nameRegex     = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
	dnsLabelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)
)

// Validate checks the descriptor invariants. The first violation is returned
// wrapped in a ValidationError naming the target.
func (t *Target) Validate() error {
	check := func(err error) error {
		return &ValidationError{Target: t.Name, Err: err}
	}

	if t.Name == "" {
		return check(ErrNameRequired)
	}
	if !nameRegex.MatchString(t.Name) {
		return check(ErrNameInvalidChars)
	}
	if t.SourceDir == "" {
		return check(ErrSourceDirRequired)
	}
	if t.BuildDir == "" {
		return check(ErrBuildDirRequired)
	}
	if !path.IsAbs(t.DeploymentDir) {
		return check(ErrDeploymentDirRequired)
	}
	if !ValidDomain(t.Domain) {
		return check(ErrDomainInvalid)
	}
	if t.Email == "" {
		return check(ErrEmailRequired)
	}
	if t.ApplicationPort < 1 || t.ApplicationPort > 65535 {
		return check(ErrApplicationPortInvalid)
	}
	if len(t.Ports) == 0 {
		return check(ErrNoPorts)
	}
	for _, p := range t.Ports {
		if p.Host < 1 || p.Host > 65535 || p.Container < 1 || p.Container > 65535 {
			return check(ErrPortOutOfRange)
		}
	}
	return nil
}

// ValidDomain reports whether s is a valid DNS name.
func ValidDomain(s string) bool {
	if s == "" || len(s) > 253 {
		return false
	}
	labels := strings.Split(s, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if !dnsLabelRegex.MatchString(label) {
			return false
		}
	}
	return true
}

// =============================================================================
// Template Environment
// =============================================================================

// EnvOptions controls how the template environment is derived.
type EnvOptions struct {
	// AllCaps upper-cases every key for shell/Docker-style consumption.
	AllCaps bool
}

// TemplateEnv derives the template environment from the descriptor.
// The environment is constructed fresh per call and carries no global state.
func (t *Target) TemplateEnv(opts EnvOptions) map[string]string {
	exposed := make([]string, 0, len(t.Ports))
	for _, p := range t.Ports {
		exposed = append(exposed, strconv.Itoa(p.Container))
	}

	env := map[string]string{
		"target_name":      t.Name,
		"exposed_ports":    strings.Join(exposed, " "),
		"application_port": strconv.Itoa(t.ApplicationPort),
		"deployment_dir":   t.DeploymentDir,
		"domain_name":      t.Domain,
	}

	if !opts.AllCaps {
		return env
	}
	caps := make(map[string]string, len(env))
	for k, v := range env {
		caps[strings.ToUpper(k)] = v
	}
	return caps
}
